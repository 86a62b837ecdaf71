package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// ErrItemExists is returned when registering an item code that is already
// tracked.
var ErrItemExists = errors.New("item already tracked")

// ItemDetail is the full read-side view of one item: display metadata plus
// today's aggregates.
type ItemDetail struct {
	ItemCode    string      `json:"item_code"`
	Name        string      `json:"name"`
	ImageURL    string      `json:"image_url"`
	ViewCount   int64       `json:"view_count"`
	TrackedFrom string      `json:"tracked_from"`
	TodayPrice  *TodayPrice `json:"today_price"`
}

// CatalogService manages the tracked-item catalog and serves the item read
// endpoints.
type CatalogService struct {
	feed       *FeedService
	items      *store.ItemStore
	aggregator *Aggregator
}

func NewCatalogService(feed *FeedService, items *store.ItemStore, aggregator *Aggregator) *CatalogService {
	return &CatalogService{feed: feed, items: items, aggregator: aggregator}
}

// RegisterItem starts tracking a new item code. Name and icon come from the
// feed; a code with no listings cannot be registered.
func (s *CatalogService) RegisterItem(ctx context.Context, itemCode string) (*models.Item, error) {
	exists, err := s.items.ExistsByCode(itemCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrItemExists
	}

	info, err := s.feed.FetchItemInfo(ctx, itemCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up item %s: %w", itemCode, err)
	}

	item := &models.Item{
		ItemCode: itemCode,
		Name:     info.Name,
		ImageURL: info.ImageURL,
	}
	if err := s.items.Create(item); err != nil {
		return nil, err
	}

	log.Printf("Catalog: registered item %s (%s)", item.Name, itemCode)
	return item, nil
}

// ItemDetail returns one item with today's aggregates and bumps its view
// counter.
func (s *CatalogService) ItemDetail(itemCode string) (*ItemDetail, error) {
	item, err := s.items.FindByCode(itemCode)
	if err != nil {
		return nil, err
	}

	if err := s.items.IncrementViewCount(itemCode); err != nil {
		log.Printf("Catalog: failed to bump view count for %s: %v", itemCode, err)
	}

	today := time.Now().Format(models.DateFormat)
	todayPrice, err := s.aggregator.TodayPrice(item.ID, today)
	if err != nil {
		return nil, err
	}

	return &ItemDetail{
		ItemCode:    item.ItemCode,
		Name:        item.Name,
		ImageURL:    item.ImageURL,
		ViewCount:   item.ViewCount + 1,
		TrackedFrom: item.CreatedAt.Format(models.DateFormat),
		TodayPrice:  todayPrice,
	}, nil
}

// PopularItems returns the most-viewed items.
func (s *CatalogService) PopularItems(limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.items.PopularByViews(limit)
}

// ExportItems returns the public catalog list consumed by the frontend
// search index.
func (s *CatalogService) ExportItems() ([]models.ItemExport, error) {
	items, err := s.items.All()
	if err != nil {
		return nil, err
	}

	exports := make([]models.ItemExport, 0, len(items))
	for _, item := range items {
		exports = append(exports, models.ItemExport{
			ItemCode: item.ItemCode,
			Name:     item.Name,
			ImageURL: item.ImageURL,
		})
	}
	return exports, nil
}
