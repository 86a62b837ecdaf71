package store

import (
	"errors"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"gorm.io/gorm"
)

// ErrItemNotFound is returned when an item code is not in the catalog.
var ErrItemNotFound = errors.New("item not found")

// ItemStore persists the tracked-item catalog.
type ItemStore struct {
	db *gorm.DB
}

func NewItemStore(db *gorm.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(item *models.Item) error {
	return s.db.Create(item).Error
}

func (s *ItemStore) FindByCode(itemCode string) (*models.Item, error) {
	var item models.Item
	err := s.db.Where("item_code = ?", itemCode).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemStore) ExistsByCode(itemCode string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Item{}).Where("item_code = ?", itemCode).Count(&count).Error
	return count > 0, err
}

// All returns the full catalog ordered by item code for stable collection
// runs.
func (s *ItemStore) All() ([]models.Item, error) {
	var items []models.Item
	err := s.db.Order("item_code ASC").Find(&items).Error
	return items, err
}

// PopularByViews returns the most-viewed items, excluding never-viewed ones.
func (s *ItemStore) PopularByViews(limit int) ([]models.Item, error) {
	var items []models.Item
	err := s.db.Where("view_count > 0").Order("view_count DESC").Limit(limit).Find(&items).Error
	return items, err
}

// IncrementViewCount bumps an item's view counter atomically in SQL so
// concurrent detail reads never lose an increment.
func (s *ItemStore) IncrementViewCount(itemCode string) error {
	return s.db.Model(&models.Item{}).
		Where("item_code = ?", itemCode).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
