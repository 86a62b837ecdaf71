package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nangoso/maple-price-tracker/internal/metrics"
)

const (
	feedDefaultBaseURL = "https://api.mapleland.gg/trade"
	imageBaseURL       = "https://maplestory.io/api/gms/200/item/"
	feedDefaultTimeout = 10 * time.Second

	// The feed rejects requests without a browser-looking UA and referer.
	feedUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	feedReferer   = "https://mapleland.gg/"
)

// Listing is one raw trade posting from the upstream feed. Unknown fields in
// the payload are ignored.
type Listing struct {
	ItemName    string `json:"itemName"`
	ItemCode    int    `json:"itemCode"`
	Price       int64  `json:"itemPrice"`
	TradeType   string `json:"tradeType"`   // "buy" or "sell"
	TradeStatus bool   `json:"tradeStatus"` // listing currently active
	URL         string `json:"url"`
	Comment     string `json:"comment"`
}

// ItemInfo is the display metadata discovered for an item code.
type ItemInfo struct {
	Name     string
	ImageURL string
}

// FeedService fetches trade postings from the marketplace feed. Transport and
// parse failures are absorbed here: callers of FetchSellListings always get a
// well-formed (possibly empty) slice, so one item's upstream trouble cannot
// abort a collection batch.
type FeedService struct {
	client  *resty.Client
	baseURL string
}

func NewFeedService(baseURL string) *FeedService {
	if baseURL == "" {
		baseURL = feedDefaultBaseURL
	}

	client := resty.New().
		SetTimeout(feedDefaultTimeout).
		SetHeader("User-Agent", feedUserAgent).
		SetHeader("Referer", feedReferer)

	return &FeedService{
		client:  client,
		baseURL: baseURL,
	}
}

// FetchSellListings returns the active sell listings for an item code, or an
// empty slice on any failure. Failures are logged and counted, never raised.
func (s *FeedService) FetchSellListings(ctx context.Context, itemCode string) []Listing {
	listings, err := s.fetchListings(ctx, itemCode)
	if err != nil {
		log.Printf("Feed: failed to fetch listings for item %s: %v", itemCode, err)
		return nil
	}

	sells := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.TradeType == "sell" && l.TradeStatus {
			sells = append(sells, l)
		}
	}

	log.Printf("Feed: fetched %d active sell listings for item %s", len(sells), itemCode)
	return sells
}

// FetchItemInfo discovers an item's display name from its first listing and
// builds the icon URL. Used when registering a new item in the catalog.
func (s *FeedService) FetchItemInfo(ctx context.Context, itemCode string) (*ItemInfo, error) {
	listings, err := s.fetchListings(ctx, itemCode)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 || listings[0].ItemName == "" {
		return nil, fmt.Errorf("no trade listings found for item %s", itemCode)
	}

	return &ItemInfo{
		Name:     listings[0].ItemName,
		ImageURL: imageBaseURL + itemCode + "/icon?resize=2",
	}, nil
}

func (s *FeedService) fetchListings(ctx context.Context, itemCode string) ([]Listing, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("itemCode", itemCode).
		SetHeader("Accept", "application/json").
		Get(s.baseURL)
	if err != nil {
		metrics.FeedRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("feed request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		metrics.FeedRequestsTotal.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode())
	}

	var listings []Listing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		metrics.FeedRequestsTotal.WithLabelValues("parse_error").Inc()
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	metrics.FeedRequestsTotal.WithLabelValues("success").Inc()
	return listings, nil
}
