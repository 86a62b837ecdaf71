package services

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

const (
	historyCacheSize = 256
	historyCacheTTL  = 5 * time.Minute
)

// TodayPrice is the current-day aggregate view for an item, including the
// change-rate against yesterday.
type TodayPrice struct {
	Date        string  `json:"date"`
	AvgPrice    int64   `json:"avg_price"`
	MinPrice    int64   `json:"min_price"`
	MaxPrice    int64   `json:"max_price"`
	MedianPrice int64   `json:"median_price"`
	Count       int     `json:"count"`
	ChangeRate  float64 `json:"change_rate"`
}

// Aggregator is the read side: per-day statistics over ACTIVE records and
// day-over-day change rates. It never writes. History responses are cached
// for a few minutes; today's numbers shift as collection runs land, so the
// cache trades a little freshness for chart-endpoint load.
type Aggregator struct {
	prices       *store.PriceStore
	historyCache *expirable.LRU[string, []models.DailyStats]
}

func NewAggregator(prices *store.PriceStore) *Aggregator {
	return &Aggregator{
		prices:       prices,
		historyCache: expirable.NewLRU[string, []models.DailyStats](historyCacheSize, nil, historyCacheTTL),
	}
}

// DailyStats returns one day's aggregates over ACTIVE records, or nil when
// the day has none.
func (a *Aggregator) DailyStats(itemID uint, date string) (*models.DailyStats, error) {
	return a.prices.DailyStats(itemID, date)
}

// TodayPrice returns the aggregate view for one day plus its change-rate.
// Returns nil when the day has no active records.
func (a *Aggregator) TodayPrice(itemID uint, date string) (*TodayPrice, error) {
	stats, err := a.prices.DailyStats(itemID, date)
	if err != nil || stats == nil {
		return nil, err
	}

	changeRate, err := a.ChangeRate(itemID, date)
	if err != nil {
		return nil, err
	}

	return &TodayPrice{
		Date:        stats.Date,
		AvgPrice:    stats.AvgPrice,
		MinPrice:    stats.MinPrice,
		MaxPrice:    stats.MaxPrice,
		MedianPrice: stats.MedianPrice,
		Count:       stats.Count,
		ChangeRate:  changeRate,
	}, nil
}

// ChangeRate computes (todayAvg - yesterdayAvg) / yesterdayAvg * 100.
// Whenever either average is unavailable, or yesterday's average is zero, the
// rate is exactly 0 - never an error or NaN.
func (a *Aggregator) ChangeRate(itemID uint, date string) (float64, error) {
	day, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	yesterday := day.AddDate(0, 0, -1).Format(models.DateFormat)

	todayAvg, todayOK, err := a.prices.AvgActivePrice(itemID, date)
	if err != nil {
		return 0, err
	}
	prevAvg, prevOK, err := a.prices.AvgActivePrice(itemID, yesterday)
	if err != nil {
		return 0, err
	}

	if !todayOK || !prevOK || prevAvg == 0 {
		return 0, nil
	}
	return (todayAvg - prevAvg) / prevAvg * 100, nil
}

// History returns per-day aggregates for the last days calendar days, newest
// first. Served from the expirable cache when fresh.
func (a *Aggregator) History(itemID uint, days int) ([]models.DailyStats, error) {
	if days <= 0 {
		days = 30
	}

	key := fmt.Sprintf("%d|%d", itemID, days)
	if cached, ok := a.historyCache.Get(key); ok {
		return cached, nil
	}

	startDate := time.Now().AddDate(0, 0, -days).Format(models.DateFormat)
	stats, err := a.prices.DailyStatsSince(itemID, startDate)
	if err != nil {
		return nil, err
	}

	a.historyCache.Add(key, stats)
	return stats, nil
}
