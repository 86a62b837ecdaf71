package services

import (
	"testing"
	"time"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

func TestChangeRate(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "2000001", "Red Potion")
	aggregator := NewAggregator(store.NewPriceStore(db))

	// yesterday avg 100, today avg 110 -> +10%
	for i, p := range []int64{90, 100, 110} {
		seedPrice(t, db, item.ID, "2024-05-01", p, urlFor(i), models.StatusActive)
	}
	for i, p := range []int64{100, 110, 120} {
		seedPrice(t, db, item.ID, "2024-05-02", p, urlFor(10+i), models.StatusActive)
	}

	rate, err := aggregator.ChangeRate(item.ID, "2024-05-02")
	if err != nil {
		t.Fatalf("ChangeRate failed: %v", err)
	}
	if rate < 9.99 || rate > 10.01 {
		t.Errorf("ChangeRate = %v, want 10", rate)
	}
}

func TestChangeRateMissingYesterday(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "2000001", "Red Potion")
	aggregator := NewAggregator(store.NewPriceStore(db))

	seedPrice(t, db, item.ID, "2024-05-02", 100, urlFor(0), models.StatusActive)

	// No data at all for yesterday: rate is exactly 0, not an error
	rate, err := aggregator.ChangeRate(item.ID, "2024-05-02")
	if err != nil {
		t.Fatalf("ChangeRate failed: %v", err)
	}
	if rate != 0 {
		t.Errorf("ChangeRate = %v, want 0 when yesterday is missing", rate)
	}

	// Yesterday exists but only INACTIVE records: still 0
	seedPrice(t, db, item.ID, "2024-05-01", 100, urlFor(1), models.StatusInactive)
	rate, err = aggregator.ChangeRate(item.ID, "2024-05-02")
	if err != nil {
		t.Fatalf("ChangeRate failed: %v", err)
	}
	if rate != 0 {
		t.Errorf("ChangeRate = %v, want 0 when yesterday has no active records", rate)
	}
}

func TestDailyStatsActiveOnly(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "2000001", "Red Potion")
	aggregator := NewAggregator(store.NewPriceStore(db))

	date := "2024-05-01"
	seedPrice(t, db, item.ID, date, 100, urlFor(0), models.StatusActive)
	seedPrice(t, db, item.ID, date, 200, urlFor(1), models.StatusActive)
	seedPrice(t, db, item.ID, date, 99999, urlFor(2), models.StatusInactive)

	stats, err := aggregator.DailyStats(item.ID, date)
	if err != nil {
		t.Fatalf("DailyStats failed: %v", err)
	}
	if stats == nil {
		t.Fatal("expected stats")
	}
	if stats.Count != 2 {
		t.Errorf("Count = %d, want 2 (INACTIVE excluded)", stats.Count)
	}
	if stats.MaxPrice != 200 {
		t.Errorf("MaxPrice = %d, want 200", stats.MaxPrice)
	}
	if stats.AvgPrice != 150 {
		t.Errorf("AvgPrice = %d, want 150", stats.AvgPrice)
	}
	if stats.MedianPrice != stats.AvgPrice {
		t.Errorf("MedianPrice = %d, want mean %d (documented simplification)", stats.MedianPrice, stats.AvgPrice)
	}
}

func TestDailyStatsEmptyDay(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "2000001", "Red Potion")
	aggregator := NewAggregator(store.NewPriceStore(db))

	stats, err := aggregator.DailyStats(item.ID, "2024-05-01")
	if err != nil {
		t.Fatalf("DailyStats failed: %v", err)
	}
	if stats != nil {
		t.Errorf("expected nil stats for empty day, got %+v", stats)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "2000001", "Red Potion")
	aggregator := NewAggregator(store.NewPriceStore(db))

	today := time.Now()
	d1 := today.AddDate(0, 0, -2).Format(models.DateFormat)
	d2 := today.AddDate(0, 0, -1).Format(models.DateFormat)
	seedPrice(t, db, item.ID, d1, 100, urlFor(0), models.StatusActive)
	seedPrice(t, db, item.ID, d2, 200, urlFor(1), models.StatusActive)

	history, err := aggregator.History(item.ID, 30)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d history rows, want 2", len(history))
	}
	if history[0].Date != d2 || history[1].Date != d1 {
		t.Errorf("history not newest-first: %s, %s", history[0].Date, history[1].Date)
	}
}
