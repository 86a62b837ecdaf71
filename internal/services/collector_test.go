package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// newFeedServer serves a fixed listing set regardless of item code.
func newFeedServer(t *testing.T, listings []Listing) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(listings); err != nil {
			t.Errorf("failed to encode listings: %v", err)
		}
	}))
}

func sellListing(price int64, url, comment string) Listing {
	return Listing{
		ItemName:    "Work Glove",
		ItemCode:    1082002,
		Price:       price,
		TradeType:   "sell",
		TradeStatus: true,
		URL:         url,
		Comment:     comment,
	}
}

func TestCollectorEndToEnd(t *testing.T) {
	listings := []Listing{
		sellListing(10, "https://trade.example/a", ""),
		sellListing(11, "https://trade.example/b", ""),
		sellListing(9, "https://trade.example/c", ""),
		sellListing(12, "https://trade.example/d", ""),
		sellListing(1000, "https://trade.example/e", ""),
	}
	server := newFeedServer(t, listings)
	defer server.Close()

	db := newTestDB(t)
	item := seedItem(t, db, "1082002", "Work Glove")
	prices := store.NewPriceStore(db)
	collector := NewCollector(NewFeedService(server.URL), store.NewItemStore(db), prices, db, time.Millisecond)

	summary, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.ItemsProcessed != 1 {
		t.Errorf("ItemsProcessed = %d, want 1", summary.ItemsProcessed)
	}
	if summary.ActiveCreated != 4 || summary.InactiveCreated != 1 {
		t.Errorf("created %d active / %d inactive, want 4 / 1", summary.ActiveCreated, summary.InactiveCreated)
	}

	today := time.Now().Format(models.DateFormat)
	records, err := prices.ListByItemDate(item.ID, today)
	if err != nil {
		t.Fatalf("ListByItemDate failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	for _, rec := range records {
		wantStatus := models.StatusActive
		if rec.Price == 1000 {
			wantStatus = models.StatusInactive
		}
		if rec.Status != wantStatus {
			t.Errorf("price %d has status %s, want %s", rec.Price, rec.Status, wantStatus)
		}
	}

	// Aggregates count only the 4 ACTIVE records
	stats, err := prices.DailyStats(item.ID, today)
	if err != nil {
		t.Fatalf("DailyStats failed: %v", err)
	}
	if stats == nil {
		t.Fatal("expected stats for today")
	}
	if stats.Count != 4 {
		t.Errorf("Count = %d, want 4", stats.Count)
	}
	if stats.MinPrice != 9 || stats.MaxPrice != 12 {
		t.Errorf("min/max = %d/%d, want 9/12", stats.MinPrice, stats.MaxPrice)
	}
	if stats.AvgPrice != 10 { // mean of 9,10,11,12 is 10.5, truncated
		t.Errorf("AvgPrice = %d, want 10", stats.AvgPrice)
	}
}

func TestCollectorDedupAcrossRuns(t *testing.T) {
	listings := []Listing{
		sellListing(100, "https://trade.example/a", ""),
		sellListing(101, "https://trade.example/b", ""),
		sellListing(102, "https://trade.example/c", ""),
		sellListing(103, "https://trade.example/d", ""),
	}
	server := newFeedServer(t, listings)
	defer server.Close()

	db := newTestDB(t)
	item := seedItem(t, db, "1082002", "Work Glove")
	prices := store.NewPriceStore(db)
	collector := NewCollector(NewFeedService(server.URL), store.NewItemStore(db), prices, db, time.Millisecond)

	if _, err := collector.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if second.DuplicatesSkipped != 4 {
		t.Errorf("DuplicatesSkipped = %d, want 4", second.DuplicatesSkipped)
	}
	if second.ActiveCreated != 0 || second.InactiveCreated != 0 {
		t.Errorf("second run created records: %d active, %d inactive", second.ActiveCreated, second.InactiveCreated)
	}

	today := time.Now().Format(models.DateFormat)
	records, err := prices.ListByItemDate(item.ID, today)
	if err != nil {
		t.Fatalf("ListByItemDate failed: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("got %d records after two runs, want 4", len(records))
	}
}

func TestCollectorCommentForcesInactive(t *testing.T) {
	// In-bounds price but disqualifying comment: recorded INACTIVE
	listings := []Listing{
		sellListing(100, "https://trade.example/a", ""),
		sellListing(101, "https://trade.example/b", "공10 작 장갑"),
		sellListing(102, "https://trade.example/c", ""),
		sellListing(103, "https://trade.example/d", ""),
	}
	server := newFeedServer(t, listings)
	defer server.Close()

	db := newTestDB(t)
	item := seedItem(t, db, "1082002", "Work Glove")
	prices := store.NewPriceStore(db)
	collector := NewCollector(NewFeedService(server.URL), store.NewItemStore(db), prices, db, time.Millisecond)

	summary, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ActiveCreated != 3 || summary.InactiveCreated != 1 {
		t.Errorf("created %d active / %d inactive, want 3 / 1", summary.ActiveCreated, summary.InactiveCreated)
	}

	today := time.Now().Format(models.DateFormat)
	records, _ := prices.ListByItemDate(item.ID, today)
	for _, rec := range records {
		if rec.Price == 101 && rec.Status != models.StatusInactive {
			t.Errorf("commented listing should be INACTIVE, got %s", rec.Status)
		}
	}
}

func TestCollectorSkipsItemWithNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	db := newTestDB(t)
	seedItem(t, db, "1082002", "Work Glove")
	collector := NewCollector(NewFeedService(server.URL), store.NewItemStore(db), store.NewPriceStore(db), db, time.Millisecond)

	summary, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ItemsSkipped != 1 {
		t.Errorf("ItemsSkipped = %d, want 1", summary.ItemsSkipped)
	}
	if summary.ItemsProcessed != 0 {
		t.Errorf("ItemsProcessed = %d, want 0", summary.ItemsProcessed)
	}
}

func TestCollectorOverlapGuard(t *testing.T) {
	db := newTestDB(t)
	collector := NewCollector(NewFeedService("http://localhost:0"), store.NewItemStore(db), store.NewPriceStore(db), db, time.Millisecond)

	collector.runMu.Lock()
	defer collector.runMu.Unlock()

	if _, err := collector.Run(context.Background()); err != ErrRunInProgress {
		t.Errorf("Run with held lock = %v, want ErrRunInProgress", err)
	}
}
