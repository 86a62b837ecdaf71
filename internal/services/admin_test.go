package services

import (
	"errors"
	"testing"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

func TestDisablePriceDemotesAllMatching(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "1082002", "Work Glove")
	admin := NewAdminService(store.NewItemStore(db), store.NewPriceStore(db))

	date := "2024-05-01"
	// Two listings at the exact same price: one override demotes both
	seedPrice(t, db, item.ID, date, 100, urlFor(0), models.StatusActive)
	seedPrice(t, db, item.ID, date, 100, urlFor(1), models.StatusActive)
	seedPrice(t, db, item.ID, date, 150, urlFor(2), models.StatusActive)

	demoted, err := admin.DisablePrice("1082002", date, 100)
	if err != nil {
		t.Fatalf("DisablePrice failed: %v", err)
	}
	if demoted != 2 {
		t.Errorf("demoted = %d, want 2", demoted)
	}

	var active int64
	db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ? AND status = ?", item.ID, date, models.StatusActive).
		Count(&active)
	if active != 1 {
		t.Errorf("%d records still active, want 1", active)
	}

	// Reapplying finds no matching ACTIVE record
	if _, err := admin.DisablePrice("1082002", date, 100); !errors.Is(err, ErrPriceNotFound) {
		t.Errorf("second DisablePrice = %v, want ErrPriceNotFound", err)
	}
}

func TestDisablePriceUnknownItem(t *testing.T) {
	db := newTestDB(t)
	admin := NewAdminService(store.NewItemStore(db), store.NewPriceStore(db))

	if _, err := admin.DisablePrice("9999999", "2024-05-01", 100); !errors.Is(err, store.ErrItemNotFound) {
		t.Errorf("DisablePrice = %v, want ErrItemNotFound", err)
	}
}

func TestDisablePriceNoDataForDate(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, "1082002", "Work Glove")
	admin := NewAdminService(store.NewItemStore(db), store.NewPriceStore(db))

	if _, err := admin.DisablePrice("1082002", "2024-05-01", 100); !errors.Is(err, ErrNoPriceData) {
		t.Errorf("DisablePrice = %v, want ErrNoPriceData", err)
	}
}
