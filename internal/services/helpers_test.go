package services

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nangoso/maple-price-tracker/internal/database"
	"github.com/nangoso/maple-price-tracker/internal/models"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

// newTestDB opens a throwaway sqlite database with the full schema, dedup
// index included.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}, &models.PriceRecord{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// seedItem inserts a catalog item and returns it.
func seedItem(t *testing.T, db *gorm.DB, code, name string) *models.Item {
	t.Helper()

	item := &models.Item{ItemCode: code, Name: name}
	if err := store.NewItemStore(db).Create(item); err != nil {
		t.Fatalf("failed to seed item %s: %v", code, err)
	}
	return item
}

// seedPrice inserts one price record directly.
func seedPrice(t *testing.T, db *gorm.DB, itemID uint, date string, price int64, url string, status models.PriceStatus) *models.PriceRecord {
	t.Helper()

	rec := &models.PriceRecord{
		ItemID:    itemID,
		Date:      date,
		Price:     price,
		SourceURL: url,
		Status:    status,
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("failed to seed price record: %v", err)
	}
	return rec
}
