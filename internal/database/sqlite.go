package database

import (
	"log"

	"github.com/nangoso/maple-price-tracker/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	// Data cleanup must run before AutoMigrate adds the dedup index,
	// otherwise existing duplicate rows break index creation.
	if err := cleanupDuplicatePriceRecords(DB); err != nil {
		return err
	}

	// Auto-migrate the schema
	err = DB.AutoMigrate(&models.Item{}, &models.PriceRecord{})
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
