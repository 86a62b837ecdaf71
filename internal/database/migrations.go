package database

import (
	"log"

	"gorm.io/gorm"
)

// cleanupDuplicatePriceRecords removes duplicate (item_id, date, source_url)
// rows before the unique dedup index is created. Keeps the earliest row; a
// record's created_at is immutable, so the first ingestion wins. Rows with an
// empty source_url are legacy entries outside the dedup key and are left
// alone.
func cleanupDuplicatePriceRecords(db *gorm.DB) error {
	if !db.Migrator().HasTable("price_records") {
		return nil // Fresh database, nothing to clean
	}

	result := db.Exec(`
		DELETE FROM price_records
		WHERE source_url <> ''
		AND id NOT IN (
			SELECT MIN(id)
			FROM price_records
			WHERE source_url <> ''
			GROUP BY item_id, date, source_url
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate price_records entries", result.RowsAffected)
	}

	return nil
}

// RunMigrations runs custom data migrations after schema changes.
func RunMigrations(db *gorm.DB) error {
	if err := migrateStatusField(db); err != nil {
		return err
	}
	return ensureDedupIndex(db)
}

// ensureDedupIndex creates the partial unique index backing the dedup guard.
// It is partial because legacy rows without a source URL may repeat within a
// day; AutoMigrate cannot express a filtered index through struct tags.
func ensureDedupIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_price_records_dedup
		ON price_records(item_id, date, source_url)
		WHERE source_url <> ''
	`).Error
}

// migrateStatusField backfills the status column for rows created before
// outlier classification existed. Safe to run multiple times.
func migrateStatusField(db *gorm.DB) error {
	if !db.Migrator().HasColumn("price_records", "status") {
		return nil
	}

	result := db.Exec(`UPDATE price_records SET status = 'ACTIVE' WHERE status IS NULL OR status = ''`)
	if result.Error != nil {
		log.Printf("Warning: failed to backfill price_records status: %v", result.Error)
		return nil
	}
	if result.RowsAffected > 0 {
		log.Printf("Backfilled status on %d price_records rows", result.RowsAffected)
	}
	return nil
}
