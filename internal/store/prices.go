package store

import (
	"github.com/nangoso/maple-price-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceStore persists price samples and serves the group/aggregate queries
// used by the collector, revalidator and read side.
type PriceStore struct {
	db *gorm.DB
}

func NewPriceStore(db *gorm.DB) *PriceStore {
	return &PriceStore{db: db}
}

// Insert writes one price record. For records with a source URL the insert is
// conditional on the (item_id, date, source_url) dedup index: a conflicting
// row is silently not created and Insert reports created=false. Legacy
// records without a URL have no dedup key and are always inserted.
func (s *PriceStore) Insert(rec *models.PriceRecord) (created bool, err error) {
	if rec.SourceURL == "" {
		if err := s.db.Create(rec).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists reports whether a record for this listing was already ingested on
// the given day.
func (s *PriceStore) Exists(itemID uint, date, sourceURL string) (bool, error) {
	var count int64
	err := s.db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ? AND source_url = ?", itemID, date, sourceURL).
		Count(&count).Error
	return count > 0, err
}

// ListByItemDate returns the full daily price group, status included, ordered
// by price ascending.
func (s *PriceStore) ListByItemDate(itemID uint, date string) ([]models.PriceRecord, error) {
	var records []models.PriceRecord
	err := s.db.Where("item_id = ? AND date = ?", itemID, date).
		Order("price ASC").Find(&records).Error
	return records, err
}

// ListByItem returns every record for an item, newest day first.
func (s *PriceStore) ListByItem(itemID uint) ([]models.PriceRecord, error) {
	var records []models.PriceRecord
	err := s.db.Where("item_id = ?", itemID).
		Order("date DESC, price ASC").Find(&records).Error
	return records, err
}

// Dates returns the distinct days that have records for an item, ascending.
func (s *PriceStore) Dates(itemID uint) ([]string, error) {
	var dates []string
	err := s.db.Model(&models.PriceRecord{}).
		Where("item_id = ?", itemID).
		Distinct("date").Order("date ASC").Pluck("date", &dates).Error
	return dates, err
}

// MarkInactive demotes the given records to INACTIVE. The reverse transition
// does not exist anywhere in the system.
func (s *PriceStore) MarkInactive(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Model(&models.PriceRecord{}).
		Where("id IN ?", ids).
		Update("status", models.StatusInactive).Error
}

// DemoteMatching marks every ACTIVE record for (item, date) with exactly the
// given price as INACTIVE and returns how many rows changed. Backs the admin
// override; several listings can share one price and all of them are demoted.
func (s *PriceStore) DemoteMatching(itemID uint, date string, price int64) (int64, error) {
	result := s.db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ? AND price = ? AND status = ?",
			itemID, date, price, models.StatusActive).
		Update("status", models.StatusInactive)
	return result.RowsAffected, result.Error
}

// CountByItemDate counts all records in a daily group regardless of status.
func (s *PriceStore) CountByItemDate(itemID uint, date string) (int64, error) {
	var count int64
	err := s.db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ?", itemID, date).Count(&count).Error
	return count, err
}

// DailyStats computes avg/min/max/count over ACTIVE records for one day.
// Returns nil when the day has no active records.
func (s *PriceStore) DailyStats(itemID uint, date string) (*models.DailyStats, error) {
	stats, err := s.queryDailyStats(itemID, date, date)
	if err != nil || len(stats) == 0 {
		return nil, err
	}
	return &stats[0], nil
}

// DailyStatsSince computes per-day aggregates over ACTIVE records from
// startDate on, newest day first.
func (s *PriceStore) DailyStatsSince(itemID uint, startDate string) ([]models.DailyStats, error) {
	return s.queryDailyStats(itemID, startDate, "")
}

func (s *PriceStore) queryDailyStats(itemID uint, startDate, endDate string) ([]models.DailyStats, error) {
	type row struct {
		Date     string
		AvgPrice float64
		MinPrice int64
		MaxPrice int64
		Count    int
	}

	query := s.db.Model(&models.PriceRecord{}).
		Select("date, AVG(price) as avg_price, MIN(price) as min_price, MAX(price) as max_price, COUNT(*) as count").
		Where("item_id = ? AND status = ? AND date >= ?", itemID, models.StatusActive, startDate)
	if endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var rows []row
	if err := query.Group("date").Order("date DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]models.DailyStats, 0, len(rows))
	for _, r := range rows {
		avg := int64(r.AvgPrice)
		stats = append(stats, models.DailyStats{
			Date:        r.Date,
			AvgPrice:    avg,
			MinPrice:    r.MinPrice,
			MaxPrice:    r.MaxPrice,
			MedianPrice: avg, // documented simplification: median reuses the mean
			Count:       r.Count,
		})
	}
	return stats, nil
}

// AvgActivePrice returns the mean ACTIVE price for one day, or ok=false when
// the day has no active records.
func (s *PriceStore) AvgActivePrice(itemID uint, date string) (avg float64, ok bool, err error) {
	var count int64
	err = s.db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ? AND status = ?", itemID, date, models.StatusActive).
		Count(&count).Error
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	err = s.db.Model(&models.PriceRecord{}).
		Where("item_id = ? AND date = ? AND status = ?", itemID, date, models.StatusActive).
		Select("AVG(price)").Scan(&avg).Error
	if err != nil {
		return 0, false, err
	}
	return avg, true, nil
}

// Transaction runs fn inside one DB transaction against transaction-scoped
// stores. The revalidator wraps each group's read-then-demote in this so a
// concurrent collection run cannot interleave with the demote step.
func (s *PriceStore) Transaction(fn func(tx *PriceStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewPriceStore(tx))
	})
}
