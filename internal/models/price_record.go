package models

import (
	"time"
)

// DateFormat is the calendar-day format used for PriceRecord.Date.
// Prices are grouped by the day they were collected, not by timestamp.
const DateFormat = "2006-01-02"

// PriceStatus says whether a record counts toward aggregate statistics.
type PriceStatus string

const (
	StatusActive   PriceStatus = "ACTIVE"
	StatusInactive PriceStatus = "INACTIVE"
)

// PriceRecord is a single listed sell price observed for an item on one day.
//
// A record is immutable after creation except for Status, which only ever
// moves ACTIVE -> INACTIVE (revalidation or an admin override). Records are
// never deleted. Within one item, (date, source_url) identifies the
// originating listing and is the dedup key; legacy rows may have an empty
// source_url and are exempt from dedup.
type PriceRecord struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	ItemID    uint        `json:"item_id" gorm:"not null;index:idx_item_date"`
	Date      string      `json:"date" gorm:"not null;index:idx_item_date"`
	Price     int64       `json:"price" gorm:"not null"`
	SourceURL string      `json:"source_url" gorm:"size:500"`
	Comment   string      `json:"comment"`
	Status    PriceStatus `json:"status" gorm:"not null;index;default:'ACTIVE'"`
	CreatedAt time.Time   `json:"created_at"`
}

// DailyStats are the per-day aggregates for one item, computed over ACTIVE
// records only. Median reuses the mean; downstream charts were built against
// that approximation, so it is kept.
type DailyStats struct {
	Date        string `json:"date"`
	AvgPrice    int64  `json:"avg_price"`
	MinPrice    int64  `json:"min_price"`
	MaxPrice    int64  `json:"max_price"`
	MedianPrice int64  `json:"median_price"`
	Count       int    `json:"count"`
}
