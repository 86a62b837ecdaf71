package models

import (
	"time"
)

// Item is one tracked marketplace item, keyed by its external item code.
type Item struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ItemCode  string    `json:"item_code" gorm:"not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"not null"`
	ImageURL  string    `json:"image_url" gorm:"size:500"`
	ViewCount int64     `json:"view_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemExport is the public catalog entry served to the frontend search index.
type ItemExport struct {
	ItemCode string `json:"item_code"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}
