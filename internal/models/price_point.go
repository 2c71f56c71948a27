package models

import "time"

// PricePoint is one entry in the append-only price history of a
// property. The (property_id, observed_at) pair is unique, which keeps
// a re-committed run from duplicating history.
type PricePoint struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_price_point" json:"property_id"`
	Price      int       `gorm:"not null" json:"price"`
	ObservedAt time.Time `gorm:"not null;uniqueIndex:idx_price_point,priority:2" json:"observed_at"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName はテーブル名を明示的に指定
func (PricePoint) TableName() string {
	return "price_points"
}
