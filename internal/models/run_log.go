package models

import "time"

// RunStatus constants
const (
	RunStatusCompleted = "completed"
	RunStatusError     = "error"
)

// RunLog records the outcome of one engine run. The RunID is unique so
// that committing the same run twice leaves a single row.
type RunLog struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID string `gorm:"type:varchar(36);not null;uniqueIndex" json:"run_id"`

	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `gorm:"not null;index" json:"finished_at"`

	TotalListings     int `gorm:"not null;default:0" json:"total_listings"`
	NewCount          int `gorm:"not null;default:0" json:"new_count"`
	PriceChangedCount int `gorm:"not null;default:0" json:"price_changed_count"`
	RemovedCount      int `gorm:"not null;default:0" json:"removed_count"`
	UnchangedCount    int `gorm:"not null;default:0" json:"unchanged_count"`
	SkippedCount      int `gorm:"not null;default:0" json:"skipped_count"`

	Status          string  `gorm:"type:varchar(20);not null" json:"status"`
	Message         string  `gorm:"type:text" json:"message,omitempty"`
	DurationSeconds float64 `gorm:"type:decimal(10,3)" json:"duration_seconds"`
}

// TableName はテーブル名を明示的に指定
func (RunLog) TableName() string {
	return "run_logs"
}
