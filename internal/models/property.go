package models

import "time"

// Property is the durable record for one listing. Rows are created on
// first observation and never physically deleted; a listing that
// disappears from a batch is deactivated instead.
type Property struct {
	// 基本情報
	PropertyID string `gorm:"type:varchar(64);primaryKey" json:"property_id"`
	URL        string `gorm:"type:varchar(500);not null" json:"url"`
	Title      string `gorm:"type:text;not null" json:"title"`

	// 現在の物件属性
	PriceNumeric       int      `gorm:"not null;index" json:"price_numeric"`
	Address            string   `gorm:"type:text" json:"address"`
	LandAreaTsubo      *float64 `gorm:"type:decimal(10,2)" json:"land_area_tsubo,omitempty"`
	BuildingCoverage   *float64 `gorm:"type:decimal(5,1)" json:"building_coverage,omitempty"`
	FloorAreaRatio     *float64 `gorm:"type:decimal(6,1)" json:"floor_area_ratio,omitempty"`
	ZoneType           string   `gorm:"type:varchar(100)" json:"zone_type,omitempty"`
	StationWalkMinutes *int     `gorm:"type:int" json:"station_walk_minutes,omitempty"`

	// 評価結果
	PriceScore      float64 `gorm:"type:decimal(5,2)" json:"price_score"`
	LocationScore   float64 `gorm:"type:decimal(5,2)" json:"location_score"`
	AreaScore       float64 `gorm:"type:decimal(5,2)" json:"area_score"`
	InvestmentScore float64 `gorm:"type:decimal(5,2)" json:"investment_score"`
	TotalScore      float64 `gorm:"type:decimal(5,2);index" json:"total_score"`
	Grade           string  `gorm:"type:varchar(1);index" json:"grade"`

	// ステータス管理（論理削除）
	IsActive   bool       `gorm:"not null;default:true;index" json:"is_active"`
	DelistedAt *time.Time `json:"delisted_at,omitempty"`

	// タイムスタンプ
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
	LastSeenAt  time.Time `gorm:"not null;index" json:"last_seen_at"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Property) TableName() string {
	return "properties"
}

// MarkDelisted deactivates the property, recording when it dropped out
// of a fetch batch.
func (p *Property) MarkDelisted(at time.Time) {
	p.IsActive = false
	p.DelistedAt = &at
}

// Reactivate clears the delisted state when a property reappears.
func (p *Property) Reactivate() {
	p.IsActive = true
	p.DelistedAt = nil
}
