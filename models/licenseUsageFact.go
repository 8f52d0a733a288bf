package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LicenseUsageFact is one day's license units consumed by one application.
// Written by the AppDynamics extract; read by allocation and forecasting.
type LicenseUsageFact struct {
	ID            int             `gorm:"primaryKey" json:"id"`
	AppId         int             `gorm:"index:idx_luf_app_ts,priority:1;not null" json:"app_id"`
	Ts            time.Time       `gorm:"index:idx_luf_app_ts,priority:2;not null" json:"ts"`
	LicenseType   string          `gorm:"size:64" json:"license_type"`
	UnitsConsumed decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"units_consumed"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SectorUsage is one consumer group's usage total for a month.
type SectorUsage struct {
	SectorId int             `json:"sector_id"`
	Usage    decimal.Decimal `json:"usage"`
}

// GetSectorUsageBreakdown sums the month's usage per sector, excluding the
// shared application's own sector. Ordered by sector_id so allocation output
// is deterministic.
func GetSectorUsageBreakdown(tx *gorm.DB, monthStart time.Time, excludeSectorId int) ([]SectorUsage, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)
	var breakdown []SectorUsage
	err := tx.Model(&LicenseUsageFact{}).
		Select("applications.sector_id AS sector_id, SUM(license_usage_facts.units_consumed) AS `usage`").
		Joins("JOIN applications ON applications.app_id = license_usage_facts.app_id").
		Where("license_usage_facts.ts >= ? AND license_usage_facts.ts < ?", monthStart, monthEnd).
		Where("applications.sector_id <> ?", excludeSectorId).
		Group("applications.sector_id").
		Order("applications.sector_id").
		Scan(&breakdown).Error
	return breakdown, err
}
