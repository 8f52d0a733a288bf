package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LicenseCostFact is one day's USD license cost attributed to one application.
// Produced by the external cost-calculation step from usage facts.
type LicenseCostFact struct {
	ID      int             `gorm:"primaryKey" json:"id"`
	AppId   int             `gorm:"index:idx_lcf_app_ts,priority:1;not null" json:"app_id"`
	Ts      time.Time       `gorm:"index:idx_lcf_app_ts,priority:2;not null" json:"ts"`
	UsdCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"usd_cost"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GetMonthlyCostTotal sums an application's cost facts for one month.
func GetMonthlyCostTotal(tx *gorm.DB, appId int, monthStart time.Time) (decimal.Decimal, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)
	var total decimal.NullDecimal
	err := tx.Model(&LicenseCostFact{}).
		Select("SUM(usd_cost)").
		Where("app_id = ? AND ts >= ? AND ts < ?", appId, monthStart, monthEnd).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// DirectCostAggregate is one (app, sector) monthly cost rollup.
type DirectCostAggregate struct {
	AppId    int             `json:"app_id"`
	SectorId int             `json:"sector_id"`
	UsdCost  decimal.Decimal `json:"usd_cost"`
}

// GetMonthlyDirectAggregates rolls the month's daily cost facts up to
// (app, sector) grain using the sector attribution on the dimension row.
func GetMonthlyDirectAggregates(tx *gorm.DB, monthStart time.Time) ([]DirectCostAggregate, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)
	var rows []DirectCostAggregate
	err := tx.Model(&LicenseCostFact{}).
		Select("license_cost_facts.app_id AS app_id, applications.sector_id AS sector_id, SUM(usd_cost) AS usd_cost").
		Joins("JOIN applications ON applications.app_id = license_cost_facts.app_id").
		Where("license_cost_facts.ts >= ? AND license_cost_facts.ts < ?", monthStart, monthEnd).
		Group("license_cost_facts.app_id, applications.sector_id").
		Order("license_cost_facts.app_id").
		Scan(&rows).Error
	return rows, err
}

// GetCostMonths returns the distinct month starts that have cost data,
// newest first. Drives the direct chargeback aggregation.
func GetCostMonths(tx *gorm.DB) ([]time.Time, error) {
	var raw []string
	err := tx.Model(&LicenseCostFact{}).
		Select("DISTINCT DATE_FORMAT(ts, '%Y-%m-01') AS month_start").
		Order("month_start DESC").
		Pluck("month_start", &raw).Error
	if err != nil {
		return nil, err
	}
	months := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		m, perr := time.ParseInLocation("2006-01-02", s, time.UTC)
		if perr != nil {
			return nil, perr
		}
		months = append(months, m)
	}
	return months, nil
}
