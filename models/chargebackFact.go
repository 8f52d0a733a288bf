package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChargebackFact is the monthly monetary ledger consumed by chargeback
// reporting. Grain: (month_start, app_id, sector_id).
//
// Direct rows are overwritten on re-aggregation; allocated rows accumulate,
// because one shared application's month can legitimately receive several
// contributions within a single pipeline execution. The pipeline runner
// clears a month's allocated rows before re-allocating so a full re-run does
// not double-charge.
type ChargebackFact struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	MonthStart time.Time `gorm:"uniqueIndex:idx_cbf_month_app_sector,priority:1;not null" json:"month_start"`
	AppId      int       `gorm:"uniqueIndex:idx_cbf_month_app_sector,priority:2;not null" json:"app_id"`
	SectorId   int       `gorm:"uniqueIndex:idx_cbf_month_app_sector,priority:3;not null" json:"sector_id"`

	UsdAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"usd_amount"`
	ChargebackCycle ChargebackCycle `gorm:"size:64;not null" json:"chargeback_cycle"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AccumulateChargeback inserts one allocation contribution, adding onto any
// amount already stored for the (month, app, sector) key.
func AccumulateChargeback(tx *gorm.DB, fact *ChargebackFact) error {
	return tx.Exec(`
		INSERT INTO chargeback_facts (month_start, app_id, sector_id, usd_amount, chargeback_cycle, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			usd_amount = usd_amount + VALUES(usd_amount),
			chargeback_cycle = VALUES(chargeback_cycle),
			updated_at = NOW()
	`, fact.MonthStart, fact.AppId, fact.SectorId, fact.UsdAmount, fact.ChargebackCycle).Error
}

// UpsertDirectChargeback overwrites the direct aggregate for the key.
func UpsertDirectChargeback(tx *gorm.DB, fact *ChargebackFact) error {
	return tx.Exec(`
		INSERT INTO chargeback_facts (month_start, app_id, sector_id, usd_amount, chargeback_cycle, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			usd_amount = VALUES(usd_amount),
			chargeback_cycle = VALUES(chargeback_cycle),
			updated_at = NOW()
	`, fact.MonthStart, fact.AppId, fact.SectorId, fact.UsdAmount, fact.ChargebackCycle).Error
}

// DeleteAllocatedChargebacks clears a month's allocated rows so the
// allocation step can be re-run without accumulating across runs.
func DeleteAllocatedChargebacks(tx *gorm.DB, monthStart time.Time) (int64, error) {
	res := tx.Where("month_start = ? AND chargeback_cycle LIKE 'allocated%'", monthStart).
		Delete(&ChargebackFact{})
	return res.RowsAffected, res.Error
}

// SectorAllocationSummary is one sector's direct vs allocated totals for a month.
type SectorAllocationSummary struct {
	SectorName     string          `json:"sector_name"`
	DirectCosts    decimal.Decimal `json:"direct_costs"`
	AllocatedCosts decimal.Decimal `json:"allocated_costs"`
	TotalCosts     decimal.Decimal `json:"total_costs"`
}

func GetSectorAllocationSummary(tx *gorm.DB, monthStart time.Time) ([]SectorAllocationSummary, error) {
	var rows []SectorAllocationSummary
	err := tx.Model(&ChargebackFact{}).
		Select(`
			sectors.sector_name AS sector_name,
			SUM(CASE WHEN chargeback_cycle NOT LIKE 'allocated%' THEN usd_amount ELSE 0 END) AS direct_costs,
			SUM(CASE WHEN chargeback_cycle LIKE 'allocated%' THEN usd_amount ELSE 0 END) AS allocated_costs,
			SUM(usd_amount) AS total_costs`).
		Joins("JOIN sectors ON sectors.sector_id = chargeback_facts.sector_id").
		Where("month_start = ?", monthStart).
		Group("sectors.sector_name").
		Order("total_costs DESC").
		Scan(&rows).Error
	return rows, err
}
