package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastFact is written by the forecasting step (external to this engine).
// It carries an app_id foreign key, so merges must re-home it like every
// other fact table.
type ForecastFact struct {
	ID            int             `gorm:"primaryKey" json:"id"`
	AppId         int             `gorm:"index;not null" json:"app_id"`
	MonthStart    time.Time       `gorm:"index;not null" json:"month_start"`
	ForecastUnits decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"forecast_units"`
	ModelName     string          `gorm:"size:64" json:"model_name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
