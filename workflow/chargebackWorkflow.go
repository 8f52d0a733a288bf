package workflow

import (
	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChargebackSummary reports the direct aggregation step.
type ChargebackSummary struct {
	MonthsProcessed int `json:"months_processed"`
	RowsUpserted    int `json:"rows_upserted"`
}

// ProcessDirectChargebackWorkflow rolls daily cost facts up into monthly
// `direct` chargeback rows per (month, app, sector). Direct rows are
// overwritten, not accumulated, so the step is safe to re-run. Runs after
// reconciliation and before allocation.
func ProcessDirectChargebackWorkflow(db *gorm.DB, logger *logrus.Logger, runId string) (*ChargebackSummary, error) {
	months, err := models.GetCostMonths(db)
	if err != nil {
		config.LogError(logger, "ChargebackWorkflow.go", "ProcessDirectChargebackWorkflow", "GetCostMonths", nil, err)
		return nil, err
	}

	summary := &ChargebackSummary{}
	if len(months) == 0 {
		config.LogWarn(logger, "ChargebackWorkflow.go", "ProcessDirectChargebackWorkflow", "NoCostData",
			nil, "no cost facts found; run the cost calculation step first")
		return summary, nil
	}

	for _, monthStart := range months {
		aggregates, aerr := models.GetMonthlyDirectAggregates(db, monthStart)
		if aerr != nil {
			config.LogError(logger, "ChargebackWorkflow.go", "ProcessDirectChargebackWorkflow", "GetMonthlyDirectAggregates", monthStart, aerr)
			return summary, aerr
		}

		terr := db.Transaction(func(tx *gorm.DB) error {
			for _, agg := range aggregates {
				fact := models.ChargebackFact{
					MonthStart:      monthStart,
					AppId:           agg.AppId,
					SectorId:        agg.SectorId,
					UsdAmount:       agg.UsdCost,
					ChargebackCycle: models.ChargebackCycleDirect,
				}
				if err := models.UpsertDirectChargeback(tx, &fact); err != nil {
					return err
				}
			}
			return models.LogDataLineage(tx, runId, models.SourceSystemPipeline, "chargeback_facts",
				map[string]any{"month_start": monthStart.Format("2006-01-02"), "rows": len(aggregates)},
				"aggregate_direct")
		})
		if terr != nil {
			config.LogError(logger, "ChargebackWorkflow.go", "ProcessDirectChargebackWorkflow", "UpsertMonth", monthStart, terr)
			return summary, terr
		}

		summary.MonthsProcessed++
		summary.RowsUpserted += len(aggregates)
	}

	logger.WithFields(logrus.Fields{
		"module":           "ChargebackWorkflow.go",
		"months_processed": summary.MonthsProcessed,
		"rows_upserted":    summary.RowsUpserted,
	}).Info("direct chargeback aggregation complete")

	return summary, nil
}
