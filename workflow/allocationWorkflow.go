package workflow

import (
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AllocationSummary is the per-run census of the allocation pass.
type AllocationSummary struct {
	SharedServices int `json:"shared_services"`
	RulesApplied   int `json:"rules_applied"`
	SkippedNoRule  int `json:"skipped_no_rule"`
	SkippedNoCost  int `json:"skipped_no_cost"`
	SkippedNoBasis int `json:"skipped_no_basis"`
	RowsWritten    int `json:"rows_written"`
}

// SelectAllocationRule picks the first active rule (stable rule order) whose
// shared-service code appears inside the application's H-code. No hit means
// the application is skipped, not an error.
func SelectAllocationRule(hCode string, rules []models.AllocationRule) (*models.AllocationRule, bool) {
	if hCode == "" {
		return nil, false
	}
	for i := range rules {
		if rules[i].SharedServiceCode != "" && strings.Contains(hCode, rules[i].SharedServiceCode) {
			return &rules[i], true
		}
	}
	return nil, false
}

// ProcessAllocationWorkflow distributes every shared-service application's
// month cost across consuming sectors, using the distribution method of the
// first rule matching its H-code, and accumulates the results into the
// chargeback ledger. Runs after reconciliation so costs land on merged rows.
func ProcessAllocationWorkflow(db *gorm.DB, logger *logrus.Logger, runId string, monthStart time.Time) (*AllocationSummary, error) {
	if err := models.SeedDefaultAllocationRules(db); err != nil {
		config.LogError(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "SeedDefaultAllocationRules", nil, err)
		return nil, err
	}

	rules, err := models.GetActiveAllocationRules(db)
	if err != nil {
		config.LogError(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "GetActiveAllocationRules", nil, err)
		return nil, err
	}
	sharedApps, err := models.GetSharedServiceApps(db)
	if err != nil {
		config.LogError(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "GetSharedServiceApps", nil, err)
		return nil, err
	}

	summary := &AllocationSummary{SharedServices: len(sharedApps)}

	for i := range sharedApps {
		app := &sharedApps[i]

		rule, ok := SelectAllocationRule(app.HCode, rules)
		if !ok {
			summary.SkippedNoRule++
			config.LogWarn(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "NoRuleForApp",
				map[string]any{"app_id": app.AppId, "h_code": app.HCode}, "no allocation rule matches; skipping")
			continue
		}

		totalCost, cerr := models.GetMonthlyCostTotal(db, app.AppId, monthStart)
		if cerr != nil {
			config.LogError(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "GetMonthlyCostTotal", app.AppId, cerr)
			return summary, cerr
		}
		if totalCost.IsZero() {
			summary.SkippedNoCost++
			continue
		}

		shares, serr := computeShares(db, logger, rule, app, totalCost, monthStart)
		if serr != nil {
			return summary, serr
		}
		if len(shares) == 0 {
			// No usage and no consumer sectors this month: a documented
			// no-op, not a failure.
			summary.SkippedNoBasis++
			config.LogWarn(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "NoAllocationBasis",
				map[string]any{"app_id": app.AppId, "rule": rule.RuleName}, "nothing to allocate against; skipping")
			continue
		}

		werr := db.Transaction(func(tx *gorm.DB) error {
			for _, share := range shares {
				fact := models.ChargebackFact{
					MonthStart:      monthStart,
					AppId:           app.AppId,
					SectorId:        share.SectorId,
					UsdAmount:       share.Amount,
					ChargebackCycle: rule.DistributionMethod.Cycle(),
				}
				if err := models.AccumulateChargeback(tx, &fact); err != nil {
					return err
				}
			}
			return models.LogDataLineage(tx, runId, models.SourceSystemPipeline, "chargeback_facts",
				map[string]any{"app_id": app.AppId, "month_start": monthStart.Format("2006-01-02"), "sectors": len(shares)},
				"allocate")
		})
		if werr != nil {
			config.LogError(logger, "AllocationWorkflow.go", "ProcessAllocationWorkflow", "WriteShares", app.AppId, werr)
			return summary, werr
		}

		summary.RulesApplied++
		summary.RowsWritten += len(shares)
	}

	logger.WithFields(logrus.Fields{
		"module":          "AllocationWorkflow.go",
		"month_start":     monthStart.Format("2006-01-02"),
		"shared_services": summary.SharedServices,
		"rules_applied":   summary.RulesApplied,
		"rows_written":    summary.RowsWritten,
		"skipped_no_rule": summary.SkippedNoRule,
	}).Info("allocation pass complete")

	return summary, nil
}

func computeShares(db *gorm.DB, logger *logrus.Logger, rule *models.AllocationRule, app *models.Application, totalCost decimal.Decimal, monthStart time.Time) ([]SectorShare, error) {
	switch rule.DistributionMethod {
	case models.DistributionMethodProportionalUsage:
		usages, err := models.GetSectorUsageBreakdown(db, monthStart, app.SectorId)
		if err != nil {
			config.LogError(logger, "AllocationWorkflow.go", "computeShares", "GetSectorUsageBreakdown", app.AppId, err)
			return nil, err
		}
		return ProportionalShares(totalCost, usages), nil

	case models.DistributionMethodEqualSplit:
		sectorIds, err := models.GetActiveSectorIds(db, app.SectorId)
		if err != nil {
			config.LogError(logger, "AllocationWorkflow.go", "computeShares", "GetActiveSectorIds", app.AppId, err)
			return nil, err
		}
		return EqualSplitShares(totalCost, sectorIds), nil

	case models.DistributionMethodCustomFormula:
		usages, err := models.GetSectorUsageBreakdown(db, monthStart, app.SectorId)
		if err != nil {
			config.LogError(logger, "AllocationWorkflow.go", "computeShares", "GetSectorUsageBreakdown", app.AppId, err)
			return nil, err
		}
		return BlendedShares(totalCost, usages, config.BlendUsageRatio()), nil
	}

	config.LogWarn(logger, "AllocationWorkflow.go", "computeShares", "UnknownMethod",
		map[string]any{"rule": rule.RuleName, "method": rule.DistributionMethod}, "unknown distribution method; skipping")
	return nil, nil
}
