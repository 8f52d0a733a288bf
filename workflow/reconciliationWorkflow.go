package workflow

import (
	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconciliationSummary is the per-pass outcome census. MatchRate is merged
// rows over total monitored rows, as a percentage.
type ReconciliationSummary struct {
	TotalMonitored int     `json:"total_monitored"`
	AutoMatched    int     `json:"auto_matched"`
	NeedsReview    int     `json:"needs_review"`
	Conflicts      int     `json:"conflicts"`
	NoMatch        int     `json:"no_match"`
	MergeFailures  int     `json:"merge_failures"`
	MatchRate      float64 `json:"match_rate"`
}

// ProcessReconciliationWorkflow runs one single-pass reconciliation of the
// application catalog: for every AppDynamics-only row, find the best
// ServiceNow-only candidate, classify the score, and either merge, flag for
// review, record a conflict, or record a no-match. Each merge commits in its
// own transaction; a failed merge is logged and the pass moves on.
func ProcessReconciliationWorkflow(db *gorm.DB, logger *logrus.Logger, runId string) (*ReconciliationSummary, error) {
	monitored, err := models.GetUnmatchedMonitoredApps(db)
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "LoadMonitoredApps", nil, err)
		return nil, err
	}
	services, err := models.GetUnmatchedServiceApps(db)
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "LoadServiceApps", nil, err)
		return nil, err
	}

	pool := NewCandidatePool(services)
	thresholds := config.MatchThresholds()
	summary := &ReconciliationSummary{TotalMonitored: len(monitored)}

	for i := range monitored {
		donor := &monitored[i]

		cand, score, ok := pool.BestCandidate(donor.AppdApplicationName)
		if !ok {
			summary.NoMatch++
			if err := insertDecision(db, logger, donor.AppdApplicationName, "", 0, models.MatchStatusNoMatch); err != nil {
				return summary, err
			}
			continue
		}

		switch ClassifyScore(score, thresholds) {
		case models.MatchStatusNoMatch:
			summary.NoMatch++
			if err := insertDecision(db, logger, donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusNoMatch); err != nil {
				return summary, err
			}

		case models.MatchStatusNeedsReview:
			summary.NeedsReview++
			if err := insertDecision(db, logger, donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusNeedsReview); err != nil {
				return summary, err
			}

		case models.MatchStatusAutoMatched:
			clearToMerge, gerr := guardConflict(db, logger, cand)
			if gerr != nil {
				return summary, gerr
			}
			if !clearToMerge {
				// Someone else already owns this sys_id; the donor stays
				// unmatched and a later run can retry it.
				summary.Conflicts++
				if err := insertDecision(db, logger, donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusConflict); err != nil {
					return summary, err
				}
				continue
			}

			survivor, serr := models.GetApplicationById(db, cand.AppId)
			if serr != nil {
				config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "LoadSurvivor", cand.AppId, serr)
				return summary, serr
			}

			merr := db.Transaction(func(tx *gorm.DB) error {
				return MergeApplications(tx, logger, runId, score, donor, survivor)
			})
			if merr != nil {
				// Rolled back: donor and facts are untouched.
				if isDuplicateKeyErr(merr) {
					// The unique index caught a claim the guard's read missed.
					summary.Conflicts++
					if err := insertDecision(db, logger, donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusConflict); err != nil {
						return summary, err
					}
					continue
				}
				// Keep going so one bad row cannot sink the whole pass.
				config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "MergeApplications", donor.AppId, merr)
				summary.MergeFailures++
				continue
			}

			summary.AutoMatched++
			pool.Consume(cand.AppId)
		}
	}

	if summary.TotalMonitored > 0 {
		summary.MatchRate = float64(summary.AutoMatched) / float64(summary.TotalMonitored) * 100
	}

	logger.WithFields(logrus.Fields{
		"module":         "ReconciliationWorkflow.go",
		"total":          summary.TotalMonitored,
		"auto_matched":   summary.AutoMatched,
		"needs_review":   summary.NeedsReview,
		"conflicts":      summary.Conflicts,
		"no_match":       summary.NoMatch,
		"merge_failures": summary.MergeFailures,
		"match_rate":     summary.MatchRate,
	}).Info("reconciliation pass complete")

	return summary, nil
}

// guardConflict reports whether the candidate's sys_id is clear to merge.
// false means a different live row already claims it (typically a prior run).
func guardConflict(db *gorm.DB, logger *logrus.Logger, cand MatchCandidate) (bool, error) {
	claimed, err := models.CountClaimedSnSysId(db, cand.SnSysId, cand.AppId)
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "guardConflict", "CountClaimedSnSysId", cand.SnSysId, err)
		return false, err
	}
	return claimed == 0, nil
}

func insertDecision(db *gorm.DB, logger *logrus.Logger, keyA string, keyB string, score float64, status models.MatchStatus) error {
	decision := models.ReconciliationLog{
		SourceA:         models.SourceSystemAppd,
		SourceB:         models.SourceSystemSnow,
		MatchKeyA:       keyA,
		MatchKeyB:       keyB,
		ConfidenceScore: score,
		MatchStatus:     status,
	}
	if err := db.Create(&decision).Error; err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "insertDecision", string(status), decision, err)
		return err
	}
	return nil
}
