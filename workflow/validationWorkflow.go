package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ValidationFinding is one failed consistency check. Findings are reported,
// not raised: the pipeline surfaces them and keeps its exit status.
type ValidationFinding struct {
	Check  string `json:"check"`
	Count  int64  `json:"count"`
	Detail string `json:"detail"`
}

// ProcessValidationWorkflow runs post-pipeline consistency checks over the
// reconciled catalog and its fact tables. An empty result means clean.
func ProcessValidationWorkflow(db *gorm.DB, logger *logrus.Logger) ([]ValidationFinding, error) {
	var findings []ValidationFinding

	// No fact row may reference a missing application. A hit here means a
	// merge deleted a donor without re-homing everything. factTables is the
	// same list the merge re-homes, so the two can never drift apart.
	for _, table := range factTables {
		var orphans int64
		err := db.Raw(
			"SELECT COUNT(*) FROM "+table+
				" WHERE app_id NOT IN (SELECT app_id FROM applications)",
		).Scan(&orphans).Error
		if err != nil {
			config.LogError(logger, "ValidationWorkflow.go", "ProcessValidationWorkflow", "OrphanCheck "+table, nil, err)
			return findings, err
		}
		if orphans > 0 {
			findings = append(findings, ValidationFinding{
				Check:  "orphaned_facts",
				Count:  orphans,
				Detail: fmt.Sprintf("%s has %d rows referencing missing applications", table, orphans),
			})
		}
	}

	// Each source id may appear on at most one live row.
	duplicateChecks := []struct {
		check  string
		column string
	}{
		{"duplicate_appd_id", "appd_application_id"},
		{"duplicate_sn_sys_id", "sn_sys_id"},
	}
	for _, dc := range duplicateChecks {
		var dupes int64
		err := db.Raw(
			"SELECT COUNT(*) FROM (SELECT " + dc.column + " FROM applications WHERE " + dc.column +
				" IS NOT NULL GROUP BY " + dc.column + " HAVING COUNT(*) > 1) d",
		).Scan(&dupes).Error
		if err != nil {
			config.LogError(logger, "ValidationWorkflow.go", "ProcessValidationWorkflow", dc.check, nil, err)
			return findings, err
		}
		if dupes > 0 {
			findings = append(findings, ValidationFinding{
				Check:  dc.check,
				Count:  dupes,
				Detail: fmt.Sprintf("%d %s values are claimed by more than one application", dupes, dc.column),
			})
		}
	}

	if len(findings) == 0 {
		logger.WithField("module", "ValidationWorkflow.go").Info("pipeline validation clean")
	} else {
		config.LogWarn(logger, "ValidationWorkflow.go", "ProcessValidationWorkflow", "FindingsPresent",
			findings, fmt.Sprintf("%d validation findings", len(findings)))
	}

	return findings, nil
}
