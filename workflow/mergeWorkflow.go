package workflow

import (
	"errors"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// factTables lists every ledger that carries an app_id foreign key. A merge
// must re-home all of them; adding a fact table without adding it here leaves
// rows pointing at a deleted donor.
var factTables = []string{
	"license_usage_facts",
	"license_cost_facts",
	"chargeback_facts",
	"forecast_facts",
}

var ErrorMergeSelf = errors.New("donor and survivor are the same application")

// isDuplicateKeyErr reports whether err is a MySQL 1062 unique key violation.
// The applications table carries unique indexes on appd_application_id and
// sn_sys_id, so a 1062 during a merge means another row claimed the identity
// between the guard's read and this write.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// MergeApplications folds the AppDynamics-only donor row into the
// ServiceNow-side survivor row. The caller must run this inside a single
// transaction: survivor field copy, fact re-homing, decision log and donor
// delete all land together or not at all.
//
// After a successful merge the live row count drops by exactly one and no
// fact row references the donor's app_id.
func MergeApplications(tx *gorm.DB, logger *logrus.Logger, runId string, score float64, donor *models.Application, survivor *models.Application) error {
	if donor.AppId == survivor.AppId {
		return ErrorMergeSelf
	}

	// Release the donor's unique identity before the survivor takes it: the
	// unique index on appd_application_id is enforced per statement, so the
	// copy would raise 1062 while the donor row still holds the value. The
	// donor struct keeps the fields in memory for the steps below.
	if err := tx.Model(&models.Application{}).
		Where("app_id = ?", donor.AppId).
		Update("appd_application_id", nil).Error; err != nil {
		config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "ReleaseDonorIdentity", donor.AppId, err)
		return err
	}

	// AppDynamics is authoritative for these fields; CMDB attributes
	// (sector, h_code) stay with the survivor.
	updates := map[string]any{
		"appd_application_id":   donor.AppdApplicationId,
		"appd_application_name": donor.AppdApplicationName,
	}
	if donor.OwnerName != "" {
		updates["owner_name"] = donor.OwnerName
	}
	if donor.Architecture != "" {
		updates["architecture"] = donor.Architecture
	}
	if err := tx.Model(&models.Application{}).
		Where("app_id = ?", survivor.AppId).
		Updates(updates).Error; err != nil {
		config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "CopyDonorFields", survivor.AppId, err)
		return err
	}

	for _, table := range factTables {
		if err := tx.Exec(
			"UPDATE "+table+" SET app_id = ? WHERE app_id = ?",
			survivor.AppId, donor.AppId,
		).Error; err != nil {
			config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "RehomeFacts "+table, donor.AppId, err)
			return err
		}
	}

	resolved := survivor.AppId
	decision := models.ReconciliationLog{
		SourceA:         models.SourceSystemAppd,
		SourceB:         models.SourceSystemSnow,
		MatchKeyA:       donor.AppdApplicationName,
		MatchKeyB:       survivor.SnServiceName,
		ConfidenceScore: score,
		MatchStatus:     models.MatchStatusAutoMatched,
		ResolvedAppId:   &resolved,
	}
	if err := tx.Create(&decision).Error; err != nil {
		config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "InsertDecision", decision, err)
		return err
	}

	if err := tx.Where("app_id = ?", donor.AppId).
		Delete(&models.Application{}).Error; err != nil {
		config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "DeleteDonor", donor.AppId, err)
		return err
	}

	if err := models.LogDataLineage(tx, runId, models.SourceSystemAppd, "applications",
		map[string]int{"donor_app_id": donor.AppId, "survivor_app_id": survivor.AppId}, "merge"); err != nil {
		config.LogError(logger, "MergeWorkflow.go", "MergeApplications", "LogDataLineage", donor.AppId, err)
		return err
	}

	return nil
}
