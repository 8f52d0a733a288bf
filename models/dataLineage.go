package models

import (
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/utils"
	"gorm.io/gorm"
)

// DataLineage is the audit trail of rows the pipeline created or moved,
// keyed by the run id that did it.
type DataLineage struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	RunId        string `gorm:"size:64;index;not null" json:"run_id"`
	SourceSystem string `gorm:"size:32" json:"source_system"`
	TargetTable  string `gorm:"size:64;not null" json:"target_table"`
	TargetPk     string `gorm:"type:text" json:"target_pk"`
	Action       string `gorm:"size:32;not null" json:"action"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DataLineage) TableName() string {
	return "data_lineage"
}

func LogDataLineage(tx *gorm.DB, runId string, sourceSystem string, targetTable string, targetPk any, action string) error {
	pk, err := utils.MarshalToJSON(targetPk)
	if err != nil {
		return err
	}
	return tx.Create(&DataLineage{
		RunId:        runId,
		SourceSystem: sourceSystem,
		TargetTable:  targetTable,
		TargetPk:     pk,
		Action:       action,
	}).Error
}
