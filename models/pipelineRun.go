package models

import (
	"time"

	"gorm.io/gorm"
)

// PipelineRun records one step of one pipeline execution, so the scheduler
// and operators can see which steps completed even when a run dies mid-way.
type PipelineRun struct {
	ID    int    `gorm:"primaryKey" json:"id"`
	RunId string `gorm:"size:64;index;not null" json:"run_id"`
	Step  string `gorm:"size:64;not null" json:"step"`

	Status PipelineRunStatus `gorm:"size:32;not null" json:"status"`
	Detail string            `gorm:"type:text" json:"detail"`

	StartedAt  time.Time  `gorm:"autoCreateTime" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func StartPipelineStep(tx *gorm.DB, runId string, step string) (*PipelineRun, error) {
	run := PipelineRun{
		RunId:  runId,
		Step:   step,
		Status: PipelineRunStatusRunning,
	}
	if err := tx.Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func FinishPipelineStep(tx *gorm.DB, run *PipelineRun, status PipelineRunStatus, detail string) error {
	now := time.Now().UTC()
	run.Status = status
	run.Detail = detail
	run.FinishedAt = &now
	return tx.Model(&PipelineRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":      status,
			"detail":      detail,
			"finished_at": now,
		}).Error
}
