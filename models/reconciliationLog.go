package models

import (
	"time"
)

// ReconciliationLog is the append-only decision record for one matching
// attempt. Rows are never mutated; downstream review tooling reads them.
type ReconciliationLog struct {
	ID int `gorm:"primaryKey" json:"id"`

	SourceA string `gorm:"size:32;not null" json:"source_a"`
	SourceB string `gorm:"size:32;not null" json:"source_b"`

	MatchKeyA string `gorm:"size:255" json:"match_key_a"`
	MatchKeyB string `gorm:"size:255" json:"match_key_b"`

	ConfidenceScore float64     `gorm:"type:decimal(5,2);default:0" json:"confidence_score"`
	MatchStatus     MatchStatus `gorm:"size:32;index;not null" json:"match_status"`

	// Only set for auto_matched rows: the surviving application.
	ResolvedAppId *int `json:"resolved_app_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
