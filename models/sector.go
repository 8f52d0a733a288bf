package models

import (
	"time"

	"gorm.io/gorm"
)

// Sector is the consuming organizational unit that chargebacks land on.
type Sector struct {
	SectorId   int    `gorm:"primaryKey" json:"sector_id"`
	SectorName string `gorm:"size:128;uniqueIndex" json:"sector_name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Sector names that mark every application in them as a shared service.
var SharedServiceSectorNames = []string{"Corporate/Shared Services", "Global IT"}

// GetActiveSectorIds returns the distinct sectors that own at least one
// application, excluding the given sector. Equal-split allocation treats
// these as the consumer set.
func GetActiveSectorIds(tx *gorm.DB, excludeSectorId int) ([]int, error) {
	var ids []int
	err := tx.Model(&Application{}).
		Distinct("sector_id").
		Where("sector_id <> ?", excludeSectorId).
		Order("sector_id").
		Pluck("sector_id", &ids).Error
	return ids, err
}
