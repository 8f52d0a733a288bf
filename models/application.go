package models

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/utils"
	"gorm.io/gorm"
)

// Application is the canonical dimension row for one application/service.
// A row starts life holding data from only one source system; reconciliation
// fills in the other side or merges two half-rows into one.
//
// Invariants:
// - at most one live row may hold a given non-null appd_application_id
// - at most one live row may hold a given non-null sn_sys_id
// - a row is "matched" iff both source ids are non-null
type Application struct {
	AppId int `gorm:"primaryKey" json:"app_id"`

	AppdApplicationId   *int   `gorm:"uniqueIndex" json:"appd_application_id"`
	AppdApplicationName string `gorm:"size:255" json:"appd_application_name"`

	SnSysId       *string `gorm:"uniqueIndex;size:64" json:"sn_sys_id"`
	SnServiceName string  `gorm:"size:255" json:"sn_service_name"`

	SectorId     int    `gorm:"index" json:"sector_id"`
	OwnerName    string `gorm:"size:128" json:"owner_name"`
	HCode        string `gorm:"size:64;index" json:"h_code"`
	Architecture string `gorm:"size:128" json:"architecture"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) IsMatched() bool {
	return a.AppdApplicationId != nil && a.SnSysId != nil
}

// GetUnmatchedMonitoredApps returns rows that carry AppDynamics data but have
// no ServiceNow link yet. These are the reconciliation pass's left side.
func GetUnmatchedMonitoredApps(tx *gorm.DB) ([]Application, error) {
	var apps []Application
	err := tx.
		Where("sn_sys_id IS NULL AND appd_application_name <> ''").
		Order("app_id").
		Find(&apps).Error
	return apps, err
}

// GetUnmatchedServiceApps returns rows that carry ServiceNow data but have no
// AppDynamics link yet. These form the candidate pool.
func GetUnmatchedServiceApps(tx *gorm.DB) ([]Application, error) {
	var apps []Application
	err := tx.
		Where("appd_application_id IS NULL AND sn_service_name <> ''").
		Order("app_id").
		Find(&apps).Error
	return apps, err
}

func GetApplicationById(tx *gorm.DB, appId int) (*Application, error) {
	var app Application
	if err := tx.Where("app_id = ?", appId).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &app, nil
}

// CountClaimedSnSysId reports how many live rows other than excludeAppId
// already hold the given ServiceNow sys_id. Used by the conflict guard.
func CountClaimedSnSysId(tx *gorm.DB, snSysId string, excludeAppId int) (int64, error) {
	var count int64
	err := tx.Model(&Application{}).
		Where("sn_sys_id = ? AND app_id <> ?", snSysId, excludeAppId).
		Count(&count).Error
	return count, err
}

// GetSharedServiceApps returns applications whose cost is distributed across
// sectors rather than billed to one owner: anything in a shared-service
// sector, or whose H-code carries a platform/shared/global marker.
func GetSharedServiceApps(tx *gorm.DB) ([]Application, error) {
	var apps []Application
	err := tx.
		Joins("JOIN sectors ON sectors.sector_id = applications.sector_id").
		Where(
			"sectors.sector_name IN ? OR h_code LIKE ? OR h_code LIKE ? OR h_code LIKE ?",
			SharedServiceSectorNames, "%PLATFORM%", "%SHARED%", "%GLOBAL%",
		).
		Order("app_id").
		Find(&apps).Error
	return apps, err
}

// MonitoredMatchStats reports, among rows with AppDynamics data, how many are
// linked to a CMDB service. This is the operators' key coverage metric.
type MonitoredMatchStats struct {
	TotalMonitored int64 `json:"total_monitored"`
	Matched        int64 `json:"matched"`
}

func GetMonitoredMatchStats(tx *gorm.DB) (*MonitoredMatchStats, error) {
	var s MonitoredMatchStats
	row := tx.Model(&Application{}).
		Select(`
			COUNT(*) AS total_monitored,
			COUNT(CASE WHEN sn_sys_id IS NOT NULL THEN 1 END) AS matched`).
		Where("appd_application_id IS NOT NULL").
		Row()
	if err := row.Scan(&s.TotalMonitored, &s.Matched); err != nil {
		return nil, err
	}
	return &s, nil
}

// CatalogBreakdown is the post-reconciliation census of the dimension table.
type CatalogBreakdown struct {
	Matched  int64 `json:"matched"`
	AppdOnly int64 `json:"appd_only"`
	SnowOnly int64 `json:"snow_only"`
	Total    int64 `json:"total"`
}

func GetCatalogBreakdown(tx *gorm.DB) (*CatalogBreakdown, error) {
	var b CatalogBreakdown
	row := tx.Model(&Application{}).
		Select(`
			COUNT(CASE WHEN appd_application_id IS NOT NULL AND sn_sys_id IS NOT NULL THEN 1 END) AS matched,
			COUNT(CASE WHEN appd_application_id IS NOT NULL AND sn_sys_id IS NULL THEN 1 END) AS appd_only,
			COUNT(CASE WHEN appd_application_id IS NULL AND sn_sys_id IS NOT NULL THEN 1 END) AS snow_only,
			COUNT(*) AS total`).
		Row()
	if err := row.Scan(&b.Matched, &b.AppdOnly, &b.SnowOnly, &b.Total); err != nil {
		return nil, err
	}
	return &b, nil
}
