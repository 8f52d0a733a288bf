package models

import (
	"log"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Sector{}, &Application{},
		&LicenseUsageFact{}, &LicenseCostFact{}, &ChargebackFact{}, &ForecastFact{},
		&ReconciliationLog{}, &AllocationRule{},
		&PipelineRun{}, &DataLineage{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
