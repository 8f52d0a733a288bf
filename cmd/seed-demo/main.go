package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"bitbucket.org/mmdatafocus/chargeback_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeds a small demo catalog so the pipeline can be exercised end to end
// without the extract jobs: sectors, half-matched applications from both
// source systems, and a month of usage/cost facts.

// snowService mirrors the CMDB export shape. Reference fields arrive either
// as plain strings or {value, display_value} objects; FlexString flattens both.
type snowService struct {
	SysId        string           `json:"sys_id"`
	Name         string           `json:"name"`
	Sector       utils.FlexString `json:"sector"`
	HCode        utils.FlexString `json:"u_h_code"`
	Owner        utils.FlexString `json:"owned_by"`
	Architecture utils.FlexString `json:"u_architecture"`
}

// The mixed string/object shapes below are intentional; both occur in real
// CMDB exports.
const snowFixture = `[
	{"sys_id": "sn-1001", "name": "Customer Portal - Prod", "sector": "Consumer Banking", "u_h_code": "H-CB-100", "owned_by": {"value": "u-77", "display_value": "Dana Whitfield"}},
	{"sys_id": "sn-1002", "name": "Billing Engine", "sector": {"value": "3", "display_value": "Payments"}, "u_h_code": "H-PAY-200", "owned_by": "Marcus Lee"},
	{"sys_id": "sn-1003", "name": "Platform Shared Services", "sector": "Corporate/Shared Services", "u_h_code": "H-PLATFORM-001", "owned_by": {"value": "u-12", "display_value": "Priya Nair"}},
	{"sys_id": "sn-1004", "name": "Global IT Service Desk", "sector": "Global IT", "u_h_code": "H-GLOBAL_IT-002", "owned_by": "Service Desk Team"},
	{"sys_id": "sn-1005", "name": "Treasury Risk Dashboard", "sector": "Treasury", "u_h_code": "H-TRE-300", "owned_by": "Alex Osei", "u_architecture": {"value": "micro", "display_value": "Microservices"}}
]`

type appdApp struct {
	AppdId       int
	Name         string
	SectorName   string
	Architecture string
}

var appdFixture = []appdApp{
	{AppdId: 9001, Name: "Customer Portal", SectorName: "Consumer Banking", Architecture: "Monolith"},
	{AppdId: 9002, Name: "Billing Engine v2", SectorName: "Payments", Architecture: "Microservices"},
	{AppdId: 9003, Name: "Fraud Scoring", SectorName: "Payments", Architecture: "Microservices"},
}

var sectorNames = []string{
	"Consumer Banking",
	"Payments",
	"Treasury",
	"Corporate/Shared Services",
	"Global IT",
}

func main() {
	wipe := flag.Bool("wipe", false, "Delete existing demo data before seeding.")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	err := db.Transaction(func(tx *gorm.DB) error {
		if *wipe {
			for _, table := range []string{
				"chargeback_facts", "forecast_facts", "license_cost_facts",
				"license_usage_facts", "reconciliation_logs", "allocation_rules",
				"pipeline_runs", "data_lineage", "applications", "sectors",
			} {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return err
				}
			}
		}
		return seed(tx)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Demo data seeded. Run cmd/run-pipeline next.")
}

func seed(tx *gorm.DB) error {
	sectorIds := map[string]int{}
	for _, name := range sectorNames {
		sector := models.Sector{SectorName: name}
		if err := tx.Where("sector_name = ?", name).FirstOrCreate(&sector).Error; err != nil {
			return err
		}
		sectorIds[name] = sector.SectorId
	}

	var services []snowService
	if err := json.Unmarshal([]byte(snowFixture), &services); err != nil {
		return err
	}

	appIds := map[string]int{}
	for _, svc := range services {
		sysId := svc.SysId
		app := models.Application{
			SnSysId:       &sysId,
			SnServiceName: svc.Name,
			SectorId:      resolveSector(sectorIds, svc.Sector.String()),
			OwnerName:     svc.Owner.String(),
			HCode:         svc.HCode.String(),
			Architecture:  svc.Architecture.String(),
		}
		if err := tx.Where("sn_sys_id = ?", sysId).FirstOrCreate(&app).Error; err != nil {
			return err
		}
		appIds[svc.Name] = app.AppId
	}

	for _, a := range appdFixture {
		appdId := a.AppdId
		app := models.Application{
			AppdApplicationId:   &appdId,
			AppdApplicationName: a.Name,
			SectorId:            resolveSector(sectorIds, a.SectorName),
			Architecture:        a.Architecture,
		}
		if err := tx.Where("appd_application_id = ?", appdId).FirstOrCreate(&app).Error; err != nil {
			return err
		}
		appIds[a.Name] = app.AppId
	}

	if err := models.SeedDefaultAllocationRules(tx); err != nil {
		return err
	}

	return seedFacts(tx, appIds)
}

// seedFacts writes a month of daily usage and cost so proportional allocation
// has a basis. Values are fixed, not random, so repeated seeds reconcile to
// the same chargebacks.
func seedFacts(tx *gorm.DB, appIds map[string]int) error {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	dailyUnits := map[string]decimal.Decimal{
		"Customer Portal":          decimal.NewFromInt(40),
		"Billing Engine v2":        decimal.NewFromInt(25),
		"Fraud Scoring":            decimal.NewFromInt(15),
		"Platform Shared Services": decimal.NewFromInt(10),
	}
	unitCost := decimal.NewFromFloat(3.25)

	for name, units := range dailyUnits {
		appId, ok := appIds[name]
		if !ok {
			continue
		}
		for day := 0; day < 28; day++ {
			ts := monthStart.AddDate(0, 0, day)
			usage := models.LicenseUsageFact{
				AppId:         appId,
				Ts:            ts,
				LicenseType:   "APM",
				UnitsConsumed: units,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return err
			}
			cost := models.LicenseCostFact{
				AppId:   appId,
				Ts:      ts,
				UsdCost: units.Mul(unitCost),
			}
			if err := tx.Create(&cost).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveSector(sectorIds map[string]int, name string) int {
	if id, ok := sectorIds[name]; ok {
		return id
	}
	// Fixture sectors that arrive as raw reference values land in Treasury's
	// catch-all until enrichment maps them.
	return sectorIds["Treasury"]
}
