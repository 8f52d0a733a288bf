package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"bitbucket.org/mmdatafocus/chargeback_backend/utils"
	"bitbucket.org/mmdatafocus/chargeback_backend/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pipeline order matters: reconciliation first so costs land on merged rows,
// direct aggregation before allocation so shared costs have a base to join.
func main() {
	month := flag.String("month", "", "Allocation month (YYYY-MM). Defaults to the current month.")
	flag.Parse()

	monthStart, err := parseMonth(*month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -month: %v\n", err)
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	logger := config.GetLogger()
	runId := uuid.NewString()

	fmt.Printf("Starting chargeback pipeline run=%s month=%s\n", runId, monthStart.Format("2006-01"))

	type stepResult struct {
		name string
		ok   bool
	}
	var results []stepResult

	runStep := func(name string, fn func() (string, error)) bool {
		step, serr := models.StartPipelineStep(db, runId, name)
		if serr != nil {
			fmt.Fprintf(os.Stderr, "failed to record pipeline step %s: %v\n", name, serr)
			os.Exit(1)
		}
		detail, ferr := fn()
		if ferr != nil {
			_ = models.FinishPipelineStep(db, step, models.PipelineRunStatusFailed, ferr.Error())
			fmt.Printf("  %-28s FAILED: %v\n", name, ferr)
			results = append(results, stepResult{name, false})
			return false
		}
		if err := models.FinishPipelineStep(db, step, models.PipelineRunStatusSucceeded, detail); err != nil {
			fmt.Fprintf(os.Stderr, "failed to finish pipeline step %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("  %-28s ok  %s\n", name, detail)
		results = append(results, stepResult{name, true})
		return true
	}

	runStep("reconciliation", func() (string, error) {
		summary, err := workflow.ProcessReconciliationWorkflow(db, logger, runId)
		if err != nil {
			return "", err
		}
		return utils.MarshalToJSON(summary)
	})

	runStep("direct_chargeback", func() (string, error) {
		summary, err := workflow.ProcessDirectChargebackWorkflow(db, logger, runId)
		if err != nil {
			return "", err
		}
		return utils.MarshalToJSON(summary)
	})

	runStep("allocation", func() (string, error) {
		// Run-scoped reset: clear this month's allocated rows so a re-run of
		// the pipeline does not accumulate on top of a previous run.
		var cleared int64
		err := db.Transaction(func(tx *gorm.DB) error {
			var derr error
			cleared, derr = models.DeleteAllocatedChargebacks(tx, monthStart)
			return derr
		})
		if err != nil {
			return "", err
		}
		summary, err := workflow.ProcessAllocationWorkflow(db, logger, runId, monthStart)
		if err != nil {
			return "", err
		}
		detail, err := utils.MarshalToJSON(summary)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("cleared=%d %s", cleared, detail), nil
	})

	runStep("validation", func() (string, error) {
		findings, err := workflow.ProcessValidationWorkflow(db, logger)
		if err != nil {
			return "", err
		}
		if len(findings) == 0 {
			return "clean", nil
		}
		return utils.MarshalToJSON(findings)
	})

	printReports(db, monthStart)

	failed := 0
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Pipeline execution summary")
	for _, r := range results {
		status := "SUCCESS"
		if !r.ok {
			status = "FAILED"
			failed++
		}
		fmt.Printf("  %-28s %s\n", r.name, status)
	}
	fmt.Println(strings.Repeat("=", 60))

	if failed > 0 {
		os.Exit(1)
	}
}

func parseMonth(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.ParseInLocation("2006-01", strings.TrimSpace(s), time.UTC)
}

func printReports(db *gorm.DB, monthStart time.Time) {
	breakdown, err := models.GetCatalogBreakdown(db)
	if err == nil {
		rate := 0.0
		if breakdown.Total > 0 {
			rate = float64(breakdown.Matched) / float64(breakdown.Total) * 100
		}
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("Reconciliation report")
		fmt.Printf("  Matched applications:    %d\n", breakdown.Matched)
		fmt.Printf("  AppDynamics only:        %d\n", breakdown.AppdOnly)
		fmt.Printf("  ServiceNow only:         %d\n", breakdown.SnowOnly)
		fmt.Printf("  Total applications:      %d\n", breakdown.Total)
		fmt.Printf("  Match rate:              %.1f%%\n", rate)
	}
	if stats, err := models.GetMonitoredMatchStats(db); err == nil && stats.TotalMonitored > 0 {
		fmt.Printf("  Monitored-app match rate: %.1f%% (%d/%d)\n",
			float64(stats.Matched)/float64(stats.TotalMonitored)*100, stats.Matched, stats.TotalMonitored)
	}

	if rows, err := models.GetSectorAllocationSummary(db, monthStart); err == nil && len(rows) > 0 {
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Allocation summary for %s\n", monthStart.Format("2006-01"))
		fmt.Printf("  %-30s %14s %14s %14s\n", "Sector", "Direct", "Allocated", "Total")
		for _, row := range rows {
			fmt.Printf("  %-30s %14s %14s %14s\n",
				row.SectorName,
				row.DirectCosts.StringFixed(2),
				row.AllocatedCosts.StringFixed(2),
				row.TotalCosts.StringFixed(2))
		}
	}
}
