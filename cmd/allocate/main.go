package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"bitbucket.org/mmdatafocus/chargeback_backend/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Runs the shared-service allocation step for one month. With -reset, the
// month's previously allocated rows are cleared first, so the tool is safe
// to re-run; without it, contributions accumulate onto existing rows.
func main() {
	month := flag.String("month", "", "Allocation month (YYYY-MM). Defaults to the current month.")
	reset := flag.Bool("reset", true, "Clear the month's allocated chargeback rows before allocating.")
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

	if *reset {
		var cleared int64
		err := db.Transaction(func(tx *gorm.DB) error {
			var derr error
			cleared, derr = models.DeleteAllocatedChargebacks(tx, monthStart)
			return derr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear allocated rows: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cleared %d previously allocated rows for %s\n", cleared, monthStart.Format("2006-01"))
	}

	summary, err := workflow.ProcessAllocationWorkflow(db, logger, runId, monthStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "allocation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Applied %d allocation rules over %d shared services (%d rows written)\n",
		summary.RulesApplied, summary.SharedServices, summary.RowsWritten)
	if summary.SkippedNoRule > 0 {
		fmt.Printf("  %d shared services had no matching rule\n", summary.SkippedNoRule)
	}
}

func parseMonth(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.ParseInLocation("2006-01", strings.TrimSpace(s), time.UTC)
}
