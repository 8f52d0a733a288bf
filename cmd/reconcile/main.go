package main

import (
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
	"bitbucket.org/mmdatafocus/chargeback_backend/workflow"
	"github.com/google/uuid"
)

// Runs a single reconciliation pass outside the full pipeline. Useful after
// a fresh catalog extract, or to retry conflicts once data is cleaned up.
func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	logger := config.GetLogger()
	runId := uuid.NewString()

	summary, err := workflow.ProcessReconciliationWorkflow(db, logger, runId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Reconciliation complete: %d automatic matches (%.1f%% of %d monitored apps)\n",
		summary.AutoMatched, summary.MatchRate, summary.TotalMonitored)
	fmt.Printf("  needs_review=%d conflicts=%d no_match=%d merge_failures=%d\n",
		summary.NeedsReview, summary.Conflicts, summary.NoMatch, summary.MergeFailures)

	if summary.MergeFailures > 0 {
		os.Exit(1)
	}
}
