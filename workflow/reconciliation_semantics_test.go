package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
)

// NOTE: these tests are intentionally DB-free. They validate the intended
// reconciliation semantics (single claim per sys_id, conflict guard, all or
// nothing merges) against an in-memory catalog, using the real scorer,
// classifier and candidate pool so the decision path matches production.

type fakeCatalog struct {
	apps       map[int]models.Application
	factOwners map[int]int // app_id -> fact row count across all ledgers
	decisions  []models.ReconciliationLog

	// failAt injects a failure into the named merge step so rollback
	// behavior can be observed.
	failAt string
}

var errInjected = errors.New("injected merge failure")

func newFakeCatalog(apps ...models.Application) *fakeCatalog {
	c := &fakeCatalog{
		apps:       map[int]models.Application{},
		factOwners: map[int]int{},
	}
	for _, a := range apps {
		c.apps[a.AppId] = a
	}
	return c
}

func (c *fakeCatalog) monitored() []models.Application {
	var out []models.Application
	for id := 1; id <= len(c.apps)+64; id++ {
		a, ok := c.apps[id]
		if !ok {
			continue
		}
		if a.SnSysId == nil && a.AppdApplicationName != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *fakeCatalog) services() []models.Application {
	var out []models.Application
	for id := 1; id <= len(c.apps)+64; id++ {
		a, ok := c.apps[id]
		if !ok {
			continue
		}
		if a.SnSysId != nil && a.AppdApplicationId == nil {
			out = append(out, a)
		}
	}
	return out
}

func (c *fakeCatalog) claimedBy(snSysId string, excludeAppId int) int {
	n := 0
	for _, a := range c.apps {
		if a.AppId == excludeAppId {
			continue
		}
		if a.SnSysId != nil && *a.SnSysId == snSysId && a.AppdApplicationId != nil {
			n++
		}
	}
	return n
}

func (c *fakeCatalog) recordDecision(keyA, keyB string, score float64, status models.MatchStatus, resolved *int) {
	c.decisions = append(c.decisions, models.ReconciliationLog{
		SourceA:         models.SourceSystemAppd,
		SourceB:         models.SourceSystemSnow,
		MatchKeyA:       keyA,
		MatchKeyB:       keyB,
		ConfidenceScore: score,
		MatchStatus:     status,
		ResolvedAppId:   resolved,
	})
}

// merge mirrors MergeApplications step for step. On any step failure the
// snapshot taken up front is restored, matching transaction rollback.
func (c *fakeCatalog) merge(score float64, donor, survivor models.Application) error {
	snapApps := map[int]models.Application{}
	for k, v := range c.apps {
		snapApps[k] = v
	}
	snapFacts := map[int]int{}
	for k, v := range c.factOwners {
		snapFacts[k] = v
	}
	snapDecisions := len(c.decisions)

	rollback := func() {
		c.apps = snapApps
		c.factOwners = snapFacts
		c.decisions = c.decisions[:snapDecisions]
	}

	if donor.AppId == survivor.AppId {
		return ErrorMergeSelf
	}

	if c.failAt == "copy_fields" {
		rollback()
		return errInjected
	}
	merged := c.apps[survivor.AppId]
	merged.AppdApplicationId = donor.AppdApplicationId
	merged.AppdApplicationName = donor.AppdApplicationName
	if donor.OwnerName != "" {
		merged.OwnerName = donor.OwnerName
	}
	if donor.Architecture != "" {
		merged.Architecture = donor.Architecture
	}
	c.apps[survivor.AppId] = merged

	if c.failAt == "rehome_facts" {
		rollback()
		return errInjected
	}
	c.factOwners[survivor.AppId] += c.factOwners[donor.AppId]
	delete(c.factOwners, donor.AppId)

	resolved := survivor.AppId
	c.recordDecision(donor.AppdApplicationName, survivor.SnServiceName, score, models.MatchStatusAutoMatched, &resolved)

	if c.failAt == "delete_donor" {
		rollback()
		return errInjected
	}
	delete(c.apps, donor.AppId)

	return nil
}

// reconcilePass replays ProcessReconciliationWorkflow's decision loop against
// the in-memory catalog.
func (c *fakeCatalog) reconcilePass(thresholds config.MatchThresholdConfig) ReconciliationSummary {
	monitored := c.monitored()
	pool := NewCandidatePool(c.services())
	summary := ReconciliationSummary{TotalMonitored: len(monitored)}

	for _, donor := range monitored {
		cand, score, ok := pool.BestCandidate(donor.AppdApplicationName)
		if !ok {
			summary.NoMatch++
			c.recordDecision(donor.AppdApplicationName, "", 0, models.MatchStatusNoMatch, nil)
			continue
		}

		switch ClassifyScore(score, thresholds) {
		case models.MatchStatusNoMatch:
			summary.NoMatch++
			c.recordDecision(donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusNoMatch, nil)

		case models.MatchStatusNeedsReview:
			summary.NeedsReview++
			c.recordDecision(donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusNeedsReview, nil)

		case models.MatchStatusAutoMatched:
			if c.claimedBy(cand.SnSysId, cand.AppId) > 0 {
				summary.Conflicts++
				c.recordDecision(donor.AppdApplicationName, cand.ServiceName, score, models.MatchStatusConflict, nil)
				continue
			}
			if err := c.merge(score, donor, c.apps[cand.AppId]); err != nil {
				summary.MergeFailures++
				continue
			}
			summary.AutoMatched++
			pool.Consume(cand.AppId)
		}
	}

	if summary.TotalMonitored > 0 {
		summary.MatchRate = float64(summary.AutoMatched) / float64(summary.TotalMonitored) * 100
	}
	return summary
}

func (c *fakeCatalog) decisionsWithStatus(status models.MatchStatus) []models.ReconciliationLog {
	var out []models.ReconciliationLog
	for _, d := range c.decisions {
		if d.MatchStatus == status {
			out = append(out, d)
		}
	}
	return out
}

func appdRow(appId, appdId int, name string) models.Application {
	id := appdId
	return models.Application{AppId: appId, AppdApplicationId: &id, AppdApplicationName: name}
}

func snowRow(appId int, sys, name string) models.Application {
	s := sys
	return models.Application{AppId: appId, SnSysId: &s, SnServiceName: name}
}

func TestReconcilePass_CatalogScenario(t *testing.T) {
	catalog := newFakeCatalog(
		appdRow(1, 9001, "Customer Portal"),
		appdRow(2, 9002, "Billing Engine v2"),
		appdRow(3, 9003, "Fraud Scoring"),
		snowRow(4, "sn-1001", "Customer Portal - Prod"),
		snowRow(5, "sn-1002", "Billing Engine"),
		snowRow(6, "sn-1005", "Treasury Risk Dashboard"),
	)
	catalog.factOwners[1] = 28
	catalog.factOwners[4] = 3

	summary := catalog.reconcilePass(testThresholds())

	if summary.AutoMatched != 2 {
		t.Fatalf("auto_matched = %d, want 2 (portal and billing)", summary.AutoMatched)
	}
	if summary.NoMatch != 1 {
		t.Fatalf("no_match = %d, want 1 (fraud scoring)", summary.NoMatch)
	}
	if summary.Conflicts != 0 || summary.MergeFailures != 0 {
		t.Fatalf("unexpected conflicts=%d merge_failures=%d", summary.Conflicts, summary.MergeFailures)
	}

	// Portal survivor keeps CMDB identity and gains the AppDynamics fields,
	// and all of the donor's facts now point at it.
	survivor, ok := catalog.apps[4]
	if !ok {
		t.Fatal("survivor row 4 is gone")
	}
	if survivor.AppdApplicationId == nil || *survivor.AppdApplicationId != 9001 {
		t.Fatalf("survivor appd_application_id = %v, want 9001", survivor.AppdApplicationId)
	}
	if survivor.AppdApplicationName != "Customer Portal" {
		t.Fatalf("survivor appd_application_name = %q", survivor.AppdApplicationName)
	}
	if _, stillThere := catalog.apps[1]; stillThere {
		t.Fatal("donor row 1 should be deleted after merge")
	}
	if catalog.factOwners[4] != 31 {
		t.Fatalf("survivor fact rows = %d, want 31 (28 re-homed + 3 own)", catalog.factOwners[4])
	}
	if _, orphaned := catalog.factOwners[1]; orphaned {
		t.Fatal("donor app_id must not own fact rows after merge")
	}

	auto := catalog.decisionsWithStatus(models.MatchStatusAutoMatched)
	if len(auto) != 2 {
		t.Fatalf("auto_matched decisions = %d, want 2", len(auto))
	}
	for _, d := range auto {
		if d.ResolvedAppId == nil {
			t.Fatalf("auto_matched decision %q has no resolved app id", d.MatchKeyA)
		}
	}
	if noMatch := catalog.decisionsWithStatus(models.MatchStatusNoMatch); len(noMatch) != 1 || noMatch[0].MatchKeyA != "Fraud Scoring" {
		t.Fatalf("no_match decisions = %+v, want one for Fraud Scoring", noMatch)
	}
}

func TestReconcilePass_NoDoubleClaim(t *testing.T) {
	catalog := newFakeCatalog(
		appdRow(1, 9001, "Customer Portal"),
		appdRow(2, 9002, "Customer Portal"),
		snowRow(3, "sn-1001", "Customer Portal - Prod"),
	)

	summary := catalog.reconcilePass(testThresholds())

	if summary.AutoMatched != 1 {
		t.Fatalf("auto_matched = %d, want 1", summary.AutoMatched)
	}
	if summary.NoMatch != 1 {
		t.Fatalf("no_match = %d, want 1 (second donor finds an empty pool)", summary.NoMatch)
	}

	// Exactly one live row may claim sn-1001.
	claims := 0
	for _, a := range catalog.apps {
		if a.SnSysId != nil && *a.SnSysId == "sn-1001" {
			claims++
		}
	}
	if claims != 1 {
		t.Fatalf("sn-1001 claimed by %d live rows, want exactly 1", claims)
	}
	if len(catalog.decisionsWithStatus(models.MatchStatusAutoMatched)) != 1 {
		t.Fatal("want exactly one auto_matched decision")
	}
}

func TestReconcilePass_ConflictGuardBlocksClaimedSysId(t *testing.T) {
	// Row 3 already carries both identities, so its sys_id is claimed even
	// though row 4 (same sys_id, CMDB-only duplicate) is still in the pool.
	claimed := appdRow(3, 9050, "Customer Portal Legacy")
	sys := "sn-1001"
	claimed.SnSysId = &sys

	catalog := newFakeCatalog(
		appdRow(1, 9001, "Customer Portal"),
		claimed,
		snowRow(4, "sn-1001", "Customer Portal - Prod"),
	)

	summary := catalog.reconcilePass(testThresholds())

	if summary.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", summary.Conflicts)
	}
	if summary.AutoMatched != 0 {
		t.Fatalf("auto_matched = %d, want 0", summary.AutoMatched)
	}
	if _, donorAlive := catalog.apps[1]; !donorAlive {
		t.Fatal("donor must survive a conflict untouched")
	}
	conflicts := catalog.decisionsWithStatus(models.MatchStatusConflict)
	if len(conflicts) != 1 || conflicts[0].MatchKeyA != "Customer Portal" {
		t.Fatalf("conflict decisions = %+v", conflicts)
	}
}

func TestMerge_InjectedFailureRollsBackEverything(t *testing.T) {
	for _, failAt := range []string{"copy_fields", "rehome_facts", "delete_donor"} {
		catalog := newFakeCatalog(
			appdRow(1, 9001, "Customer Portal"),
			snowRow(2, "sn-1001", "Customer Portal - Prod"),
		)
		catalog.factOwners[1] = 10
		catalog.failAt = failAt

		summary := catalog.reconcilePass(testThresholds())

		if summary.MergeFailures != 1 {
			t.Fatalf("failAt=%s: merge_failures = %d, want 1", failAt, summary.MergeFailures)
		}
		if summary.AutoMatched != 0 {
			t.Fatalf("failAt=%s: auto_matched = %d, want 0", failAt, summary.AutoMatched)
		}
		if _, ok := catalog.apps[1]; !ok {
			t.Fatalf("failAt=%s: donor deleted despite rollback", failAt)
		}
		if catalog.factOwners[1] != 10 {
			t.Fatalf("failAt=%s: donor facts = %d, want 10 untouched", failAt, catalog.factOwners[1])
		}
		survivor := catalog.apps[2]
		if survivor.AppdApplicationId != nil {
			t.Fatalf("failAt=%s: survivor gained donor fields despite rollback", failAt)
		}
		if len(catalog.decisions) != 0 {
			t.Fatalf("failAt=%s: %d decision rows written despite rollback", failAt, len(catalog.decisions))
		}
	}
}

func TestMerge_SelfMergeRefused(t *testing.T) {
	catalog := newFakeCatalog(snowRow(1, "sn-1", "Customer Portal"))
	app := catalog.apps[1]
	if err := catalog.merge(100, app, app); !errors.Is(err, ErrorMergeSelf) {
		t.Fatalf("self merge returned %v, want ErrorMergeSelf", err)
	}
}
