package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
)

func testThresholds() config.MatchThresholdConfig {
	return config.MatchThresholdConfig{AutoMatch: 80, NeedsReview: 50}
}

func TestClassifyScore_Partition(t *testing.T) {
	cfg := testThresholds()
	cases := []struct {
		score float64
		want  models.MatchStatus
	}{
		{0, models.MatchStatusNoMatch},
		{49.99, models.MatchStatusNoMatch},
		{50, models.MatchStatusNeedsReview},
		{65, models.MatchStatusNeedsReview},
		{79.99, models.MatchStatusNeedsReview},
		{80, models.MatchStatusAutoMatched},
		{100, models.MatchStatusAutoMatched},
	}
	for _, c := range cases {
		if got := ClassifyScore(c.score, cfg); got != c.want {
			t.Fatalf("ClassifyScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func sysId(s string) *string {
	return &s
}

func TestCandidatePool_BestCandidate(t *testing.T) {
	pool := NewCandidatePool([]models.Application{
		{AppId: 1, SnSysId: sysId("sn-1"), SnServiceName: "Billing Engine"},
		{AppId: 2, SnSysId: sysId("sn-2"), SnServiceName: "Customer Portal - Prod"},
		{AppId: 3, SnSysId: sysId("sn-3"), SnServiceName: "Treasury Risk Dashboard"},
	})

	best, score, ok := pool.BestCandidate("Customer Portal")
	if !ok {
		t.Fatal("expected a candidate")
	}
	if best.AppId != 2 {
		t.Fatalf("best candidate app_id = %d, want 2", best.AppId)
	}
	if score < 80 {
		t.Fatalf("best candidate score = %v, want >= 80", score)
	}
}

func TestCandidatePool_TieKeepsFirstEncountered(t *testing.T) {
	pool := NewCandidatePool([]models.Application{
		{AppId: 10, SnSysId: sysId("sn-10"), SnServiceName: "Payments API"},
		{AppId: 11, SnSysId: sysId("sn-11"), SnServiceName: "Payments API"},
	})

	best, _, ok := pool.BestCandidate("Payments API")
	if !ok || best.AppId != 10 {
		t.Fatalf("tie should keep the first candidate, got app_id=%d ok=%v", best.AppId, ok)
	}
}

func TestCandidatePool_EmptyAndConsume(t *testing.T) {
	pool := NewCandidatePool(nil)
	if _, _, ok := pool.BestCandidate("anything"); ok {
		t.Fatal("empty pool should report no candidates")
	}

	pool = NewCandidatePool([]models.Application{
		{AppId: 1, SnSysId: sysId("sn-1"), SnServiceName: "Customer Portal - Prod"},
	})
	pool.Consume(1)
	if pool.Len() != 0 {
		t.Fatalf("pool length after consume = %d, want 0", pool.Len())
	}
	if _, _, ok := pool.BestCandidate("Customer Portal"); ok {
		t.Fatal("consumed candidate must not be matchable again")
	}
}

func TestCandidatePool_SkipsRowsWithoutSysId(t *testing.T) {
	pool := NewCandidatePool([]models.Application{
		{AppId: 1, SnServiceName: "No Sys Id Row"},
		{AppId: 2, SnSysId: sysId("sn-2"), SnServiceName: "Real Row"},
	})
	if pool.Len() != 1 {
		t.Fatalf("pool length = %d, want 1", pool.Len())
	}
}

func TestCandidatePool_BestCandidateDoesNotMutate(t *testing.T) {
	pool := NewCandidatePool([]models.Application{
		{AppId: 1, SnSysId: sysId("sn-1"), SnServiceName: "Billing Engine"},
		{AppId: 2, SnSysId: sysId("sn-2"), SnServiceName: "Customer Portal - Prod"},
	})
	pool.BestCandidate("Customer Portal")
	pool.BestCandidate("Billing Engine")
	if pool.Len() != 2 {
		t.Fatalf("BestCandidate mutated the pool, length = %d, want 2", pool.Len())
	}
}
