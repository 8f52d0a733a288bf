package workflow

import (
	"bitbucket.org/mmdatafocus/chargeback_backend/config"
	"bitbucket.org/mmdatafocus/chargeback_backend/models"
)

// MatchCandidate is one still-unclaimed ServiceNow-side row.
type MatchCandidate struct {
	AppId       int
	SnSysId     string
	ServiceName string
}

// CandidatePool is the explicit working set of B-side candidates for one
// reconciliation pass. The orchestrator consumes a candidate the moment a
// merge lands, so no two monitored apps can claim the same service row
// within the pass.
type CandidatePool struct {
	candidates []MatchCandidate
}

func NewCandidatePool(apps []models.Application) *CandidatePool {
	pool := &CandidatePool{candidates: make([]MatchCandidate, 0, len(apps))}
	for _, app := range apps {
		if app.SnSysId == nil {
			continue
		}
		pool.candidates = append(pool.candidates, MatchCandidate{
			AppId:       app.AppId,
			SnSysId:     *app.SnSysId,
			ServiceName: app.SnServiceName,
		})
	}
	return pool
}

func (p *CandidatePool) Len() int {
	return len(p.candidates)
}

// BestCandidate scores name against every remaining candidate and returns the
// strictly-highest scorer. Ties keep the first-encountered candidate (the
// pool preserves app_id order). ok is false when the pool is empty.
// The pool is not mutated.
func (p *CandidatePool) BestCandidate(name string) (best MatchCandidate, bestScore float64, ok bool) {
	for _, cand := range p.candidates {
		score := SimilarityScore(name, cand.ServiceName)
		if !ok || score > bestScore {
			best = cand
			bestScore = score
			ok = true
		}
	}
	return best, bestScore, ok
}

// Consume removes a claimed candidate from the pool.
func (p *CandidatePool) Consume(appId int) {
	for i, cand := range p.candidates {
		if cand.AppId == appId {
			p.candidates = append(p.candidates[:i], p.candidates[i+1:]...)
			return
		}
	}
}

// ClassifyScore maps a similarity score onto the three-tier outcome. Exactly
// one tier holds for any score; both boundaries are inclusive on the low end.
func ClassifyScore(score float64, cfg config.MatchThresholdConfig) models.MatchStatus {
	switch {
	case score >= cfg.AutoMatch:
		return models.MatchStatusAutoMatched
	case score >= cfg.NeedsReview:
		return models.MatchStatusNeedsReview
	default:
		return models.MatchStatusNoMatch
	}
}
