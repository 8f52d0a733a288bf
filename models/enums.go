package models

type MatchStatus string

const (
	MatchStatusAutoMatched MatchStatus = "auto_matched"
	MatchStatusNeedsReview MatchStatus = "needs_review"
	MatchStatusConflict    MatchStatus = "conflict"
	MatchStatusNoMatch     MatchStatus = "no_match"
)

type DistributionMethod string

const (
	DistributionMethodProportionalUsage DistributionMethod = "proportional_usage"
	DistributionMethodEqualSplit        DistributionMethod = "equal_split"
	DistributionMethodCustomFormula     DistributionMethod = "custom_formula"
)

// ChargebackCycle distinguishes direct monthly aggregation from the three
// shared-service allocation flavors. Reporting groups on the "allocated" prefix.
type ChargebackCycle string

const (
	ChargebackCycleDirect                 ChargebackCycle = "direct"
	ChargebackCycleAllocatedProportional  ChargebackCycle = "allocated_proportional_usage"
	ChargebackCycleAllocatedEqualSplit    ChargebackCycle = "allocated_equal_split"
	ChargebackCycleAllocatedCustomFormula ChargebackCycle = "allocated_custom_formula"
)

func (m DistributionMethod) Cycle() ChargebackCycle {
	switch m {
	case DistributionMethodProportionalUsage:
		return ChargebackCycleAllocatedProportional
	case DistributionMethodEqualSplit:
		return ChargebackCycleAllocatedEqualSplit
	case DistributionMethodCustomFormula:
		return ChargebackCycleAllocatedCustomFormula
	}
	return ChargebackCycle(m)
}

type PipelineRunStatus string

const (
	PipelineRunStatusRunning   PipelineRunStatus = "running"
	PipelineRunStatusSucceeded PipelineRunStatus = "succeeded"
	PipelineRunStatusFailed    PipelineRunStatus = "failed"
)

const (
	SourceSystemAppd     = "AppDynamics"
	SourceSystemSnow     = "ServiceNow"
	SourceSystemPipeline = "pipeline"
)
