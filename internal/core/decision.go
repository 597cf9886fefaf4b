package core

// DecisionConfig holds the routing thresholds applied to a freshly
// scored claim.
type DecisionConfig struct {
	AutoApproveMaxScore  int   // exclusive upper bound for auto-approval
	AutoApproveMaxAmount int64 // exclusive upper bound, minor units
	ReviewMinScore       int   // inclusive lower bound for escalation
}

func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		AutoApproveMaxScore:  30,
		AutoApproveMaxAmount: 50_000,
		ReviewMinScore:       80,
	}
}

// Decide maps (score, declared amount) to the claim's initial status.
// Auto-approval requires both low risk and low stakes; high risk is
// escalated for a human, never auto-rejected; everything in between
// lands in the manual pending queue. Rejected is reachable only via an
// explicit admin action.
func Decide(cfg DecisionConfig, score int, amount int64) (ClaimStatus, bool) {
	switch {
	case score < cfg.AutoApproveMaxScore && amount < cfg.AutoApproveMaxAmount:
		return ClaimStatusApproved, true
	case score >= cfg.ReviewMinScore:
		return ClaimStatusUnderReview, true
	default:
		return ClaimStatusPending, false
	}
}
