package core

import (
	"regexp"
	"strconv"
	"time"
)

// Risk indicator labels, in fixed evaluation order.
const (
	IndicatorAmountMismatch   = "amount_mismatch"
	IndicatorHighValueClaim   = "high_value_claim"
	IndicatorPolicyAnomaly    = "policy_number_anomaly"
	IndicatorFrequentClaims   = "frequent_claims"
	IndicatorMissingExtracted = "missing_extracted_data"
	IndicatorDateInconsistent = "date_inconsistency"
)

// Extracted-data field names produced by the document-AI service.
const (
	FieldClaimAmount   = "claim_amount"
	FieldPolicyNumber  = "policy_number"
	FieldDateOfService = "date_of_service"
	FieldProviderName  = "provider_name"
	FieldDocumentType  = "document_type"
)

// RiskConfig holds the scoring thresholds. These are tunable policy,
// not hard law; env config may override the defaults.
type RiskConfig struct {
	AmountMismatchTolerance float64 // fraction of declared amount
	AmountMismatchPoints    int

	HighValueThreshold  int64 // minor units
	HighValueBasePoints int
	HighValueStepPoints int // added per full threshold-multiple above
	HighValueMaxPoints  int

	PolicyAnomalyPoints int

	FrequentClaimsThreshold int // recent claims at/above which the rule fires
	FrequentClaimsPoints    int // per claim at/above the threshold
	FrequentClaimsMaxPoints int

	MissingExtractedPoints int

	MaxIncidentAgeDays      int
	DateInconsistencyPoints int
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		AmountMismatchTolerance: 0.10,
		AmountMismatchPoints:    20,

		HighValueThreshold:  100_000,
		HighValueBasePoints: 10,
		HighValueStepPoints: 5,
		HighValueMaxPoints:  30,

		PolicyAnomalyPoints: 15,

		FrequentClaimsThreshold: 3,
		FrequentClaimsPoints:    10,
		FrequentClaimsMaxPoints: 30,

		MissingExtractedPoints: 15,

		MaxIncidentAgeDays:      365,
		DateInconsistencyPoints: 15,
	}
}

// ScoreInput captures everything ScoreClaim reads from a claim.
// SubmittedAt is passed in so scoring never reads the clock.
type ScoreInput struct {
	Amount        int64
	ClaimType     ClaimType
	PolicyNumber  string
	IncidentDate  time.Time
	Description   string
	DocumentCount int
	SubmittedAt   time.Time
}

var policyNumberRegex = regexp.MustCompile(`^POL\d{8}$`)

// ScoreClaim computes the 0-100 risk score and the triggered indicator
// labels. Pure function: identical inputs always yield identical
// output, so admins can audit why a score was produced.
func ScoreClaim(cfg RiskConfig, in ScoreInput, extracted map[string]string, recentCount int) (int, []string) {
	score := 0
	var indicators []string

	// 1) Extracted amount disagrees with the declared amount.
	if extAmount, ok := extractedAmount(extracted); ok && in.Amount > 0 {
		diff := extAmount - in.Amount
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > cfg.AmountMismatchTolerance*float64(in.Amount) {
			score += cfg.AmountMismatchPoints
			indicators = append(indicators, IndicatorAmountMismatch)
		}
	}

	// 2) High declared amount, scaled by how far above the threshold.
	if in.Amount > cfg.HighValueThreshold {
		steps := (in.Amount - cfg.HighValueThreshold) / cfg.HighValueThreshold
		points := cfg.HighValueBasePoints + int(steps)*cfg.HighValueStepPoints
		score += min(points, cfg.HighValueMaxPoints)
		indicators = append(indicators, IndicatorHighValueClaim)
	}

	// 3) Policy number fails the format check or disagrees with the
	// number extracted from the documents.
	anomaly := !policyNumberRegex.MatchString(in.PolicyNumber)
	if extPolicy, ok := extracted[FieldPolicyNumber]; ok && extPolicy != "" && extPolicy != in.PolicyNumber {
		anomaly = true
	}
	if anomaly {
		score += cfg.PolicyAnomalyPoints
		indicators = append(indicators, IndicatorPolicyAnomaly)
	}

	// 4) Claim frequency in the trailing window, escalating per claim.
	if recentCount >= cfg.FrequentClaimsThreshold {
		points := (recentCount - cfg.FrequentClaimsThreshold + 1) * cfg.FrequentClaimsPoints
		score += min(points, cfg.FrequentClaimsMaxPoints)
		indicators = append(indicators, IndicatorFrequentClaims)
	}

	// 5) Documents were attached but extraction produced nothing.
	if len(extracted) == 0 && in.DocumentCount > 0 {
		score += cfg.MissingExtractedPoints
		indicators = append(indicators, IndicatorMissingExtracted)
	}

	// 6) Incident date in the future or stale beyond the window.
	maxAge := time.Duration(cfg.MaxIncidentAgeDays) * 24 * time.Hour
	if in.IncidentDate.After(in.SubmittedAt) || in.SubmittedAt.Sub(in.IncidentDate) > maxAge {
		score += cfg.DateInconsistencyPoints
		indicators = append(indicators, IndicatorDateInconsistent)
	}

	if score > 100 {
		score = 100
	}
	return score, indicators
}

func extractedAmount(extracted map[string]string) (int64, bool) {
	raw, ok := extracted[FieldClaimAmount]
	if !ok || raw == "" {
		return 0, false
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
