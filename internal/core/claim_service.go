package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrKriegler/go-claims/internal/platform/ids"
)

type ClaimService interface {
	// Submit validates the input and persists a new claim. By default
	// the claim lands pending/unscored and the background worker runs
	// the scoring pipeline; with opts.Wait the pipeline runs inline and
	// the claim persists already decided.
	Submit(ctx context.Context, in ClaimInput, opts SubmitOptions) (Claim, error)

	// Get retrieves a claim by ID.
	Get(ctx context.Context, id string) (Claim, error)

	// ListForUser returns a user's claims, newest first.
	ListForUser(ctx context.Context, userID string) ([]Claim, error)

	// ProcessClaim runs extraction, scoring and the decision policy for
	// a claim that has not been scored yet. Idempotent: an already
	// scored claim is returned unchanged.
	ProcessClaim(ctx context.Context, id string) (Claim, error)

	// Approve, Reject and RequestInfo are the admin transitions.
	Approve(ctx context.Context, id string, in TransitionInput) (Claim, error)
	Reject(ctx context.Context, id string, in TransitionInput) (Claim, error)
	RequestInfo(ctx context.Context, id string, in TransitionInput) (Claim, error)

	// Stats aggregates stored claims for the admin dashboard.
	Stats(ctx context.Context, filter StatsFilter) (DashboardStats, error)
}

type SubmitOptions struct {
	Wait bool // score synchronously before persisting
}

// ClaimServiceConfig carries the tunable policy knobs. Zero values are
// replaced with the package defaults.
type ClaimServiceConfig struct {
	Risk           RiskConfig
	Decision       DecisionConfig
	RecentWindow   time.Duration // trailing window for the frequency rule
	ExtractTimeout time.Duration // upper bound on one extraction call
	Notify         TransitionHook
}

type claimService struct {
	claims    ClaimRepo
	extractor Extractor
	risk      RiskConfig
	decision  DecisionConfig
	window    time.Duration
	extractTO time.Duration
	notify    TransitionHook
	clock     func() time.Time
}

func NewClaimService(claims ClaimRepo, extractor Extractor, cfg ClaimServiceConfig) ClaimService {
	if cfg.Risk == (RiskConfig{}) {
		cfg.Risk = DefaultRiskConfig()
	}
	if cfg.Decision == (DecisionConfig{}) {
		cfg.Decision = DefaultDecisionConfig()
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 30 * 24 * time.Hour
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 30 * time.Second
	}
	return &claimService{
		claims:    claims,
		extractor: extractor,
		risk:      cfg.Risk,
		decision:  cfg.Decision,
		window:    cfg.RecentWindow,
		extractTO: cfg.ExtractTimeout,
		notify:    cfg.Notify,
		clock:     time.Now,
	}
}

func (s *claimService) Submit(ctx context.Context, in ClaimInput, opts SubmitOptions) (Claim, error) {
	// 1) Validate before touching the store
	if err := in.Validate(); err != nil {
		return Claim{}, err
	}

	incidentDate, err := time.Parse(time.DateOnly, in.IncidentDate)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: incident_date must be in YYYY-MM-DD format", ErrValidation)
	}

	// 2) Build the claim in its pre-scoring state
	now := s.clock()
	claim := Claim{
		ID:           ids.New(),
		UserID:       in.UserID,
		PolicyNumber: in.PolicyNumber,
		ClaimType:    in.ClaimType,
		Amount:       in.Amount,
		IncidentDate: incidentDate,
		Description:  in.Description,
		Documents:    in.Documents,
		Status:       ClaimStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 3) Synchronous path: run the full pipeline before the insert so
	// the claim never persists half-scored
	if opts.Wait {
		res, err := s.runPipeline(ctx, claim)
		if err != nil {
			return Claim{}, err
		}
		claim = applyScoringResult(claim, res, now)
	}

	// 4) Persist; either the fully built claim lands or nothing does
	if err := s.claims.Create(ctx, claim); err != nil {
		return Claim{}, err
	}

	if opts.Wait && claim.Status != ClaimStatusPending {
		s.emit(ctx, claim.ID, ClaimStatusPending, claim.Status, "auto-decided at submission")
	}

	return claim, nil
}

func (s *claimService) Get(ctx context.Context, id string) (Claim, error) {
	if id == "" {
		return Claim{}, fmt.Errorf("%w: missing claim ID", ErrValidation)
	}
	return s.claims.Get(ctx, id)
}

func (s *claimService) ListForUser(ctx context.Context, userID string) ([]Claim, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user ID", ErrValidation)
	}
	return s.claims.ListByUser(ctx, userID)
}

func (s *claimService) ProcessClaim(ctx context.Context, id string) (Claim, error) {
	for attempt := 0; attempt < 2; attempt++ {
		// 1) Load claim
		claim, err := s.claims.Get(ctx, id)
		if err != nil {
			return Claim{}, err
		}

		// 2) Scoring runs at most once per claim
		if claim.Scored {
			return claim, nil
		}

		// 3) Extract, score, decide
		res, err := s.runPipeline(ctx, claim)
		if err != nil {
			return Claim{}, err
		}

		// The decision policy applies only to claims still awaiting
		// intake. An admin who already moved the claim keeps their
		// status; the score is recorded for the audit trail.
		if claim.Status != ClaimStatusPending {
			res.Status = claim.Status
			res.AutoDecided = false
			res.ApprovedAmount = nil
		}

		// 4) Apply, conditioned on the claim still being unscored and
		// its status unmoved
		now := s.clock()
		if err := s.claims.ApplyScoring(ctx, id, claim.Status, res, now); err != nil {
			if errors.Is(err, ErrConflict) {
				// Either a concurrent scorer won (their result stands)
				// or an admin moved the claim mid-flight; re-read and
				// retry once against the fresh state.
				continue
			}
			return Claim{}, err
		}

		if res.Status != claim.Status {
			s.emit(ctx, id, claim.Status, res.Status, "auto-decided by risk scoring")
		}

		return applyScoringResult(claim, res, now), nil
	}

	return s.claims.Get(ctx, id)
}

func (s *claimService) Approve(ctx context.Context, id string, in TransitionInput) (Claim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return Claim{}, err
	}

	if !claim.Status.CanTransitionTo(ClaimStatusApproved) {
		return Claim{}, fmt.Errorf("%w: cannot transition from %s to %s",
			ErrInvalidState, claim.Status, ClaimStatusApproved)
	}

	// A rejection reason has no place on an approval; dropping it here
	// keeps rejection_reason non-empty only on rejected claims.
	in.Reason = ""

	// Approved amount defaults to the declared amount
	if in.ApprovedAmount == nil {
		amount := claim.Amount
		in.ApprovedAmount = &amount
	}

	return s.transition(ctx, claim, ClaimStatusApproved, in)
}

func (s *claimService) Reject(ctx context.Context, id string, in TransitionInput) (Claim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return Claim{}, err
	}

	if in.Reason == "" {
		return Claim{}, fmt.Errorf("%w: rejection reason is required", ErrInvalidState)
	}

	if !claim.Status.CanTransitionTo(ClaimStatusRejected) {
		return Claim{}, fmt.Errorf("%w: cannot transition from %s to %s",
			ErrInvalidState, claim.Status, ClaimStatusRejected)
	}

	in.ApprovedAmount = nil

	return s.transition(ctx, claim, ClaimStatusRejected, in)
}

func (s *claimService) RequestInfo(ctx context.Context, id string, in TransitionInput) (Claim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return Claim{}, err
	}

	if in.Notes == "" {
		return Claim{}, fmt.Errorf("%w: notes are required when requesting information", ErrInvalidState)
	}

	if claim.Status != ClaimStatusPending {
		return Claim{}, fmt.Errorf("%w: cannot transition from %s to %s",
			ErrInvalidState, claim.Status, ClaimStatusUnderReview)
	}

	in.Reason = ""
	in.ApprovedAmount = nil

	return s.transition(ctx, claim, ClaimStatusUnderReview, in)
}

func (s *claimService) Stats(ctx context.Context, filter StatsFilter) (DashboardStats, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return DashboardStats{}, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	if filter.ClaimType != "" && !ValidClaimType(filter.ClaimType) {
		return DashboardStats{}, fmt.Errorf("%w: unknown claim type %q", ErrValidation, filter.ClaimType)
	}
	return s.claims.Stats(ctx, filter)
}

// transition applies the CAS update and emits the notification hook.
// The repo conditions the write on the pre-transition status, so a
// losing concurrent admin receives ErrTransitionConflict untouched.
func (s *claimService) transition(ctx context.Context, claim Claim, to ClaimStatus, in TransitionInput) (Claim, error) {
	now := s.clock()
	if err := s.claims.Transition(ctx, claim.ID, claim.Status, to, in, now); err != nil {
		return Claim{}, err
	}

	s.emit(ctx, claim.ID, claim.Status, to, in.Reason)

	return s.claims.Get(ctx, claim.ID)
}

// runPipeline performs extraction (best effort, bounded) and scoring.
// Extraction failure is not fatal: scoring proceeds with empty data and
// the failure is recorded as a warning on the claim.
func (s *claimService) runPipeline(ctx context.Context, claim Claim) (ScoringResult, error) {
	extracted, warning := s.extract(ctx, claim.Documents)

	since := claim.CreatedAt.Add(-s.window)
	recentCount, err := s.claims.CountRecent(ctx, claim.UserID, claim.PolicyNumber, claim.ID, since)
	if err != nil {
		return ScoringResult{}, fmt.Errorf("count recent claims: %w", err)
	}

	score, indicators := ScoreClaim(s.risk, ScoreInput{
		Amount:        claim.Amount,
		ClaimType:     claim.ClaimType,
		PolicyNumber:  claim.PolicyNumber,
		IncidentDate:  claim.IncidentDate,
		Description:   claim.Description,
		DocumentCount: len(claim.Documents),
		SubmittedAt:   claim.CreatedAt,
	}, extracted, recentCount)

	status, autoDecided := Decide(s.decision, score, claim.Amount)

	res := ScoringResult{
		Score:          score,
		Indicators:     indicators,
		ExtractedData:  extracted,
		ScoringWarning: warning,
		Status:         status,
		AutoDecided:    autoDecided,
	}
	if status == ClaimStatusApproved {
		amount := claim.Amount
		res.ApprovedAmount = &amount
	}
	return res, nil
}

func (s *claimService) extract(ctx context.Context, documents []string) (map[string]string, string) {
	if len(documents) == 0 {
		return map[string]string{}, ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.extractTO)
	defer cancel()

	extracted, err := s.extractor.Extract(ctx, documents)
	if err != nil {
		return map[string]string{}, fmt.Sprintf("document extraction failed: %v", err)
	}
	if extracted == nil {
		extracted = map[string]string{}
	}
	return extracted, ""
}

func (s *claimService) emit(ctx context.Context, claimID string, from, to ClaimStatus, reason string) {
	if s.notify != nil {
		s.notify(ctx, claimID, from, to, reason)
	}
}

func applyScoringResult(claim Claim, res ScoringResult, now time.Time) Claim {
	score := res.Score
	claim.RiskScore = &score
	claim.RiskIndicators = res.Indicators
	claim.ExtractedData = res.ExtractedData
	claim.ScoringWarning = res.ScoringWarning
	claim.Scored = true
	claim.Status = res.Status
	claim.AutoDecided = res.AutoDecided
	if res.ApprovedAmount != nil {
		claim.ApprovedAmount = res.ApprovedAmount
	}
	claim.UpdatedAt = now
	return claim
}

func validStatus(s ClaimStatus) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusUnderReview, ClaimStatusApproved, ClaimStatusRejected:
		return true
	}
	return false
}
