package core

import (
	"context"
	"fmt"
	"time"
)

type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
)

type ClaimType string

const (
	ClaimTypeHealth  ClaimType = "Health"
	ClaimTypeVehicle ClaimType = "Vehicle"
	ClaimTypeHome    ClaimType = "Home"
	ClaimTypeLife    ClaimType = "Life"
	ClaimTypeTravel  ClaimType = "Travel"
)

// MaxDocuments is the upper bound on document references per claim.
const MaxDocuments = 5

// Claim is one filed claim. RiskScore stays nil until the scoring
// pipeline has run; ApprovedAmount is set only on approval.
type Claim struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	PolicyNumber    string            `json:"policy_number"`
	ClaimType       ClaimType         `json:"claim_type"`
	Amount          int64             `json:"amount"`
	IncidentDate    time.Time         `json:"incident_date"`
	Description     string            `json:"description"`
	Documents       []string          `json:"documents"`
	Status          ClaimStatus       `json:"status"`
	RiskScore       *int              `json:"risk_score,omitempty"`
	RiskIndicators  []string          `json:"risk_indicators,omitempty"`
	ExtractedData   map[string]string `json:"extracted_data,omitempty"`
	Scored          bool              `json:"scored"`
	ScoringWarning  string            `json:"scoring_warning,omitempty"`
	AutoDecided     bool              `json:"auto_decided"`
	AdminNotes      string            `json:"admin_notes,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ApprovedAmount  *int64            `json:"approved_amount,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type ClaimInput struct {
	UserID       string    `json:"user_id"`
	PolicyNumber string    `json:"policy_number"`
	ClaimType    ClaimType `json:"claim_type"`
	Amount       int64     `json:"amount"`
	IncidentDate string    `json:"incident_date"` // YYYY-MM-DD format
	Description  string    `json:"description"`
	Documents    []string  `json:"documents"`
}

// TransitionInput carries the admin payload for a status change.
type TransitionInput struct {
	ApprovedAmount *int64 `json:"approved_amount,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// ScoringResult is the outcome of the extraction + scoring pipeline,
// applied to a claim exactly once.
type ScoringResult struct {
	Score          int
	Indicators     []string
	ExtractedData  map[string]string
	ScoringWarning string
	Status         ClaimStatus
	AutoDecided    bool
	ApprovedAmount *int64
}

// StatsFilter narrows dashboard aggregation; zero value means all claims.
type StatsFilter struct {
	ClaimType ClaimType
	Status    ClaimStatus
}

// DashboardStats must reconcile exactly with the stored statuses at a
// snapshot: Total equals the sum of the ByStatus counts.
type DashboardStats struct {
	Total        int64                 `json:"total"`
	ByStatus     map[ClaimStatus]int64 `json:"by_status"`
	AverageScore float64               `json:"average_score"`
}

type ClaimRepo interface {
	Create(ctx context.Context, claim Claim) error
	Get(ctx context.Context, id string) (Claim, error)
	ListByUser(ctx context.Context, userID string) ([]Claim, error)
	FindUnscored(ctx context.Context, limit int) ([]Claim, error)

	// ApplyScoring records the scoring result iff the claim is still
	// unscored AND its status still equals from (compare-and-swap). A
	// second application returns ErrAlreadyScored; a status moved by a
	// concurrent admin returns ErrTransitionConflict. Either way the
	// record is left untouched.
	ApplyScoring(ctx context.Context, id string, from ClaimStatus, res ScoringResult, updatedAt time.Time) error

	// Transition updates status fields iff the claim's current status
	// equals from (compare-and-swap); a losing concurrent writer
	// receives ErrTransitionConflict.
	Transition(ctx context.Context, id string, from, to ClaimStatus, in TransitionInput, updatedAt time.Time) error

	// CountRecent counts the user's claims on a policy since the given
	// time, excluding excludeID so a persisted claim never counts
	// itself toward its own frequency score.
	CountRecent(ctx context.Context, userID, policyNumber, excludeID string, since time.Time) (int, error)
	Stats(ctx context.Context, filter StatsFilter) (DashboardStats, error)
}

func ValidClaimType(t ClaimType) bool {
	switch t {
	case ClaimTypeHealth, ClaimTypeVehicle, ClaimTypeHome, ClaimTypeLife, ClaimTypeTravel:
		return true
	}
	return false
}

func (in ClaimInput) Validate() error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if in.PolicyNumber == "" {
		return fmt.Errorf("%w: policy_number is required", ErrValidation)
	}
	if !ValidClaimType(in.ClaimType) {
		return fmt.Errorf("%w: claim_type must be one of Health, Vehicle, Home, Life, Travel", ErrValidation)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if _, err := time.Parse(time.DateOnly, in.IncidentDate); err != nil {
		return fmt.Errorf("%w: incident_date must be in YYYY-MM-DD format", ErrValidation)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if len(in.Documents) > MaxDocuments {
		return fmt.Errorf("%w: at most %d documents allowed", ErrValidation, MaxDocuments)
	}
	return nil
}

// CanTransitionTo checks if a status transition is valid. Approved and
// rejected are terminal.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	transitions := map[ClaimStatus][]ClaimStatus{
		ClaimStatusPending:     {ClaimStatusUnderReview, ClaimStatusApproved, ClaimStatusRejected},
		ClaimStatusUnderReview: {ClaimStatusApproved, ClaimStatusRejected},
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	ErrClaimNotFound      = fmt.Errorf("%w: claim not found", ErrNotFound)
	ErrClaimExists        = fmt.Errorf("%w: claim already exists", ErrConflict)
	ErrAlreadyScored      = fmt.Errorf("%w: claim already scored", ErrConflict)
	ErrTransitionConflict = fmt.Errorf("%w: claim status changed concurrently", ErrConflict)
)
