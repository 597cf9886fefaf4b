package mongo

import (
	"time"

	"github.com/MrKriegler/go-claims/internal/core"
)

const (
	ColClaims = "claims"
)

// Claim
type ClaimDoc struct {
	ID              string            `bson:"_id"`
	UserID          string            `bson:"user_id"`
	PolicyNumber    string            `bson:"policy_number"`
	ClaimType       string            `bson:"claim_type"`
	Amount          int64             `bson:"amount"`
	IncidentDate    time.Time         `bson:"incident_date"`
	Description     string            `bson:"description"`
	Documents       []string          `bson:"documents"`
	Status          string            `bson:"status"`
	RiskScore       *int              `bson:"risk_score,omitempty"`
	RiskIndicators  []string          `bson:"risk_indicators,omitempty"`
	ExtractedData   map[string]string `bson:"extracted_data,omitempty"`
	Scored          bool              `bson:"scored"`
	ScoringWarning  string            `bson:"scoring_warning,omitempty"`
	AutoDecided     bool              `bson:"auto_decided"`
	AdminNotes      string            `bson:"admin_notes,omitempty"`
	RejectionReason string            `bson:"rejection_reason,omitempty"`
	ApprovedAmount  *int64            `bson:"approved_amount,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

func fromClaimDoc(d ClaimDoc) core.Claim {
	return core.Claim{
		ID:              d.ID,
		UserID:          d.UserID,
		PolicyNumber:    d.PolicyNumber,
		ClaimType:       core.ClaimType(d.ClaimType),
		Amount:          d.Amount,
		IncidentDate:    d.IncidentDate,
		Description:     d.Description,
		Documents:       d.Documents,
		Status:          core.ClaimStatus(d.Status),
		RiskScore:       d.RiskScore,
		RiskIndicators:  d.RiskIndicators,
		ExtractedData:   d.ExtractedData,
		Scored:          d.Scored,
		ScoringWarning:  d.ScoringWarning,
		AutoDecided:     d.AutoDecided,
		AdminNotes:      d.AdminNotes,
		RejectionReason: d.RejectionReason,
		ApprovedAmount:  d.ApprovedAmount,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toClaimDoc(c core.Claim) ClaimDoc {
	return ClaimDoc{
		ID:              c.ID,
		UserID:          c.UserID,
		PolicyNumber:    c.PolicyNumber,
		ClaimType:       string(c.ClaimType),
		Amount:          c.Amount,
		IncidentDate:    c.IncidentDate,
		Description:     c.Description,
		Documents:       c.Documents,
		Status:          string(c.Status),
		RiskScore:       c.RiskScore,
		RiskIndicators:  c.RiskIndicators,
		ExtractedData:   c.ExtractedData,
		Scored:          c.Scored,
		ScoringWarning:  c.ScoringWarning,
		AutoDecided:     c.AutoDecided,
		AdminNotes:      c.AdminNotes,
		RejectionReason: c.RejectionReason,
		ApprovedAmount:  c.ApprovedAmount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
