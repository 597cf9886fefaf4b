package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrKriegler/go-claims/internal/core"
)

// ScoringWorker runs the extraction + risk-scoring pipeline for claims
// submitted asynchronously. Extraction failures do not stall a claim:
// the service scores with empty extracted data, so every claim reaches
// a decided status eventually.
type ScoringWorker struct {
	BaseWorker
	claims core.ClaimRepo
	svc    core.ClaimService
}

func NewScoringWorker(
	claims core.ClaimRepo,
	svc core.ClaimService,
	interval time.Duration,
	log *slog.Logger,
) *ScoringWorker {
	return &ScoringWorker{
		BaseWorker: NewBaseWorker("scoring", interval, log),
		claims:     claims,
		svc:        svc,
	}
}

// Start begins the worker polling loop.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.processUnscored)
}

// Name returns the worker name.
func (w *ScoringWorker) Name() string {
	return w.name
}

// processUnscored finds and scores claims awaiting the pipeline.
func (w *ScoringWorker) processUnscored(ctx context.Context) error {
	// Limit 10 per poll to keep each tick bounded
	claims, err := w.claims.FindUnscored(ctx, 10)
	if err != nil {
		return err
	}

	if len(claims) == 0 {
		return nil
	}

	w.log.Info("found unscored claims", "count", len(claims))

	for _, claim := range claims {
		scored, err := w.svc.ProcessClaim(ctx, claim.ID)
		if err != nil {
			w.log.Error("failed to score claim",
				"claim_id", claim.ID,
				"err", err,
			)
			continue
		}

		w.log.Info("scoring complete",
			"claim_id", scored.ID,
			"score", derefScore(scored.RiskScore),
			"status", scored.Status,
			"auto_decided", scored.AutoDecided,
		)
	}

	return nil
}

func derefScore(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}
