package core

import "context"

// Extractor pulls structured fields from uploaded claim documents.
// Implementations call an external document-AI service and must return
// within a bounded time; a failure is reported as an error, never by
// blocking. Field names follow the Field* constants in risk.go.
type Extractor interface {
	Extract(ctx context.Context, documents []string) (map[string]string, error)
}

// TransitionHook is invoked after every successful status change so an
// external notifier can act on it. Delivery mechanics are not the
// core's concern; hooks must not block for long.
type TransitionHook func(ctx context.Context, claimID string, from, to ClaimStatus, reason string)
