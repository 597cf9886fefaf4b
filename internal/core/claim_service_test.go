package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo is an in-memory ClaimRepo with the same compare-and-swap
// semantics as the real stores.
type stubRepo struct {
	mu     sync.Mutex
	claims map[string]Claim

	recentCount int
	recentErr   error

	// Hooks to interleave writes between the service's read and its
	// conditional update.
	beforeApply      func()
	beforeTransition func()
}

func newStubRepo() *stubRepo {
	return &stubRepo{claims: make(map[string]Claim)}
}

func (r *stubRepo) Create(_ context.Context, claim Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[claim.ID]; ok {
		return ErrClaimExists
	}
	r.claims[claim.ID] = claim
	return nil
}

func (r *stubRepo) Get(_ context.Context, id string) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	return claim, nil
}

func (r *stubRepo) ListByUser(_ context.Context, userID string) ([]Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Claim
	for _, c := range r.claims {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *stubRepo) FindUnscored(_ context.Context, limit int) ([]Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Claim
	for _, c := range r.claims {
		if !c.Scored {
			out = append(out, c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubRepo) ApplyScoring(_ context.Context, id string, from ClaimStatus, res ScoringResult, updatedAt time.Time) error {
	if r.beforeApply != nil {
		r.beforeApply()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return ErrClaimNotFound
	}
	if claim.Scored {
		return ErrAlreadyScored
	}
	if claim.Status != from {
		return ErrTransitionConflict
	}
	r.claims[id] = applyScoringResult(claim, res, updatedAt)
	return nil
}

func (r *stubRepo) Transition(_ context.Context, id string, from, to ClaimStatus, in TransitionInput, updatedAt time.Time) error {
	if r.beforeTransition != nil {
		r.beforeTransition()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return ErrClaimNotFound
	}
	if claim.Status != from {
		return ErrTransitionConflict
	}
	claim.Status = to
	claim.UpdatedAt = updatedAt
	if in.Notes != "" {
		claim.AdminNotes = in.Notes
	}
	if in.Reason != "" {
		claim.RejectionReason = in.Reason
	}
	if in.ApprovedAmount != nil {
		claim.ApprovedAmount = in.ApprovedAmount
	}
	r.claims[id] = claim
	return nil
}

func (r *stubRepo) CountRecent(_ context.Context, userID, policyNumber, excludeID string, since time.Time) (int, error) {
	if r.recentErr != nil {
		return 0, r.recentErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// recentCount stands in for claims predating the test's store.
	count := r.recentCount
	for _, c := range r.claims {
		if c.ID == excludeID {
			continue
		}
		if c.UserID == userID && c.PolicyNumber == policyNumber && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *stubRepo) Stats(_ context.Context, filter StatsFilter) (DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := DashboardStats{ByStatus: make(map[ClaimStatus]int64)}
	var scoreSum, scoredCount int64
	for _, c := range r.claims {
		if filter.ClaimType != "" && c.ClaimType != filter.ClaimType {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		stats.Total++
		stats.ByStatus[c.Status]++
		if c.RiskScore != nil {
			scoreSum += int64(*c.RiskScore)
			scoredCount++
		}
	}
	if scoredCount > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scoredCount)
	}
	return stats, nil
}

type stubExtractor struct {
	fields map[string]string
	err    error
	calls  int
}

func (e *stubExtractor) Extract(_ context.Context, _ []string) (map[string]string, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.fields, nil
}

type recordedTransition struct {
	claimID string
	from    ClaimStatus
	to      ClaimStatus
}

func newTestService(repo *stubRepo, ext *stubExtractor) (ClaimService, *[]recordedTransition) {
	var emitted []recordedTransition
	svc := NewClaimService(repo, ext, ClaimServiceConfig{
		Notify: func(_ context.Context, claimID string, from, to ClaimStatus, _ string) {
			emitted = append(emitted, recordedTransition{claimID, from, to})
		},
	})
	return svc, &emitted
}

func submitInput() ClaimInput {
	return ClaimInput{
		UserID:       "user-1",
		PolicyNumber: "POL12345678",
		ClaimType:    ClaimTypeHealth,
		Amount:       10_000,
		IncidentDate: time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly),
		Description:  "outpatient visit",
		Documents:    []string{"doc-1"},
	}
}

func matchingFields() map[string]string {
	return map[string]string{
		FieldClaimAmount:  "10000",
		FieldPolicyNumber: "POL12345678",
	}
}

func TestSubmit_ValidationFailureLeavesStoreUntouched(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	in := submitInput()
	in.Amount = 0

	_, err := svc.Submit(context.Background(), in, SubmitOptions{})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.claims)
}

func TestSubmit_AsyncPersistsPendingUnscored(t *testing.T) {
	repo := newStubRepo()
	ext := &stubExtractor{fields: matchingFields()}
	svc, emitted := newTestService(repo, ext)

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, claim.ID)
	assert.Equal(t, ClaimStatusPending, claim.Status)
	assert.False(t, claim.Scored)
	assert.Nil(t, claim.RiskScore)
	assert.Zero(t, ext.calls, "async submission must not extract inline")
	assert.Empty(t, *emitted)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim, stored)
}

func TestSubmit_WaitPersistsDecidedClaim(t *testing.T) {
	repo := newStubRepo()
	svc, emitted := newTestService(repo, &stubExtractor{fields: matchingFields()})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{Wait: true})
	require.NoError(t, err)

	// Clean low-value claim: score 0, auto-approved.
	assert.Equal(t, ClaimStatusApproved, claim.Status)
	assert.True(t, claim.Scored)
	assert.True(t, claim.AutoDecided)
	require.NotNil(t, claim.RiskScore)
	assert.Equal(t, 0, *claim.RiskScore)
	require.NotNil(t, claim.ApprovedAmount)
	assert.Equal(t, claim.Amount, *claim.ApprovedAmount)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim, stored)

	require.Len(t, *emitted, 1)
	assert.Equal(t, recordedTransition{claim.ID, ClaimStatusPending, ClaimStatusApproved}, (*emitted)[0])
}

func TestProcessClaim_ScoresOnceAndIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	ext := &stubExtractor{fields: matchingFields()}
	svc, _ := newTestService(repo, ext)

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	scored, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.True(t, scored.Scored)
	assert.Equal(t, ClaimStatusApproved, scored.Status)
	assert.Equal(t, 1, ext.calls)

	again, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, scored, again)
	assert.Equal(t, 1, ext.calls, "second run must not re-extract")
}

func TestProcessClaim_ExtractionFailureStillDecides(t *testing.T) {
	repo := newStubRepo()
	ext := &stubExtractor{err: errors.New("provider unavailable")}
	svc, _ := newTestService(repo, ext)

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	scored, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)

	assert.True(t, scored.Scored)
	assert.Contains(t, scored.ScoringWarning, "provider unavailable")
	assert.Contains(t, scored.RiskIndicators, IndicatorMissingExtracted)
	require.NotNil(t, scored.RiskScore)
	assert.Equal(t, 15, *scored.RiskScore)
	assert.Equal(t, ClaimStatusApproved, scored.Status)
}

func TestProcessClaim_HighRiskEscalatesToReview(t *testing.T) {
	repo := newStubRepo()
	repo.recentCount = 6
	svc, emitted := newTestService(repo, &stubExtractor{err: errors.New("timeout")})

	in := submitInput()
	in.PolicyNumber = "not-a-policy"
	in.Amount = 400_000

	claim, err := svc.Submit(context.Background(), in, SubmitOptions{})
	require.NoError(t, err)

	scored, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)

	// high value 25 + anomaly 15 + frequency 30 + missing data 15 = 85
	require.NotNil(t, scored.RiskScore)
	assert.Equal(t, 85, *scored.RiskScore)
	assert.Equal(t, ClaimStatusUnderReview, scored.Status)
	assert.True(t, scored.AutoDecided)
	assert.Nil(t, scored.ApprovedAmount)

	require.Len(t, *emitted, 1)
	assert.Equal(t, ClaimStatusUnderReview, (*emitted)[0].to)
}

func TestProcessClaim_CountRecentErrorPropagates(t *testing.T) {
	repo := newStubRepo()
	repo.recentErr = errors.New("store unavailable")
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	_, err = svc.ProcessClaim(context.Background(), claim.ID)
	require.Error(t, err)

	// The claim stays unscored so the worker can retry.
	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.False(t, stored.Scored)
}

func TestProcessClaim_ConcurrentScorerWins(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	// A competing scorer lands its result between this run's read and
	// its conditional write.
	winnerScore := 42
	repo.beforeApply = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		c := repo.claims[claim.ID]
		c.Scored = true
		c.RiskScore = &winnerScore
		c.Status = ClaimStatusPending
		repo.claims[claim.ID] = c
	}

	got, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)

	require.NotNil(t, got.RiskScore)
	assert.Equal(t, winnerScore, *got.RiskScore, "the first scorer's result must stand")
}

func TestProcessClaim_AdminDecisionStands(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), claim.ID, TransitionInput{})
	require.NoError(t, err)
	require.False(t, approved.Scored)

	got, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)

	// The admin's terminal decision survives; the score is recorded
	// without re-deciding.
	assert.Equal(t, ClaimStatusApproved, got.Status)
	assert.True(t, got.Scored)
	assert.False(t, got.AutoDecided)
	require.NotNil(t, got.ApprovedAmount)
	assert.Equal(t, claim.Amount, *got.ApprovedAmount)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimStatusApproved, stored.Status)
}

func TestProcessClaim_AdminMovesClaimMidFlight(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	// An admin rejects between the pipeline's read and its write; the
	// pipeline must not drag the claim back to the auto decision.
	repo.beforeApply = func() {
		repo.beforeApply = nil
		_, err := svc.Reject(context.Background(), claim.ID, TransitionInput{Reason: "fraud suspected"})
		require.NoError(t, err)
	}

	got, err := svc.ProcessClaim(context.Background(), claim.ID)
	require.NoError(t, err)

	assert.Equal(t, ClaimStatusRejected, got.Status)
	assert.True(t, got.Scored)
	assert.Equal(t, "fraud suspected", got.RejectionReason)
}

func TestScoring_FrequencyAgreesAcrossPaths(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	// Two prior in-window claims per user, then a third scored each way.
	for _, userID := range []string{"user-sync", "user-async"} {
		for i := 0; i < 2; i++ {
			in := submitInput()
			in.UserID = userID
			_, err := svc.Submit(context.Background(), in, SubmitOptions{})
			require.NoError(t, err)
		}
	}

	inSync := submitInput()
	inSync.UserID = "user-sync"
	syncClaim, err := svc.Submit(context.Background(), inSync, SubmitOptions{Wait: true})
	require.NoError(t, err)

	inAsync := submitInput()
	inAsync.UserID = "user-async"
	asyncClaim, err := svc.Submit(context.Background(), inAsync, SubmitOptions{})
	require.NoError(t, err)
	asyncClaim, err = svc.ProcessClaim(context.Background(), asyncClaim.ID)
	require.NoError(t, err)

	// A persisted claim must not count itself: both paths see two
	// recent claims and the frequency rule stays quiet.
	require.NotNil(t, syncClaim.RiskScore)
	require.NotNil(t, asyncClaim.RiskScore)
	assert.Equal(t, *syncClaim.RiskScore, *asyncClaim.RiskScore)
	assert.Equal(t, 0, *asyncClaim.RiskScore)
	assert.NotContains(t, asyncClaim.RiskIndicators, IndicatorFrequentClaims)

	// A genuine fourth claim still trips the rule.
	inFourth := submitInput()
	inFourth.UserID = "user-async"
	fourth, err := svc.Submit(context.Background(), inFourth, SubmitOptions{Wait: true})
	require.NoError(t, err)
	require.NotNil(t, fourth.RiskScore)
	assert.Equal(t, 10, *fourth.RiskScore)
	assert.Contains(t, fourth.RiskIndicators, IndicatorFrequentClaims)
}

func TestApprove_IgnoresStrayReason(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), claim.ID, TransitionInput{Reason: "should not stick"})
	require.NoError(t, err)

	assert.Equal(t, ClaimStatusApproved, approved.Status)
	assert.Empty(t, approved.RejectionReason)
}

func TestReject_IgnoresStrayApprovedAmount(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	stray := int64(123)
	rejected, err := svc.Reject(context.Background(), claim.ID,
		TransitionInput{Reason: "duplicate filing", ApprovedAmount: &stray})
	require.NoError(t, err)

	assert.Equal(t, ClaimStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ApprovedAmount)
}

func TestTransitions_MissingClaimIsNotFound(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	_, err := svc.Reject(context.Background(), "no-such-claim", TransitionInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RequestInfo(context.Background(), "no-such-claim", TransitionInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Approve(context.Background(), "no-such-claim", TransitionInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprove_DefaultsApprovedAmount(t *testing.T) {
	repo := newStubRepo()
	svc, emitted := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), claim.ID, TransitionInput{})
	require.NoError(t, err)

	assert.Equal(t, ClaimStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAmount)
	assert.Equal(t, claim.Amount, *approved.ApprovedAmount)

	require.Len(t, *emitted, 1)
	assert.Equal(t, recordedTransition{claim.ID, ClaimStatusPending, ClaimStatusApproved}, (*emitted)[0])
}

func TestApprove_PartialAmount(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	partial := int64(7_500)
	approved, err := svc.Approve(context.Background(), claim.ID, TransitionInput{ApprovedAmount: &partial})
	require.NoError(t, err)

	require.NotNil(t, approved.ApprovedAmount)
	assert.Equal(t, partial, *approved.ApprovedAmount)
}

func TestReject_RequiresReason(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), claim.ID, TransitionInput{})
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimStatusPending, stored.Status)
}

func TestReject_RecordsReason(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), claim.ID, TransitionInput{Reason: "duplicate filing"})
	require.NoError(t, err)

	assert.Equal(t, ClaimStatusRejected, rejected.Status)
	assert.Equal(t, "duplicate filing", rejected.RejectionReason)
}

func TestTransitions_TerminalStatesAreFinal(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), claim.ID, TransitionInput{})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), claim.ID, TransitionInput{Reason: "changed my mind"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Approve(context.Background(), claim.ID, TransitionInput{})
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimStatusApproved, stored.Status)
}

func TestRequestInfo(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	t.Run("requires notes", func(t *testing.T) {
		_, err := svc.RequestInfo(context.Background(), claim.ID, TransitionInput{})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("moves pending to under review", func(t *testing.T) {
		got, err := svc.RequestInfo(context.Background(), claim.ID,
			TransitionInput{Notes: "need the repair invoice"})
		require.NoError(t, err)

		assert.Equal(t, ClaimStatusUnderReview, got.Status)
		assert.Equal(t, "need the repair invoice", got.AdminNotes)
	})

	t.Run("only from pending", func(t *testing.T) {
		_, err := svc.RequestInfo(context.Background(), claim.ID,
			TransitionInput{Notes: "anything else"})
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransition_ConcurrentLoserGetsConflict(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	// A competing admin rejects between this request's read and its
	// compare-and-swap write.
	repo.beforeTransition = func() {
		repo.beforeTransition = nil // only the first writer interleaves
		_, err := svc.Reject(context.Background(), claim.ID, TransitionInput{Reason: "fraud suspected"})
		require.NoError(t, err)
	}

	_, err = svc.Approve(context.Background(), claim.ID, TransitionInput{})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := repo.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimStatusRejected, stored.Status)
	assert.Equal(t, "fraud suspected", stored.RejectionReason)
}

func TestGetAndList(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{})

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(context.Background(), "no-such-claim")
	assert.ErrorIs(t, err, ErrNotFound)

	claim, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim, got)

	list, err := svc.ListForUser(context.Background(), claim.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.ListForUser(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStats(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo, &stubExtractor{fields: matchingFields()})

	_, err := svc.Stats(context.Background(), StatsFilter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Stats(context.Background(), StatsFilter{ClaimType: "Pet"})
	assert.ErrorIs(t, err, ErrValidation)

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{Wait: true})
		require.NoError(t, err)
	}
	pending, err := svc.Submit(context.Background(), submitInput(), SubmitOptions{})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), StatsFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus[ClaimStatusApproved])
	assert.Equal(t, int64(1), stats.ByStatus[ClaimStatusPending])

	var sum int64
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, stats.Total, sum, "by-status counts must reconcile with the total")

	filtered, err := svc.Stats(context.Background(), StatsFilter{Status: ClaimStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Total)
	assert.Equal(t, int64(1), filtered.ByStatus[pending.Status])
}
