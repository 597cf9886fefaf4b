package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MrKriegler/go-claims/internal/core"
)

type ClaimRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewClaimRepo(db *mongodrv.Database, opTimeout time.Duration) *ClaimRepoMongo {
	return &ClaimRepoMongo{
		coll:      db.Collection(ColClaims),
		opTimeout: opTimeout,
	}
}

func (repo *ClaimRepoMongo) Create(ctx context.Context, claim core.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toClaimDoc(claim)
	_, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		var we mongodrv.WriteException
		if errors.As(err, &we) {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return core.ErrClaimExists
				}
			}
		}
		return fmt.Errorf("claims.insert: %w", err)
	}
	return nil
}

func (repo *ClaimRepoMongo) Get(ctx context.Context, id string) (core.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc ClaimDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Claim{}, core.ErrClaimNotFound
		}
		return core.Claim{}, fmt.Errorf("claims.findOne: %w", err)
	}
	return fromClaimDoc(doc), nil
}

func (repo *ClaimRepoMongo) ListByUser(ctx context.Context, userID string) ([]core.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return repo.find(ctx, filter, opts)
}

func (repo *ClaimRepoMongo) FindUnscored(ctx context.Context, limit int) ([]core.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	filter := bson.M{"scored": false}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: 1}})
	return repo.find(ctx, filter, opts)
}

// ApplyScoring records the pipeline result. The update is conditioned
// on scored=false AND status=from, so double-scoring surfaces as
// ErrAlreadyScored and a concurrent admin transition as
// ErrTransitionConflict; neither can overwrite a decided claim.
func (repo *ClaimRepoMongo) ApplyScoring(ctx context.Context, id string, from core.ClaimStatus, res core.ScoringResult, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	set := bson.M{
		"risk_score":      res.Score,
		"risk_indicators": res.Indicators,
		"extracted_data":  res.ExtractedData,
		"scored":          true,
		"status":          string(res.Status),
		"auto_decided":    res.AutoDecided,
		"updated_at":      updatedAt,
	}
	if res.ScoringWarning != "" {
		set["scoring_warning"] = res.ScoringWarning
	}
	if res.ApprovedAmount != nil {
		set["approved_amount"] = *res.ApprovedAmount
	}

	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "scored": false, "status": string(from)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("claims.applyScoring: %w", err)
	}
	if result.MatchedCount == 0 {
		return repo.scoringMiss(ctx, id)
	}
	return nil
}

// Transition is a compare-and-swap on the status field: the update
// matches only when the stored status still equals from, so a losing
// concurrent admin gets ErrTransitionConflict and the record is left
// untouched.
func (repo *ClaimRepoMongo) Transition(ctx context.Context, id string, from, to core.ClaimStatus, in core.TransitionInput, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	set := bson.M{
		"status":     string(to),
		"updated_at": updatedAt,
	}
	if in.Notes != "" {
		set["admin_notes"] = in.Notes
	}
	if in.Reason != "" {
		set["rejection_reason"] = in.Reason
	}
	if in.ApprovedAmount != nil {
		set["approved_amount"] = *in.ApprovedAmount
	}

	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("claims.transition: %w", err)
	}
	if result.MatchedCount == 0 {
		return repo.missOrConflict(ctx, id, core.ErrTransitionConflict)
	}
	return nil
}

func (repo *ClaimRepoMongo) CountRecent(ctx context.Context, userID, policyNumber, excludeID string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	count, err := repo.coll.CountDocuments(ctx, bson.M{
		"_id":           bson.M{"$ne": excludeID},
		"user_id":       userID,
		"policy_number": policyNumber,
		"created_at":    bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("claims.countRecent: %w", err)
	}
	return int(count), nil
}

// Stats aggregates the stored claims in one pipeline pass so the
// counts reconcile exactly with a single snapshot.
func (repo *ClaimRepoMongo) Stats(ctx context.Context, filter core.StatsFilter) (core.DashboardStats, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	match := bson.M{}
	if filter.ClaimType != "" {
		match["claim_type"] = string(filter.ClaimType)
	}
	if filter.Status != "" {
		match["status"] = string(filter.Status)
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"scored_count": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$scored", true}}, 1, 0},
			}},
			"score_sum": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$risk_score", 0}}},
		}},
	}

	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return core.DashboardStats{}, fmt.Errorf("claims.stats: %w", err)
	}
	defer cursor.Close(ctx)

	type group struct {
		Status      string `bson:"_id"`
		Count       int64  `bson:"count"`
		ScoredCount int64  `bson:"scored_count"`
		ScoreSum    int64  `bson:"score_sum"`
	}

	stats := core.DashboardStats{ByStatus: map[core.ClaimStatus]int64{}}
	var scoreSum, scoredTotal int64

	for cursor.Next(ctx) {
		var g group
		if err := cursor.Decode(&g); err != nil {
			return core.DashboardStats{}, fmt.Errorf("claims.stats.decode: %w", err)
		}
		stats.ByStatus[core.ClaimStatus(g.Status)] = g.Count
		stats.Total += g.Count
		scoreSum += g.ScoreSum
		scoredTotal += g.ScoredCount
	}
	if err := cursor.Err(); err != nil {
		return core.DashboardStats{}, fmt.Errorf("claims.stats.cursor: %w", err)
	}

	if scoredTotal > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scoredTotal)
	}
	return stats, nil
}

func (repo *ClaimRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]core.Claim, error) {
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("claims.find: %w", err)
	}
	defer cursor.Close(ctx)

	var claims []core.Claim
	for cursor.Next(ctx) {
		var doc ClaimDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("claims.decode: %w", err)
		}
		claims = append(claims, fromClaimDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("claims.cursor: %w", err)
	}

	return claims, nil
}

// missOrConflict disambiguates a zero-match update: the claim either
// does not exist or its guarded field changed under us.
func (repo *ClaimRepoMongo) missOrConflict(ctx context.Context, id string, conflict error) error {
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Err()
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return core.ErrClaimNotFound
	}
	if err != nil {
		return fmt.Errorf("claims.findOne: %w", err)
	}
	return conflict
}

// scoringMiss reads the claim back to name the reason a scoring write
// matched nothing: gone, already scored, or moved by an admin.
func (repo *ClaimRepoMongo) scoringMiss(ctx context.Context, id string) error {
	var doc ClaimDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return core.ErrClaimNotFound
	}
	if err != nil {
		return fmt.Errorf("claims.findOne: %w", err)
	}
	if doc.Scored {
		return core.ErrAlreadyScored
	}
	return core.ErrTransitionConflict
}
