package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MrKriegler/go-claims/internal/core"
)

type ClaimItem struct {
	ID              string            `dynamodbav:"id"`
	UserID          string            `dynamodbav:"user_id"`
	PolicyNumber    string            `dynamodbav:"policy_number"`
	ClaimType       string            `dynamodbav:"claim_type"`
	Amount          int64             `dynamodbav:"amount"`
	IncidentDate    string            `dynamodbav:"incident_date"`
	Description     string            `dynamodbav:"description"`
	Documents       []string          `dynamodbav:"documents,omitempty"`
	Status          string            `dynamodbav:"status"`
	RiskScore       *int              `dynamodbav:"risk_score,omitempty"`
	RiskIndicators  []string          `dynamodbav:"risk_indicators,omitempty"`
	ExtractedData   map[string]string `dynamodbav:"extracted_data,omitempty"`
	ScoringState    string            `dynamodbav:"scoring_state"`
	ScoringWarning  string            `dynamodbav:"scoring_warning,omitempty"`
	AutoDecided     bool              `dynamodbav:"auto_decided"`
	AdminNotes      string            `dynamodbav:"admin_notes,omitempty"`
	RejectionReason string            `dynamodbav:"rejection_reason,omitempty"`
	ApprovedAmount  *int64            `dynamodbav:"approved_amount,omitempty"`
	CreatedAt       string            `dynamodbav:"created_at"`
	UpdatedAt       string            `dynamodbav:"updated_at"`
}

func (i ClaimItem) ToCore() core.Claim {
	incidentDate, _ := time.Parse(time.RFC3339, i.IncidentDate)
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)

	return core.Claim{
		ID:              i.ID,
		UserID:          i.UserID,
		PolicyNumber:    i.PolicyNumber,
		ClaimType:       core.ClaimType(i.ClaimType),
		Amount:          i.Amount,
		IncidentDate:    incidentDate,
		Description:     i.Description,
		Documents:       i.Documents,
		Status:          core.ClaimStatus(i.Status),
		RiskScore:       i.RiskScore,
		RiskIndicators:  i.RiskIndicators,
		ExtractedData:   i.ExtractedData,
		Scored:          i.ScoringState == ScoringStateScored,
		ScoringWarning:  i.ScoringWarning,
		AutoDecided:     i.AutoDecided,
		AdminNotes:      i.AdminNotes,
		RejectionReason: i.RejectionReason,
		ApprovedAmount:  i.ApprovedAmount,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

func claimItemFromCore(c core.Claim) ClaimItem {
	scoringState := ScoringStateUnscored
	if c.Scored {
		scoringState = ScoringStateScored
	}

	return ClaimItem{
		ID:              c.ID,
		UserID:          c.UserID,
		PolicyNumber:    c.PolicyNumber,
		ClaimType:       string(c.ClaimType),
		Amount:          c.Amount,
		IncidentDate:    c.IncidentDate.Format(time.RFC3339),
		Description:     c.Description,
		Documents:       c.Documents,
		Status:          string(c.Status),
		RiskScore:       c.RiskScore,
		RiskIndicators:  c.RiskIndicators,
		ExtractedData:   c.ExtractedData,
		ScoringState:    scoringState,
		ScoringWarning:  c.ScoringWarning,
		AutoDecided:     c.AutoDecided,
		AdminNotes:      c.AdminNotes,
		RejectionReason: c.RejectionReason,
		ApprovedAmount:  c.ApprovedAmount,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

type ClaimRepo struct {
	client *dynamodb.Client
}

func NewClaimRepo(client *dynamodb.Client) *ClaimRepo {
	return &ClaimRepo{client: client}
}

func (r *ClaimRepo) Create(ctx context.Context, claim core.Claim) error {
	item := claimItemFromCore(claim)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("claims.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("claims.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableClaims),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrClaimExists
		}
		return fmt.Errorf("claims.putItem: %w", err)
	}

	return nil
}

func (r *ClaimRepo) Get(ctx context.Context, id string) (core.Claim, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableClaims),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.Claim{}, fmt.Errorf("claims.getItem: %w", err)
	}

	if out.Item == nil {
		return core.Claim{}, core.ErrClaimNotFound
	}

	var item ClaimItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Claim{}, fmt.Errorf("claims.unmarshal: %w", err)
	}

	return item.ToCore(), nil
}

func (r *ClaimRepo) ListByUser(ctx context.Context, userID string) ([]core.Claim, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableClaims),
		IndexName:              aws.String(GSIClaimsUserID),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
		},
		// Newest first: created_at is the range key
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("claims.query: %w", err)
	}

	return unmarshalClaims(out.Items)
}

func (r *ClaimRepo) FindUnscored(ctx context.Context, limit int) ([]core.Claim, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableClaims),
		IndexName:              aws.String(GSIClaimsScoringState),
		KeyConditionExpression: aws.String("scoring_state = :state"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":state": &types.AttributeValueMemberS{Value: ScoringStateUnscored},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("claims.query: %w", err)
	}

	return unmarshalClaims(out.Items)
}

// ApplyScoring writes the pipeline result iff the item is still in the
// unscored state and its status has not been moved by an admin.
func (r *ClaimRepo) ApplyScoring(ctx context.Context, id string, from core.ClaimStatus, res core.ScoringResult, updatedAt time.Time) error {
	update := expression.
		Set(expression.Name("risk_score"), expression.Value(res.Score)).
		Set(expression.Name("risk_indicators"), expression.Value(res.Indicators)).
		Set(expression.Name("extracted_data"), expression.Value(res.ExtractedData)).
		Set(expression.Name("scoring_state"), expression.Value(ScoringStateScored)).
		Set(expression.Name("status"), expression.Value(string(res.Status))).
		Set(expression.Name("auto_decided"), expression.Value(res.AutoDecided)).
		Set(expression.Name("updated_at"), expression.Value(updatedAt.Format(time.RFC3339)))
	if res.ScoringWarning != "" {
		update = update.Set(expression.Name("scoring_warning"), expression.Value(res.ScoringWarning))
	}
	if res.ApprovedAmount != nil {
		update = update.Set(expression.Name("approved_amount"), expression.Value(*res.ApprovedAmount))
	}

	cond := expression.Name("scoring_state").Equal(expression.Value(ScoringStateUnscored)).
		And(expression.Name("status").Equal(expression.Value(string(from))))
	return r.conditionalUpdate(ctx, id, update, cond, func(c core.Claim) error {
		if c.Scored {
			return core.ErrAlreadyScored
		}
		return core.ErrTransitionConflict
	})
}

// Transition is a compare-and-swap on the status attribute: the write
// is conditioned on status = from, so of two concurrent admins exactly
// one wins and the loser gets ErrTransitionConflict.
func (r *ClaimRepo) Transition(ctx context.Context, id string, from, to core.ClaimStatus, in core.TransitionInput, updatedAt time.Time) error {
	update := expression.
		Set(expression.Name("status"), expression.Value(string(to))).
		Set(expression.Name("updated_at"), expression.Value(updatedAt.Format(time.RFC3339)))
	if in.Notes != "" {
		update = update.Set(expression.Name("admin_notes"), expression.Value(in.Notes))
	}
	if in.Reason != "" {
		update = update.Set(expression.Name("rejection_reason"), expression.Value(in.Reason))
	}
	if in.ApprovedAmount != nil {
		update = update.Set(expression.Name("approved_amount"), expression.Value(*in.ApprovedAmount))
	}

	cond := expression.Name("status").Equal(expression.Value(string(from)))
	return r.conditionalUpdate(ctx, id, update, cond, func(core.Claim) error {
		return core.ErrTransitionConflict
	})
}

func (r *ClaimRepo) CountRecent(ctx context.Context, userID, policyNumber, excludeID string, since time.Time) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableClaims),
		IndexName:              aws.String(GSIClaimsUserID),
		KeyConditionExpression: aws.String("user_id = :user_id AND created_at >= :since"),
		FilterExpression:       aws.String("policy_number = :policy AND id <> :exclude"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
			":since":   &types.AttributeValueMemberS{Value: since.Format(time.RFC3339)},
			":policy":  &types.AttributeValueMemberS{Value: policyNumber},
			":exclude": &types.AttributeValueMemberS{Value: excludeID},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("claims.countRecent: %w", err)
	}
	return int(out.Count), nil
}

// Stats scans the claims table and aggregates in memory. Fine at this
// scale; swap for precomputed counters if the table grows.
func (r *ClaimRepo) Stats(ctx context.Context, filter core.StatsFilter) (core.DashboardStats, error) {
	stats := core.DashboardStats{ByStatus: map[core.ClaimStatus]int64{}}
	var scoreSum, scoredTotal int64

	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(TableClaims),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return core.DashboardStats{}, fmt.Errorf("claims.scan: %w", err)
		}

		var items []ClaimItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return core.DashboardStats{}, fmt.Errorf("claims.unmarshal: %w", err)
		}

		for _, item := range items {
			if filter.ClaimType != "" && item.ClaimType != string(filter.ClaimType) {
				continue
			}
			if filter.Status != "" && item.Status != string(filter.Status) {
				continue
			}
			stats.Total++
			stats.ByStatus[core.ClaimStatus(item.Status)]++
			if item.RiskScore != nil {
				scoreSum += int64(*item.RiskScore)
				scoredTotal++
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if scoredTotal > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scoredTotal)
	}
	return stats, nil
}

func (r *ClaimRepo) conditionalUpdate(ctx context.Context, id string, update expression.UpdateBuilder, cond expression.ConditionBuilder, conflict func(core.Claim) error) error {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("claims.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableClaims),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Condition failure on a missing item and on a guarded-field
			// change look the same; disambiguate with a read.
			current, getErr := r.Get(ctx, id)
			if errors.Is(getErr, core.ErrNotFound) {
				return core.ErrClaimNotFound
			}
			if getErr != nil {
				return getErr
			}
			return conflict(current)
		}
		return fmt.Errorf("claims.updateItem: %w", err)
	}

	return nil
}

func unmarshalClaims(avs []map[string]types.AttributeValue) ([]core.Claim, error) {
	var items []ClaimItem
	if err := attributevalue.UnmarshalListOfMaps(avs, &items); err != nil {
		return nil, fmt.Errorf("claims.unmarshal: %w", err)
	}

	claims := make([]core.Claim, len(items))
	for i, item := range items {
		claims[i] = item.ToCore()
	}
	return claims, nil
}
