package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/couple-registry/internal/domain"
)

// ChargeRepo records completed charge sessions for idempotent webhook handling.
type ChargeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChargeRepo(client *dynamodb.Client, tableName string) *ChargeRepo {
	return &ChargeRepo{client: client, tableName: tableName}
}

// MarkCompleted writes the charge record put-if-absent. ErrConflict means the
// session was already processed and the caller must not re-apply its effects.
func (r *ChargeRepo) MarkCompleted(ctx context.Context, rec *domain.ChargeRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal charge record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(session_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("charge session already processed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
