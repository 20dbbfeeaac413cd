package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/couple-registry/internal/domain"
)

// CodeRepo stores outstanding one-time codes.
// PK: channel, SK: identifier — PutItem on the same key replaces the prior
// code, which is exactly the overwrite-on-reissue semantics we want.
// ExpiresAt is the table's TTL attribute; Redeem still checks wall-clock
// expiry because TTL deletion lags.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, c *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Redeem consumes the code for (channel, identifier) if submitted matches.
// Consumption is a conditional delete keyed on the stored code value, so two
// concurrent redeems can never both succeed: the second conditional delete
// fails because the item is already gone.
func (r *CodeRepo) Redeem(ctx context.Context, channel, identifier, submitted string) error {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("channel", channel, "identifier", identifier),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if out.Item == nil {
		return fmt.Errorf("no outstanding code: %w", domain.ErrNotFound)
	}
	var c domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return err
	}
	if c.Expired(time.Now()) {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("channel", channel, "identifier", identifier),
		}); err != nil {
			slog.Warn("failed to delete expired code", "channel", channel, "err", err)
		}
		return fmt.Errorf("code past expiry: %w", domain.ErrCodeExpired)
	}
	if c.Code != submitted {
		// Entry is retained; the caller may retry until expiry or reissue.
		return fmt.Errorf("code mismatch: %w", domain.ErrCodeInvalid)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("channel", channel, "identifier", identifier),
		ConditionExpression: aws.String("code = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: submitted},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Consumed or replaced between the read and the delete.
			return fmt.Errorf("code already consumed: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}
