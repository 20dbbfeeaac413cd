package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/couple-registry/internal/domain"
)

// CoupleRepo provides typed DynamoDB operations for the couples table and its
// email-claims companion table. The two are written together in transactions:
// promoting a draft claims both addresses, soft deleting releases them.
type CoupleRepo struct {
	client      *dynamodb.Client
	tableName   string
	claimsTable string
}

func NewCoupleRepo(client *dynamodb.Client, tableName, claimsTable string) *CoupleRepo {
	return &CoupleRepo{client: client, tableName: tableName, claimsTable: claimsTable}
}

// toItem marshals a couple and adds denormalised top-level copies of the
// partner identifiers so the GSIs can index them (GSIs cannot reach into
// nested maps).
func toItem(c *domain.Couple) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal couple: %w", err)
	}
	item["person1_email"] = &types.AttributeValueMemberS{Value: c.Person1.Email}
	item["person2_email"] = &types.AttributeValueMemberS{Value: c.Person2.Email}
	item["person1_phone"] = &types.AttributeValueMemberS{Value: c.Person1.Phone}
	item["person2_phone"] = &types.AttributeValueMemberS{Value: c.Person2.Phone}
	return item, nil
}

func (r *CoupleRepo) Put(ctx context.Context, c *domain.Couple) error {
	item, err := toItem(c)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CoupleRepo) Get(ctx context.Context, coupleID string) (*domain.Couple, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("couple_id", coupleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("couple not found: %w", domain.ErrNotFound)
	}
	var c domain.Couple
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClaim looks up the email-claims ledger. domain.ErrNotFound means the
// address is free.
func (r *CoupleRepo) GetClaim(ctx context.Context, email string) (*domain.EmailClaim, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.claimsTable),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("no claim for address: %w", domain.ErrNotFound)
	}
	var claim domain.EmailClaim
	if err := attributevalue.UnmarshalMap(out.Item, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// Promote turns an awaiting-payment draft into a pending-verification couple.
// One transaction flips the status and claims both addresses with
// attribute_not_exists conditions, so a racing registration using either
// email loses the whole transaction and surfaces as ErrConflict.
func (r *CoupleRepo) Promote(ctx context.Context, c *domain.Couple) error {
	claim := func(email string) types.TransactWriteItem {
		return types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.claimsTable),
				Item: map[string]types.AttributeValue{
					"email":     &types.AttributeValueMemberS{Value: email},
					"couple_id": &types.AttributeValueMemberS{Value: c.CoupleID},
				},
				ConditionExpression: aws.String("attribute_not_exists(email)"),
			},
		}
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:           aws.String(r.tableName),
					Key:                 strKey("couple_id", c.CoupleID),
					UpdateExpression:    aws.String("SET #s = :pending"),
					ConditionExpression: aws.String("#s = :awaiting"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":pending":  &types.AttributeValueMemberS{Value: domain.StatusPendingVerification},
						":awaiting": &types.AttributeValueMemberS{Value: domain.StatusAwaitingPayment},
					},
				},
			},
			claim(c.Person1.Email),
			claim(c.Person2.Email),
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("email already registered or draft gone: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// SetFlag marks one verification flag true and returns the updated couple.
// Idempotent. Flags are only writable once the draft is paid: unpaid drafts,
// deleted couples and missing ids all fail the condition.
func (r *CoupleRepo) SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("couple_id", coupleID),
		UpdateExpression:    aws.String("SET verification.#f = :t"),
		ConditionExpression: aws.String("#s = :pending OR #s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#f": flag,
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":       &types.AttributeValueMemberBOOL{Value: true},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPendingVerification},
			":active":  &types.AttributeValueMemberS{Value: domain.StatusActive},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("couple not accepting verification flags: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var c domain.Couple
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Activate transitions pending_verification -> active. A failed condition is
// reported as ErrConflict; callers racing to activate treat it as benign.
func (r *CoupleRepo) Activate(ctx context.Context, coupleID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("couple_id", coupleID),
		UpdateExpression:    aws.String("SET #s = :active"),
		ConditionExpression: aws.String("#s = :pending"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active":  &types.AttributeValueMemberS{Value: domain.StatusActive},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPendingVerification},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("not pending: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// SetVerified marks the paid badge on an existing couple.
func (r *CoupleRepo) SetVerified(ctx context.Context, coupleID string) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{"verified": true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("couple_id", coupleID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// SoftDelete marks the couple deleted and releases its email claims in one
// transaction. Terminal: the record stays readable by id for audit.
func (r *CoupleRepo) SoftDelete(ctx context.Context, c *domain.Couple, deletedAt time.Time) error {
	release := func(email string) types.TransactWriteItem {
		return types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.claimsTable),
				Key:       strKey("email", email),
			},
		}
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:           aws.String(r.tableName),
					Key:                 strKey("couple_id", c.CoupleID),
					UpdateExpression:    aws.String("SET #s = :deleted, deleted_at = :at"),
					ConditionExpression: aws.String("attribute_exists(couple_id) AND #s <> :deleted"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":deleted": &types.AttributeValueMemberS{Value: domain.StatusDeleted},
						":at":      &types.AttributeValueMemberS{Value: deletedAt.UTC().Format(time.RFC3339)},
					},
				},
			},
			release(c.Person1.Email),
			release(c.Person2.Email),
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("couple not found or already deleted: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// FindByEmail returns the couple holding the address as either partner email,
// or ErrNotFound. Deleted couples are skipped.
func (r *CoupleRepo) FindByEmail(ctx context.Context, email string) (*domain.Couple, error) {
	return r.findByIdentifier(ctx,
		[]string{"person1_email-index", "person2_email-index"},
		[]string{"person1_email", "person2_email"},
		email)
}

// FindByPhone is FindByEmail for phone numbers.
func (r *CoupleRepo) FindByPhone(ctx context.Context, phone string) (*domain.Couple, error) {
	return r.findByIdentifier(ctx,
		[]string{"person1_phone-index", "person2_phone-index"},
		[]string{"person1_phone", "person2_phone"},
		phone)
}

func (r *CoupleRepo) findByIdentifier(ctx context.Context, indexes, attrs []string, value string) (*domain.Couple, error) {
	for i, index := range indexes {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(index),
			KeyConditionExpression:    aws.String("#a = :v"),
			ExpressionAttributeNames:  map[string]string{"#a": attrs[i]},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			var c domain.Couple
			if err := attributevalue.UnmarshalMap(item, &c); err != nil {
				return nil, err
			}
			if c.Status != domain.StatusDeleted {
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("no couple for identifier: %w", domain.ErrNotFound)
}

// ScanActive returns all active couples. Name matching happens in the
// service; at this record count a filtered scan is the consistency boundary
// we accept.
func (r *CoupleRepo) ScanActive(ctx context.Context) ([]domain.Couple, error) {
	var couples []domain.Couple
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(r.tableName),
			FilterExpression:         aws.String("#s = :active"),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":active": &types.AttributeValueMemberS{Value: domain.StatusActive},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Couple
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		couples = append(couples, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return couples, nil
}

// UpdateCustomization replaces the whole customization document.
func (r *CoupleRepo) UpdateCustomization(ctx context.Context, coupleID string, c domain.Customization) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{"customization": c})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("couple_id", coupleID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// AppendPhoto appends an object reference to the gallery.
func (r *CoupleRepo) AppendPhoto(ctx context.Context, coupleID, ref string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("couple_id", coupleID),
		UpdateExpression: aws.String("SET photos = list_append(if_not_exists(photos, :empty), :p)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":     &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: ref}}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	return err
}
