package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Store is the persistence surface the rest of the application depends on.
type Store interface {
	GetUser(ctx context.Context, uid string) (*User, error)
	PutUser(ctx context.Context, user *User) error
	ListProviders(ctx context.Context, specialty string) ([]*User, error)
	UpdateAvailability(ctx context.Context, actor identity.Actor, avail Availability) (*User, error)
}

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// roleIndex is the GSI projecting users by role, used to list providers
// without scanning the whole table.
const roleIndex = "role-index"

// DynamoStore persists users to DynamoDB.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("directory: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("directory: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

// GetUser fetches a user by id.
func (s *DynamoStore) GetUser(ctx context.Context, uid string) (*User, error) {
	if uid == "" {
		return nil, errors.New("directory: uid required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"uid": &types.AttributeValueMemberS{Value: uid},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("directory: failed to fetch user %s: %w", uid, err)
	}
	if out.Item == nil {
		return nil, ErrUserNotFound
	}
	var user User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("directory: failed to decode user: %w", err)
	}
	return &user, nil
}

// PutUser upserts a user document.
func (s *DynamoStore) PutUser(ctx context.Context, user *User) error {
	if user == nil {
		return errors.New("directory: user cannot be nil")
	}
	if err := user.Validate(); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("directory: failed to marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("directory: failed to persist user: %w", err)
	}
	return nil
}

// ListProviders returns all provider accounts, optionally filtered by
// specialty.
func (s *DynamoStore) ListProviders(ctx context.Context, specialty string) ([]*User, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(roleIndex),
		KeyConditionExpression: aws.String("#role = :role"),
		ExpressionAttributeNames: map[string]string{
			"#role": "role",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":role": &types.AttributeValueMemberS{Value: string(identity.RoleProvider)},
		},
	}
	if specialty != "" {
		input.FilterExpression = aws.String("specialty = :specialty")
		input.ExpressionAttributeValues[":specialty"] = &types.AttributeValueMemberS{Value: specialty}
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to list providers: %w", err)
	}
	providers := make([]*User, 0, len(out.Items))
	for _, item := range out.Items {
		var user User
		if err := attributevalue.UnmarshalMap(item, &user); err != nil {
			return nil, fmt.Errorf("directory: failed to decode provider: %w", err)
		}
		providers = append(providers, &user)
	}
	return providers, nil
}

// UpdateAvailability replaces the availability map on the actor's own provider
// document. Ownership is the write-side invariant: the map belongs to exactly
// one provider.
func (s *DynamoStore) UpdateAvailability(ctx context.Context, actor identity.Actor, avail Availability) (*User, error) {
	if !actor.IsProvider() {
		return nil, ErrNotOwner
	}
	if err := avail.Validate(); err != nil {
		return nil, err
	}

	availAttr, err := attributevalue.Marshal(avail)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to marshal availability: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"uid": &types.AttributeValueMemberS{Value: actor.ID},
		},
		UpdateExpression: aws.String("SET availability = :availability"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":availability": availAttr,
			":role":         &types.AttributeValueMemberS{Value: string(identity.RoleProvider)},
		},
		ExpressionAttributeNames: map[string]string{
			"#role": "role",
		},
		ConditionExpression: aws.String("attribute_exists(uid) AND #role = :role"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("directory: failed to update availability: %w", err)
	}

	var user User
	if err := attributevalue.UnmarshalMap(out.Attributes, &user); err != nil {
		return nil, fmt.Errorf("directory: failed to decode updated user: %w", err)
	}
	s.logger.Info("availability updated", "provider_uid", actor.ID, "days", len(avail))
	return &user, nil
}
