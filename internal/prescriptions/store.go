package prescriptions

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

// Store is the prescription persistence surface.
type Store interface {
	Put(ctx context.Context, p *Prescription) error
	Get(ctx context.Context, id string) (*Prescription, error)
	ListForActor(ctx context.Context, actor identity.Actor) ([]*Prescription, error)
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

const (
	patientIndex  = "patientUid-index"
	providerIndex = "providerUid-index"
)

// DynamoStore persists prescriptions to DynamoDB.
type DynamoStore struct {
	client dynamoAPI
	table  string
	logger *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store over the prescriptions table.
func NewDynamoStore(client dynamoAPI, table string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("prescriptions: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("prescriptions: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, table: table, logger: logger}
}

// Put writes a new prescription. Issued prescriptions are immutable, so the
// write is guarded against id reuse.
func (s *DynamoStore) Put(ctx context.Context, p *Prescription) error {
	if p == nil {
		return errors.New("prescriptions: prescription cannot be nil")
	}
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("prescriptions: failed to marshal prescription: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("prescriptions: failed to persist prescription: %w", err)
	}
	return nil
}

// Get fetches a prescription by id.
func (s *DynamoStore) Get(ctx context.Context, id string) (*Prescription, error) {
	if id == "" {
		return nil, errors.New("prescriptions: id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prescriptions: failed to fetch prescription %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrPrescriptionNotFound
	}
	var p Prescription
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("prescriptions: failed to decode prescription: %w", err)
	}
	return &p, nil
}

// ListForActor returns the actor's prescriptions: received for patients,
// issued for providers.
func (s *DynamoStore) ListForActor(ctx context.Context, actor identity.Actor) ([]*Prescription, error) {
	index, key := patientIndex, "patientUid"
	if actor.IsProvider() {
		index, key = providerIndex, "providerUid"
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#uid": key,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: actor.ID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prescriptions: failed to list prescriptions: %w", err)
	}
	items := make([]*Prescription, 0, len(out.Items))
	for _, item := range out.Items {
		var p Prescription
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("prescriptions: failed to decode prescription: %w", err)
		}
		items = append(items, &p)
	}
	return items, nil
}
