package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Store is the chat message persistence surface.
type Store interface {
	Append(ctx context.Context, msg *Message) error
	List(ctx context.Context, conversationID string) ([]*Message, error)
	MarkDeleted(ctx context.Context, conversationID, messageID, uid string) error
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore persists chat messages to DynamoDB, keyed
// (conversationId, id).
type DynamoStore struct {
	client dynamoAPI
	table  string
	logger *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store over the chat messages table.
func NewDynamoStore(client dynamoAPI, table string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("messaging: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("messaging: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, table: table, logger: logger}
}

// Append writes a new message.
func (s *DynamoStore) Append(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("messaging: message cannot be nil")
	}
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal message: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("messaging: failed to persist message: %w", err)
	}
	return nil
}

// List returns a conversation's messages oldest first.
func (s *DynamoStore) List(ctx context.Context, conversationID string) ([]*Message, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("conversationId = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: conversationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to list messages: %w", err)
	}
	msgs := make([]*Message, 0, len(out.Items))
	for _, item := range out.Items {
		var msg Message
		if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
			return nil, fmt.Errorf("messaging: failed to decode message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	sortMessages(msgs)
	return msgs, nil
}

// MarkDeleted adds the uid to the message's deletedBy set. The condition
// distinguishes a missing message from a plain write failure.
func (s *DynamoStore) MarkDeleted(ctx context.Context, conversationID, messageID, uid string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: conversationID},
			"id":             &types.AttributeValueMemberS{Value: messageID},
		},
		UpdateExpression: aws.String("ADD deletedBy :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberSS{Value: []string{uid}},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var failed *types.ConditionalCheckFailedException
		if errors.As(err, &failed) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("messaging: failed to mark message deleted: %w", err)
	}
	return nil
}
