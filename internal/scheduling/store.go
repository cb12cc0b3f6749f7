package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Store is the appointment persistence surface. Create must be conditional on
// the slot being free: under concurrent bookings of the same
// (provider, date, time) at most one non-terminal appointment may win, the
// rest fail with ErrSlotTaken.
type Store interface {
	Create(ctx context.Context, appt *Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, appt *Appointment, to Status) error
	ListForActor(ctx context.Context, actor identity.Actor) ([]*Appointment, error)
	ClaimedTimes(ctx context.Context, providerUID, date string) ([]string, error)
}

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// GSIs on the appointments table projecting by party, so both sides of an
// appointment can list their own records without scanning.
const (
	patientIndex  = "patientUid-index"
	providerIndex = "providerUid-index"
)

// slotClaim is the uniqueness record written alongside each appointment. The
// claims table is keyed (providerDate, time) so "all claimed times for a
// provider on a date" is a single Query and the create-if-absent condition is
// a key condition.
type slotClaim struct {
	ProviderDate  string `dynamodbav:"providerDate"`
	Time          string `dynamodbav:"time"`
	AppointmentID string `dynamodbav:"appointmentId"`
}

func claimPartition(providerUID, date string) string {
	return providerUID + "#" + date
}

// DynamoStore persists appointments and their slot claims to DynamoDB.
type DynamoStore struct {
	client      dynamoAPI
	apptTable   string
	claimsTable string
	logger      *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store over the appointments and slot-claims tables.
func NewDynamoStore(client dynamoAPI, apptTable, claimsTable string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("scheduling: dynamodb client cannot be nil")
	}
	if apptTable == "" || claimsTable == "" {
		panic("scheduling: table names cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, apptTable: apptTable, claimsTable: claimsTable, logger: logger}
}

// Create writes the appointment and its slot claim in one transaction. The
// claim put is guarded by attribute_not_exists on its key, which is the
// create-if-absent discipline that closes the read-then-write race: two
// concurrent bookings of the same slot cannot both commit.
func (s *DynamoStore) Create(ctx context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("scheduling: appointment cannot be nil")
	}
	appt.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	apptItem, err := attributevalue.MarshalMap(appt)
	if err != nil {
		return fmt.Errorf("scheduling: failed to marshal appointment: %w", err)
	}
	claimItem, err := attributevalue.MarshalMap(slotClaim{
		ProviderDate:  claimPartition(appt.ProviderUID, appt.Date),
		Time:          appt.Time,
		AppointmentID: appt.ID,
	})
	if err != nil {
		return fmt.Errorf("scheduling: failed to marshal slot claim: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.claimsTable),
					Item:                claimItem,
					ConditionExpression: aws.String("attribute_not_exists(providerDate)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.apptTable),
					Item:                apptItem,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return ErrSlotTaken
				}
			}
		}
		return fmt.Errorf("scheduling: failed to persist appointment: %w", err)
	}
	return nil
}

// Get fetches an appointment by id.
func (s *DynamoStore) Get(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, errors.New("scheduling: appointment id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.apptTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling: failed to fetch appointment %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrAppointmentNotFound
	}
	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("scheduling: failed to decode appointment: %w", err)
	}
	return &appt, nil
}

// UpdateStatus moves the appointment to the target status. Transitions into a
// terminal status delete the slot claim in the same transaction, releasing the
// slot atomically with the status change.
func (s *DynamoStore) UpdateStatus(ctx context.Context, appt *Appointment, to Status) error {
	if appt == nil {
		return errors.New("scheduling: appointment cannot be nil")
	}

	update := &types.Update{
		TableName: aws.String(s.apptTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: appt.ID},
		},
		UpdateExpression: aws.String("SET #status = :to"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":from": &types.AttributeValueMemberS{Value: string(appt.Status)},
		},
		// Guards against a concurrent transition having won in between.
		ConditionExpression: aws.String("#status = :from"),
	}

	items := []types.TransactWriteItem{{Update: update}}
	if to.Terminal() && !appt.Status.Terminal() {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.claimsTable),
				Key: map[string]types.AttributeValue{
					"providerDate": &types.AttributeValueMemberS{Value: claimPartition(appt.ProviderUID, appt.Date)},
					"time":         &types.AttributeValueMemberS{Value: appt.Time},
				},
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return ErrInvalidTransition
				}
			}
		}
		return fmt.Errorf("scheduling: failed to update status of %s: %w", appt.ID, err)
	}
	appt.Status = to
	return nil
}

// ListForActor returns every appointment the actor is a party to, via the
// party GSIs.
func (s *DynamoStore) ListForActor(ctx context.Context, actor identity.Actor) ([]*Appointment, error) {
	index, key := patientIndex, "patientUid"
	if actor.IsProvider() {
		index, key = providerIndex, "providerUid"
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.apptTable),
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
		return nil, fmt.Errorf("scheduling: failed to list appointments: %w", err)
	}
	appts := make([]*Appointment, 0, len(out.Items))
	for _, item := range out.Items {
		var appt Appointment
		if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
			return nil, fmt.Errorf("scheduling: failed to decode appointment: %w", err)
		}
		appts = append(appts, &appt)
	}
	return appts, nil
}

// ClaimedTimes returns the time labels currently claimed for a provider on a
// date. Claims exist only for non-terminal appointments, so this is exactly
// the booked set the slot resolver subtracts.
func (s *DynamoStore) ClaimedTimes(ctx context.Context, providerUID, date string) ([]string, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.claimsTable),
		KeyConditionExpression: aws.String("providerDate = :pd"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pd": &types.AttributeValueMemberS{Value: claimPartition(providerUID, date)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling: failed to list slot claims: %w", err)
	}
	times := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		var claim slotClaim
		if err := attributevalue.UnmarshalMap(item, &claim); err != nil {
			return nil, fmt.Errorf("scheduling: failed to decode slot claim: %w", err)
		}
		times = append(times, claim.Time)
	}
	return times, nil
}
