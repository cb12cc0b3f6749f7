package messaging

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
)

// ErrNotParticipant is returned when an actor touches a conversation they are
// not a party to.
var ErrNotParticipant = errors.New("messaging: not a conversation participant")

// ErrMessageNotFound is returned when no message exists for an id.
var ErrMessageNotFound = errors.New("messaging: message not found")

// ErrEmptyMessage is returned for blank message bodies.
var ErrEmptyMessage = errors.New("messaging: message text required")

// Message is one chat message between a patient and a provider. DeletedBy
// holds the uids that removed the message from their own view; the message
// stays visible to everyone else.
type Message struct {
	ID             string    `json:"id" dynamodbav:"id"`
	ConversationID string    `json:"conversationId" dynamodbav:"conversationId"`
	SenderUID      string    `json:"senderUid" dynamodbav:"senderUid"`
	RecipientUID   string    `json:"recipientUid" dynamodbav:"recipientUid"`
	Text           string    `json:"text" dynamodbav:"text"`
	SentAt         time.Time `json:"sentAt" dynamodbav:"sentAt"`
	DeletedBy      []string  `json:"-" dynamodbav:"deletedBy,stringset,omitempty"`
}

// DeletedFor reports whether the given uid removed this message from their
// view.
func (m *Message) DeletedFor(uid string) bool {
	for _, d := range m.DeletedBy {
		if d == uid {
			return true
		}
	}
	return false
}

// ConversationID is the canonical id for a pair of users, independent of who
// writes first.
func ConversationID(uidA, uidB string) string {
	if uidA > uidB {
		uidA, uidB = uidB, uidA
	}
	return uidA + "#" + uidB
}

// Contact is a chat peer derived from the actor's appointments.
type Contact struct {
	directory.Snapshot
	ConversationID string `json:"conversationId"`
}

// sortMessages orders a thread oldest first.
func sortMessages(msgs []*Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	return nil
}
