package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TransactionCreated  EventType = "transaction.created"
	TransactionDeleted  EventType = "transaction.deleted"
	HabitCompleted      EventType = "habit.completed"
	AchievementUnlocked EventType = "achievement.unlocked"
)

// Event is a lightweight notification. Consumers fetch the entity itself
// from the database by EntityID.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  int64     `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, entityID int64) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetail attaches a short free-form qualifier, such as an achievement code.
func (e Event) WithDetail(detail string) Event {
	e.Detail = detail
	return e
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and checks a message body.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return Event{}, fmt.Errorf("event id %q: %w", e.ID, err)
	}
	switch e.Type {
	case TransactionCreated, TransactionDeleted, HabitCompleted, AchievementUnlocked:
	default:
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.EntityID <= 0 {
		return Event{}, fmt.Errorf("event %s has no entity id", e.ID)
	}
	return e, nil
}
