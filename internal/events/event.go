package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TaxProfileCreated = "tax_profile.created"
	TaxProfileUpdated = "tax_profile.updated"
	TaxProfileDeleted = "tax_profile.deleted"

	ScheduleCreated   = "discount_schedule.created"
	ScheduleUpdated   = "discount_schedule.updated"
	ScheduleDeleted   = "discount_schedule.deleted"
	ScheduleActivated = "discount_schedule.activated"
)

// Event é o que trafega na fila e chega nos dashboards via websocket.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	EntityID   string          `json:"entity_id"`
	Summary    string          `json:"summary"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New monta um evento; data é serializado em JSON (nil = sem payload).
func New(typ, entityID, summary string, data any) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		EntityID:   entityID,
		Summary:    summary,
		OccurredAt: time.Now().UTC(),
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		evt.Data = b
	}
	return evt, nil
}

// Entity é o prefixo do tipo ("tax_profile" em "tax_profile.created").
func (e Event) Entity() string {
	entity, _, _ := strings.Cut(e.Type, ".")
	return entity
}

func Decode(b []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(b, &e)
	return e, err
}
