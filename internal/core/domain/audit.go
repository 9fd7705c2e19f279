package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is a write-only record of a state change, consumed by the
// audit sink collaborator.
type AuditEntry struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity"`
	EntityID  string     `json:"entity_id"`
	OldValue  *string    `json:"old_value,omitempty"`
	NewValue  *string    `json:"new_value,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewAuditEntry builds an entry with a fresh id and timestamp.
func NewAuditEntry(actorID *uuid.UUID, action, entity, entityID string, oldValue, newValue *string) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: time.Now().UTC(),
	}
}
