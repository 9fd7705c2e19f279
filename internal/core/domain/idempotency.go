package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog is the durable record of an already-processed operation,
// keyed by the caller-supplied reference. Replays return the stored
// response instead of posting again.
type IdempotencyLog struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildOperationKey derives the idempotency key for a ledger operation from
// the initiating user, the operation kind, and the client reference.
func BuildOperationKey(userID uuid.UUID, kind TransactionKind, clientRef string) string {
	return fmt.Sprintf("op:%s:%s:%s", userID, kind, clientRef)
}
