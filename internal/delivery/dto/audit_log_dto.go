package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLogResponse flattens the stored metadata so clients can filter by
// entity without parsing it. OldValue is omitted for creations.
type AuditLogResponse struct {
	ID        int64           `json:"id"`
	ActorID   *uuid.UUID      `json:"actor_id,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	OldValue  json.RawMessage `json:"old_value,omitempty"`
	NewValue  json.RawMessage `json:"new_value,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuditLogListResponse struct {
	Action string             `json:"action"`
	Logs   []AuditLogResponse `json:"logs"`
	Total  int                `json:"total"`
}
