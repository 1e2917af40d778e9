package domain

import "github.com/bytedance/sonic"

// Event describes a committed mutation. Events are enqueued best-effort
// after each write so external consumers (read models, audit) can follow
// along; they are not part of the write path's consistency story.
type Event struct {
	ID         string                 `json:"id"`
	EntityID   string                 `json:"entityId"`
	EntityType string                 `json:"entityType"`
	Type       string                 `json:"type"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// Event types emitted by the mutation services.
const (
	EventCreated      = "created"
	EventUpdated      = "updated"
	EventFieldUpdated = "field-updated"
	EventInvited      = "invited"
	EventMoved        = "moved"
	EventDeleted      = "deleted"
)
