package portfolio

import "time"

type EventType string

const (
	EventCreated        EventType = "created"
	EventUpdated        EventType = "updated"
	EventPrivacyChanged EventType = "privacy_changed"
	EventDeleted        EventType = "deleted"
)

// Event announces a change to a stored portfolio. Consumers use it to refresh
// rendered pages and caches.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"event_type"`
	OwnerID    string    `json:"owner_id"`
	Username   string    `json:"username"`
	IsPrivate  bool      `json:"is_private"`
	OccurredAt time.Time `json:"occurred_at"`
}
