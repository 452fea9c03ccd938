package identity

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	UserUpdated EventType = "user.updated"
	UserDeleted EventType = "user.deleted"
)

// Event is a change to an account in the external identity provider.
type Event struct {
	Type EventType `json:"type"`
	Data User      `json:"data"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (e Event) Known() bool {
	return e.Type == UserUpdated || e.Type == UserDeleted
}

// ParseEvent decodes an identity provider payload. The user id is required.
func ParseEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode identity event: %w", err)
	}
	if e.Data.ID == "" {
		return Event{}, fmt.Errorf("identity event %q has no user id", e.Type)
	}
	return e, nil
}
