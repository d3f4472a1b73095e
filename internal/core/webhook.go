package core

import "github.com/dkeye/invitegate/internal/domain"

// WebhookEvent is the parsed body of a media-server webhook delivery.
// Only the fields we log are mapped; the rest of the payload is dropped.
type WebhookEvent struct {
	Event       string              `json:"event"`
	ID          string              `json:"id"`
	CreatedAt   int64               `json:"createdAt"`
	Room        *WebhookRoom        `json:"room,omitempty"`
	Participant *WebhookParticipant `json:"participant,omitempty"`
}

type WebhookRoom struct {
	SID  string          `json:"sid"`
	Name domain.RoomName `json:"name"`
}

type WebhookParticipant struct {
	SID      string          `json:"sid"`
	Identity domain.Identity `json:"identity"`
}
