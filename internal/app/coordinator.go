package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/invitegate/internal/core"
	"github.com/dkeye/invitegate/internal/domain"
)

// Coordinator bridges REST-triggered invitations to signal connections.
// It holds no state of its own; everything lives in the registry or on
// the external media server.
type Coordinator struct {
	Registry *Registry
	Rooms    core.RoomService
	Tokens   core.TokenMinter
	Hooks    core.WebhookReceiver
}

type broadcastPayload struct {
	Message         string          `json:"message"`
	ParticipantName domain.Identity `json:"participantName"`
}

// Broadcast pushes a notification into every room the media server
// knows about. Fan-out is best effort: a room that refuses the message
// is logged and skipped, the rest still get their attempt. Only a
// failure to enumerate rooms is surfaced.
func (c *Coordinator) Broadcast(ctx context.Context, message string, from domain.Identity) error {
	rooms, err := c.Rooms.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	payload, err := json.Marshal(broadcastPayload{Message: message, ParticipantName: from})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	for _, room := range rooms {
		if err := c.Rooms.SendData(ctx, room.Name, payload, core.DataReliable, nil); err != nil {
			log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(room.Name)).Msg("failed to send message to room")
			continue
		}
		log.Info().Str("module", "app.coordinator").Str("room", string(room.Name)).Msg("message sent to room")
	}
	return nil
}

// Accept approves a pending invitation: it mints a token granting
// participant entry to roomName and returns it to the caller. Delivery
// to the participant's connection is a separate step (PushToken).
// The room name doubles as the token's display name.
func (c *Coordinator) Accept(roomName domain.RoomName, participant domain.Identity) (string, error) {
	conn, ok := c.Registry.Lookup(participant)
	if !ok || !conn.IsOpen() {
		return "", ErrSessionNotFound
	}

	// The flag must be taken before minting; the first Accept wins.
	if err := c.Registry.MarkTokenIssued(participant); err != nil {
		return "", err
	}

	token, err := c.Tokens.Mint(participant, string(roomName), roomName)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	log.Info().Str("module", "app.coordinator").Str("room", string(roomName)).Str("participant", string(participant)).Msg("invitation accepted, token minted")
	return token, nil
}

// Reject acknowledges a declined invitation. No state changes; the
// operation exists for protocol symmetry with Accept.
func (c *Coordinator) Reject(roomName domain.RoomName, participant domain.Identity) string {
	log.Info().Str("module", "app.coordinator").Str("room", string(roomName)).Str("participant", string(participant)).Msg("invitation rejected")
	return fmt.Sprintf("Invitation rejected for room: %s", roomName)
}

type tokenMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// PushToken delivers a previously minted token to the participant's
// live connection.
func (c *Coordinator) PushToken(participant domain.Identity, token string) error {
	conn, ok := c.Registry.Lookup(participant)
	if !ok || !conn.IsOpen() {
		return ErrSessionNotFound
	}

	frame, err := json.Marshal(tokenMessage{Type: "token", Token: token})
	if err != nil {
		return fmt.Errorf("encode token message: %w", err)
	}
	if err := conn.TrySend(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	log.Info().Str("module", "app.coordinator").Str("participant", string(participant)).Msg("token sent")
	return nil
}

// IssueToken is the self-service path: mint and return, no session
// bookkeeping, callable any number of times.
func (c *Coordinator) IssueToken(roomName domain.RoomName, participant domain.Identity) (string, error) {
	token, err := c.Tokens.Mint(participant, string(participant), roomName)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return token, nil
}

// ReceiveWebhook validates and logs a media-server webhook delivery.
// Validation failures are absorbed here: the sender retries on anything
// but a 2xx, so the HTTP layer acknowledges regardless.
func (c *Coordinator) ReceiveWebhook(body []byte, authHeader string) {
	event, err := c.Hooks.Receive(body, authHeader)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("error validating webhook event")
		return
	}
	ev := log.Info().Str("module", "app.coordinator").Str("event", event.Event)
	if event.Room != nil {
		ev = ev.Str("room", string(event.Room.Name))
	}
	if event.Participant != nil {
		ev = ev.Str("participant", string(event.Participant.Identity))
	}
	ev.Msg("webhook received")
}
