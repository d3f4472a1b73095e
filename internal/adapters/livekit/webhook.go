package livekit

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/invitegate/internal/auth"
	"github.com/dkeye/invitegate/internal/core"
)

var (
	ErrNoSignature      = errors.New("webhook request missing authorization token")
	ErrChecksumMismatch = errors.New("webhook body does not match signed checksum")
)

// Receiver verifies webhook deliveries. The Authorization header is a
// JWT signed with the shared api secret whose sha256 claim is the
// checksum of the raw body.
type Receiver struct {
	tokens *auth.Provider
}

func NewReceiver(tokens *auth.Provider) *Receiver {
	return &Receiver{tokens: tokens}
}

func (r *Receiver) Receive(body []byte, authHeader string) (*core.WebhookEvent, error) {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if token == "" {
		return nil, ErrNoSignature
	}

	claims, err := r.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	sum := sha256.Sum256(body)
	if claims.Sha256 != base64.StdEncoding.EncodeToString(sum[:]) {
		return nil, ErrChecksumMismatch
	}

	var event core.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}
