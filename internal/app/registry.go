package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/invitegate/internal/core"
	"github.com/dkeye/invitegate/internal/domain"
)

type sessionEntry struct {
	Conn        core.SignalConnection
	TokenIssued bool
}

// Registry is the process-wide identity -> live connection mapping.
// It is the single source of truth for the token-issued flag; callers
// never synchronize around it themselves.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.Identity]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.Identity]*sessionEntry),
	}
}

// Register binds identity to conn, overwriting any prior binding
// (last writer wins). The token-issued flag travels with the
// connection, not the identity: re-announcing on the same connection
// keeps it, a new connection starts fresh.
func (r *Registry) Register(id domain.Identity, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok && e.Conn == conn {
		return
	}
	r.sessions[id] = &sessionEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("registered session")
}

// Lookup returns the connection currently bound to id.
func (r *Registry) Lookup(id domain.Identity) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// MarkTokenIssued flips the issued flag for id. It is the check-and-set
// an Accept must perform before minting: the first caller wins, every
// later caller gets ErrTokenIssued.
func (r *Registry) MarkTokenIssued(id domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if e.TokenIssued {
		return ErrTokenIssued
	}
	e.TokenIssued = true
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("marked token issued")
	return nil
}
