// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxIdentityLen = 128

var (
	ErrIdentityEmpty   = errors.New("participant name empty")
	ErrIdentityTooLong = errors.New("participant name too long")
)

// Identity is the name a connection announces itself as.
// Matching is exact and case-sensitive everywhere.
type Identity string

// NewIdentity is a tiny helper to avoid ad-hoc casts in adapters.
func NewIdentity(name string) (Identity, error) {
	if len(name) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(name) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(name), nil
}
