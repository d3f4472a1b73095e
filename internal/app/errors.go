package app

import "errors"

var (
	// ErrSessionNotFound: the identity was never announced, or its
	// connection has since closed.
	ErrSessionNotFound = errors.New("session not found or closed")

	// ErrTokenIssued: a token was already delivered to this session.
	ErrTokenIssued = errors.New("token already issued for this participant")

	// ErrDeliveryFailed: the push over the signal connection failed.
	ErrDeliveryFailed = errors.New("failed to send over connection")
)
