// Package auth mints and verifies the HS256 tokens the media server
// understands: access tokens carrying a video grant, and webhook
// signature tokens carrying a body checksum.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/invitegate/internal/domain"
)

const DefaultTTL = 6 * time.Hour

var ErrIssuerMismatch = errors.New("token issuer does not match api key")

// VideoGrant is the scoped permission block embedded in a token.
type VideoGrant struct {
	Room      string `json:"room,omitempty"`
	RoomJoin  bool   `json:"roomJoin,omitempty"`
	RoomList  bool   `json:"roomList,omitempty"`
	RoomAdmin bool   `json:"roomAdmin,omitempty"`
}

// Claims is the full claim set of a media-server token. Sha256 is only
// present on webhook signature tokens.
type Claims struct {
	jwtlib.RegisteredClaims
	Name   string     `json:"name,omitempty"`
	Video  VideoGrant `json:"video"`
	Sha256 string     `json:"sha256,omitempty"`
}

// Provider signs and verifies tokens with one process-wide key pair.
type Provider struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
}

func NewProvider(apiKey, apiSecret string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Provider{apiKey: apiKey, apiSecret: []byte(apiSecret), ttl: ttl}
}

// Mint issues an access token letting identity join room. name is the
// display name shown to other participants.
func (p *Provider) Mint(identity domain.Identity, name string, room domain.RoomName) (string, error) {
	return p.MintGrant(string(identity), name, VideoGrant{Room: string(room), RoomJoin: true})
}

// MintGrant issues a token with an arbitrary grant, e.g. the admin
// grants the room-service client authenticates with.
func (p *Provider) MintGrant(identity, name string, grant VideoGrant) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    p.apiKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(p.ttl)),
		},
		Name:  name,
		Video: grant,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.apiSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token's signature and issuer and returns its claims.
func (p *Provider) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return p.apiSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Issuer != p.apiKey {
		return nil, ErrIssuerMismatch
	}
	return claims, nil
}
