// Package livekit talks to the external media server: its Twirp room
// service for control-plane calls and its signed webhook deliveries.
package livekit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/invitegate/internal/auth"
	"github.com/dkeye/invitegate/internal/core"
	"github.com/dkeye/invitegate/internal/domain"
)

const roomServicePath = "/twirp/livekit.RoomService/"

// Client implements core.RoomService against a LiveKit deployment.
// Every call authenticates with a freshly minted admin token.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *auth.Provider
}

func NewClient(baseURL string, tokens *auth.Provider) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  tokens,
	}
}

type roomRecord struct {
	SID             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"num_participants"`
}

func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var out struct {
		Rooms []roomRecord `json:"rooms"`
	}
	err := c.call(ctx, "ListRooms", auth.VideoGrant{RoomList: true}, struct{}{}, &out)
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0, len(out.Rooms))
	for _, r := range out.Rooms {
		rooms = append(rooms, domain.Room{
			SID:             r.SID,
			Name:            domain.RoomName(r.Name),
			NumParticipants: r.NumParticipants,
		})
	}
	return rooms, nil
}

func (c *Client) SendData(ctx context.Context, room domain.RoomName, payload []byte, kind core.DataKind, dest []domain.Identity) error {
	idents := make([]string, 0, len(dest))
	for _, id := range dest {
		idents = append(idents, string(id))
	}
	in := struct {
		Room                  string   `json:"room"`
		Data                  []byte   `json:"data"`
		Kind                  string   `json:"kind"`
		DestinationIdentities []string `json:"destination_identities,omitempty"`
	}{
		Room: string(room),
		Data: payload,
		Kind: string(kind),
	}
	in.DestinationIdentities = idents
	grant := auth.VideoGrant{RoomAdmin: true, Room: string(room)}
	return c.call(ctx, "SendData", grant, in, &struct{}{})
}

type twirpError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) call(ctx context.Context, method string, grant auth.VideoGrant, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+roomServicePath+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	token, err := c.tokens.MintGrant("", "", grant)
	if err != nil {
		return fmt.Errorf("%s: mint admin token: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var terr twirpError
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &terr) == nil && terr.Msg != "" {
			return fmt.Errorf("%s: %s: %s", method, terr.Code, terr.Msg)
		}
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	return nil
}
