package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/invitegate/internal/app"
	"github.com/dkeye/invitegate/internal/auth"
	"github.com/dkeye/invitegate/internal/core"
	"github.com/dkeye/invitegate/internal/domain"
)

// --- Fakes ---

type fakeConn struct {
	mu       sync.Mutex
	open     bool
	failSend bool
	frames   []core.Frame
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("send failed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *fakeConn) sentFrames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

type sentData struct {
	Payload []byte
	Kind    core.DataKind
	Dest    []domain.Identity
}

type fakeRoomService struct {
	mu        sync.Mutex
	rooms     []domain.Room
	listErr   error
	failRooms map[domain.RoomName]bool
	sends     map[domain.RoomName][]sentData
}

func newFakeRoomService(names ...string) *fakeRoomService {
	s := &fakeRoomService{
		failRooms: make(map[domain.RoomName]bool),
		sends:     make(map[domain.RoomName][]sentData),
	}
	for i, name := range names {
		s.rooms = append(s.rooms, domain.Room{SID: fmt.Sprintf("RM_%d", i), Name: domain.RoomName(name)})
	}
	return s
}

func (s *fakeRoomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rooms, nil
}

func (s *fakeRoomService) SendData(ctx context.Context, room domain.RoomName, payload []byte, kind core.DataKind, dest []domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends[room] = append(s.sends[room], sentData{Payload: payload, Kind: kind, Dest: dest})
	if s.failRooms[room] {
		return errors.New("room rejected data")
	}
	return nil
}

type fakeHooks struct {
	event *core.WebhookEvent
	err   error
}

func (h *fakeHooks) Receive(body []byte, authHeader string) (*core.WebhookEvent, error) {
	return h.event, h.err
}

func newCoordinator(rooms core.RoomService) (*app.Coordinator, *auth.Provider) {
	tokens := auth.NewProvider("devkey", "devsecret-devsecret-devsecret", 0)
	return &app.Coordinator{
		Registry: app.NewRegistry(),
		Rooms:    rooms,
		Tokens:   tokens,
		Hooks:    &fakeHooks{},
	}, tokens
}

// --- Accept ---

func TestAcceptUnregistered(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	if _, err := coord.Accept("demo", "alice"); !errors.Is(err, app.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAcceptClosedConnection(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	conn := newFakeConn()
	coord.Registry.Register("alice", conn)
	conn.Close()

	if _, err := coord.Accept("demo", "alice"); !errors.Is(err, app.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for closed conn, got %v", err)
	}
}

func TestAcceptMintsOnce(t *testing.T) {
	coord, tokens := newCoordinator(newFakeRoomService())
	coord.Registry.Register("alice", newFakeConn())

	token, err := coord.Accept("demo", "alice")
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	claims, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("minted token did not verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("token subject = %q, want alice", claims.Subject)
	}
	if claims.Video.Room != "demo" || !claims.Video.RoomJoin {
		t.Errorf("token grant = %+v, want join for demo", claims.Video)
	}
	if claims.Name != "demo" {
		t.Errorf("token display name = %q, want the room name", claims.Name)
	}

	if _, err := coord.Accept("demo", "alice"); !errors.Is(err, app.ErrTokenIssued) {
		t.Errorf("expected ErrTokenIssued on second Accept, got %v", err)
	}
}

// --- Broadcast ---

func TestBroadcastSkipsFailingRoom(t *testing.T) {
	rooms := newFakeRoomService("one", "two", "three")
	rooms.failRooms["two"] = true
	coord, _ := newCoordinator(rooms)

	if err := coord.Broadcast(context.Background(), "hello", "alice"); err != nil {
		t.Fatalf("Broadcast surfaced a per-room failure: %v", err)
	}

	for _, name := range []domain.RoomName{"one", "two", "three"} {
		if got := len(rooms.sends[name]); got != 1 {
			t.Errorf("room %s saw %d send attempts, want 1", name, got)
		}
	}
}

func TestBroadcastListFailure(t *testing.T) {
	rooms := newFakeRoomService("one")
	rooms.listErr = errors.New("upstream down")
	coord, _ := newCoordinator(rooms)

	if err := coord.Broadcast(context.Background(), "hello", "alice"); err == nil {
		t.Error("expected an error when room enumeration fails")
	}
}

func TestBroadcastPayload(t *testing.T) {
	rooms := newFakeRoomService("one")
	coord, _ := newCoordinator(rooms)

	if err := coord.Broadcast(context.Background(), "meeting at 5", "alice"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	sent := rooms.sends["one"]
	if len(sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sent))
	}
	if sent[0].Kind != core.DataReliable {
		t.Errorf("kind = %q, want reliable", sent[0].Kind)
	}
	if len(sent[0].Dest) != 0 {
		t.Errorf("dest = %v, want all participants", sent[0].Dest)
	}

	var payload struct {
		Message         string `json:"message"`
		ParticipantName string `json:"participantName"`
	}
	if err := json.Unmarshal(sent[0].Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Message != "meeting at 5" || payload.ParticipantName != "alice" {
		t.Errorf("payload = %+v", payload)
	}
}

// --- PushToken ---

func TestPushTokenUnknown(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	if err := coord.PushToken("ghost", "tok"); !errors.Is(err, app.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPushTokenDeliveryFailure(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	conn := newFakeConn()
	conn.failSend = true
	coord.Registry.Register("alice", conn)

	if err := coord.PushToken("alice", "tok"); !errors.Is(err, app.ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestPushTokenFrame(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	conn := newFakeConn()
	coord.Registry.Register("alice", conn)

	if err := coord.PushToken("alice", "signed-token"); err != nil {
		t.Fatalf("PushToken failed: %v", err)
	}

	frames := conn.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	var msg struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(frames[0], &msg); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if msg.Type != "token" || msg.Token != "signed-token" {
		t.Errorf("frame = %+v", msg)
	}
}

// --- IssueToken ---

func TestIssueTokenRepeatable(t *testing.T) {
	coord, tokens := newCoordinator(newFakeRoomService())

	for i := 0; i < 5; i++ {
		token, err := coord.IssueToken("demo", "alice")
		if err != nil {
			t.Fatalf("IssueToken call %d failed: %v", i, err)
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			t.Fatalf("token %d did not verify: %v", i, err)
		}
		if claims.Subject != "alice" || claims.Video.Room != "demo" || !claims.Video.RoomJoin {
			t.Errorf("token %d claims = %+v", i, claims)
		}
		if claims.Name != "alice" {
			t.Errorf("self-issued token display name = %q, want the identity", claims.Name)
		}
	}
}

// --- Webhook ---

func TestReceiveWebhookAbsorbsFailure(t *testing.T) {
	coord, _ := newCoordinator(newFakeRoomService())
	coord.Hooks = &fakeHooks{err: errors.New("bad signature")}

	// Must not panic or propagate; the HTTP layer acknowledges anyway.
	coord.ReceiveWebhook([]byte("{}"), "Bearer nope")

	coord.Hooks = &fakeHooks{event: &core.WebhookEvent{
		Event: "room_started",
		Room:  &core.WebhookRoom{SID: "RM_x", Name: "demo"},
	}}
	coord.ReceiveWebhook([]byte(`{"event":"room_started"}`), "Bearer ok")
}
