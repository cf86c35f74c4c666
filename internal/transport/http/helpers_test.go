package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/auth"
	"github.com/sochat/realtime-server/internal/chat"
	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/eventlog"
	"github.com/sochat/realtime-server/internal/membership"
	"github.com/sochat/realtime-server/internal/presence"
	"github.com/sochat/realtime-server/internal/proto"
	"github.com/sochat/realtime-server/internal/store"
	"github.com/sochat/realtime-server/internal/store/sqlite"
)

type relayFunc func(core.RelayFrame) error

func (f relayFunc) Publish(frame core.RelayFrame) error { return f(frame) }

// memCache is an in-memory membership cache with the same contract as
// the Redis one.
type memCache struct {
	mu      sync.Mutex
	members map[string]map[string]bool
}

func newMemCache() *memCache {
	return &memCache{members: make(map[string]map[string]bool)}
}

func (m *memCache) IsCachedMember(_ context.Context, userID, chatID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[userID][chatID], nil
}

func (m *memCache) CacheMembership(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == nil {
		m.members[userID] = make(map[string]bool)
	}
	m.members[userID][chatID] = true
	return nil
}

func (m *memCache) LoadMemberships(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for chatID := range m.members[userID] {
		out = append(out, chatID)
	}
	return out, nil
}

func (m *memCache) RemoveCachedMembership(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[userID], chatID)
	return nil
}

// memPresence is a minimal presence backend; TTLs are irrelevant at
// this level.
type memPresence struct {
	mu     sync.Mutex
	online map[string]bool
	typing map[string]bool
}

func newMemPresence() *memPresence {
	return &memPresence{online: make(map[string]bool), typing: make(map[string]bool)}
}

func (m *memPresence) SetUserOnline(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = true
	return nil
}

func (m *memPresence) Heartbeat(_ context.Context, userID string) error { return nil }

func (m *memPresence) SetUserOffline(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.online, userID)
	return nil
}

func (m *memPresence) IsUserOnline(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online[userID], nil
}

func (m *memPresence) OnlineUsers(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for userID := range m.online {
		out = append(out, userID)
	}
	return out, nil
}

func (m *memPresence) SetUserTyping(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing[userID+"/"+chatID] = true
	return nil
}

func (m *memPresence) StopUserTyping(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.typing, userID+"/"+chatID)
	return nil
}

func (m *memPresence) IsUserTyping(_ context.Context, userID, chatID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing[userID+"/"+chatID], nil
}

var testJWT = auth.Config{
	Secret:   []byte("test-secret"),
	Issuer:   "sochat",
	Audience: "sochat-clients",
}

// testServer wires the full connection pipeline over an in-process
// relay and serves it from an httptest server.
type testServer struct {
	ts    *httptest.Server
	store *sqlite.SQLiteStore
	cache *memCache
	hub   *core.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for _, u := range []store.User{
		{ID: "u1", Username: "alice", Name: "Alice"},
		{ID: "u2", Username: "bob", Name: "Bob"},
		{ID: "u3", Username: "mallory"},
	} {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if err := st.CreateChat(ctx, store.Chat{ID: "c1", Name: "general"}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	for _, userID := range []string{"u1", "u2"} {
		if err := st.AddChatMember(ctx, "c1", userID); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	hub := core.NewHub(&logger)
	hub.BindRelay(relayFunc(func(frame core.RelayFrame) error {
		hub.Deliver(frame)
		return nil
	}))

	cache := newMemCache()
	joins := membership.NewService(cache, st, hub, &logger)
	tracker := presence.NewTracker(newMemPresence(), hub, &logger)
	fanout := chat.NewService(hub, eventlog.NewNop(nil), 4000, &logger)
	gate := NewGate(hub, st, &logger)
	verifier := auth.NewVerifier(testJWT)

	handler := NewWSHandler(verifier, st, hub, gate, joins, fanout, tracker, 0, 0, &logger)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, store: st, cache: cache, hub: hub}
}

func (s *testServer) wsURL(token string) string {
	return "ws" + s.ts.URL[len("http"):] + "/ws?token=" + token
}

func signToken(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := auth.Sign(testJWT, userID, username, "", "", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func dial(t *testing.T, s *testServer, userID, username string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, s.wsURL(signToken(t, userID, username)), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

// awaitEvent reads frames until one of the wanted type arrives,
// skipping interleaved presence traffic.
func awaitEvent(t *testing.T, conn *websocket.Conn, eventType string) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %q: %v", eventType, err)
		}
		if out.Type == eventType {
			return out.Data
		}
	}
}

// expectSilence asserts no frame arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()
	var out proto.Outbound
	if err := wsjson.Read(ctx, conn, &out); err == nil {
		t.Fatalf("expected silence, got %q", out.Type)
	}
}
