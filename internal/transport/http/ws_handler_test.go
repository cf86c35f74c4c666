package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/sochat/realtime-server/internal/proto"
)

func TestHandshakeAuth(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"no token", s.ts.URL + "/ws", http.StatusUnauthorized},
		{"garbage token", s.ts.URL + "/ws?token=garbage", http.StatusUnauthorized},
		{"unknown user", s.ts.URL + "/ws?token=" + signToken(t, "ghost", "ghost"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(tc.url)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestHandshakeBearerHeader(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+s.ts.URL[len("http"):]+"/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + signToken(t, "u1", "alice")}},
	})
	if err != nil {
		t.Fatalf("dial with bearer header: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	awaitEvent(t, conn, proto.OutUserOnline)
}

func TestConnectDeliversPresenceAndRoster(t *testing.T) {
	s := newTestServer(t)
	conn := dial(t, s, "u1", "alice")

	data := awaitEvent(t, conn, proto.OutUserOnline)
	var presence proto.PresenceEvent
	if err := json.Unmarshal(data, &presence); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if presence.UserID != "u1" {
		t.Fatalf("presence user = %q, want u1", presence.UserID)
	}

	data = awaitEvent(t, conn, proto.OutUsersOnlineInit)
	var roster []string
	if err := json.Unmarshal(data, &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster) != 1 || roster[0] != "u1" {
		t.Fatalf("roster = %v, want [u1]", roster)
	}
}

func TestJoinAndMessageFlow(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")
	bob := dial(t, s, "u2", "bob")

	send(t, alice, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	data := awaitEvent(t, alice, proto.OutChatJoinAck)
	var ack proto.JoinAck
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if !ack.OK || ack.ChatID != "c1" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	send(t, bob, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	awaitEvent(t, bob, proto.OutChatJoinAck)

	send(t, alice, proto.InChatMessage, proto.MessageData{ChatID: "c1", Content: "hello", TempID: "tmp-1"})

	for name, conn := range map[string]*websocket.Conn{"sender": alice, "peer": bob} {
		data := awaitEvent(t, conn, proto.OutChatMessage)
		var msg proto.MessageEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("%s: unmarshal message: %v", name, err)
		}
		if msg.Content != "hello" || msg.SenderID != "u1" || msg.ChatID != "c1" {
			t.Fatalf("%s: unexpected message: %+v", name, msg)
		}
		if msg.ID == "" || msg.CreatedAt == "" {
			t.Fatalf("%s: missing server-assigned fields: %+v", name, msg)
		}
		if msg.TempID != "tmp-1" {
			t.Fatalf("%s: tempId = %q, want tmp-1", name, msg.TempID)
		}
	}
}

func TestJoinDeniedForNonMember(t *testing.T) {
	s := newTestServer(t)
	mallory := dial(t, s, "u3", "mallory")

	send(t, mallory, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	data := awaitEvent(t, mallory, proto.OutChatJoinAck)
	var ack proto.JoinAck
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.OK {
		t.Fatal("non-member join acked ok")
	}
	if ack.Error != "UNAUTHORIZED" {
		t.Fatalf("ack error = %q, want UNAUTHORIZED", ack.Error)
	}
}

func TestGateBlocksNonMemberEvents(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")
	mallory := dial(t, s, "u3", "mallory")

	send(t, alice, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	awaitEvent(t, alice, proto.OutChatJoinAck)

	send(t, mallory, proto.InChatMessage, proto.MessageData{ChatID: "c1", Content: "let me in"})
	data := awaitEvent(t, mallory, proto.OutError)
	var errEv proto.ErrorEvent
	if err := json.Unmarshal(data, &errEv); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errEv.Code != "UNAUTHORIZED_ROOM_ACCESS" || errEv.Message != "You are not a member of this chat" {
		t.Fatalf("unexpected error event: %+v", errEv)
	}

	// Nothing leaked into the room.
	expectSilence(t, alice, 200*time.Millisecond)
}

func TestMissingChatIDRejected(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")

	send(t, alice, proto.InChatMessage, proto.MessageData{Content: "no room"})
	data := awaitEvent(t, alice, proto.OutError)
	var errEv proto.ErrorEvent
	if err := json.Unmarshal(data, &errEv); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errEv.Message != "Missing chatId in event payload" {
		t.Fatalf("message = %q", errEv.Message)
	}
}

func TestUnknownEventType(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")

	send(t, alice, "bogus:event", struct{}{})
	data := awaitEvent(t, alice, proto.OutError)
	var errEv proto.ErrorEvent
	if err := json.Unmarshal(data, &errEv); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errEv.Message != "Unknown event type: bogus:event" {
		t.Fatalf("message = %q", errEv.Message)
	}
}

func TestReconnectAutoRejoins(t *testing.T) {
	s := newTestServer(t)

	first := dial(t, s, "u1", "alice")
	send(t, first, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	awaitEvent(t, first, proto.OutChatJoinAck)
	first.Close(websocket.StatusNormalClosure, "")

	bob := dial(t, s, "u2", "bob")
	send(t, bob, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
	awaitEvent(t, bob, proto.OutChatJoinAck)

	// Reconnect without re-joining; the cached membership restores the
	// subscription.
	second := dial(t, s, "u1", "alice")
	awaitEvent(t, second, proto.OutUsersOnlineInit)

	send(t, bob, proto.InChatMessage, proto.MessageData{ChatID: "c1", Content: "welcome back"})
	data := awaitEvent(t, second, proto.OutChatMessage)
	var msg proto.MessageEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.Content != "welcome back" {
		t.Fatalf("content = %q", msg.Content)
	}
}

func TestTypingReachesPeersOnly(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")
	bob := dial(t, s, "u2", "bob")

	for _, conn := range []*websocket.Conn{alice, bob} {
		send(t, conn, proto.InChatJoin, proto.JoinData{ChatID: "c1"})
		awaitEvent(t, conn, proto.OutChatJoinAck)
	}
	// bob's join notification lands on alice; drain it so the silence
	// check below sees only typing traffic.
	awaitEvent(t, alice, proto.OutChatJoined)

	send(t, alice, proto.InChatTyping, proto.TypingData{ChatID: "c1", IsTyping: true})
	data := awaitEvent(t, bob, proto.OutChatTyping)
	var typing proto.TypingEvent
	if err := json.Unmarshal(data, &typing); err != nil {
		t.Fatalf("unmarshal typing: %v", err)
	}
	if !typing.IsTyping || typing.UserID != "u1" {
		t.Fatalf("unexpected typing event: %+v", typing)
	}

	expectSilence(t, alice, 200*time.Millisecond)
}

func TestDisconnectBroadcastsOffline(t *testing.T) {
	s := newTestServer(t)
	alice := dial(t, s, "u1", "alice")
	awaitEvent(t, alice, proto.OutUsersOnlineInit)

	bob := dial(t, s, "u2", "bob")
	awaitEvent(t, bob, proto.OutUsersOnlineInit)
	bob.Close(websocket.StatusNormalClosure, "bye")

	data := awaitEvent(t, alice, proto.OutUserOffline)
	var presence proto.PresenceEvent
	if err := json.Unmarshal(data, &presence); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if presence.UserID != "u2" {
		t.Fatalf("offline user = %q, want u2", presence.UserID)
	}
	if presence.LastSeen == "" {
		t.Fatal("missing lastSeen stamp")
	}
}
