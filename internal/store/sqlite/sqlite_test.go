package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sochat/realtime-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateUser(ctx, store.User{ID: "u1", Username: "alice", Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, store.User{ID: "u2", Username: "bob"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateChat(ctx, store.Chat{ID: "c1", Name: "general"}); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := s.AddChatMember(ctx, "c1", "u1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
}

func TestGetUserByID(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	user, err := s.GetUserByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Username != "alice" || user.Name != "Alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := s.GetUserByID(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckMembership(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	ok, err := s.CheckMembership(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("check membership: %v", err)
	}
	if !ok {
		t.Fatal("expected u1 to be a member of c1")
	}

	ok, err = s.CheckMembership(ctx, "c1", "u2")
	if err != nil {
		t.Fatalf("check membership: %v", err)
	}
	if ok {
		t.Fatal("expected u2 not to be a member of c1")
	}

	// Absent chat answers no, not error.
	ok, err = s.CheckMembership(ctx, "missing", "u1")
	if err != nil {
		t.Fatalf("check membership: %v", err)
	}
	if ok {
		t.Fatal("expected no membership for missing chat")
	}
}

func TestMembershipLifecycle(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	// Idempotent add.
	if err := s.AddChatMember(ctx, "c1", "u1"); err != nil {
		t.Fatalf("re-add member: %v", err)
	}

	if err := s.RemoveChatMember(ctx, "c1", "u1"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	ok, err := s.CheckMembership(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("check membership: %v", err)
	}
	if ok {
		t.Fatal("membership survived removal")
	}

	// Idempotent remove.
	if err := s.RemoveChatMember(ctx, "c1", "u1"); err != nil {
		t.Fatalf("re-remove member: %v", err)
	}
}

func TestGetChat(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	chat, err := s.GetChat(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if chat.Name != "general" || chat.Type != store.ChatTypeGroup {
		t.Fatalf("unexpected chat: %+v", chat)
	}

	if _, err := s.GetChat(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
