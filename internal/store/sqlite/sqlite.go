// Package sqlite implements the system of record on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sochat/realtime-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL DEFAULT 'GROUP',
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_members (
	chat_id   TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (chat_id, user_id),
	FOREIGN KEY (chat_id) REFERENCES chats(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
`

// New opens the database and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUserByID retrieves a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, username, name, email, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// CheckMembership answers "is user a member of chat" from the record of
// truth.
func (s *SQLiteStore) CheckMembership(ctx context.Context, chatID, userID string) (bool, error) {
	query := `
		SELECT 1 FROM chat_members
		WHERE chat_id = ? AND user_id = ?
	`
	var one int
	err := s.db.QueryRowContext(ctx, query, chatID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// CreateUser inserts an account record.
func (s *SQLiteStore) CreateUser(ctx context.Context, user store.User) error {
	query := `
		INSERT INTO users (id, username, name, email)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Name, user.Email); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateChat inserts a chat record.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat store.Chat) error {
	chatType := chat.Type
	if chatType == "" {
		chatType = store.ChatTypeGroup
	}
	query := `
		INSERT INTO chats (id, type, name)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, chat.ID, string(chatType), chat.Name); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// AddChatMember records a membership. Idempotent.
func (s *SQLiteStore) AddChatMember(ctx context.Context, chatID, userID string) error {
	query := `
		INSERT OR IGNORE INTO chat_members (chat_id, user_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("insert chat member: %w", err)
	}
	return nil
}

// RemoveChatMember revokes a membership. Idempotent.
func (s *SQLiteStore) RemoveChatMember(ctx context.Context, chatID, userID string) error {
	query := `
		DELETE FROM chat_members
		WHERE chat_id = ? AND user_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("delete chat member: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by id.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*store.Chat, error) {
	query := `
		SELECT id, type, name, created_at
		FROM chats
		WHERE id = ?
	`
	var chat store.Chat
	var chatType string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&chat.ID,
		&chatType,
		&chat.Name,
		&chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query chat: %w", err)
	}
	chat.Type = store.ChatType(chatType)
	return &chat, nil
}
