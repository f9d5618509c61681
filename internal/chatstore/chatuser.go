// Package chatstore persists chat-user records, message history, and the
// spam/ham training corpora (§3 "Chat user record", §4.7, §4.8), adapting
// the teacher's plain database/sql storage style to the new schema.
package chatstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/barbashov/chatguard/internal/domain"
)

// InitUserSchema creates the chat_users table if it does not already exist.
func InitUserSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS chat_users (
    chat_id       INTEGER NOT NULL,
    user_id       INTEGER NOT NULL,
    username      TEXT NOT NULL DEFAULT '',
    display_name  TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    is_spammer    INTEGER NOT NULL DEFAULT 0,
    metadata      TEXT NOT NULL DEFAULT '{}',
    PRIMARY KEY(chat_id, user_id)
);
`
	_, err := db.Exec(schema)
	return err
}

// UserStore persists ChatUser records.
type UserStore interface {
	Get(ctx context.Context, chatID, userID int64) (domain.ChatUser, bool, error)
	Upsert(ctx context.Context, user domain.ChatUser) error
	IncrementMessageCount(ctx context.Context, chatID, userID int64) (int, error)
	SetSpammer(ctx context.Context, chatID, userID int64, isSpammer bool) error
	SetMetadata(ctx context.Context, chatID, userID int64, key, value string) error
}

// SQLUserStore is the persistent UserStore implementation.
type SQLUserStore struct {
	db *sql.DB
}

// NewSQLUserStore constructs a SQLUserStore.
func NewSQLUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

func (s *SQLUserStore) Get(ctx context.Context, chatID, userID int64) (domain.ChatUser, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT username, display_name, message_count, is_spammer, metadata
FROM chat_users WHERE chat_id = ? AND user_id = ?`, chatID, userID)

	var u domain.ChatUser
	u.ChatID, u.UserID = chatID, userID
	var isSpammer int
	var metadataJSON string
	if err := row.Scan(&u.Username, &u.DisplayName, &u.MessageCount, &isSpammer, &metadataJSON); err != nil {
		if err == sql.ErrNoRows {
			return domain.ChatUser{}, false, nil
		}
		return domain.ChatUser{}, false, err
	}
	u.IsSpammer = isSpammer != 0
	u.Metadata = map[string]string{}
	_ = json.Unmarshal([]byte(metadataJSON), &u.Metadata)
	return u, true, nil
}

func (s *SQLUserStore) Upsert(ctx context.Context, user domain.ChatUser) error {
	metadataJSON, err := json.Marshal(user.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO chat_users(chat_id, user_id, username, display_name, message_count, is_spammer, metadata)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(chat_id, user_id) DO UPDATE SET
    username = excluded.username,
    display_name = excluded.display_name,
    message_count = excluded.message_count,
    is_spammer = excluded.is_spammer,
    metadata = excluded.metadata
`, user.ChatID, user.UserID, user.Username, user.DisplayName, user.MessageCount, boolToInt(user.IsSpammer), string(metadataJSON))
	return err
}

func (s *SQLUserStore) IncrementMessageCount(ctx context.Context, chatID, userID int64) (int, error) {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO chat_users(chat_id, user_id, message_count)
VALUES(?, ?, 1)
ON CONFLICT(chat_id, user_id) DO UPDATE SET message_count = message_count + 1
`, chatID, userID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, `SELECT message_count FROM chat_users WHERE chat_id = ? AND user_id = ?`, chatID, userID).Scan(&count)
	return count, err
}

func (s *SQLUserStore) SetSpammer(ctx context.Context, chatID, userID int64, isSpammer bool) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO chat_users(chat_id, user_id, is_spammer)
VALUES(?, ?, ?)
ON CONFLICT(chat_id, user_id) DO UPDATE SET is_spammer = excluded.is_spammer
`, chatID, userID, boolToInt(isSpammer))
	return err
}

func (s *SQLUserStore) SetMetadata(ctx context.Context, chatID, userID int64, key, value string) error {
	user, ok, err := s.Get(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		user = domain.ChatUser{ChatID: chatID, UserID: userID, Metadata: map[string]string{}}
	}
	if user.Metadata == nil {
		user.Metadata = map[string]string{}
	}
	user.Metadata[key] = value
	return s.Upsert(ctx, user)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
