package chatstore

import (
	"context"
	"database/sql"

	"github.com/barbashov/chatguard/internal/domain"
)

// InitSpamSchema creates the spam_messages and ham_messages tables if they
// do not already exist. These hold the raw text corpus (§4.7/§4.8); they
// are distinct from the Bayes token/class counters in internal/bayes.
func InitSpamSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS spam_messages (
    chat_id    INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    text       TEXT NOT NULL,
    reason     TEXT NOT NULL,
    score      REAL NOT NULL DEFAULT 0,
    PRIMARY KEY(chat_id, message_id)
);
CREATE TABLE IF NOT EXISTS ham_messages (
    chat_id    INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    text       TEXT NOT NULL,
    reason     TEXT NOT NULL,
    PRIMARY KEY(chat_id, message_id)
);
`
	_, err := db.Exec(schema)
	return err
}

// SpamHamStore persists the stored-message training corpus (§4.7 step 2,
// §4.8 step 3).
type SpamHamStore interface {
	InsertSpam(ctx context.Context, msg domain.StoredMessage) error
	InsertHam(ctx context.Context, msg domain.StoredMessage) error
	ExistsSpamWithText(ctx context.Context, chatID int64, text string) (bool, error)
	SpamByUser(ctx context.Context, chatID, userID int64) ([]domain.StoredMessage, error)
	DeleteSpamByUser(ctx context.Context, chatID, userID int64) error
}

// SQLSpamHamStore is the persistent SpamHamStore implementation.
type SQLSpamHamStore struct {
	db *sql.DB
}

// NewSQLSpamHamStore constructs a SQLSpamHamStore.
func NewSQLSpamHamStore(db *sql.DB) *SQLSpamHamStore {
	return &SQLSpamHamStore{db: db}
}

func (s *SQLSpamHamStore) InsertSpam(ctx context.Context, msg domain.StoredMessage) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO spam_messages(chat_id, user_id, message_id, text, reason, score)
VALUES(?, ?, ?, ?, ?, ?)`, msg.ChatID, msg.UserID, msg.MessageID, msg.Text, string(msg.Reason), msg.Score)
	return err
}

func (s *SQLSpamHamStore) InsertHam(ctx context.Context, msg domain.StoredMessage) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO ham_messages(chat_id, user_id, message_id, text, reason)
VALUES(?, ?, ?, ?, ?)`, msg.ChatID, msg.UserID, msg.MessageID, msg.Text, string(msg.Reason))
	return err
}

func (s *SQLSpamHamStore) ExistsSpamWithText(ctx context.Context, chatID int64, text string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spam_messages WHERE chat_id = ? AND text = ?`, chatID, text).Scan(&n)
	return n > 0, err
}

func (s *SQLSpamHamStore) SpamByUser(ctx context.Context, chatID, userID int64) ([]domain.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT chat_id, user_id, message_id, text, reason, score FROM spam_messages
WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StoredMessage
	for rows.Next() {
		var m domain.StoredMessage
		var reason string
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.MessageID, &m.Text, &reason, &m.Score); err != nil {
			return nil, err
		}
		m.Reason = domain.SpamReason(reason)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLSpamHamStore) DeleteSpamByUser(ctx context.Context, chatID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM spam_messages WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	return err
}
