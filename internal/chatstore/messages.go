package chatstore

import (
	"context"
	"database/sql"
	"time"
)

// InitMessageSchema creates the message_history table if it does not
// already exist. This is a rolling log used only for the duplicate-message
// heuristic (§4.6) and bulk-delete-on-ban (§4.7); it is not the Bayes
// training corpus.
func InitMessageSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS message_history (
    chat_id    INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    text       TEXT NOT NULL,
    ts_utc     INTEGER NOT NULL,
    PRIMARY KEY(chat_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_message_history_user ON message_history(chat_id, user_id, message_id);
`
	_, err := db.Exec(schema)
	return err
}

// HistoryEntry is one recorded message in a user's rolling history.
type HistoryEntry struct {
	MessageID int64
	Text      string
	Timestamp time.Time
}

// MessageHistoryStore persists a rolling per-user message log.
type MessageHistoryStore interface {
	Record(ctx context.Context, chatID, userID, messageID int64, text string, at time.Time) error
	LastN(ctx context.Context, chatID, userID int64, n int) ([]HistoryEntry, error)
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error
}

// SQLMessageHistoryStore is the persistent MessageHistoryStore implementation.
type SQLMessageHistoryStore struct {
	db *sql.DB
}

// NewSQLMessageHistoryStore constructs a SQLMessageHistoryStore.
func NewSQLMessageHistoryStore(db *sql.DB) *SQLMessageHistoryStore {
	return &SQLMessageHistoryStore{db: db}
}

func (s *SQLMessageHistoryStore) Record(ctx context.Context, chatID, userID, messageID int64, text string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO message_history(chat_id, user_id, message_id, text, ts_utc)
VALUES(?, ?, ?, ?, ?)
`, chatID, userID, messageID, text, at.UTC().Unix())
	return err
}

// LastN returns the user's most recent n messages in this chat, ordered by
// message id descending (§9 Open Question resolution: "last 10 messages"
// means the 10 highest message ids).
func (s *SQLMessageHistoryStore) LastN(ctx context.Context, chatID, userID int64, n int) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT message_id, text, ts_utc FROM message_history
WHERE chat_id = ? AND user_id = ?
ORDER BY message_id DESC LIMIT ?`, chatID, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts int64
		if err := rows.Scan(&e.MessageID, &e.Text, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLMessageHistoryStore) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error {
	for _, id := range messageIDs {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM message_history WHERE chat_id = ? AND message_id = ?`, chatID, id); err != nil {
			return err
		}
	}
	return nil
}
