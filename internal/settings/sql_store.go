package settings

import (
	"context"
	"database/sql"
)

// InitSchema creates the chat_settings table if it does not already exist.
func InitSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS chat_settings (
    chat_id INTEGER NOT NULL,
    key     TEXT NOT NULL,
    value   TEXT NOT NULL,
    PRIMARY KEY(chat_id, key)
);
`
	_, err := db.Exec(schema)
	return err
}

// SQLStore is the persistent Store implementation.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore constructs a SQLStore over db. InitSchema must have run.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, chatID int64, key Key) (Value, error) {
	if !IsRecognized(key) {
		return Value{}, nil
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM chat_settings WHERE chat_id = ? AND key = ?`, chatID, string(key)).Scan(&raw)
	if err == sql.ErrNoRows {
		return effective(Value{}, false, key), nil
	}
	if err != nil {
		return Value{}, err
	}
	return effective(NewValue(raw), true, key), nil
}

func (s *SQLStore) Set(ctx context.Context, chatID int64, key Key, value string) error {
	if !IsRecognized(key) {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO chat_settings(chat_id, key, value) VALUES(?, ?, ?)
ON CONFLICT(chat_id, key) DO UPDATE SET value = excluded.value
`, chatID, string(key), value)
	return err
}

func (s *SQLStore) All(ctx context.Context, chatID int64) (map[Key]Value, error) {
	out := make(map[Key]Value, len(Defaults))
	for k, v := range Defaults {
		out[k] = NewValue(v)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM chat_settings WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		out[Key(key)] = NewValue(raw)
	}
	return out, rows.Err()
}

func (s *SQLStore) Reset(ctx context.Context, chatID int64, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_settings WHERE chat_id = ? AND key = ?`, chatID, string(key))
	return err
}
