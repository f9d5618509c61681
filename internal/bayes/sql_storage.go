package bayes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// InitSchema creates the bayes_tokens and bayes_classes tables if they do
// not already exist. chat_id is NULL for the global scope; the covering
// index keeps per-chat lookups from scanning the global rows.
func InitSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS bayes_tokens (
    token       TEXT NOT NULL,
    chat_id     INTEGER,
    spam_count  INTEGER NOT NULL DEFAULT 0,
    ham_count   INTEGER NOT NULL DEFAULT 0,
    total_count INTEGER NOT NULL DEFAULT 0,
    UNIQUE(token, chat_id)
);
CREATE INDEX IF NOT EXISTS idx_bayes_tokens_chat_token ON bayes_tokens(chat_id, token);

CREATE TABLE IF NOT EXISTS bayes_classes (
    chat_id       INTEGER,
    is_spam       INTEGER NOT NULL,
    message_count INTEGER NOT NULL DEFAULT 0,
    token_count   INTEGER NOT NULL DEFAULT 0,
    UNIQUE(chat_id, is_spam)
);
`
	_, err := db.Exec(schema)
	return err
}

// SQLStorage is the persistent Storage implementation, backed by SQLite.
type SQLStorage struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLStorage constructs a SQLStorage over db. InitSchema must have been
// called already.
func NewSQLStorage(db *sql.DB, log zerolog.Logger) *SQLStorage {
	return &SQLStorage{db: db, log: log.With().Str("component", "bayes_storage").Logger()}
}

func (s *SQLStorage) GetTokenStats(ctx context.Context, token string, scope Scope) (TokenStats, bool, error) {
	chatID := scope.NullableChatID()
	row := s.db.QueryRowContext(ctx,
		`SELECT spam_count, ham_count, total_count FROM bayes_tokens WHERE token = ? AND chat_id IS ?`,
		token, chatID)

	var st TokenStats
	st.Token = token
	if err := row.Scan(&st.SpamCount, &st.HamCount, &st.TotalCount); err != nil {
		if err == sql.ErrNoRows {
			return TokenStats{}, false, nil
		}
		return TokenStats{}, false, err
	}
	return st, true, nil
}

func (s *SQLStorage) GetClassStats(ctx context.Context, isSpam bool, scope Scope) (ClassStats, error) {
	chatID := scope.NullableChatID()
	row := s.db.QueryRowContext(ctx,
		`SELECT message_count, token_count FROM bayes_classes WHERE chat_id IS ? AND is_spam = ?`,
		chatID, isSpam)

	var cs ClassStats
	if err := row.Scan(&cs.MessageCount, &cs.TokenCount); err != nil {
		if err == sql.ErrNoRows {
			return ClassStats{}, nil
		}
		return ClassStats{}, err
	}
	return cs, nil
}

func (s *SQLStorage) UpdateTokenStats(ctx context.Context, token string, isSpam bool, inc int, scope Scope) error {
	return s.updateToken(ctx, s.db, token, isSpam, inc, scope)
}

func (s *SQLStorage) updateToken(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, token string, isSpam bool, inc int, scope Scope) error {
	chatID := scope.NullableChatID()
	spamInc, hamInc := 0, inc
	if isSpam {
		spamInc, hamInc = inc, 0
	}
	_, err := execer.ExecContext(ctx, `
INSERT INTO bayes_tokens(token, chat_id, spam_count, ham_count, total_count)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(token, chat_id) DO UPDATE SET
    spam_count  = spam_count + excluded.spam_count,
    ham_count   = ham_count + excluded.ham_count,
    total_count = total_count + excluded.total_count
`, token, chatID, spamInc, hamInc, inc)
	return err
}

func (s *SQLStorage) UpdateClassStats(ctx context.Context, isSpam bool, msgInc, tokInc int, scope Scope) error {
	chatID := scope.NullableChatID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO bayes_classes(chat_id, is_spam, message_count, token_count)
VALUES(?, ?, ?, ?)
ON CONFLICT(chat_id, is_spam) DO UPDATE SET
    message_count = message_count + excluded.message_count,
    token_count   = token_count + excluded.token_count
`, chatID, isSpam, msgInc, tokInc)
	return err
}

func (s *SQLStorage) BatchUpdateTokens(ctx context.Context, updates []TokenUpdate, scope Scope) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bayes: begin batch update: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		if err := s.updateToken(ctx, tx, u.Token, u.IsSpam, u.Increment, scope); err != nil {
			return fmt.Errorf("bayes: batch update token %q: %w", u.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bayes: commit batch update: %w", err)
	}
	return nil
}

func (s *SQLStorage) GetVocabularySize(ctx context.Context, scope Scope) (int, error) {
	chatID := scope.NullableChatID()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bayes_tokens WHERE chat_id IS ?`, chatID).Scan(&n)
	return n, err
}

func (s *SQLStorage) GetModelStats(ctx context.Context, scope Scope) (ModelStats, error) {
	spam, err := s.GetClassStats(ctx, true, scope)
	if err != nil {
		return ModelStats{}, err
	}
	ham, err := s.GetClassStats(ctx, false, scope)
	if err != nil {
		return ModelStats{}, err
	}
	vocab, err := s.GetVocabularySize(ctx, scope)
	if err != nil {
		return ModelStats{}, err
	}

	chatID := scope.NullableChatID()
	var totalTokens int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_count), 0) FROM bayes_tokens WHERE chat_id IS ?`, chatID).Scan(&totalTokens); err != nil {
		return ModelStats{}, err
	}

	return ModelStats{
		SpamMessages: spam.MessageCount,
		HamMessages:  ham.MessageCount,
		TotalTokens:  totalTokens,
		VocabSize:    vocab,
	}, nil
}

func (s *SQLStorage) ClearStats(ctx context.Context, scope Scope) error {
	chatID := scope.NullableChatID()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bayes_tokens WHERE chat_id IS ?`, chatID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM bayes_classes WHERE chat_id IS ?`, chatID)
	return err
}

func (s *SQLStorage) topTokens(ctx context.Context, column string, limit int, scope Scope) ([]TokenStats, error) {
	chatID := scope.NullableChatID()
	query := fmt.Sprintf(`
SELECT token, spam_count, ham_count, total_count FROM bayes_tokens
WHERE chat_id IS ? AND %s > 0 AND total_count >= 2
ORDER BY (CAST(%s AS REAL) / total_count) DESC, %s DESC, token ASC`, column, column, column)
	if limit >= 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TokenStats
	for rows.Next() {
		var st TokenStats
		if err := rows.Scan(&st.Token, &st.SpamCount, &st.HamCount, &st.TotalCount); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStorage) GetTopSpamTokens(ctx context.Context, limit int, scope Scope) ([]TokenStats, error) {
	return s.topTokens(ctx, "spam_count", limit, scope)
}

func (s *SQLStorage) GetTopHamTokens(ctx context.Context, limit int, scope Scope) ([]TokenStats, error) {
	return s.topTokens(ctx, "ham_count", limit, scope)
}

func (s *SQLStorage) CleanupRareTokens(ctx context.Context, minCount int, scope Scope) (int, error) {
	chatID := scope.NullableChatID()
	res, err := s.db.ExecContext(ctx, `DELETE FROM bayes_tokens WHERE chat_id IS ? AND total_count < ?`, chatID, minCount)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
