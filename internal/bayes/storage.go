package bayes

import "context"

// Storage is the persistence contract for token and class statistics
// (§4.4). Implementations: MemoryStorage (tests, ephemeral), SQLStorage
// (persistent, backed by tables with a covering index on (chat_id, token)).
type Storage interface {
	GetTokenStats(ctx context.Context, token string, scope Scope) (TokenStats, bool, error)
	GetClassStats(ctx context.Context, isSpam bool, scope Scope) (ClassStats, error)
	UpdateTokenStats(ctx context.Context, token string, isSpam bool, inc int, scope Scope) error
	UpdateClassStats(ctx context.Context, isSpam bool, msgInc, tokInc int, scope Scope) error
	BatchUpdateTokens(ctx context.Context, updates []TokenUpdate, scope Scope) error
	GetVocabularySize(ctx context.Context, scope Scope) (int, error)
	GetModelStats(ctx context.Context, scope Scope) (ModelStats, error)
	ClearStats(ctx context.Context, scope Scope) error
	GetTopSpamTokens(ctx context.Context, limit int, scope Scope) ([]TokenStats, error)
	GetTopHamTokens(ctx context.Context, limit int, scope Scope) ([]TokenStats, error)
	CleanupRareTokens(ctx context.Context, minCount int, scope Scope) (int, error)
}
