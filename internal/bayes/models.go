// Package bayes implements the adaptive multinomial Naive Bayes spam
// classifier (C5/C6): per-scope token and class statistics, online
// learning, and score/confidence estimation.
package bayes

// TokenStats holds the spam/ham occurrence counts for a single token
// within a scope. totalCount is always spamCount+hamCount (§3 invariant).
type TokenStats struct {
	Token      string
	SpamCount  int
	HamCount   int
	TotalCount int
}

// NewTokenStats constructs TokenStats, recomputing TotalCount from the
// component counts so the invariant can never drift.
func NewTokenStats(token string, spamCount, hamCount int) TokenStats {
	return TokenStats{Token: token, SpamCount: spamCount, HamCount: hamCount, TotalCount: spamCount + hamCount}
}

// ClassStats holds the aggregate message/token counts for one class
// (spam or ham) within a scope.
type ClassStats struct {
	MessageCount int
	TokenCount   int
}

// ModelStats summarizes the overall trained model for a scope.
type ModelStats struct {
	SpamMessages int
	HamMessages  int
	TotalTokens  int
	VocabSize    int
}

// TokenUpdate is one entry of a batched token-count increment.
type TokenUpdate struct {
	Token     string
	IsSpam    bool
	Increment int
}

// Score is the result of classifying a message (§4.5).
type Score struct {
	Value           float64 // 0..100
	IsSpam          bool
	Confidence      float64 // 0..1
	PerTokenContrib map[string]float64
}

// BatchLearnResult summarizes a batch-learn run (§4.5 batchLearn).
type BatchLearnResult struct {
	Total       int
	Success     int
	Failed      int
	SpamLearned int
	HamLearned  int
}
