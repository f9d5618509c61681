package bayes

import (
	"context"
	"testing"

	"github.com/barbashov/chatguard/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	cfg := DefaultConfig()
	cfg.PerChatStats = true
	return NewClassifier(NewMemoryStorage(), cfg, tokenizer.DefaultConfig())
}

func TestClassify_UntrainedModelReturnsNeutralScore(t *testing.T) {
	c := newTestClassifier()
	score, err := c.Classify(context.Background(), "buy cheap deals now", ForChat(1), 0)
	require.NoError(t, err)
	require.Equal(t, 50.0, score.Value)
	require.False(t, score.IsSpam)
	require.Equal(t, 0.0, score.Confidence)
}

func TestClassify_EmptyMessageYieldsZeroConfidence(t *testing.T) {
	c := newTestClassifier()
	require.NoError(t, c.LearnSpam(context.Background(), "buy cheap deals now", ForChat(1)))
	score, err := c.Classify(context.Background(), "   ", ForChat(1), 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Confidence)
}

func TestClassify_Symmetry_EqualTrainingScoresNearFifty(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier()
	scope := ForChat(1)

	require.NoError(t, c.LearnSpam(ctx, "hello world today", scope))
	require.NoError(t, c.LearnHam(ctx, "hello world today", scope))

	score, err := c.Classify(ctx, "hello world today", scope, 0)
	require.NoError(t, err)
	require.InDelta(t, 50.0, score.Value, 1.0)
}

func TestClassify_Monotonicity_MoreSpamTrainingNeverDecreasesScore(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier()
	scope := ForChat(1)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.LearnHam(ctx, "how are you today my friend", scope))
	}

	prev, err := c.Classify(ctx, "buy cheap deals now", scope, 0)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		require.NoError(t, c.LearnSpam(ctx, "buy cheap deals now act fast", scope))
		next, err := c.Classify(ctx, "buy cheap deals now", scope, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, next.Value, prev.Value-1e-9)
		prev = next
	}
}

func TestClassify_LearnsAndFlagsSpam(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier()
	scope := ForChat(42)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.LearnSpam(ctx, "buy cheap deals now limited offer", scope))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, c.LearnHam(ctx, "how are you today my friend", scope))
	}

	score, err := c.Classify(ctx, "buy cheap now", scope, 50)
	require.NoError(t, err)
	require.Greater(t, score.Value, 50.0)
	require.True(t, score.IsSpam)
	require.GreaterOrEqual(t, score.Confidence, 0.1)
}

func TestLearnSpam_EmptyMessageFails(t *testing.T) {
	c := newTestClassifier()
	err := c.LearnSpam(context.Background(), "   ", ForChat(1))
	require.Error(t, err)
}

func TestBatchLearn_ReportsCounts(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier()
	scope := ForChat(1)

	examples := []LearnExample{
		{Text: "buy cheap now", IsSpam: true, Scope: scope},
		{Text: "hello friend", IsSpam: false, Scope: scope},
		{Text: "   ", IsSpam: true, Scope: scope},
	}

	var progressCalls int
	result, err := c.BatchLearn(ctx, examples, func(done, total int) { progressCalls++ })
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 2, result.Success)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.SpamLearned)
	require.Equal(t, 1, result.HamLearned)
	require.Equal(t, 3, progressCalls)
}

func TestResetAndCleanupRareTokens(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier()
	scope := ForChat(1)

	require.NoError(t, c.LearnSpam(ctx, "rare token appears once", scope))
	removed, err := c.CleanupRareTokens(ctx, 2, scope)
	require.NoError(t, err)
	require.Greater(t, removed, 0)

	require.NoError(t, c.Reset(ctx, scope))
	score, err := c.Classify(ctx, "rare token appears once", scope, 0)
	require.NoError(t, err)
	require.Equal(t, 50.0, score.Value)
}

func TestClassify_PerChatStatsFalseSharesGlobalScope(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.PerChatStats = false
	c := NewClassifier(NewMemoryStorage(), cfg, tokenizer.DefaultConfig())

	require.NoError(t, c.LearnSpam(ctx, "buy cheap deals now", ForChat(1)))
	require.NoError(t, c.LearnSpam(ctx, "buy cheap deals now", ForChat(1)))
	require.NoError(t, c.LearnHam(ctx, "hello friend", ForChat(1)))

	score, err := c.Classify(ctx, "buy cheap deals now", ForChat(999), 0)
	require.NoError(t, err)
	require.Greater(t, score.Value, 50.0)
}
