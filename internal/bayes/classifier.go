package bayes

import (
	"context"
	"fmt"
	"math"

	"github.com/barbashov/chatguard/internal/apperrors"
	"github.com/barbashov/chatguard/internal/tokenizer"
)

// Config tunes the classifier (§4.5). Zero-value Config is invalid; use
// DefaultConfig.
type Config struct {
	Alpha               float64
	MinTokenCount       int
	MinConfidence       float64
	DefaultThreshold    float64
	PerChatStats        bool
	MaxTokensPerMessage int
}

// DefaultConfig returns the specification's default classifier tuning.
func DefaultConfig() Config {
	return Config{
		Alpha:               1.0,
		MinTokenCount:       2,
		MinConfidence:       0.1,
		DefaultThreshold:    50.0,
		PerChatStats:        false,
		MaxTokensPerMessage: 1000,
	}
}

// Classifier is the multinomial Naive Bayes spam classifier (C6), backed by
// a Storage implementation for token/class statistics.
type Classifier struct {
	storage   Storage
	cfg       Config
	tokenizer tokenizer.Config
}

// NewClassifier constructs a Classifier over storage.
func NewClassifier(storage Storage, cfg Config, tokCfg tokenizer.Config) *Classifier {
	return &Classifier{storage: storage, cfg: cfg, tokenizer: tokCfg}
}

// resolveScope maps the caller's requested scope down to global when
// per-chat statistics are disabled.
func (c *Classifier) resolveScope(scope Scope) Scope {
	if !c.cfg.PerChatStats {
		return Global()
	}
	return scope
}

// Classify scores text against the trained model for scope (§4.5). A zero
// threshold means "use the configured default".
func (c *Classifier) Classify(ctx context.Context, text string, scope Scope, threshold float64) (Score, error) {
	if threshold == 0 {
		threshold = c.cfg.DefaultThreshold
	}
	scope = c.resolveScope(scope)

	tokens := tokenizer.Tokenize(text, c.tokenizer)
	if len(tokens) > c.cfg.MaxTokensPerMessage {
		tokens = tokens[:c.cfg.MaxTokensPerMessage]
	}
	if len(tokens) == 0 {
		return Score{Value: 50, IsSpam: false, Confidence: 0}, nil
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}

	spamClass, err := c.storage.GetClassStats(ctx, true, scope)
	if err != nil {
		return Score{}, err
	}
	hamClass, err := c.storage.GetClassStats(ctx, false, scope)
	if err != nil {
		return Score{}, err
	}
	if spamClass.MessageCount+hamClass.MessageCount == 0 {
		return Score{Value: 50, IsSpam: false, Confidence: 0}, nil
	}

	vocabSize, err := c.storage.GetVocabularySize(ctx, scope)
	if err != nil {
		return Score{}, err
	}

	logSpam := math.Log(0.5)
	logHam := math.Log(0.5)
	contrib := make(map[string]float64, len(freq))
	knownTokens := 0

	for token, count := range freq {
		stats, ok, err := c.storage.GetTokenStats(ctx, token, scope)
		if err != nil {
			return Score{}, err
		}
		if !ok || stats.TotalCount < c.cfg.MinTokenCount {
			continue
		}
		knownTokens++

		pSpam := (float64(stats.SpamCount) + c.cfg.Alpha) / (float64(spamClass.TokenCount) + c.cfg.Alpha*float64(vocabSize))
		pHam := (float64(stats.HamCount) + c.cfg.Alpha) / (float64(hamClass.TokenCount) + c.cfg.Alpha*float64(vocabSize))

		llSpam := math.Log(pSpam) * float64(count)
		llHam := math.Log(pHam) * float64(count)

		logSpam += llSpam
		logHam += llHam
		contrib[token] = llSpam - llHam
	}

	score := 100 * logSumExpProb(logSpam, logHam)

	confidence := 0.7*float64(knownTokens)/float64(len(freq)) + 0.3*math.Min(1, float64(spamClass.MessageCount+hamClass.MessageCount)/100)

	return Score{
		Value:           score,
		IsSpam:          score >= threshold && confidence >= c.cfg.MinConfidence,
		Confidence:      confidence,
		PerTokenContrib: contrib,
	}, nil
}

// logSumExpProb returns P(spam) = exp(logSpam) / (exp(logSpam) + exp(logHam))
// computed via the log-sum-exp trick for numerical stability.
func logSumExpProb(logSpam, logHam float64) float64 {
	m := math.Max(logSpam, logHam)
	denom := math.Exp(logSpam-m) + math.Exp(logHam-m)
	return math.Exp(logSpam-m) / denom
}

// LearnSpam tokenizes text and records it as spam under scope.
func (c *Classifier) LearnSpam(ctx context.Context, text string, scope Scope) error {
	return c.learn(ctx, text, true, scope)
}

// LearnHam tokenizes text and records it as ham under scope.
func (c *Classifier) LearnHam(ctx context.Context, text string, scope Scope) error {
	return c.learn(ctx, text, false, scope)
}

func (c *Classifier) learn(ctx context.Context, text string, isSpam bool, scope Scope) error {
	scope = c.resolveScope(scope)

	tokens := tokenizer.Tokenize(text, c.tokenizer)
	if len(tokens) == 0 {
		return fmt.Errorf("bayes: learn on empty message: %w", apperrors.ErrValidation)
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}

	updates := make([]TokenUpdate, 0, len(freq))
	for token, count := range freq {
		updates = append(updates, TokenUpdate{Token: token, IsSpam: isSpam, Increment: count})
	}

	if err := c.storage.BatchUpdateTokens(ctx, updates, scope); err != nil {
		return err
	}
	return c.storage.UpdateClassStats(ctx, isSpam, 1, len(tokens), scope)
}

// BatchLearn learns a batch of labeled examples, continuing past individual
// failures and reporting the aggregate outcome (§4.5).
func (c *Classifier) BatchLearn(ctx context.Context, examples []LearnExample, onProgress func(done, total int)) (BatchLearnResult, error) {
	result := BatchLearnResult{Total: len(examples)}

	for i, ex := range examples {
		var err error
		if ex.IsSpam {
			err = c.LearnSpam(ctx, ex.Text, ex.Scope)
		} else {
			err = c.LearnHam(ctx, ex.Text, ex.Scope)
		}

		if err != nil {
			result.Failed++
		} else {
			result.Success++
			if ex.IsSpam {
				result.SpamLearned++
			} else {
				result.HamLearned++
			}
		}

		if onProgress != nil {
			onProgress(i+1, len(examples))
		}
	}

	return result, nil
}

// LearnExample is one labeled training example for BatchLearn.
type LearnExample struct {
	Text   string
	IsSpam bool
	Scope  Scope
}

// Reset clears all statistics for scope, delegating to storage.
func (c *Classifier) Reset(ctx context.Context, scope Scope) error {
	return c.storage.ClearStats(ctx, c.resolveScope(scope))
}

// CleanupRareTokens delegates to storage.
func (c *Classifier) CleanupRareTokens(ctx context.Context, minCount int, scope Scope) (int, error) {
	return c.storage.CleanupRareTokens(ctx, minCount, c.resolveScope(scope))
}
