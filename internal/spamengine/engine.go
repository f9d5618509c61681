// Package spamengine implements the spam decision engine (C7): combining
// user history, rule-based heuristics, and the Bayes classifier into a
// ban/warn/pass decision, plus the mark-as-spam and unban actions (§4.6-4.8).
package spamengine

import (
	"context"
	"fmt"
	"time"

	"github.com/barbashov/chatguard/internal/bayes"
	"github.com/barbashov/chatguard/internal/chatstore"
	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
)

// Action is the outcome of Evaluate.
type Action int

const (
	ActionPass Action = iota
	ActionWarn
	ActionBan
)

// Decision is the result of evaluating one message (§4.6 "Decision").
type Decision struct {
	Action Action
	Score  float64
	Reason string
}

// Scheduler enqueues a delayed callback. The pipeline orchestrator (C13)
// provides the concrete implementation backed by its timer loop.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func(ctx context.Context))
}

// Engine is the spam decision engine.
type Engine struct {
	settings    settings.Store
	users       chatstore.UserStore
	history     chatstore.MessageHistoryStore
	spamHam     chatstore.SpamHamStore
	classifier  *bayes.Classifier
	platformAPI platform.Adapter
	scheduler   Scheduler
}

// New constructs an Engine from its collaborators.
func New(st settings.Store, users chatstore.UserStore, history chatstore.MessageHistoryStore, spamHam chatstore.SpamHamStore, classifier *bayes.Classifier, adapter platform.Adapter, scheduler Scheduler) *Engine {
	return &Engine{
		settings:    st,
		users:       users,
		history:     history,
		spamHam:     spamHam,
		classifier:  classifier,
		platformAPI: adapter,
		scheduler:   scheduler,
	}
}

// Evaluate runs the full spam-decision pipeline for env (§4.6). It both
// reads and mutates user/message-history state as it goes (recording the
// message into history, incrementing the message count).
func (e *Engine) Evaluate(ctx context.Context, env domain.Envelope) (Decision, error) {
	if env.IsAutoForward {
		return Decision{Action: ActionPass, Reason: "auto-forward"}, nil
	}
	if env.IsAnonymousAdmin() {
		return Decision{Action: ActionPass, Reason: "anonymous admin"}, nil
	}
	if env.Text == "" {
		return Decision{Action: ActionPass, Reason: "empty text"}, nil
	}

	user, _, err := e.users.Get(ctx, env.ChatID, env.UserID)
	if err != nil {
		return Decision{}, fmt.Errorf("spamengine: load user: %w", err)
	}

	maxMessages, err := e.settingInt(ctx, env.ChatID, settings.AutoSpamMaxMessages)
	if err != nil {
		return Decision{}, err
	}
	if maxMessages != 0 && user.MessageCount >= maxMessages {
		if !user.IsSpammer {
			_ = e.classifier.LearnHam(ctx, env.Text, bayes.ForChat(env.ChatID))
		}
		return Decision{Action: ActionPass, Reason: "message count ceiling exceeded"}, nil
	}
	if user.NotSpammer() {
		return Decision{Action: ActionPass, Reason: "not-spammer flag"}, nil
	}

	score := 0.0
	reason := ""

	if user.IsSpammer {
		score = 100
		reason = "previously marked spammer"
	}

	if err := e.history.Record(ctx, env.ChatID, env.UserID, env.MessageID, env.Text, env.Timestamp); err != nil {
		return Decision{}, fmt.Errorf("spamengine: record history: %w", err)
	}

	dupScore, dupReason, err := e.duplicateScore(ctx, env)
	if err != nil {
		return Decision{}, err
	}
	if dupScore > score {
		score, reason = dupScore, dupReason
	}

	sameText, err := e.spamHam.ExistsSpamWithText(ctx, env.ChatID, env.Text)
	if err != nil {
		return Decision{}, fmt.Errorf("spamengine: check spam text: %w", err)
	}
	if sameText && score < 100 {
		score, reason = 100, "matches existing spam text"
	}

	entityScore, entityReason := e.entityScore(env)
	if entityScore > 0 {
		score += entityScore
		if reason == "" {
			reason = entityReason
		}
	}

	warnThreshold, err := e.settingFloat(ctx, env.ChatID, settings.SpamWarnThreshold)
	if err != nil {
		return Decision{}, err
	}
	banThreshold, err := e.settingFloat(ctx, env.ChatID, settings.SpamBanThreshold)
	if err != nil {
		return Decision{}, err
	}

	if score < banThreshold {
		bayesEnabled, err := e.settingBool(ctx, env.ChatID, settings.BayesEnabled)
		if err != nil {
			return Decision{}, err
		}
		if bayesEnabled {
			minConfidence, err := e.settingFloat(ctx, env.ChatID, settings.BayesMinConfidence)
			if err != nil {
				return Decision{}, err
			}
			bayesScore, err := e.classifier.Classify(ctx, env.Text, bayes.ForChat(env.ChatID), warnThreshold)
			if err != nil {
				bayesScore = bayes.Score{}
			} else if bayesScore.Confidence >= minConfidence {
				score += bayesScore.Value
				if reason == "" {
					reason = "bayes classifier"
				}
			}
		}
	}

	if _, err := e.users.IncrementMessageCount(ctx, env.ChatID, env.UserID); err != nil {
		return Decision{}, fmt.Errorf("spamengine: increment message count: %w", err)
	}

	switch {
	case score > banThreshold:
		return Decision{Action: ActionBan, Score: score, Reason: reason}, nil
	case score >= warnThreshold:
		return Decision{Action: ActionWarn, Score: score, Reason: reason}, nil
	default:
		return Decision{Action: ActionPass, Score: score, Reason: reason}, nil
	}
}

// duplicateScore implements the §4.6 duplicate-message heuristic over the
// user's last 10 messages.
func (e *Engine) duplicateScore(ctx context.Context, env domain.Envelope) (float64, string, error) {
	last, err := e.history.LastN(ctx, env.ChatID, env.UserID, 10)
	if err != nil {
		return 0, "", fmt.Errorf("spamengine: load history: %w", err)
	}

	dupCount, nonDup := 0, 0
	for _, m := range last {
		if m.MessageID == env.MessageID {
			continue
		}
		if m.Text == env.Text {
			dupCount++
		} else {
			nonDup++
		}
	}

	if dupCount > nonDup && nonDup > 0 {
		score := 100 * float64(dupCount+1) / float64(dupCount+1+nonDup)
		return score, "duplicate message flood", nil
	}
	return 0, "", nil
}

// entityScore implements the §4.6 per-entity URL/mention scoring.
func (e *Engine) entityScore(env domain.Envelope) (float64, string) {
	score := 0.0
	reason := ""
	for _, ent := range env.Entities {
		switch ent.Kind {
		case domain.EntityURL, domain.EntityTextLink:
			score += 60
			reason = "contains a link"
		case domain.EntityMention:
			if ent.KnownUser {
				continue
			}
			score += 60
			reason = "mentions an unknown user"
			if len(ent.Value) >= 3 && ent.Value[len(ent.Value)-3:] == "bot" {
				score += 40
			}
		}
	}
	return score, reason
}

func (e *Engine) settingInt(ctx context.Context, chatID int64, key settings.Key) (int, error) {
	v, err := e.settings.Get(ctx, chatID, key)
	if err != nil {
		return 0, fmt.Errorf("spamengine: read setting %s: %w", key, err)
	}
	return v.Int(), nil
}

func (e *Engine) settingFloat(ctx context.Context, chatID int64, key settings.Key) (float64, error) {
	v, err := e.settings.Get(ctx, chatID, key)
	if err != nil {
		return 0, fmt.Errorf("spamengine: read setting %s: %w", key, err)
	}
	return v.Float(), nil
}

func (e *Engine) settingBool(ctx context.Context, chatID int64, key settings.Key) (bool, error) {
	v, err := e.settings.Get(ctx, chatID, key)
	if err != nil {
		return false, fmt.Errorf("spamengine: read setting %s: %w", key, err)
	}
	return v.Bool(), nil
}

// ExecuteBan carries out the §4.6 "Ban" branch: notify the chat, schedule
// the notification's deletion after 60s, then run the mark-spam action.
func (e *Engine) ExecuteBan(ctx context.Context, env domain.Envelope, decision Decision) error {
	notifyText := fmt.Sprintf("Banned for spam (score %.0f)", decision.Score)
	notifyID, err := e.platformAPI.SendMessage(ctx, env.ChatID, notifyText, platform.SendOptions{})
	if err != nil {
		return fmt.Errorf("spamengine: send ban notification: %w", err)
	}

	if e.scheduler != nil {
		chatID := env.ChatID
		e.scheduler.ScheduleAfter(60*time.Second, func(ctx context.Context) {
			_ = e.platformAPI.DeleteMessage(ctx, chatID, notifyID)
		})
	}

	return e.MarkSpam(ctx, MarkSpamParams{
		ChatID:       env.ChatID,
		UserID:       env.UserID,
		MessageID:    env.MessageID,
		Text:         env.Text,
		Score:        decision.Score,
		Reason:       domain.SpamReasonAuto,
		SenderChatID: env.SenderChatID,
	})
}

// ExecuteWarn carries out the §4.6 "Warn" branch: reply mentioning the score.
func (e *Engine) ExecuteWarn(ctx context.Context, env domain.Envelope, decision Decision) error {
	text := fmt.Sprintf("This message looks like spam (score %.0f)", decision.Score)
	_, err := e.platformAPI.SendMessage(ctx, env.ChatID, text, platform.SendOptions{ReplyToID: env.MessageID})
	if err != nil {
		return fmt.Errorf("spamengine: send warn message: %w", err)
	}
	return nil
}
