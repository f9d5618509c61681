package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/spamengine"
)

// SpamCommandEngine is the subset of spamengine.Engine the /spam and
// /unban command handlers need.
type SpamCommandEngine interface {
	MarkSpam(ctx context.Context, p spamengine.MarkSpamParams) error
	Unban(ctx context.Context, chatID, userID int64) error
}

// spamCommandHandler implements /spam and /unban (§4.13: "a /spam+/unban
// command handler pair wired to internal/spamengine"). It parses the
// command the same way the teacher's webhook parses a mention command —
// a plain strings.HasPrefix check, not a grammar.
type spamCommandHandler struct {
	settings settings.Store
	engine   SpamCommandEngine
	platform platform.Adapter
}

// NewSpamCommandHandler constructs the /spam + /unban command handler.
func NewSpamCommandHandler(st settings.Store, engine SpamCommandEngine, adapter platform.Adapter) CommandHandler {
	return spamCommandHandler{settings: st, engine: engine, platform: adapter}
}

func (h spamCommandHandler) Name() string { return "spam-commands" }

func (h spamCommandHandler) Metadata() CommandMetadata {
	return CommandMetadata{
		Commands:    []string{"/spam", "/unban"},
		ShortDesc:   "Mark or unmark a user as a spammer",
		HelpMessage: "Reply to a user's message with /spam to mark them a spammer, or /unban to lift it.",
		Categories:  []string{"moderation"},
		Order:       10,
	}
}

func (h spamCommandHandler) Handle(ctx context.Context, env domain.Envelope) (Result, error) {
	command := firstWord(env.Text)
	switch command {
	case "/spam":
		return h.handleSpam(ctx, env)
	case "/unban":
		return h.handleUnban(ctx, env)
	default:
		return ResultNext, nil
	}
}

func (h spamCommandHandler) handleSpam(ctx context.Context, env domain.Envelope) (Result, error) {
	if env.ReplyTargetID == nil || env.ReplyUserID == nil {
		h.reply(ctx, env, "Reply to the spammer's message with /spam.")
		return ResultFinal, nil
	}

	isAdmin, err := h.platform.IsAdmin(ctx, env.ChatID, env.UserID)
	if err != nil {
		return ResultError, fmt.Errorf("spam-commands: check admin: %w", err)
	}
	if !isAdmin {
		allowed, err := h.settings.Get(ctx, env.ChatID, settings.AllowUserSpamCommand)
		if err != nil {
			return ResultError, err
		}
		if !allowed.Bool() {
			h.reply(ctx, env, "Only admins can use /spam here.")
			return ResultFinal, nil
		}
	}

	err = h.engine.MarkSpam(ctx, spamengine.MarkSpamParams{
		ChatID:         env.ChatID,
		UserID:         *env.ReplyUserID,
		MessageID:      *env.ReplyTargetID,
		Text:           derefText(env.ReplyText),
		Reason:         domain.SpamReasonAdmin,
		AdminInitiated: true,
	})
	switch {
	case err == nil:
		h.reply(ctx, env, "Marked as spam.")
		return ResultFinal, nil
	case err == spamengine.ErrAlarm:
		h.reply(ctx, env, "Cannot mark this user as spam (admin or exceeds message-count ceiling).")
		return ResultFinal, nil
	default:
		return ResultError, fmt.Errorf("spam-commands: mark spam: %w", err)
	}
}

func (h spamCommandHandler) handleUnban(ctx context.Context, env domain.Envelope) (Result, error) {
	if env.ReplyTargetID == nil || env.ReplyUserID == nil {
		h.reply(ctx, env, "Reply to the user's message with /unban.")
		return ResultFinal, nil
	}

	isAdmin, err := h.platform.IsAdmin(ctx, env.ChatID, env.UserID)
	if err != nil {
		return ResultError, fmt.Errorf("spam-commands: check admin: %w", err)
	}
	if !isAdmin {
		h.reply(ctx, env, "Only admins can use /unban.")
		return ResultFinal, nil
	}

	if err := h.engine.Unban(ctx, env.ChatID, *env.ReplyUserID); err != nil {
		return ResultError, fmt.Errorf("spam-commands: unban: %w", err)
	}
	h.reply(ctx, env, "Unbanned.")
	return ResultFinal, nil
}

func (h spamCommandHandler) reply(ctx context.Context, env domain.Envelope, text string) {
	_, _ = h.platform.SendMessage(ctx, env.ChatID, text, platform.SendOptions{ReplyToID: env.MessageID})
}

func firstWord(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, " \n\t@"); idx != -1 {
		return text[:idx]
	}
	return text
}

func derefText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
