package spamengine

import (
	"context"
	"fmt"

	"github.com/barbashov/chatguard/internal/bayes"
	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/settings"
)

// ErrAlarm is returned when MarkSpam's preconditions fail (§4.7): the
// caller must emit an "alarm" reply and abort.
var ErrAlarm = fmt.Errorf("spamengine: mark-spam preconditions failed")

// MarkSpamParams describes the context of a mark-as-spam request.
type MarkSpamParams struct {
	ChatID         int64
	UserID         int64
	MessageID      int64
	Text           string
	Score          float64
	Reason         domain.SpamReason
	AdminInitiated bool
	SenderChatID   *int64
}

// MarkSpam executes the §4.7 spam-mark action: preconditions, then a
// best-effort sequence of steps each tolerant of prior-step failure.
func (e *Engine) MarkSpam(ctx context.Context, p MarkSpamParams) error {
	isAdmin, err := e.platformAPI.IsAdmin(ctx, p.ChatID, p.UserID)
	if err != nil {
		return fmt.Errorf("spamengine: check admin: %w", err)
	}
	if isAdmin {
		return ErrAlarm
	}

	if !p.AdminInitiated {
		user, _, err := e.users.Get(ctx, p.ChatID, p.UserID)
		if err != nil {
			return fmt.Errorf("spamengine: load user: %w", err)
		}
		maxMessages, err := e.settingInt(ctx, p.ChatID, settings.AutoSpamMaxMessages)
		if err != nil {
			return err
		}
		if maxMessages != 0 && user.MessageCount > maxMessages {
			return ErrAlarm
		}
	}

	autoLearn, _ := e.settingBool(ctx, p.ChatID, settings.BayesAutoLearn)
	if autoLearn && p.Text != "" {
		_ = e.classifier.LearnSpam(ctx, p.Text, bayes.ForChat(p.ChatID))
	}

	_ = e.spamHam.InsertSpam(ctx, domain.StoredMessage{
		ChatID: p.ChatID, UserID: p.UserID, MessageID: p.MessageID,
		Text: p.Text, Reason: p.Reason, Score: p.Score,
	})

	_ = e.platformAPI.DeleteMessage(ctx, p.ChatID, p.MessageID)

	_ = e.platformAPI.BanChatMember(ctx, p.ChatID, p.UserID, true)

	if p.SenderChatID != nil {
		_ = e.platformAPI.BanChatSenderChat(ctx, p.ChatID, *p.SenderChatID)
	}

	_ = e.users.SetSpammer(ctx, p.ChatID, p.UserID, true)

	deleteAll, _ := e.settingBool(ctx, p.ChatID, settings.SpamDeleteAllUserMessages)
	if deleteAll {
		last, err := e.history.LastN(ctx, p.ChatID, p.UserID, 10)
		if err == nil && len(last) > 0 {
			ids := make([]int64, len(last))
			for i, m := range last {
				ids[i] = m.MessageID
			}
			_ = e.platformAPI.DeleteMessages(ctx, p.ChatID, ids)
		}
	}

	return nil
}

// Unban executes the §4.8 unban action, the symmetric inverse of MarkSpam.
func (e *Engine) Unban(ctx context.Context, chatID, userID int64) error {
	if err := e.platformAPI.UnbanChatMember(ctx, chatID, userID, true); err != nil {
		return fmt.Errorf("spamengine: unban: %w", err)
	}

	_ = e.users.SetSpammer(ctx, chatID, userID, false)

	spamMsgs, err := e.spamHam.SpamByUser(ctx, chatID, userID)
	if err == nil {
		for _, m := range spamMsgs {
			_ = e.spamHam.InsertHam(ctx, domain.StoredMessage{
				ChatID: m.ChatID, UserID: m.UserID, MessageID: m.MessageID,
				Text: m.Text, Reason: domain.SpamReason("unban"),
			})
		}
		_ = e.spamHam.DeleteSpamByUser(ctx, chatID, userID)
	}

	_ = e.users.SetMetadata(ctx, chatID, userID, "notSpammer", "true")

	return nil
}
