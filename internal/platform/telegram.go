package platform

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramAdapter implements Adapter over a telego bot instance.
type TelegramAdapter struct {
	bot *telego.Bot
}

// NewTelegramAdapter wraps an already-constructed telego.Bot.
func NewTelegramAdapter(bot *telego.Bot) *TelegramAdapter {
	return &TelegramAdapter{bot: bot}
}

func buildKeyboard(buttons [][]Button) *telego.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]telego.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		btnRow := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btnRow = append(btnRow, tu.InlineKeyboardButton(b.Label).WithCallbackData(b.Data))
		}
		rows = append(rows, btnRow)
	}
	markup := tu.InlineKeyboard(rows...)
	return markup
}

func (a *TelegramAdapter) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (int64, error) {
	params := tu.MessageWithEntities(tu.ID(chatID), tu.Entity(text))
	params.Text = text
	if opts.Mode != "" {
		params.ParseMode = string(opts.Mode)
	}
	if opts.ReplyToID != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: int(opts.ReplyToID)}
	}
	params.ReplyMarkup = buildKeyboard(opts.Buttons)

	msg, err := a.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("platform: send message: %w", err)
	}
	return int64(msg.MessageID), nil
}

func (a *TelegramAdapter) EditMessage(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error {
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: int(messageID),
		Text:      text,
	}
	if opts.Mode != "" {
		params.ParseMode = string(opts.Mode)
	}
	params.ReplyMarkup = buildKeyboard(opts.Buttons)

	_, err := a.bot.EditMessageText(ctx, params)
	if err != nil {
		return fmt.Errorf("platform: edit message: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	err := a.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: int(messageID),
	})
	if err != nil {
		return fmt.Errorf("platform: delete message: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error {
	ids := make([]int, len(messageIDs))
	for i, id := range messageIDs {
		ids[i] = int(id)
	}
	err := a.bot.DeleteMessages(ctx, &telego.DeleteMessagesParams{
		ChatID:     tu.ID(chatID),
		MessageIDs: ids,
	})
	if err != nil {
		return fmt.Errorf("platform: delete messages: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) BanChatMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error {
	err := a.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID:         tu.ID(chatID),
		UserID:         userID,
		RevokeMessages: revokeMessages,
	})
	if err != nil {
		return fmt.Errorf("platform: ban chat member: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) BanChatSenderChat(ctx context.Context, chatID, senderChatID int64) error {
	err := a.bot.BanChatSenderChat(ctx, &telego.BanChatSenderChatParams{
		ChatID:       tu.ID(chatID),
		SenderChatID: senderChatID,
	})
	if err != nil {
		return fmt.Errorf("platform: ban chat sender chat: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) UnbanChatMember(ctx context.Context, chatID, userID int64, onlyIfBanned bool) error {
	err := a.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       userID,
		OnlyIfBanned: onlyIfBanned,
	})
	if err != nil {
		return fmt.Errorf("platform: unban chat member: %w", err)
	}
	return nil
}

func (a *TelegramAdapter) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := a.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return false, fmt.Errorf("platform: get chat member: %w", err)
	}

	switch member.MemberStatus() {
	case telego.MemberStatusAdministrator, telego.MemberStatusCreator:
		return true, nil
	default:
		return false, nil
	}
}
