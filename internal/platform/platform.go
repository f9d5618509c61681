// Package platform defines the thin chat-platform adapter boundary (§6):
// the set of outbound operations the core pipeline needs from whatever
// transport library drives the actual bot connection. The concrete
// implementation (telego-backed) lives in internal/platform/telegram.go;
// the core only ever depends on this interface.
package platform

import "context"

// ParseMode selects how the platform should render outbound text.
type ParseMode string

const (
	ParseModeMarkdown ParseMode = "MarkdownV2"
	ParseModeNone     ParseMode = ""
)

// Button is one inline keyboard button; Data is an opaque payload
// (≤64 bytes) encoding an (action, chatId, key, value) tuple (§6).
type Button struct {
	Label string
	Data  string
}

// SendOptions configures an outbound SendMessage call.
type SendOptions struct {
	Mode        ParseMode
	ReplyToID   int64
	Buttons     [][]Button
}

// Adapter is the chat-platform transport boundary the core consumes.
type Adapter interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (messageID int64, err error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error
	BanChatMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error
	BanChatSenderChat(ctx context.Context, chatID, senderChatID int64) error
	UnbanChatMember(ctx context.Context, chatID, userID int64, onlyIfBanned bool) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}
