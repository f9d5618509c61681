package platform

import (
	"time"
	"unicode/utf16"

	"github.com/mymmrac/telego"

	"github.com/barbashov/chatguard/internal/domain"
)

func secondsToTime(unixSeconds int64) time.Time {
	return time.Unix(unixSeconds, 0).UTC()
}

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// BuildEnvelope converts a telego.Update's message into a domain.Envelope
// (§3), the validated shape the rest of the pipeline operates on. It
// returns false when the update carries no usable message (e.g. a
// non-message update).
func BuildEnvelope(update telego.Update) (domain.Envelope, bool) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return domain.Envelope{}, false
	}

	env := domain.Envelope{
		ChatID:    msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		Timestamp: secondsToTime(msg.Date),
		Text:      msg.Text,
		Type:      domain.MessageTypeText,
	}
	if msg.From != nil {
		env.UserID = msg.From.ID
	}
	if msg.SenderChat != nil {
		senderID := msg.SenderChat.ID
		env.SenderChatID = &senderID
		env.SenderIsChannel = msg.SenderChat.Type == "channel"
	}
	if msg.IsAutomaticForward {
		env.IsAutoForward = true
	}
	if msg.MessageThreadID != 0 {
		threadID := int64(msg.MessageThreadID)
		env.ThreadID = &threadID
	}
	if msg.ReplyToMessage != nil {
		replyID := int64(msg.ReplyToMessage.MessageID)
		env.ReplyTargetID = &replyID
		replyText := msg.ReplyToMessage.Text
		env.ReplyText = &replyText
		if msg.ReplyToMessage.From != nil {
			replyUserID := msg.ReplyToMessage.From.ID
			env.ReplyUserID = &replyUserID
		}
	}

	env.Entities = buildEntities(msg.Text, msg.Entities)
	return env, true
}

func buildEntities(text string, raw []telego.MessageEntity) []domain.Entity {
	entities := make([]domain.Entity, 0, len(raw))
	for _, e := range raw {
		var value string
		switch e.Type {
		case telego.EntityTypeURL:
			value = sliceUTF16(text, e.Offset, e.Length)
		case telego.EntityTypeTextLink:
			value = e.URL
		case telego.EntityTypeMention:
			value = sliceUTF16(text, e.Offset, e.Length)
		default:
			continue
		}

		kind := domain.EntityURL
		switch e.Type {
		case telego.EntityTypeTextLink:
			kind = domain.EntityTextLink
		case telego.EntityTypeMention:
			kind = domain.EntityMention
		}

		entities = append(entities, domain.Entity{
			Kind:   kind,
			Offset: e.Offset,
			Length: e.Length,
			Value:  value,
		})
	}
	return entities
}

// sliceUTF16 recovers the substring an entity's UTF-16 offset/length refer
// to (Telegram indexes entities in UTF-16 code units, not bytes or runes).
func sliceUTF16(text string, offset, length int) string {
	units := utf16Units(text)
	if offset < 0 || offset+length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[offset : offset+length]))
}
