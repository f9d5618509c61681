package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barbashov/chatguard/internal/domain"
)

// EncodeCallbackData packs the settings-wizard's (action, chatId, key,
// value) tuple into a Button.Data payload (§6). Telegram caps callback
// data at 64 bytes; callers are responsible for keeping key/value short.
func EncodeCallbackData(action string, chatID int64, key, value string) string {
	return strings.Join([]string{action, strconv.FormatInt(chatID, 10), key, value}, ":")
}

// DecodeCallbackData parses a payload built by EncodeCallbackData.
func DecodeCallbackData(raw string) (action string, chatID int64, key, value string, err error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return "", 0, "", "", fmt.Errorf("platform: malformed callback data %q", raw)
	}
	chatID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", "", fmt.Errorf("platform: malformed callback chat id %q: %w", parts[1], err)
	}
	value = ""
	if len(parts) == 4 {
		value = parts[3]
	}
	return parts[0], chatID, parts[2], value, nil
}

// BuildCallbackQuery decodes a telego CallbackQuery update into the domain
// shape the settings wizard consumes.
func BuildCallbackQuery(id string, userID int64, messageID int64, data string) (domain.CallbackQuery, error) {
	action, chatID, key, value, err := DecodeCallbackData(data)
	if err != nil {
		return domain.CallbackQuery{}, err
	}
	return domain.CallbackQuery{
		ID:        id,
		ChatID:    chatID,
		UserID:    userID,
		MessageID: messageID,
		Action:    action,
		Key:       key,
		Value:     value,
	}, nil
}
