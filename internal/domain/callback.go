package domain

// CallbackQuery is a validated inline-keyboard button press. Data is the
// opaque payload a Button encoded, already split into its four fields by
// the platform adapter (§6 "{action, chatId, key, value}").
type CallbackQuery struct {
	ID        string
	ChatID    int64
	UserID    int64
	MessageID int64
	Action    string
	Key       string
	Value     string
}
