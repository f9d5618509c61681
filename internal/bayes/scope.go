package bayes

// Scope identifies the target of Bayes statistics: either the global
// corpus or a specific chat (§3 "Scope").
type Scope struct {
	chatID  int64
	isChat  bool
}

// Global is the scope covering all chats' combined statistics.
func Global() Scope { return Scope{} }

// ForChat is the scope covering a single chat's statistics.
func ForChat(chatID int64) Scope { return Scope{chatID: chatID, isChat: true} }

// ChatID reports the chat identifier and whether this scope is chat-scoped.
func (s Scope) ChatID() (int64, bool) { return s.chatID, s.isChat }

// NullableChatID returns a pointer suitable for a SQL nullable column: nil
// for the global scope, &chatID otherwise.
func (s Scope) NullableChatID() *int64 {
	if !s.isChat {
		return nil
	}
	id := s.chatID
	return &id
}
