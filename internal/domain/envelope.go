// Package domain holds the core data model shared across the pipeline:
// the validated message envelope, chat-user records, and message entities
// (§3 of the specification this module implements).
package domain

import "time"

// MessageType classifies an envelope's payload.
type MessageType int

const (
	MessageTypeText MessageType = iota
	MessageTypeUnknown
)

// EntityKind identifies a span of annotated text within a message.
type EntityKind int

const (
	EntityURL EntityKind = iota
	EntityTextLink
	EntityMention
)

// Entity is one annotated span within a message's text, as reported by the
// chat platform (e.g. a URL, a text-link, or an @mention).
type Entity struct {
	Kind   EntityKind
	Offset int
	Length int
	// Value is the URL for EntityURL/EntityTextLink, or the mention string
	// (including leading @) for EntityMention.
	Value string
	// KnownUser is true when Kind is EntityMention and the mentioned user
	// is already known to this chat (§4.6 "not added").
	KnownUser bool
}

// Envelope is the validated, immutable form of an inbound message (§3).
// It is created on receive and lives only for the duration of one pipeline
// invocation.
type Envelope struct {
	UserID         int64
	ChatID         int64
	MessageID      int64
	Timestamp      time.Time
	ReplyTargetID  *int64
	ReplyUserID    *int64
	ReplyText      *string
	ThreadID       *int64
	Text           string
	Type           MessageType
	Entities       []Entity
	IsAutoForward  bool
	SenderChatID   *int64 // set when the message was posted as an anonymous admin / linked channel
	SenderIsChannel bool
}

// IsAnonymousAdmin reports whether the message was posted by an anonymous
// chat admin (sender id equals chat id, §4.6 early exit).
func (e Envelope) IsAnonymousAdmin() bool {
	return e.SenderChatID != nil && *e.SenderChatID == e.ChatID
}
