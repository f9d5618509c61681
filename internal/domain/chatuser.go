package domain

// ChatUser is the per-(chat, user) record (§3 "Chat user record").
type ChatUser struct {
	ChatID       int64
	UserID       int64
	Username     string
	DisplayName  string
	MessageCount int
	IsSpammer    bool
	Metadata     map[string]string
}

// NotSpammer reports the unban flag that permanently exempts this user from
// future spam checks (§4.6 early exit).
func (u ChatUser) NotSpammer() bool {
	return u.Metadata != nil && u.Metadata["notSpammer"] == "true"
}

// SpamReason identifies who/what triggered a spam mark (§4.7).
type SpamReason string

const (
	SpamReasonAuto  SpamReason = "auto"
	SpamReasonAdmin SpamReason = "admin"
	SpamReasonUser  SpamReason = "user"
)

// StoredMessage is a persisted (spam or ham) training example (§4.7 step 2).
type StoredMessage struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	Reason    SpamReason
	Score     float64
}
