package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/spamengine"
)

type fakeCommandAdapter struct {
	sent   []string
	admins map[int64]bool
}

func newFakeCommandAdapter() *fakeCommandAdapter {
	return &fakeCommandAdapter{admins: map[int64]bool{}}
}

func (f *fakeCommandAdapter) SendMessage(_ context.Context, _ int64, text string, _ platform.SendOptions) (int64, error) {
	f.sent = append(f.sent, text)
	return 1, nil
}
func (f *fakeCommandAdapter) EditMessage(context.Context, int64, int64, string, platform.SendOptions) error {
	return nil
}
func (f *fakeCommandAdapter) DeleteMessage(context.Context, int64, int64) error         { return nil }
func (f *fakeCommandAdapter) DeleteMessages(context.Context, int64, []int64) error      { return nil }
func (f *fakeCommandAdapter) BanChatMember(context.Context, int64, int64, bool) error   { return nil }
func (f *fakeCommandAdapter) BanChatSenderChat(context.Context, int64, int64) error     { return nil }
func (f *fakeCommandAdapter) UnbanChatMember(context.Context, int64, int64, bool) error { return nil }
func (f *fakeCommandAdapter) IsAdmin(_ context.Context, _, userID int64) (bool, error) {
	return f.admins[userID], nil
}

type fakeSpamCommandEngine struct {
	markErr    error
	markCalls  int
	unbanCalls int
	lastParams spamengine.MarkSpamParams
}

func (f *fakeSpamCommandEngine) MarkSpam(_ context.Context, p spamengine.MarkSpamParams) error {
	f.markCalls++
	f.lastParams = p
	return f.markErr
}
func (f *fakeSpamCommandEngine) Unban(context.Context, int64, int64) error {
	f.unbanCalls++
	return nil
}

func replyEnvelope(text string, targetMsgID, targetUserID int64) domain.Envelope {
	return domain.Envelope{
		ChatID:        1,
		UserID:        100,
		MessageID:     5,
		Text:          text,
		ReplyTargetID: &targetMsgID,
		ReplyUserID:   &targetUserID,
	}
}

func TestSpamCommand_RequiresReply(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), domain.Envelope{ChatID: 1, UserID: 1, Text: "/spam"})
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Equal(t, 0, engine.markCalls)
}

func TestSpamCommand_NonAdminRejectedWhenDisallowed(t *testing.T) {
	st := settings.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), 1, settings.AllowUserSpamCommand, "false"))
	adapter := newFakeCommandAdapter()
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), replyEnvelope("/spam", 2, 3))
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Equal(t, 0, engine.markCalls)
}

func TestSpamCommand_AdminMarksSpam(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	adapter.admins[100] = true
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), replyEnvelope("/spam", 2, 3))
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Equal(t, 1, engine.markCalls)
	require.Equal(t, int64(3), engine.lastParams.UserID)
	require.Equal(t, domain.SpamReasonAdmin, engine.lastParams.Reason)
}

func TestSpamCommand_AlarmOnMarkSpamError(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	adapter.admins[100] = true
	engine := &fakeSpamCommandEngine{markErr: spamengine.ErrAlarm}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), replyEnvelope("/spam", 2, 3))
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Contains(t, adapter.sent[0], "Cannot mark")
}

func TestUnbanCommand_RequiresAdmin(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), replyEnvelope("/unban", 2, 3))
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Equal(t, 0, engine.unbanCalls)
}

func TestUnbanCommand_AdminUnbans(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	adapter.admins[100] = true
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), replyEnvelope("/unban", 2, 3))
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Equal(t, 1, engine.unbanCalls)
}

func TestSpamCommand_UnrelatedTextPassesThrough(t *testing.T) {
	st := settings.NewMemoryStore()
	adapter := newFakeCommandAdapter()
	engine := &fakeSpamCommandEngine{}
	h := NewSpamCommandHandler(st, engine, adapter)

	result, err := h.Handle(context.Background(), domain.Envelope{ChatID: 1, UserID: 1, Text: "hello there"})
	require.NoError(t, err)
	require.Equal(t, ResultNext, result)
}
