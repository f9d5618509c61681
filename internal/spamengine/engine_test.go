package spamengine

import (
	"context"
	"testing"
	"time"

	"github.com/barbashov/chatguard/internal/bayes"
	"github.com/barbashov/chatguard/internal/chatstore"
	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	sent    []string
	banned  []int64
	unbanned []int64
	deleted []int64
	admins  map[int64]bool
}

func newFakeAdapter() *fakeAdapter { return &fakeAdapter{admins: map[int64]bool{}} }

func (f *fakeAdapter) SendMessage(_ context.Context, chatID int64, text string, _ platform.SendOptions) (int64, error) {
	f.sent = append(f.sent, text)
	return int64(len(f.sent)), nil
}
func (f *fakeAdapter) EditMessage(context.Context, int64, int64, string, platform.SendOptions) error {
	return nil
}
func (f *fakeAdapter) DeleteMessage(_ context.Context, _, messageID int64) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}
func (f *fakeAdapter) DeleteMessages(_ context.Context, _ int64, ids []int64) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}
func (f *fakeAdapter) BanChatMember(_ context.Context, _, userID int64, _ bool) error {
	f.banned = append(f.banned, userID)
	return nil
}
func (f *fakeAdapter) BanChatSenderChat(context.Context, int64, int64) error { return nil }
func (f *fakeAdapter) UnbanChatMember(_ context.Context, _, userID int64, _ bool) error {
	f.unbanned = append(f.unbanned, userID)
	return nil
}
func (f *fakeAdapter) IsAdmin(_ context.Context, _, userID int64) (bool, error) {
	return f.admins[userID], nil
}

type fakeScheduler struct{ scheduled int }

func (s *fakeScheduler) ScheduleAfter(time.Duration, func(context.Context)) { s.scheduled++ }

func newTestEngine() (*Engine, *fakeAdapter, *fakeScheduler) {
	st := settings.NewMemoryStore()
	users := chatstore.NewMemoryUserStore()
	history := chatstore.NewMemoryMessageHistoryStore()
	spamHam := chatstore.NewMemorySpamHamStore()
	classifier := bayes.NewClassifier(bayes.NewMemoryStorage(), bayes.DefaultConfig(), tokenizer.DefaultConfig())
	adapter := newFakeAdapter()
	sched := &fakeScheduler{}
	return New(st, users, history, spamHam, classifier, adapter, sched), adapter, sched
}

func baseEnvelope(userID, msgID int64, text string) domain.Envelope {
	return domain.Envelope{
		ChatID:    100,
		UserID:    userID,
		MessageID: msgID,
		Timestamp: time.Unix(1000+msgID, 0),
		Text:      text,
		Type:      domain.MessageTypeText,
	}
}

func TestEvaluate_EmptyTextPasses(t *testing.T) {
	e, _, _ := newTestEngine()
	d, err := e.Evaluate(context.Background(), baseEnvelope(1, 1, ""))
	require.NoError(t, err)
	require.Equal(t, ActionPass, d.Action)
}

func TestEvaluate_AnonymousAdminPasses(t *testing.T) {
	e, _, _ := newTestEngine()
	env := baseEnvelope(100, 1, "hello")
	env.SenderChatID = &env.ChatID
	d, err := e.Evaluate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, ActionPass, d.Action)
}

func TestEvaluate_DuplicateMessageFloodEscalates(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()

	uniqueTexts := []string{"hello there", "how are you"}
	for i, text := range uniqueTexts {
		_, err := e.Evaluate(ctx, baseEnvelope(1, int64(i+1), text))
		require.NoError(t, err)
	}

	var last Decision
	for i := int64(3); i <= 7; i++ {
		d, err := e.Evaluate(ctx, baseEnvelope(1, i, "buy cheap now"))
		require.NoError(t, err)
		last = d
	}
	require.Greater(t, last.Score, 0.0)
}

func TestEvaluate_URLEntityAddsScore(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()

	env := baseEnvelope(1, 1, "check this out http://example.com")
	env.Entities = []domain.Entity{{Kind: domain.EntityURL, Value: "http://example.com"}}

	d, err := e.Evaluate(ctx, env)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d.Score, 60.0)
}

func TestEvaluate_PreviousSpammerScoresHundred(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()
	_ = e.users.Upsert(ctx, domain.ChatUser{ChatID: 100, UserID: 1, IsSpammer: true})

	env := baseEnvelope(1, 1, "hello http://example.com")
	env.Entities = []domain.Entity{{Kind: domain.EntityURL, Value: "http://example.com"}}

	d, err := e.Evaluate(ctx, env)
	require.NoError(t, err)
	require.Greater(t, d.Score, 100.0)
	require.Equal(t, ActionBan, d.Action)
}

func TestMarkSpam_RejectsAdmin(t *testing.T) {
	ctx := context.Background()
	e, adapter, _ := newTestEngine()
	adapter.admins[1] = true

	err := e.MarkSpam(ctx, MarkSpamParams{ChatID: 100, UserID: 1, MessageID: 1, Text: "x"})
	require.ErrorIs(t, err, ErrAlarm)
}

func TestMarkSpam_BansAndPersists(t *testing.T) {
	ctx := context.Background()
	e, adapter, _ := newTestEngine()

	err := e.MarkSpam(ctx, MarkSpamParams{ChatID: 100, UserID: 2, MessageID: 5, Text: "buy now", Reason: domain.SpamReasonAuto})
	require.NoError(t, err)
	require.Contains(t, adapter.banned, int64(2))

	user, ok, err := e.users.Get(ctx, 100, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, user.IsSpammer)

	exists, err := e.spamHam.ExistsSpamWithText(ctx, 100, "buy now")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUnban_RestoresHamAndExemptsFutureChecks(t *testing.T) {
	ctx := context.Background()
	e, adapter, _ := newTestEngine()

	require.NoError(t, e.MarkSpam(ctx, MarkSpamParams{ChatID: 100, UserID: 3, MessageID: 9, Text: "spam text", Reason: domain.SpamReasonAuto}))
	require.NoError(t, e.Unban(ctx, 100, 3))

	require.Contains(t, adapter.unbanned, int64(3))

	user, ok, err := e.users.Get(ctx, 100, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, user.IsSpammer)
	require.True(t, user.NotSpammer())

	exists, err := e.spamHam.ExistsSpamWithText(ctx, 100, "spam text")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestExecuteBan_SchedulesNotificationDeletion(t *testing.T) {
	ctx := context.Background()
	e, adapter, sched := newTestEngine()

	env := baseEnvelope(4, 1, "spam text")
	decision := Decision{Action: ActionBan, Score: 150}

	require.NoError(t, e.ExecuteBan(ctx, env, decision))
	require.Equal(t, 1, sched.scheduled)
	require.NotEmpty(t, adapter.sent)
	require.Contains(t, adapter.banned, int64(4))
}
