package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/spamengine"
)

type fakeSpamEngine struct {
	decision   spamengine.Decision
	evalErr    error
	banCalls   int
	warnCalls  int
	banErr     error
}

func (f *fakeSpamEngine) Evaluate(context.Context, domain.Envelope) (spamengine.Decision, error) {
	return f.decision, f.evalErr
}
func (f *fakeSpamEngine) ExecuteBan(context.Context, domain.Envelope, spamengine.Decision) error {
	f.banCalls++
	return f.banErr
}
func (f *fakeSpamEngine) ExecuteWarn(context.Context, domain.Envelope, spamengine.Decision) error {
	f.warnCalls++
	return nil
}

func newTestOrchestrator(spam SpamEngine, detectSpam bool) (*Orchestrator, *Registry) {
	st := settings.NewMemoryStore()
	_ = st.Set(context.Background(), 1, settings.DetectSpam, boolString(detectSpam))
	reg := NewRegistry()
	return New(st, spam, reg, nil, zerolog.Nop()), reg
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func env() domain.Envelope {
	return domain.Envelope{ChatID: 1, UserID: 1, MessageID: 1, Text: "hello"}
}

func TestHandle_DropsEnvelopeMissingUserOrChat(t *testing.T) {
	spam := &fakeSpamEngine{}
	o, reg := newTestOrchestrator(spam, true)

	called := false
	reg.Register(NewHandlerFunc("noop", func(context.Context, domain.Envelope) (Result, error) {
		called = true
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), domain.Envelope{ChatID: 0, UserID: 1}, ChatGroup)
	require.False(t, called)
}

func TestHandle_BanTerminatesBeforeHandlers(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionBan, Score: 150}}
	o, reg := newTestOrchestrator(spam, true)

	called := false
	reg.Register(NewHandlerFunc("noop", func(context.Context, domain.Envelope) (Result, error) {
		called = true
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, 1, spam.banCalls)
	require.False(t, called)
}

func TestHandle_WarnContinuesToHandlers(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionWarn, Score: 60}}
	o, reg := newTestOrchestrator(spam, true)

	called := false
	reg.Register(NewHandlerFunc("noop", func(context.Context, domain.Envelope) (Result, error) {
		called = true
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, 1, spam.warnCalls)
	require.True(t, called)
}

func TestHandle_PrivateChatSkipsSpamCheck(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionBan}}
	o, reg := newTestOrchestrator(spam, true)

	called := false
	reg.Register(NewHandlerFunc("noop", func(context.Context, domain.Envelope) (Result, error) {
		called = true
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatPrivate)
	require.Equal(t, 0, spam.banCalls)
	require.True(t, called)
}

func TestHandle_DetectSpamDisabledSkipsCheck(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionBan}}
	o, reg := newTestOrchestrator(spam, false)

	called := false
	reg.Register(NewHandlerFunc("noop", func(context.Context, domain.Envelope) (Result, error) {
		called = true
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, 0, spam.banCalls)
	require.True(t, called)
}

func TestHandle_ChainStopsAtResultFinal(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionPass}}
	o, reg := newTestOrchestrator(spam, true)

	var order []string
	reg.Register(NewHandlerFunc("first", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "first")
		return ResultFinal, nil
	}))
	reg.Register(NewHandlerFunc("second", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "second")
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, []string{"first"}, order)
}

func TestHandle_ChainContinuesOnResultNextAndError(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionPass}}
	o, reg := newTestOrchestrator(spam, true)

	var order []string
	reg.Register(NewHandlerFunc("first", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "first")
		return ResultNext, nil
	}))
	reg.Register(NewHandlerFunc("second", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "second")
		return ResultError, errors.New("boom")
	}))
	reg.Register(NewHandlerFunc("third", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "third")
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestHandle_ChainStopsAtResultFatal(t *testing.T) {
	spam := &fakeSpamEngine{decision: spamengine.Decision{Action: spamengine.ActionPass}}
	o, reg := newTestOrchestrator(spam, true)

	var order []string
	reg.Register(NewHandlerFunc("first", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "first")
		return ResultFatal, errors.New("fatal")
	}))
	reg.Register(NewHandlerFunc("second", func(context.Context, domain.Envelope) (Result, error) {
		order = append(order, "second")
		return ResultFinal, nil
	}))

	o.Handle(context.Background(), env(), ChatGroup)
	require.Equal(t, []string{"first"}, order)
}

func TestRegistry_OrdersCommandsByDeclaredOrderAndAppendsOthers(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeCommand{name: "c-high", order: 10})
	reg.Register(NewHandlerFunc("plain", noopHandle))
	reg.Register(fakeCommand{name: "c-low", order: 1})

	handlers := reg.Handlers()
	require.Equal(t, []string{"c-low", "c-high", "plain"}, names(handlers))
}

func noopHandle(context.Context, domain.Envelope) (Result, error) { return ResultNext, nil }

func names(handlers []Handler) []string {
	out := make([]string, len(handlers))
	for i, h := range handlers {
		out[i] = h.Name()
	}
	return out
}

type fakeCommand struct {
	name  string
	order int
}

func (f fakeCommand) Name() string { return f.name }
func (f fakeCommand) Handle(context.Context, domain.Envelope) (Result, error) {
	return ResultNext, nil
}
func (f fakeCommand) Metadata() CommandMetadata { return CommandMetadata{Order: f.order} }
