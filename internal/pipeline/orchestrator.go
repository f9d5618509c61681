package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/settings"
	"github.com/barbashov/chatguard/internal/spamengine"
)

// ChatKind distinguishes private chats, where spam-checking never applies,
// from group/supergroup chats (§4.13 step 3).
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatGroup
)

// SpamEngine is the subset of spamengine.Engine the orchestrator depends on.
type SpamEngine interface {
	Evaluate(ctx context.Context, env domain.Envelope) (spamengine.Decision, error)
	ExecuteBan(ctx context.Context, env domain.Envelope, decision spamengine.Decision) error
	ExecuteWarn(ctx context.Context, env domain.Envelope, decision spamengine.Decision) error
}

// Orchestrator implements the message pipeline (§4.13): validate, spam-check
// gate, then the registered handler chain.
type Orchestrator struct {
	settings settings.Store
	spam     SpamEngine
	registry *Registry
	wizard   *SettingsWizard
	log      zerolog.Logger
}

// New constructs an Orchestrator from its collaborators. wizard may be nil
// if the settings-wizard callback surface is not wired up.
func New(st settings.Store, spam SpamEngine, registry *Registry, wizard *SettingsWizard, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		settings: st,
		spam:     spam,
		registry: registry,
		wizard:   wizard,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// HandleCallback dispatches a decoded settings-wizard callback query. It is
// a separate entry point from Handle because callback-query updates carry
// no message text for the Handler chain to act on.
func (o *Orchestrator) HandleCallback(ctx context.Context, cq domain.CallbackQuery) {
	if o.wizard == nil {
		return
	}
	if err := o.wizard.HandleCallback(ctx, cq); err != nil {
		o.log.Warn().Err(err).Int64("chat_id", cq.ChatID).Str("key", cq.Key).Msg("settings wizard callback failed")
	}
}

// Handle runs one envelope through the full pipeline (§4.13):
//  1. Validate. An envelope with no user or no chat is logged and dropped.
//  2. In non-private chats, run the spam decision engine. A ban decision
//     terminates the pipeline before any handler runs.
//  3. Dispatch to the registered handler chain in declared order, honoring
//     each handler's Result.
func (o *Orchestrator) Handle(ctx context.Context, env domain.Envelope, kind ChatKind) {
	if env.UserID == 0 || env.ChatID == 0 {
		o.log.Warn().Int64("user_id", env.UserID).Int64("chat_id", env.ChatID).Msg("dropping envelope: missing user or chat")
		return
	}

	if kind == ChatGroup {
		detect, err := o.settings.Get(ctx, env.ChatID, settings.DetectSpam)
		if err != nil {
			o.log.Error().Err(err).Int64("chat_id", env.ChatID).Msg("load detect-spam setting")
		} else if detect.Bool() {
			if terminated := o.runSpamCheck(ctx, env); terminated {
				return
			}
		}
	}

	o.runHandlers(ctx, env)
}

// runSpamCheck runs C7 and carries out its decision. It returns true when
// the pipeline must terminate without invoking the handler chain (a ban).
func (o *Orchestrator) runSpamCheck(ctx context.Context, env domain.Envelope) bool {
	decision, err := o.spam.Evaluate(ctx, env)
	if err != nil {
		o.log.Error().Err(err).Int64("chat_id", env.ChatID).Int64("user_id", env.UserID).Msg("spam evaluation failed")
		return false
	}

	switch decision.Action {
	case spamengine.ActionBan:
		if err := o.spam.ExecuteBan(ctx, env, decision); err != nil {
			o.log.Error().Err(err).Msg("execute ban")
		}
		return true
	case spamengine.ActionWarn:
		if err := o.spam.ExecuteWarn(ctx, env, decision); err != nil {
			o.log.Error().Err(err).Msg("execute warn")
		}
		return false
	default:
		return false
	}
}

// runHandlers dispatches env through the registered chain, stopping at the
// first ResultFinal/ResultFatal and logging advisory outcomes otherwise.
func (o *Orchestrator) runHandlers(ctx context.Context, env domain.Envelope) {
	for _, h := range o.registry.Handlers() {
		result, err := h.Handle(ctx, env)
		switch result {
		case ResultFinal:
			return
		case ResultFatal:
			o.log.Error().Err(err).Str("handler", h.Name()).Msg("handler reported fatal error, terminating pipeline")
			return
		case ResultError:
			o.log.Warn().Err(err).Str("handler", h.Name()).Msg("handler reported error, continuing")
		case ResultSkipped:
			if err != nil && !errors.Is(err, context.Canceled) {
				o.log.Debug().Err(err).Str("handler", h.Name()).Msg("handler skipped")
			}
		case ResultNext:
			// continue to the next handler
		}
	}
}
