package pipeline

import (
	"context"
	"fmt"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
)

// Wizard actions. Only the state transition is implemented — rendering the
// button grid itself is a Non-goal (§"UI rendering").
const (
	WizardActionSet   = "set"
	WizardActionReset = "reset"
)

// SettingsWizard handles the settings-wizard callback-button payload
// (§4.13: "the opaque {action, chatId, key, value} button payload"),
// gated to chat admins when AdminCanChangeSettings is set.
type SettingsWizard struct {
	settings settings.Store
	platform platform.Adapter
}

// NewSettingsWizard constructs a SettingsWizard.
func NewSettingsWizard(st settings.Store, adapter platform.Adapter) *SettingsWizard {
	return &SettingsWizard{settings: st, platform: adapter}
}

// HandleCallback applies a decoded settings-wizard button press. It is
// invoked directly by the orchestrator for callback-query updates, which
// carry no message text to dispatch through the Handler chain.
func (w *SettingsWizard) HandleCallback(ctx context.Context, cq domain.CallbackQuery) error {
	if !settings.IsRecognized(settings.Key(cq.Key)) {
		return fmt.Errorf("pipeline: unrecognized settings key %q", cq.Key)
	}

	gated, err := w.settings.Get(ctx, cq.ChatID, settings.AdminCanChangeSettings)
	if err != nil {
		return fmt.Errorf("pipeline: load admin-can-change-settings: %w", err)
	}
	if gated.Bool() {
		isAdmin, err := w.platform.IsAdmin(ctx, cq.ChatID, cq.UserID)
		if err != nil {
			return fmt.Errorf("pipeline: check admin: %w", err)
		}
		if !isAdmin {
			return nil
		}
	}

	switch cq.Action {
	case WizardActionSet:
		if err := w.settings.Set(ctx, cq.ChatID, settings.Key(cq.Key), cq.Value); err != nil {
			return fmt.Errorf("pipeline: set %s: %w", cq.Key, err)
		}
	case WizardActionReset:
		if err := w.settings.Reset(ctx, cq.ChatID, settings.Key(cq.Key)); err != nil {
			return fmt.Errorf("pipeline: reset %s: %w", cq.Key, err)
		}
	default:
		return fmt.Errorf("pipeline: unknown wizard action %q", cq.Action)
	}

	return nil
}
