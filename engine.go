package clipclean

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Engine is the in-process TextProcessor. It holds no text state of its own;
// presets come from the store it was given.
type Engine struct {
	store     *PresetStore
	resources *Resources
	defaults  ProcessingOptions
}

// NewEngine creates an engine over store. defaults apply to Process calls
// without options.
func NewEngine(store *PresetStore, resources *Resources, defaults ProcessingOptions) *Engine {
	return &Engine{
		store:     store,
		resources: resources,
		defaults:  defaults,
	}
}

var _ TextProcessor = (*Engine)(nil)

// ============================================================================
// Text Processing Methods
// ============================================================================

func (e *Engine) Process(ctx context.Context, text string, mode ProcessingMode, opts *ProcessingOptions) (string, error) {
	if opts == nil {
		opts = &e.defaults
	}
	return Process(text, mode, opts), nil
}

func (e *Engine) ExecutePreset(ctx context.Context, ref, text string) (string, error) {
	preset, err := e.store.Lookup(ref)
	if err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Debug().
		Str("preset", preset.Name).
		Int("steps", len(preset.EnabledSteps())).
		Msg("executing preset")
	return ExecutePreset(preset, text)
}

func (e *Engine) CountCharacters(ctx context.Context, text string) (int, error) {
	return CountCharacters(text), nil
}

func (e *Engine) ExtractLinks(ctx context.Context, html string) ([]Link, error) {
	return ExtractLinks(html)
}

// ============================================================================
// Catalog and Preset Methods
// ============================================================================

func (e *Engine) ListModes(ctx context.Context) ([]ModeInfo, error) {
	modes := Modes()
	infos := make([]ModeInfo, len(modes))
	for i, mode := range modes {
		infos[i] = ModeInfo{
			Mode:        mode,
			Name:        e.modeName(mode),
			ResourceKey: mode.ResourceKey(),
		}
	}
	return infos, nil
}

func (e *Engine) ListPresets(ctx context.Context) ([]*ProcessingPreset, error) {
	return e.store.All(), nil
}

func (e *Engine) GetPreset(ctx context.Context, ref string) (*ProcessingPreset, error) {
	return e.store.Lookup(ref)
}

func (e *Engine) ClonePreset(ctx context.Context, ref string) (*ProcessingPreset, error) {
	preset, err := e.store.Lookup(ref)
	if err != nil {
		return nil, err
	}
	clone, err := e.store.Duplicate(preset.ID)
	if err != nil {
		return nil, err
	}
	if err := e.store.Save(ctx); err != nil {
		return nil, err
	}
	return clone, nil
}

func (e *Engine) SavePreset(ctx context.Context, preset *ProcessingPreset) (*ProcessingPreset, error) {
	if preset == nil {
		return nil, errors.Errorf("%w: preset is nil", ErrInvalidArgument)
	}

	var saved *ProcessingPreset
	var err error
	if _, getErr := e.store.Get(preset.ID); preset.ID != uuid.Nil && getErr == nil {
		saved, err = e.store.Edit(preset.ID, func(p *ProcessingPreset) {
			p.Name = preset.Name
			p.Description = preset.Description
			p.Steps = cloneSteps(preset.Steps)
		})
	} else {
		saved, err = e.store.Add(preset)
	}
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (e *Engine) DeletePreset(ctx context.Context, ref string) error {
	preset, err := e.store.Lookup(ref)
	if err != nil {
		return err
	}
	if err := e.store.Delete(preset.ID); err != nil {
		return err
	}
	return e.store.Save(ctx)
}

// ============================================================================
// Helper Methods (Private)
// ============================================================================

func (e *Engine) modeName(mode ProcessingMode) string {
	if e.resources == nil {
		return string(mode)
	}
	return e.resources.ModeName(mode)
}

// notification returns the text a notifier shows after processing with the
// mode or preset called name.
func (e *Engine) notification(name string) string {
	if e.resources == nil {
		return name
	}
	return e.resources.ProcessedNotification(name)
}
