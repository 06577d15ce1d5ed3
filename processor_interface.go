package clipclean

import "context"

// TextProcessor defines the operations offered to clipboard collaborators.
// Both Engine (in-process) and SocketClient (socket wrapper) implement this
// interface, so a collaborator can run the engine locally or talk to a
// running server without changing its code.
type TextProcessor interface {
	// =========================================================================
	// Text Processing
	// =========================================================================

	// Process applies one mode to text. Nil options select the configured defaults.
	Process(ctx context.Context, text string, mode ProcessingMode, opts *ProcessingOptions) (string, error)

	// ExecutePreset runs the preset named or identified by ref over text
	ExecutePreset(ctx context.Context, ref, text string) (string, error)

	// CountCharacters returns the length of text in UTF-16 code units
	CountCharacters(ctx context.Context, text string) (int, error)

	// ExtractLinks returns the links of an HTML fragment
	ExtractLinks(ctx context.Context, html string) ([]Link, error)

	// =========================================================================
	// Catalog and Presets
	// =========================================================================

	// ListModes returns every mode with its localized name
	ListModes(ctx context.Context) ([]ModeInfo, error)

	// ListPresets returns built-in presets followed by user presets
	ListPresets(ctx context.Context) ([]*ProcessingPreset, error)

	// GetPreset returns one preset by id or name
	GetPreset(ctx context.Context, ref string) (*ProcessingPreset, error)

	// ClonePreset stores and returns an editable user copy of a preset
	ClonePreset(ctx context.Context, ref string) (*ProcessingPreset, error)

	// SavePreset adds a new user preset or updates an existing one. Saving over
	// a built-in stores a clone instead.
	SavePreset(ctx context.Context, preset *ProcessingPreset) (*ProcessingPreset, error)

	// DeletePreset removes a user preset
	DeletePreset(ctx context.Context, ref string) error
}

// ModeInfo describes one catalog mode for display.
type ModeInfo struct {
	Mode        ProcessingMode `json:"mode"`
	Name        string         `json:"name"`
	ResourceKey string         `json:"resourceKey"`
}
