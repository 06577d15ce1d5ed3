package clipclean

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// PresetDocumentVersion is written to every saved preset document.
const PresetDocumentVersion = 1

var (
	ErrPresetNotFound = errors.Base("preset not found")
	ErrBuiltInPreset  = errors.Base("built-in presets cannot be modified")
)

//go:embed builtin_presets.json
var builtinPresets []byte

// presetDocument is the persisted form of a preset list. Documents may carry
// // and /* */ comments.
type presetDocument struct {
	Version int                 `json:"version"`
	Presets []*ProcessingPreset `json:"presets"`
}

func decodePresetDocument(data []byte) (*presetDocument, error) {
	var doc presetDocument
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, errors.Errorf("parsing preset document: %w", err)
	}
	return &doc, nil
}

// ReadPresetDocument parses a preset document as written by Save or
// MarshalPresetDocument. Nil records are dropped.
func ReadPresetDocument(data []byte) ([]*ProcessingPreset, error) {
	doc, err := decodePresetDocument(data)
	if err != nil {
		return nil, err
	}
	presets := make([]*ProcessingPreset, 0, len(doc.Presets))
	for _, p := range doc.Presets {
		if p != nil {
			presets = append(presets, p)
		}
	}
	return presets, nil
}

// MarshalPresetDocument encodes presets as an indented, versioned document.
func MarshalPresetDocument(presets []*ProcessingPreset) ([]byte, error) {
	if presets == nil {
		presets = []*ProcessingPreset{}
	}
	data, err := json.MarshalIndent(presetDocument{Version: PresetDocumentVersion, Presets: presets}, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding preset document: %w", err)
	}
	return data, nil
}

// PresetStore holds the built-in and user presets. Built-ins come from a
// read-only document and are never changed in place; only the user document
// is ever written. A PresetStore is safe for concurrent use and hands out
// copies, never its own records.
type PresetStore struct {
	mu       sync.RWMutex
	saveMu   sync.Mutex // serializes Save from snapshot to rename
	userPath string
	builtins []*ProcessingPreset
	users    []*ProcessingPreset
	now      func() time.Time
}

// StoreOption configures a PresetStore.
type StoreOption func(*PresetStore)

// WithClock overrides the time source used for preset timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *PresetStore) {
		s.now = now
	}
}

// LoadPresetStore reads the built-in document (the bundled one when
// builtinPath is empty) and the user document at userPath. A missing user
// document yields an empty user list.
func LoadPresetStore(ctx context.Context, builtinPath, userPath string, opts ...StoreOption) (*PresetStore, error) {
	logger := zerolog.Ctx(ctx)

	s := &PresetStore{
		userPath: userPath,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	builtinData := builtinPresets
	if builtinPath != "" {
		data, err := os.ReadFile(builtinPath)
		if err != nil {
			return nil, errors.Errorf("reading built-in presets: %w", err)
		}
		builtinData = data
	}
	builtinDoc, err := decodePresetDocument(builtinData)
	if err != nil {
		return nil, errors.Errorf("loading built-in presets: %w", err)
	}

	var userDoc *presetDocument
	if userPath != "" {
		data, err := os.ReadFile(userPath)
		switch {
		case os.IsNotExist(err):
			logger.Debug().Str("path", userPath).Msg("no user preset document yet")
		case err != nil:
			return nil, errors.Errorf("reading user presets: %w", err)
		default:
			if userDoc, err = decodePresetDocument(data); err != nil {
				return nil, errors.Errorf("loading user presets from %s: %w", userPath, err)
			}
		}
	}

	seen := make(map[uuid.UUID]bool)
	s.builtins = s.admit(ctx, builtinDoc, true, seen)
	if userDoc != nil {
		s.users = s.admit(ctx, userDoc, false, seen)
	}

	logger.Info().
		Int("builtin", len(s.builtins)).
		Int("user", len(s.users)).
		Msg("loaded presets")

	return s, nil
}

// admit validates the records of one document. Ids must be unique across the
// whole store; a repeated id is skipped.
func (s *PresetStore) admit(ctx context.Context, doc *presetDocument, builtin bool, seen map[uuid.UUID]bool) []*ProcessingPreset {
	logger := zerolog.Ctx(ctx)

	if doc.Version > PresetDocumentVersion {
		logger.Warn().Int("version", doc.Version).Msg("preset document is newer than this build")
	}

	out := make([]*ProcessingPreset, 0, len(doc.Presets))
	for _, p := range doc.Presets {
		if p == nil {
			continue
		}
		if p.ID == uuid.Nil {
			if builtin {
				logger.Warn().Str("name", p.Name).Msg("skipping built-in preset without id")
				continue
			}
			p.ID = uuid.New()
		}
		if seen[p.ID] {
			logger.Warn().Str("id", p.ID.String()).Str("name", p.Name).Msg("skipping preset with duplicate id")
			continue
		}
		seen[p.ID] = true

		p.IsBuiltIn = builtin
		if p.Steps == nil {
			p.Steps = []ProcessingStep{}
		}
		for _, step := range p.Steps {
			if !step.Mode.Known() {
				logger.Warn().Str("preset", p.Name).Str("mode", string(step.Mode)).Msg("unknown mode runs as identity")
			}
		}
		out = append(out, p)
	}
	return out
}

// All returns the built-in presets followed by the user presets.
func (s *PresetStore) All() []*ProcessingPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(copyPresets(s.builtins), copyPresets(s.users)...)
}

// BuiltIns returns the built-in presets.
func (s *PresetStore) BuiltIns() []*ProcessingPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPresets(s.builtins)
}

// UserPresets returns the user presets.
func (s *PresetStore) UserPresets() []*ProcessingPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPresets(s.users)
}

// Get returns the preset with the given id.
func (s *PresetStore) Get(id uuid.UUID) (*ProcessingPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, _, _ := s.find(id); p != nil {
		return p.copy(), nil
	}
	return nil, errors.Errorf("%w: %s", ErrPresetNotFound, id)
}

// Lookup resolves ref as a preset id, or else as a preset name (case-insensitive).
func (s *PresetStore) Lookup(ref string) (*ProcessingPreset, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.Get(id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range [][]*ProcessingPreset{s.builtins, s.users} {
		for _, p := range list {
			if strings.EqualFold(p.Name, ref) {
				return p.copy(), nil
			}
		}
	}
	return nil, errors.Errorf("%w: %q", ErrPresetNotFound, ref)
}

// Add stores p as a new user preset. A missing or already used id is replaced
// by a fresh one.
func (s *PresetStore) Add(p *ProcessingPreset) (*ProcessingPreset, error) {
	if p == nil {
		return nil, errors.Errorf("%w: preset is nil", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := p.copy()
	if existing, _, _ := s.find(added.ID); added.ID == uuid.Nil || existing != nil {
		added.ID = uuid.New()
	}
	added.IsBuiltIn = false
	now := s.now().UTC()
	if added.CreatedAt.IsZero() {
		added.CreatedAt = now
	}
	added.ModifiedAt = now

	s.users = append(s.users, added)
	return added.copy(), nil
}

// Edit applies fn to the preset with the given id. Editing a built-in applies
// fn to a fresh user clone, which is stored and returned; the built-in stays
// as it was. fn cannot change the id or the built-in flag.
func (s *PresetStore) Edit(id uuid.UUID, fn func(*ProcessingPreset)) (*ProcessingPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, idx, builtin := s.find(id)
	if p == nil {
		return nil, errors.Errorf("%w: %s", ErrPresetNotFound, id)
	}

	now := s.now().UTC()
	if builtin {
		clone := p.Clone()
		clone.CreatedAt = now
		fn(clone)
		clone.ID = uuid.New()
		clone.IsBuiltIn = false
		clone.ModifiedAt = now
		s.users = append(s.users, clone)
		return clone.copy(), nil
	}

	edited := p.copy()
	fn(edited)
	edited.ID = p.ID
	edited.IsBuiltIn = false
	edited.CreatedAt = p.CreatedAt
	edited.ModifiedAt = now
	s.users[idx] = edited
	return edited.copy(), nil
}

// Duplicate stores a user clone of the preset with the given id.
func (s *PresetStore) Duplicate(id uuid.UUID) (*ProcessingPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _, _ := s.find(id)
	if p == nil {
		return nil, errors.Errorf("%w: %s", ErrPresetNotFound, id)
	}

	now := s.now().UTC()
	clone := p.Clone()
	clone.CreatedAt = now
	clone.ModifiedAt = now
	s.users = append(s.users, clone)
	return clone.copy(), nil
}

// Delete removes a user preset. Built-ins cannot be deleted.
func (s *PresetStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, idx, builtin := s.find(id)
	switch {
	case p == nil:
		return errors.Errorf("%w: %s", ErrPresetNotFound, id)
	case builtin:
		return errors.Errorf("%w: %s", ErrBuiltInPreset, p.Name)
	}

	s.users = append(s.users[:idx], s.users[idx+1:]...)
	return nil
}

// Localize refreshes the display text of built-in presets. Ids and steps are
// left alone, and presets without resource keys keep their text.
func (s *PresetStore) Localize(loc Localizer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.builtins {
		refreshed := p.copy()
		if key := p.NameResourceKey; key != "" {
			if text := loc.Text(key); text != key {
				refreshed.Name = text
			}
		}
		if key := p.DescriptionResourceKey; key != "" {
			if text := loc.Text(key); text != key {
				refreshed.Description = text
			}
		}
		s.builtins[i] = refreshed
	}
}

// Save writes the user document. The file is replaced atomically.
func (s *PresetStore) Save(ctx context.Context) error {
	if s.userPath == "" {
		return errors.New("no user preset path configured")
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	users := copyPresets(s.users)
	s.mu.RUnlock()

	data, err := MarshalPresetDocument(users)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.userPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Errorf("creating preset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".presets-*.json")
	if err != nil {
		return errors.Errorf("creating temporary preset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Errorf("writing user presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing user presets: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.userPath); err != nil {
		return errors.Errorf("replacing user presets: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("path", s.userPath).Int("presets", len(users)).Msg("saved user presets")
	return nil
}

// find locates a preset by id. The caller holds the lock.
func (s *PresetStore) find(id uuid.UUID) (p *ProcessingPreset, idx int, builtin bool) {
	for i, b := range s.builtins {
		if b.ID == id {
			return b, i, true
		}
	}
	for i, u := range s.users {
		if u.ID == id {
			return u, i, false
		}
	}
	return nil, -1, false
}

func copyPresets(presets []*ProcessingPreset) []*ProcessingPreset {
	out := make([]*ProcessingPreset, len(presets))
	for i, p := range presets {
		out[i] = p.copy()
	}
	return out
}
