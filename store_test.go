package clipclean

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var testClock = func() time.Time {
	return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// loadTestStore loads the bundled built-ins with a user document in a
// temporary directory.
func loadTestStore(t *testing.T) *PresetStore {
	t.Helper()
	userPath := filepath.Join(t.TempDir(), "presets.json")
	store, err := LoadPresetStore(testContext(t), "", userPath, WithClock(testClock))
	require.NoError(t, err)
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ============================================================================
// Loading Tests
// ============================================================================

func TestLoadBundledBuiltIns(t *testing.T) {
	store := loadTestStore(t)

	builtins := store.BuiltIns()
	require.Len(t, builtins, 7)
	for _, p := range builtins {
		assert.True(t, p.IsBuiltIn, p.Name)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.NotEmpty(t, p.NameResourceKey, p.Name)
		for _, step := range p.Steps {
			assert.True(t, step.Mode.Known(), "%s: %s", p.Name, step.Mode)
		}
	}
	assert.Empty(t, store.UserPresets())
	assert.Len(t, store.All(), 7)
}

func TestLoadUserDocument(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "presets.json")
	writeFile(t, userPath, `
// edited by hand
{
  "version": 1,
  "presets": [
    /* no id yet */
    {"name": "Mine", "steps": [{"order": 0, "mode": "ToUpper", "isEnabled": true}]},
    {"id": "5b0c1a52-3f0e-4d8e-9b64-0f6f2a1c7d01", "name": "Steals a built-in id", "steps": []},
    {"id": "11111111-2222-3333-4444-555555555555", "name": "Claims built-in", "isBuiltIn": true},
    {"id": "11111111-2222-3333-4444-555555555555", "name": "Duplicate"},
    null
  ]
}`)

	store, err := LoadPresetStore(testContext(t), "", userPath)
	require.NoError(t, err)

	users := store.UserPresets()
	require.Len(t, users, 2)
	assert.Equal(t, "Mine", users[0].Name)
	assert.NotEqual(t, uuid.Nil, users[0].ID)
	assert.Equal(t, "Claims built-in", users[1].Name)
	assert.False(t, users[1].IsBuiltIn)
	assert.NotNil(t, users[1].Steps)
}

func TestLoadWarnsOnUnknownMode(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "presets.json")
	writeFile(t, userPath, `{"version": 1, "presets": [
		{"name": "Future", "steps": [{"order": 0, "mode": "ToKlingon", "isEnabled": true}]}
	]}`)

	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())
	store, err := LoadPresetStore(ctx, "", userPath)
	require.NoError(t, err)
	require.Len(t, store.UserPresets(), 1)
	assert.Contains(t, logs.String(), "unknown mode runs as identity")
	assert.Contains(t, logs.String(), "ToKlingon")
}

func TestLoadBuiltinOverride(t *testing.T) {
	dir := t.TempDir()
	builtinPath := filepath.Join(dir, "builtin.json")
	writeFile(t, builtinPath, `{"version": 1, "presets": [
		{"id": "aaaaaaaa-0000-0000-0000-000000000001", "name": "Only", "steps": []},
		{"name": "Missing id is skipped"}
	]}`)

	store, err := LoadPresetStore(testContext(t), builtinPath, filepath.Join(dir, "user.json"))
	require.NoError(t, err)

	builtins := store.BuiltIns()
	require.Len(t, builtins, 1)
	assert.Equal(t, "Only", builtins[0].Name)
	assert.True(t, builtins[0].IsBuiltIn)
}

func TestLoadMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "presets.json")
	writeFile(t, userPath, `{"version": 1, "presets": [`)

	_, err := LoadPresetStore(testContext(t), "", userPath)
	assert.Error(t, err)

	_, err = LoadPresetStore(testContext(t), filepath.Join(dir, "missing.json"), userPath)
	assert.Error(t, err)
}

// ============================================================================
// Lookup Tests
// ============================================================================

func TestLookup(t *testing.T) {
	store := loadTestStore(t)

	byName, err := store.Lookup("clean TEXT")
	require.NoError(t, err)
	assert.Equal(t, "Clean text", byName.Name)

	byID, err := store.Lookup(byName.ID.String())
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byID.ID)

	_, err = store.Lookup("No such preset")
	assert.True(t, errors.Is(err, ErrPresetNotFound))

	_, err = store.Get(uuid.New())
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestReturnedPresetsAreCopies(t *testing.T) {
	store := loadTestStore(t)

	p, err := store.Lookup("Clean text")
	require.NoError(t, err)
	p.Name = "Changed"
	p.Steps[0].Mode = ModeToUpper

	again, err := store.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clean text", again.Name)
	assert.Equal(t, ModeRemoveHtmlTags, again.Steps[0].Mode)
}

// ============================================================================
// Mutation Tests
// ============================================================================

func TestAddPreset(t *testing.T) {
	store := loadTestStore(t)
	builtin := store.BuiltIns()[0]

	input := NewPreset("Mine", "", NewStep(0, ModeTrim))
	input.IsBuiltIn = true
	input.ID = builtin.ID

	added, err := store.Add(input)
	require.NoError(t, err)
	assert.NotEqual(t, builtin.ID, added.ID, "an id already in use is replaced")
	assert.False(t, added.IsBuiltIn)
	assert.Equal(t, testClock(), added.ModifiedAt)

	_, err = store.Add(nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestEditUserPreset(t *testing.T) {
	store := loadTestStore(t)

	added, err := store.Add(NewPreset("Mine", "", NewStep(0, ModeTrim)))
	require.NoError(t, err)

	edited, err := store.Edit(added.ID, func(p *ProcessingPreset) {
		p.Name = "Renamed"
		p.ID = uuid.New()
		p.Steps = append(p.Steps, NewStep(1, ModeToUpper))
	})
	require.NoError(t, err)
	assert.Equal(t, added.ID, edited.ID)
	assert.Equal(t, added.CreatedAt, edited.CreatedAt)
	assert.Equal(t, "Renamed", edited.Name)
	assert.Len(t, edited.Steps, 2)
	assert.Len(t, store.UserPresets(), 1)
}

func TestEditBuiltInClones(t *testing.T) {
	store := loadTestStore(t)
	builtin, err := store.Lookup("Single line")
	require.NoError(t, err)

	edited, err := store.Edit(builtin.ID, func(p *ProcessingPreset) {
		p.Name = "My single line"
		p.Steps = p.Steps[:1]
	})
	require.NoError(t, err)
	assert.NotEqual(t, builtin.ID, edited.ID)
	assert.False(t, edited.IsBuiltIn)
	assert.Empty(t, edited.NameResourceKey)
	assert.Len(t, edited.Steps, 1)

	unchanged, err := store.Get(builtin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Single line", unchanged.Name)
	assert.Len(t, unchanged.Steps, 2)
	assert.Len(t, store.UserPresets(), 1)
}

func TestDuplicateAndDelete(t *testing.T) {
	store := loadTestStore(t)
	builtin := store.BuiltIns()[0]

	dup, err := store.Duplicate(builtin.ID)
	require.NoError(t, err)
	assert.False(t, dup.IsBuiltIn)
	assert.Equal(t, builtin.Name, dup.Name)

	err = store.Delete(builtin.ID)
	assert.True(t, errors.Is(err, ErrBuiltInPreset))

	require.NoError(t, store.Delete(dup.ID))
	assert.Empty(t, store.UserPresets())

	err = store.Delete(dup.ID)
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

type mapLocalizer map[string]string

func (m mapLocalizer) Text(key string) string {
	if text, ok := m[key]; ok {
		return text
	}
	return key
}

func TestLocalize(t *testing.T) {
	store := loadTestStore(t)
	before, err := store.Lookup("Clean text")
	require.NoError(t, err)

	store.Localize(mapLocalizer{"Preset_CleanText_Name": "Text säubern"})

	after, err := store.Get(before.ID)
	require.NoError(t, err)
	assert.Equal(t, "Text säubern", after.Name)
	assert.Equal(t, before.Description, after.Description, "missing keys keep the text")
	assert.Equal(t, before.Steps, after.Steps)
}

// ============================================================================
// Persistence Tests
// ============================================================================

func TestSaveWritesOnlyUserPresets(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "nested", "presets.json")
	ctx := testContext(t)

	store, err := LoadPresetStore(ctx, "", userPath, WithClock(testClock))
	require.NoError(t, err)

	added, err := store.Add(NewPreset("Mine", "mine", NewStep(0, ModeTruncate, WithMaxLength(12))))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx))

	data, err := os.ReadFile(userPath)
	require.NoError(t, err)
	saved, err := ReadPresetDocument(data)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, added.ID, saved[0].ID)

	reloaded, err := LoadPresetStore(ctx, "", userPath)
	require.NoError(t, err)
	users := reloaded.UserPresets()
	require.Len(t, users, 1)
	assert.Equal(t, "Mine", users[0].Name)
	require.NotNil(t, users[0].Steps[0].Options)
	assert.Equal(t, 12, users[0].Steps[0].Options.MaxLength())
	assert.Len(t, reloaded.BuiltIns(), 7)

	entries, err := os.ReadDir(filepath.Dir(userPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestConcurrentSavesKeepLatestState(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t)

	for round := 0; round < 20; round++ {
		userPath := filepath.Join(dir, fmt.Sprintf("presets-%d.json", round))
		store, err := LoadPresetStore(ctx, "", userPath)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := store.Add(NewPreset(fmt.Sprintf("p%d", i), "")); err != nil {
					errs <- err
					return
				}
				if err := store.Save(ctx); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		reloaded, err := LoadPresetStore(ctx, "", userPath)
		require.NoError(t, err)
		require.Len(t, reloaded.UserPresets(), 8, "round %d", round)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	store, err := LoadPresetStore(testContext(t), "", "")
	require.NoError(t, err)
	assert.Error(t, store.Save(testContext(t)))
}

func TestMarshalPresetDocument(t *testing.T) {
	data, err := MarshalPresetDocument(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 1, "presets": []}`, string(data))
}
