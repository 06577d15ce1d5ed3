package clipclean

import (
	"embed"
	"io/fs"
	"path"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Localizer resolves resource keys to display text.
type Localizer interface {
	Text(key string) string
}

var loadBundle = sync.OnceValues(func() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	names, err := fs.Glob(localeFiles, "locales/*.yaml")
	if err != nil {
		return nil, errors.Errorf("listing locale files: %w", err)
	}
	for _, name := range names {
		data, err := localeFiles.ReadFile(name)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", name, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(name)); err != nil {
			return nil, errors.Errorf("parsing %s: %w", name, err)
		}
	}
	return bundle, nil
})

// Resources is the Localizer backed by the bundled message files.
// Missing translations fall back to English, then to the key itself.
type Resources struct {
	localizer *i18n.Localizer
}

// NewResources returns resources for the first supported language in langs.
func NewResources(langs ...string) (*Resources, error) {
	bundle, err := loadBundle()
	if err != nil {
		return nil, err
	}
	return &Resources{localizer: i18n.NewLocalizer(bundle, langs...)}, nil
}

func (r *Resources) Text(key string) string {
	msg, err := r.localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil || msg == "" {
		return key
	}
	return msg
}

// ModeName returns the display name of a mode. Unknown modes show their raw name.
func (r *Resources) ModeName(mode ProcessingMode) string {
	if !mode.Known() {
		return string(mode)
	}
	return r.Text(mode.ResourceKey())
}

// ProcessedNotification is the text shown after the clipboard was rewritten
// with a mode or preset called name.
func (r *Resources) ProcessedNotification(name string) string {
	msg, err := r.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    "Notification_Processed",
		TemplateData: map[string]string{"Name": name},
	})
	if err != nil || msg == "" {
		return name
	}
	return msg
}
