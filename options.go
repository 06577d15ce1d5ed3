package clipclean

import (
	"encoding/json"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Defaults applied whenever an option is omitted or malformed.
const (
	DefaultTabSize        = 4
	DefaultMaxLength      = 100
	DefaultTruncateSuffix = "..."
)

// NormalizationForm selects the Unicode normalization applied by NormalizeUnicode.
type NormalizationForm int

const (
	FormC NormalizationForm = iota
	FormD
	FormKC
	FormKD
)

var normalizationFormNames = map[NormalizationForm]string{
	FormC:  "FormC",
	FormD:  "FormD",
	FormKC: "FormKC",
	FormKD: "FormKD",
}

func (f NormalizationForm) String() string {
	if name, ok := normalizationFormNames[f]; ok {
		return name
	}
	return normalizationFormNames[FormC]
}

// ParseNormalizationForm decodes a persisted form tag. Unknown tags resolve to FormC.
func ParseNormalizationForm(s string) NormalizationForm {
	switch s {
	case "FormC", "NFC":
		return FormC
	case "FormD", "NFD":
		return FormD
	case "FormKC", "NFKC":
		return FormKC
	case "FormKD", "NFKD":
		return FormKD
	default:
		return FormC
	}
}

func (f NormalizationForm) normForm() norm.Form {
	switch f {
	case FormD:
		return norm.NFD
	case FormKC:
		return norm.NFKC
	case FormKD:
		return norm.NFKD
	default:
		return norm.NFC
	}
}

// ProcessingOptions configures the parameterized catalog operations.
// Values are immutable once built; use NewOptions or DefaultOptions.
type ProcessingOptions struct {
	tabSize           int
	maxLength         int
	truncateSuffix    string
	normalizationForm NormalizationForm
	culture           language.Tag
	cultureName       string
}

// Option configures a ProcessingOptions value during construction.
type Option func(*ProcessingOptions)

// DefaultOptions returns the canonical default options.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		tabSize:           DefaultTabSize,
		maxLength:         DefaultMaxLength,
		truncateSuffix:    DefaultTruncateSuffix,
		normalizationForm: FormC,
		culture:           language.Und,
	}
}

// NewOptions builds options starting from the defaults.
func NewOptions(opts ...Option) ProcessingOptions {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTabSize sets the number of spaces per tab. Negative values keep the default.
func WithTabSize(n int) Option {
	return func(o *ProcessingOptions) {
		if n >= 0 {
			o.tabSize = n
		}
	}
}

// WithMaxLength sets the truncation length, suffix included. Negative values keep the default.
func WithMaxLength(n int) Option {
	return func(o *ProcessingOptions) {
		if n >= 0 {
			o.maxLength = n
		}
	}
}

// WithTruncateSuffix sets the text appended by Truncate.
func WithTruncateSuffix(s string) Option {
	return func(o *ProcessingOptions) {
		o.truncateSuffix = s
	}
}

// WithNormalizationForm sets the form used by NormalizeUnicode.
func WithNormalizationForm(f NormalizationForm) Option {
	return func(o *ProcessingOptions) {
		if _, ok := normalizationFormNames[f]; ok {
			o.normalizationForm = f
		}
	}
}

// WithCulture sets the casing culture from a BCP 47 tag such as "tr-TR".
// An empty or unparsable name selects the invariant culture.
func WithCulture(name string) Option {
	return func(o *ProcessingOptions) {
		o.culture, o.cultureName = parseCulture(name)
	}
}

func parseCulture(name string) (language.Tag, string) {
	if name == "" {
		return language.Und, ""
	}
	tag, err := language.Parse(name)
	if err != nil {
		return language.Und, ""
	}
	return tag, name
}

func (o ProcessingOptions) TabSize() int                         { return o.tabSize }
func (o ProcessingOptions) MaxLength() int                       { return o.maxLength }
func (o ProcessingOptions) TruncateSuffix() string               { return o.truncateSuffix }
func (o ProcessingOptions) NormalizationForm() NormalizationForm { return o.normalizationForm }
func (o ProcessingOptions) Culture() language.Tag                { return o.culture }

// CultureName returns the culture as given, or "" for the invariant culture.
func (o ProcessingOptions) CultureName() string { return o.cultureName }

// optionsDocument is the persisted shape; nil fields fall back to defaults.
type optionsDocument struct {
	TabSize           *int    `json:"tabSize,omitempty" yaml:"tabSize,omitempty"`
	MaxLength         *int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	TruncateSuffix    *string `json:"truncateSuffix,omitempty" yaml:"truncateSuffix,omitempty"`
	NormalizationForm *string `json:"normalizationForm,omitempty" yaml:"normalizationForm,omitempty"`
	CultureName       *string `json:"cultureName,omitempty" yaml:"cultureName,omitempty"`
}

func (d optionsDocument) options() ProcessingOptions {
	var opts []Option
	if d.TabSize != nil {
		opts = append(opts, WithTabSize(*d.TabSize))
	}
	if d.MaxLength != nil {
		opts = append(opts, WithMaxLength(*d.MaxLength))
	}
	if d.TruncateSuffix != nil {
		opts = append(opts, WithTruncateSuffix(*d.TruncateSuffix))
	}
	if d.NormalizationForm != nil {
		opts = append(opts, WithNormalizationForm(ParseNormalizationForm(*d.NormalizationForm)))
	}
	if d.CultureName != nil {
		opts = append(opts, WithCulture(*d.CultureName))
	}
	return NewOptions(opts...)
}

func (o ProcessingOptions) document() optionsDocument {
	form := o.normalizationForm.String()
	suffix := o.truncateSuffix
	d := optionsDocument{
		TabSize:           &o.tabSize,
		MaxLength:         &o.maxLength,
		TruncateSuffix:    &suffix,
		NormalizationForm: &form,
	}
	if o.cultureName != "" {
		name := o.cultureName
		d.CultureName = &name
	}
	return d
}

func (o ProcessingOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.document())
}

// UnmarshalJSON never fails on malformed values; they resolve to defaults.
func (o *ProcessingOptions) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*o = DefaultOptions()
		return nil
	}
	// A wrongly typed field, e.g. "tabSize": "4", stays nil and falls back to
	// its default; the remaining fields still apply.
	var d optionsDocument
	decodeField(fields, "tabSize", &d.TabSize)
	decodeField(fields, "maxLength", &d.MaxLength)
	decodeField(fields, "truncateSuffix", &d.TruncateSuffix)
	decodeField(fields, "normalizationForm", &d.NormalizationForm)
	decodeField(fields, "cultureName", &d.CultureName)
	*o = d.options()
	return nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst **T) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = &v
	}
}

// UnmarshalYAML decodes the same shape as the JSON form.
func (o *ProcessingOptions) UnmarshalYAML(value *yaml.Node) error {
	var d optionsDocument
	// A malformed node leaves d partly empty; missing fields fall back to defaults.
	_ = value.Decode(&d)
	*o = d.options()
	return nil
}

// resolveOptions returns the options to use for one operation call.
func resolveOptions(opts *ProcessingOptions) ProcessingOptions {
	if opts == nil {
		return DefaultOptions()
	}
	return *opts
}
