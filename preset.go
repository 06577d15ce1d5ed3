package clipclean

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProcessingStep is one (mode, enabled flag, options) entry of a preset.
// A nil Options resolves to DefaultOptions when the step runs.
type ProcessingStep struct {
	Order     int                `json:"order"`
	Mode      ProcessingMode     `json:"mode"`
	IsEnabled bool               `json:"isEnabled"`
	Options   *ProcessingOptions `json:"options,omitempty"`
}

// NewStep returns an enabled step.
func NewStep(order int, mode ProcessingMode, opts ...Option) ProcessingStep {
	step := ProcessingStep{Order: order, Mode: mode, IsEnabled: true}
	if len(opts) > 0 {
		o := NewOptions(opts...)
		step.Options = &o
	}
	return step
}

// Clone returns a copy of the step that shares no references with s.
func (s ProcessingStep) Clone() ProcessingStep {
	if s.Options != nil {
		o := *s.Options
		s.Options = &o
	}
	return s
}

// ProcessingPreset is a named, ordered list of processing steps.
type ProcessingPreset struct {
	ID                     uuid.UUID        `json:"id"`
	Name                   string           `json:"name"`
	Description            string           `json:"description"`
	Steps                  []ProcessingStep `json:"steps"`
	CreatedAt              time.Time        `json:"createdAt"`
	ModifiedAt             time.Time        `json:"modifiedAt"`
	IsBuiltIn              bool             `json:"isBuiltIn"`
	NameResourceKey        string           `json:"nameResourceKey,omitempty"`
	DescriptionResourceKey string           `json:"descriptionResourceKey,omitempty"`
}

// NewPreset creates a user preset with a fresh id.
func NewPreset(name, description string, steps ...ProcessingStep) *ProcessingPreset {
	now := time.Now().UTC()
	return &ProcessingPreset{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Steps:       cloneSteps(steps),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
}

// EnabledSteps returns the enabled steps sorted by Order. Steps with equal
// Order keep their list position.
func (p *ProcessingPreset) EnabledSteps() []ProcessingStep {
	enabled := make([]ProcessingStep, 0, len(p.Steps))
	for _, step := range p.Steps {
		if step.IsEnabled {
			enabled = append(enabled, step)
		}
	}
	slices.SortStableFunc(enabled, func(a, b ProcessingStep) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return enabled
}

// Clone returns an editable user copy: a fresh id, IsBuiltIn cleared and
// resource keys dropped so that localization never overwrites the user's name.
func (p *ProcessingPreset) Clone() *ProcessingPreset {
	now := time.Now().UTC()
	return &ProcessingPreset{
		ID:          uuid.New(),
		Name:        p.Name,
		Description: p.Description,
		Steps:       cloneSteps(p.Steps),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
}

// copy duplicates p including its identity; used to hand out snapshots.
func (p *ProcessingPreset) copy() *ProcessingPreset {
	c := *p
	c.Steps = cloneSteps(p.Steps)
	return &c
}

// NextOrder returns an order value placing a new step after every existing one.
func (p *ProcessingPreset) NextOrder() int {
	next := 0
	for _, step := range p.Steps {
		if step.Order >= next {
			next = step.Order + 1
		}
	}
	return next
}

func cloneSteps(steps []ProcessingStep) []ProcessingStep {
	if steps == nil {
		return []ProcessingStep{}
	}
	out := make([]ProcessingStep, len(steps))
	for i, step := range steps {
		out[i] = step.Clone()
	}
	return out
}
