package clipclean

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidArgument reports a precondition failure such as a nil preset.
	ErrInvalidArgument = errors.Base("invalid argument")
)

// ExecutePreset folds the enabled steps of preset over input in ascending
// order. Each step resolves its own options; a step without options runs with
// DefaultOptions, never with the previous step's.
func ExecutePreset(preset *ProcessingPreset, input string) (string, error) {
	if preset == nil {
		return "", errors.Errorf("%w: preset is nil", ErrInvalidArgument)
	}
	if input == "" {
		return "", nil
	}

	result := input
	for _, step := range preset.EnabledSteps() {
		result = Process(result, step.Mode, step.Options)
	}
	return result, nil
}
