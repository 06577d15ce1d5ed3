package clipclean

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// BatchOptions controls ApplyPresetToFiles.
type BatchOptions struct {
	// InPlace rewrites each file whose content changed.
	InPlace bool
	// Concurrency limits the files processed at once; 0 or less means 4.
	Concurrency int
}

// FileResult is the outcome of running a preset over one file.
type FileResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Output  string `json:"output,omitempty"`
}

// ApplyPresetToFiles runs preset over every regular file matched by the glob
// patterns, which may use ** to cross directories. Results are sorted by path.
// The first failure cancels the remaining files.
func ApplyPresetToFiles(ctx context.Context, preset *ProcessingPreset, patterns []string, opts BatchOptions) ([]FileResult, error) {
	if preset == nil {
		return nil, errors.Errorf("%w: preset is nil", ErrInvalidArgument)
	}
	logger := zerolog.Ctx(ctx)

	paths, err := expandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(paths))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := applyToFile(preset, path, opts.InPlace)
			if err != nil {
				return err
			}
			logger.Debug().Str("path", path).Bool("changed", res.Changed).Msg("processed file")

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b FileResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	logger.Info().Str("preset", preset.Name).Int("files", len(results)).Msg("applied preset to files")
	return results, nil
}

func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("%w: bad pattern %q", ErrInvalidArgument, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func applyToFile(preset *ProcessingPreset, path string, inPlace bool) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, errors.Errorf("reading %s: %w", path, err)
	}

	input := string(data)
	output, err := ExecutePreset(preset, input)
	if err != nil {
		return FileResult{}, errors.Errorf("processing %s: %w", path, err)
	}

	res := FileResult{Path: path, Changed: output != input, Output: output}
	if inPlace && res.Changed {
		info, err := os.Stat(path)
		if err != nil {
			return FileResult{}, errors.Errorf("stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(output), info.Mode().Perm()); err != nil {
			return FileResult{}, errors.Errorf("writing %s: %w", path, err)
		}
	}
	return res, nil
}
