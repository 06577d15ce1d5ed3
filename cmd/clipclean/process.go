package main

import (
	"fmt"

	"github.com/pstuifzand/go-clipclean"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// newProcessCmd applies one mode
func newProcessCmd(opts *rootOpts) *cobra.Command {
	var (
		tabSize   int
		maxLength int
		suffix    string
		form      string
		culture   string
	)

	cmd := &cobra.Command{
		Use:   "process MODE [TEXT...]",
		Short: "Apply one processing mode",
		Long: `Process applies a single mode to the text. Run 'clipclean modes' for the
list of modes. Options not given on the command line come from the
'defaults' section of the config file.`,
		Example: `  pbpaste | clipclean process NormalizeWhitespace | pbcopy
  clipclean process Truncate --max-length 20 --suffix '…' "a long sentence to shorten"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, known := clipclean.ParseMode(args[0])
			if !known {
				zerolog.Ctx(ctx).Warn().Str("mode", args[0]).Msg("unknown mode, text is passed through unchanged")
			}

			text, err := opts.readText(args[1:])
			if err != nil {
				return err
			}

			var options []clipclean.Option
			flags := cmd.Flags()
			if flags.Changed("tab-size") {
				options = append(options, clipclean.WithTabSize(tabSize))
			}
			if flags.Changed("max-length") {
				options = append(options, clipclean.WithMaxLength(maxLength))
			}
			if flags.Changed("suffix") {
				options = append(options, clipclean.WithTruncateSuffix(processEscapeSequences(suffix)))
			}
			if flags.Changed("form") {
				options = append(options, clipclean.WithNormalizationForm(clipclean.ParseNormalizationForm(form)))
			}
			if flags.Changed("culture") {
				options = append(options, clipclean.WithCulture(culture))
			}

			var po *clipclean.ProcessingOptions
			if len(options) > 0 {
				// Start from the configured defaults so only the given flags differ
				base := opts.config.Defaults
				for _, opt := range options {
					opt(&base)
				}
				po = &base
			}

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			output, err := proc.Process(ctx, text, mode, po)
			if err != nil {
				return errors.Errorf("processing text: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().IntVar(&tabSize, "tab-size", clipclean.DefaultTabSize, "spaces per tab for ConvertTabsToSpaces")
	cmd.Flags().IntVar(&maxLength, "max-length", clipclean.DefaultMaxLength, "maximum length for Truncate, suffix included")
	cmd.Flags().StringVar(&suffix, "suffix", clipclean.DefaultTruncateSuffix, "suffix appended by Truncate (escape sequences allowed)")
	cmd.Flags().StringVar(&form, "form", "FormC", "normalization form: FormC, FormD, FormKC or FormKD")
	cmd.Flags().StringVar(&culture, "culture", "", "culture for case conversion, e.g. tr-TR")

	return cmd
}

// newRunCmd executes a preset
func newRunCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run PRESET [TEXT...]",
		Short:   "Run a preset by name or id",
		Example: `  pbpaste | clipclean run "Clean text" | pbcopy`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			text, err := opts.readText(args[1:])
			if err != nil {
				return err
			}

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			output, err := proc.ExecutePreset(ctx, args[0], text)
			if err != nil {
				return errors.Errorf("running preset: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}
	return cmd
}

// newApplyCmd runs a preset over files
func newApplyCmd(opts *rootOpts) *cobra.Command {
	var (
		inPlace bool
		jobs    int
	)

	cmd := &cobra.Command{
		Use:   "apply PRESET PATTERN...",
		Short: "Run a preset over files matched by glob patterns",
		Long: `Apply runs a preset over every file matched by the patterns. Patterns may
use ** to match across directories. Without --in-place the files are left
untouched and only reported.`,
		Example: `  clipclean apply "Tidy lines" 'notes/**/*.txt' --in-place`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			preset, err := proc.GetPreset(ctx, args[0])
			if err != nil {
				return err
			}

			results, err := clipclean.ApplyPresetToFiles(ctx, preset, args[1:], clipclean.BatchOptions{
				InPlace:     inPlace,
				Concurrency: jobs,
			})
			if err != nil {
				return errors.Errorf("applying preset: %w", err)
			}

			data := pterm.TableData{{"File", "Changed"}}
			changed := 0
			for _, res := range results {
				mark := "no"
				if res.Changed {
					mark = "yes"
					changed++
				}
				data = append(data, []string{res.Path, mark})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render(); err != nil {
				return err
			}

			verb := "would change"
			if inPlace {
				verb = "changed"
			}
			pterm.Info.Printfln("%s: %d of %d files %s", preset.Name, changed, len(results), verb)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "rewrite changed files")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "files processed concurrently")

	return cmd
}

// newLinksCmd lists the links of copied HTML
func newLinksCmd(opts *rootOpts) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "links [HTML...]",
		Short: "List the links of an HTML fragment",
		Long: `Links prints one line per a[href] element. The format may use {text} and
{href}; by default only the href is printed.`,
		Example: `  clipclean links --format '[{text}]({href})' < page.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			html, err := opts.readText(args)
			if err != nil {
				return err
			}

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			links, err := proc.ExtractLinks(ctx, html)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), clipclean.FormatLinks(links, processEscapeSequences(format)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "line format using {text} and {href}")

	return cmd
}
