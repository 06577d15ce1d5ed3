package main

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	ctx := logger.WithContext(context.Background())

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	rootCmd := &cobra.Command{
		Use:   "clipclean",
		Short: "Clean and reshape clipboard text",
		Long: `clipclean applies text operations and named presets to clipboard text.
Text is read from the arguments or from stdin and written to stdout, so it
composes with pbpaste/pbcopy, xclip or wl-paste/wl-copy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	addRootFlags(rootCmd, opts)

	rootCmd.AddCommand(
		newProcessCmd(opts),
		newRunCmd(opts),
		newApplyCmd(opts),
		newModesCmd(opts),
		newPresetsCmd(opts),
		newLinksCmd(opts),
		newServeCmd(opts),
		newReplCmd(opts),
	)

	return rootCmd
}
