package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pstuifzand/go-clipclean"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// newServeCmd runs the socket server
func newServeCmd(opts *rootOpts) *cobra.Command {
	var (
		socket string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine on a Unix domain socket",
		Long: `Serve shares one engine with any number of clients (clipboard watchers,
hotkey daemons, 'clipclean repl', or any command run with --remote). It
stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.remote {
				return errors.New("serve cannot be combined with --remote")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if socket == "" {
				socket = opts.config.Server.Socket
			}

			server := clipclean.NewSocketServer(socket, opts.engine, *zerolog.Ctx(ctx))
			if !quiet {
				server.OnNotify(func(message string) {
					pterm.Info.Println(message)
				})
			}

			if err := server.Start(); err != nil {
				return errors.Errorf("starting server: %w", err)
			}
			pterm.Success.Printfln("Listening on %s", socket)

			<-ctx.Done()
			if err := server.Stop(); err != nil {
				return err
			}
			server.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "socket path (defaults to server.socket from the config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print processing notifications")

	return cmd
}
