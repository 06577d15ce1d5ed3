package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pstuifzand/go-clipclean"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// rootOpts contains shared options used by all commands
type rootOpts struct {
	configPath string
	debug      bool
	remote     bool

	config    *clipclean.Config
	store     *clipclean.PresetStore
	resources *clipclean.Resources
	engine    *clipclean.Engine

	stdin io.Reader
}

func addRootFlags(cmd *cobra.Command, opts *rootOpts) {
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", clipclean.DefaultConfigPath(), "path to the config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.remote, "remote", false, "send commands to a running clipclean server")
}

// setup loads the config, adjusts the context logger and, unless commands go
// to a server, loads the presets.
func (o *rootOpts) setup(ctx context.Context) (context.Context, error) {
	cfg, err := clipclean.LoadConfig(ctx, o.configPath)
	if err != nil {
		return ctx, errors.Errorf("loading config: %w", err)
	}
	o.config = cfg

	level := cfg.LogLevel()
	if o.debug {
		level = zerolog.DebugLevel
	}
	ctx = zerolog.Ctx(ctx).Level(level).WithContext(ctx)

	o.resources, err = clipclean.NewResources(cfg.UI.Language)
	if err != nil {
		return ctx, errors.Errorf("loading resources: %w", err)
	}

	if o.remote {
		return ctx, nil
	}

	o.store, err = clipclean.LoadPresetStore(ctx, cfg.Presets.Builtin, cfg.Presets.User)
	if err != nil {
		return ctx, errors.Errorf("loading presets: %w", err)
	}
	o.store.Localize(o.resources)
	o.engine = clipclean.NewEngine(o.store, o.resources, cfg.Defaults)
	return ctx, nil
}

// processor returns the engine, or a client for the configured server when
// --remote is set. The returned function releases it.
func (o *rootOpts) processor(ctx context.Context) (clipclean.TextProcessor, func(), error) {
	if !o.remote {
		return o.engine, func() {}, nil
	}
	client, err := clipclean.NewSocketClient(ctx, o.config.Server.Socket)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { client.Close() }, nil
}

// readText joins args into the input text, or reads stdin when there are none.
func (o *rootOpts) readText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := o.stdin
	if in == nil {
		in = os.Stdin
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func (o *rootOpts) modeName(mode clipclean.ProcessingMode) string {
	if o.resources == nil {
		return string(mode)
	}
	return o.resources.ModeName(mode)
}
