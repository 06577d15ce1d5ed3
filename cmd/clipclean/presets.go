package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/pstuifzand/go-clipclean"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// newModesCmd lists the processing modes
func newModesCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the processing modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			modes, err := proc.ListModes(ctx)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"Mode", "Name"}}
			for _, m := range modes {
				data = append(data, []string{string(m.Mode), m.Name})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render()
		},
	}
}

// newPresetsCmd groups the preset management commands
func newPresetsCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage presets",
	}

	cmd.AddCommand(
		newPresetsListCmd(opts),
		newPresetsShowCmd(opts),
		newPresetsCloneCmd(opts),
		newPresetsDeleteCmd(opts),
		newPresetsExportCmd(opts),
		newPresetsImportCmd(opts),
	)

	return cmd
}

func newPresetsListCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and user presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			presets, err := proc.ListPresets(ctx)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"ID", "Name", "Built-in", "Steps", "Description"}}
			for _, p := range presets {
				builtin := ""
				if p.IsBuiltIn {
					builtin = "yes"
				}
				steps := fmt.Sprintf("%d/%d", len(p.EnabledSteps()), len(p.Steps))
				data = append(data, []string{p.ID.String(), p.Name, builtin, steps, p.Description})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render()
		},
	}
}

func newPresetsShowCmd(opts *rootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show PRESET",
		Short: "Show the steps of a preset",
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(preset, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "%s (%s)\n", preset.Name, preset.ID)
			if preset.Description != "" {
				fmt.Fprintln(out, preset.Description)
			}
			data := pterm.TableData{{"Order", "Mode", "Enabled", "Options"}}
			for _, step := range preset.Steps {
				options := ""
				if step.Options != nil {
					raw, _ := json.Marshal(step.Options)
					options = string(raw)
				}
				data = append(data, []string{
					strconv.Itoa(step.Order),
					opts.modeName(step.Mode),
					strconv.FormatBool(step.IsEnabled),
					options,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the preset as JSON")

	return cmd
}

func newPresetsCloneCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clone PRESET",
		Short: "Store an editable user copy of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			clone, err := proc.ClonePreset(ctx, args[0])
			if err != nil {
				return errors.Errorf("cloning preset: %w", err)
			}
			pterm.Success.Printfln("Created %q (%s)", clone.Name, clone.ID)
			return nil
		},
	}
}

func newPresetsDeleteCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PRESET",
		Short: "Delete a user preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			if err := proc.DeletePreset(ctx, args[0]); err != nil {
				return errors.Errorf("deleting preset: %w", err)
			}
			pterm.Success.Printfln("Deleted %s", args[0])
			return nil
		},
	}
}

func newPresetsExportCmd(opts *rootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [PRESET...]",
		Short: "Write presets as a preset document",
		Long: `Export writes the named presets, or all user presets when none are named,
as a document that 'presets import' reads back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			var presets []*clipclean.ProcessingPreset
			if len(args) == 0 {
				all, err := proc.ListPresets(ctx)
				if err != nil {
					return err
				}
				for _, p := range all {
					if !p.IsBuiltIn {
						presets = append(presets, p)
					}
				}
			}
			for _, ref := range args {
				p, err := proc.GetPreset(ctx, ref)
				if err != nil {
					return err
				}
				presets = append(presets, p)
			}

			data, err := clipclean.MarshalPresetDocument(presets)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Errorf("writing %s: %w", output, err)
			}
			pterm.Success.Printfln("Exported %d presets to %s", len(presets), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")

	return cmd
}

func newPresetsImportCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the presets of a preset document as user presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Errorf("reading %s: %w", args[0], err)
			}
			presets, err := clipclean.ReadPresetDocument(data)
			if err != nil {
				return err
			}

			proc, release, err := opts.processor(ctx)
			if err != nil {
				return err
			}
			defer release()

			for _, p := range presets {
				// Imported presets are always user presets; existing ids get a fresh one
				p.IsBuiltIn = false
				p.NameResourceKey = ""
				p.DescriptionResourceKey = ""
				if existing, err := proc.GetPreset(ctx, p.ID.String()); err == nil && existing != nil {
					p.ID = uuid.Nil
				}
				saved, err := proc.SavePreset(ctx, p)
				if err != nil {
					return errors.Errorf("importing %q: %w", p.Name, err)
				}
				pterm.Success.Printfln("Imported %q (%s)", saved.Name, saved.ID)
			}
			return nil
		},
	}
}
