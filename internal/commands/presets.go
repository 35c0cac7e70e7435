package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"intervals/backend/internal/model"
	"intervals/backend/internal/presetfile"
	"intervals/backend/internal/service"
)

func newPresetsCmd(opts *options) *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage timer presets",
	}
	presetsCmd.AddCommand(
		newPresetsListCmd(opts),
		newPresetsAddCmd(opts),
		newPresetsDeleteCmd(opts),
		newPresetsImportCmd(opts),
		newPresetsExportCmd(opts),
	)
	return presetsCmd
}

func newPresetsListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}
				presets, apiErr := a.presets.List(cmd.Context(), userID)
				if apiErr != nil {
					return apiErr
				}
				if len(presets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No presets yet. Add one with: intervals presets add")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tMODE\tWORK\tREST")
				for _, preset := range presets {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%ds\n",
						preset.ID, preset.Name, preset.WorkMode, workLabel(preset), preset.RestSeconds)
				}
				return w.Flush()
			})
		},
	}
}

func newPresetsAddCmd(opts *options) *cobra.Command {
	var input service.CreatePresetInput

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a preset",
		Long: `Add a preset.

Examples:
  intervals presets add --name Tabata --mode interval --work 20 --rest 10
  intervals presets add --name Squats --mode rest_only --rest 180`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}
				preset, apiErr := a.presets.Create(cmd.Context(), userID, input)
				if apiErr != nil {
					return apiErr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added preset %s (%s)\n", preset.Name, preset.ID)
				return nil
			})
		},
	}

	addCmd.Flags().StringVar(&input.Name, "name", "", "preset name")
	addCmd.Flags().StringVar(&input.WorkMode, "mode", string(model.WorkModeInterval), "interval or rest_only")
	addCmd.Flags().IntVar(&input.WorkSeconds, "work", 0, "work seconds (interval mode)")
	addCmd.Flags().IntVar(&input.RestSeconds, "rest", 0, "rest seconds")
	return addCmd
}

func newPresetsDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <preset-id>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if apiErr := a.presets.Delete(cmd.Context(), userID, args[0]); apiErr != nil {
					return apiErr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
				return nil
			})
		},
	}
}

func newPresetsImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import presets from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := presetfile.Load(args[0])
			if err != nil {
				return err
			}

			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}

				imported := 0
				for i, input := range inputs {
					if _, apiErr := a.presets.Create(cmd.Context(), userID, input); apiErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipped entry %d (%q): %s\n", i+1, input.Name, apiErr.Message)
						continue
					}
					imported++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d presets\n", imported, len(inputs))
				return nil
			})
		},
	}
}

func newPresetsExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.yaml>",
		Short: "Export your presets to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}
				presets, apiErr := a.presets.List(cmd.Context(), userID)
				if apiErr != nil {
					return apiErr
				}
				if err := presetfile.Save(args[0], presets); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d presets to %s\n", len(presets), args[0])
				return nil
			})
		},
	}
}

func workLabel(preset model.Preset) string {
	if !preset.IsInterval() {
		return "manual"
	}
	return fmt.Sprintf("%ds", preset.WorkDuration())
}
