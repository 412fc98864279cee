package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediacutlet/nomadachi/internal/config"
	"github.com/mediacutlet/nomadachi/internal/store"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import travel progress from an age plugin state file",
		Long: `Seeds the progression state from the travel fields of an age plugin
JSON file. Refuses to run when progression state already exists, so an
established ledger is never clobbered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			legacyPath := cfg.LegacyPath
			if from != "" {
				legacyPath = from
			}

			file := &store.File{Path: cfg.DataPath}
			if _, err := file.Load(); err == nil {
				return fmt.Errorf("state already exists at %s; refusing to overwrite", cfg.DataPath)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			st, err := store.MigrateAge(legacyPath)
			if err != nil {
				return err
			}
			if err := file.Save(st); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d XP and %d places from %s\n",
				st.TotalXP, len(st.SeenPlaces), legacyPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "legacy state file (defaults to config legacy_path)")

	return cmd
}
