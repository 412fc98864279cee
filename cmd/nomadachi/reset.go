package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediacutlet/nomadachi/internal/config"
	"github.com/mediacutlet/nomadachi/internal/store"
)

// NewResetCommand creates the reset command
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the progression state file",
		Long: `Deletes the state file so progression starts over. The discovery
journal is left alone. This cannot be undone; --yes is required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to delete progression without --yes")
			}

			file := &store.File{Path: cfg.DataPath}
			if err := file.Remove(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cfg.DataPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}
