package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediacutlet/nomadachi/internal/config"
	"github.com/mediacutlet/nomadachi/internal/render"
	"github.com/mediacutlet/nomadachi/internal/store"
	"github.com/mediacutlet/nomadachi/internal/title"
)

// statusOutput is the --json shape of the status command
type statusOutput struct {
	Title     string `json:"title"`
	Level     int    `json:"level"`
	TotalXP   int    `json:"total_xp"`
	NextLevel int    `json:"next_level_xp,omitempty"`
	ESSIDs    int    `json:"essids"`
	BSSIDs    int    `json:"bssids"`
	OUIs      int    `json:"ouis"`
	Bands     int    `json:"bands"`
	Places    int    `json:"places"`
	LastPlace string `json:"last_place,omitempty"`
	Migrated  bool   `json:"migrated_from_age"`
}

// NewStatusCommand creates the status command
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print progression from the state file",
		Long:  "Reads the state file directly; the daemon does not need to be running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			file := &store.File{Path: cfg.DataPath}
			st, err := file.Load()
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no progression recorded yet")
				return nil
			}
			if err != nil {
				return err
			}

			book := title.DefaultBook()
			if len(cfg.Titles) > 0 {
				book = title.NewBook(cfg.Titles)
			}
			_, next, atMax := book.Bounds(st.TotalXP)

			out := statusOutput{
				Title:     book.ForXP(st.TotalXP),
				Level:     book.Level(st.TotalXP),
				TotalXP:   st.TotalXP,
				ESSIDs:    len(st.SeenESSIDs),
				BSSIDs:    len(st.SeenBSSIDs),
				OUIs:      len(st.SeenOUIs),
				Bands:     len(st.SeenBands),
				Places:    len(st.SeenPlaces),
				LastPlace: st.LastPlace,
				Migrated:  st.Migrated,
			}
			if !atMax {
				out.NextLevel = next
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			line := render.Prefix + render.Line(cfg.Format, render.Status{
				Title:  out.Title,
				Level:  out.Level,
				Places: out.Places,
			})
			bar := render.Bar(st.TotalXP, book, cfg.UI.ProgressCells, cfg.FillRune())

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, line)
			fmt.Fprintf(w, "%s  %d XP", bar, out.TotalXP)
			if !atMax {
				fmt.Fprintf(w, " (next title at %d)", next)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "essids %d  bssids %d  ouis %d  bands %d  places %d\n",
				out.ESSIDs, out.BSSIDs, out.OUIs, out.Bands, out.Places)
			if out.LastPlace != "" {
				fmt.Fprintf(w, "last place %s\n", out.LastPlace)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")

	return cmd
}
