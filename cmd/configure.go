package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/table"
	"github.com/pixperk/spssprep/internal/ui"
)

var (
	configureConfigPath string
	configureSheet      string
)

var configureCmd = &cobra.Command{
	Use:   "configure [input]",
	Short: "Edit column kinds and value orders in a terminal UI",
	Long: `Opens an interactive editor listing every column of the input. Values can
be reordered, and kind, direction and start value changed per column.
Saving writes the settings to the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configureConfigPath
		if path == "" {
			path = config.DefaultPath
		}
		cfg, err := loadConfig(configureConfigPath)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Input = args[0]
		}
		if configureSheet != "" {
			cfg.InputSheet = configureSheet
		}
		if cfg.Input == "" {
			return fmt.Errorf("no input file: pass one as an argument or set input in the config")
		}

		states, err := columnStates(cfg)
		if err != nil {
			return err
		}

		save := func(columns []config.ResolvedColumnConfig) error {
			for _, c := range columns {
				cfg.SetColumn(c.Entry())
			}
			return cfg.Save(path)
		}

		p := tea.NewProgram(ui.NewConfigureModel(states, save), tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("configure view: %w", err)
		}

		m, ok := final.(ui.ConfigureModel)
		if !ok {
			return nil
		}
		if m.Err() != nil {
			return m.Err()
		}
		if m.Saved() {
			logx.StyledLog.Success("Column settings saved to " + path)
		} else {
			logx.StyledLog.Info("Quit without saving")
		}
		return nil
	},
}

// columnStates pairs each detected column with its effective settings.
// Answers missing from a configured order are listed after it so they can
// be placed in the editor.
func columnStates(cfg *config.Config) ([]ui.ColumnState, error) {
	t, err := table.Read(cfg.Input, table.ReadOptions{Sheet: cfg.InputSheet})
	if err != nil {
		return nil, err
	}

	meta := detect.DetectOrdered(t)
	states := make([]ui.ColumnState, len(meta))
	for i, m := range meta {
		c, err := cfg.EffectiveColumn(m)
		if err != nil {
			return nil, err
		}
		c.Order = config.MergeOrder(c.Order, m.Values)
		states[i] = ui.ColumnState{Meta: m, Config: c}
	}
	return states, nil
}

func init() {
	configureCmd.Flags().StringVar(&configureConfigPath, "config", "", "Path to YAML config file (default: .spssprep.yaml)")
	configureCmd.Flags().StringVar(&configureSheet, "sheet", "", "Worksheet to read (default: first sheet)")
	rootCmd.AddCommand(configureCmd)
}
