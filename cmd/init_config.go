package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/fileutil"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/table"
	"github.com/pixperk/spssprep/internal/ui"
)

var (
	initInput string
	initSheet string
	initPath  string
	initForce bool
)

var initConfigCmd = &cobra.Command{
	Use:     "init-config",
	Aliases: []string{"sample-config"},
	Short:   "Generate a config file (.spssprep.yaml)",
	Long: `Writes a config file. With --input the columns of the spreadsheet are
detected and every column gets an entry with its suggested kind and
value order; without it an annotated sample is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintTitle("Configuration Generator")
		log := logx.StyledLog

		path := initPath
		if path == "" {
			path = config.DefaultPath
		}
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}

		if initInput == "" {
			ui.PrintSubtitle("Creating a sample configuration file")
			if err := fileutil.WriteFileAtomic(path, []byte(config.Sample), 0o644); err != nil {
				return err
			}
			log.Success("Sample config written to " + path)
			ui.PrintBox("Next Steps",
				"1. Set input to your spreadsheet\n"+
					"2. List value orders for your ordinal columns\n"+
					"3. Run 'spssprep encode' to recode and generate syntax")
			return nil
		}

		ui.PrintSubtitle("Detecting columns of " + initInput)
		cfg, err := detectedConfig(initInput, initSheet)
		if err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			log.Error("Failed to write "+path, zap.Error(err))
			return err
		}

		log.Success(fmt.Sprintf("Config with %d columns written to %s", len(cfg.Columns), path))
		ui.PrintBox("Next Steps",
			"1. Check the kind and value order of each column\n"+
				"   (or run 'spssprep configure')\n"+
				"2. Run 'spssprep encode' to recode and generate syntax")
		return nil
	},
}

// detectedConfig builds a config for input with one entry per detected
// column, prefilled with the suggested kind and the observed value order
func detectedConfig(input, sheet string) (*config.Config, error) {
	t, err := table.Read(input, table.ReadOptions{Sheet: sheet})
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	cfg.Input = input
	cfg.InputSheet = sheet
	for _, m := range detect.DetectOrdered(t) {
		c, err := cfg.EffectiveColumn(m)
		if err != nil {
			return nil, err
		}
		cfg.SetColumn(c.Entry())
	}
	return cfg, nil
}

func init() {
	initConfigCmd.Flags().StringVar(&initInput, "input", "", "Spreadsheet to detect columns from")
	initConfigCmd.Flags().StringVar(&initSheet, "sheet", "", "Worksheet to read (default: first sheet)")
	initConfigCmd.Flags().StringVar(&initPath, "path", "", "Where to write the config (default: .spssprep.yaml)")
	initConfigCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}
