package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pixperk/spssprep/internal/config"
)

// runFlags are the config overrides shared by encode, watch and publish
type runFlags struct {
	configPath  string
	output      string
	script      string
	sheet       string
	outputSheet string
	includeSave bool
	savePath    string
	noSanitize  bool
	nameStyle   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to YAML config file (default: .spssprep.yaml)")
	cmd.Flags().StringVar(&f.output, "output", "", "Recoded data file (default: <input>_encoded.xlsx)")
	cmd.Flags().StringVar(&f.script, "script", "", "SPSS syntax file (default: beside the data file)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read (default: first sheet)")
	cmd.Flags().StringVar(&f.outputSheet, "output-sheet", "", "Worksheet name for the recoded data (default: Sheet1)")
	cmd.Flags().BoolVar(&f.includeSave, "include-save", false, "Append a SAVE OUTFILE command to the syntax")
	cmd.Flags().StringVar(&f.savePath, "save-path", "", "Target of SAVE OUTFILE (default: data file with .sav)")
	cmd.Flags().BoolVar(&f.noSanitize, "no-sanitize", false, "Keep original headers as variable names")
	cmd.Flags().StringVar(&f.nameStyle, "name-style", "", "Variable name style: unicode or ascii")
}

// apply overrides cfg with the flags the user set, then revalidates
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.script != "" {
		cfg.Script = f.script
		cfg.PlaceScriptBesideData = false
	}
	if f.sheet != "" {
		cfg.InputSheet = f.sheet
	}
	if f.outputSheet != "" {
		cfg.OutputSheet = f.outputSheet
	}
	if cmd.Flags().Changed("include-save") {
		cfg.IncludeSave = f.includeSave
	}
	if f.savePath != "" {
		cfg.SavePath = f.savePath
	}
	if cmd.Flags().Changed("no-sanitize") {
		sanitize := !f.noSanitize
		cfg.SanitizeNames = &sanitize
	}
	if f.nameStyle != "" {
		cfg.NameStyle = f.nameStyle
	}
	return cfg.Validate()
}

// load reads the config and applies the flags and the optional input argument
func (f *runFlags) load(cmd *cobra.Command, input string) (*config.Config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if input != "" {
		cfg.Input = input
	}
	if err := f.apply(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
