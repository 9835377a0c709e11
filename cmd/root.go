package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/db"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/ui"
)

var (
	useInteractive bool
	verboseLogging bool
)

var rootCmd = &cobra.Command{
	Use:   "spssprep",
	Short: "spssprep recodes survey spreadsheets for SPSS",
	Long: `spssprep turns survey answers into integer codes, writes the recoded
spreadsheet and generates the SPSS syntax that loads it with
variable and value labels.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.Init(logx.Options{Verbose: verboseLogging})
	},
	Run: func(cmd *cobra.Command, args []string) {
		showLogo()
		_ = cmd.Help()
	},
}

func showLogo() {
	ui.PrintLogo()
	ui.PrintTitle("spssprep: survey data to SPSS syntax")
	ui.PrintSubtitle("Recode answers, keep the labels")
	fmt.Println()
}

func Execute() {
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h" || os.Args[1] == "help") {
		showLogo()
	}

	err := rootCmd.Execute()
	db.CloseAllPools()
	if err != nil {
		logx.StyledLog.Error("Command execution failed", zap.Error(err))
		logx.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&useInteractive, "interactive", "i", false, "Use interactive TUI mode")
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false, "Enable verbose logging (shows all operations)")
}

// loadConfig reads the config file. Without an explicit path a missing
// default file falls back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == "" && errors.Is(err, config.ErrNotFound) {
		logx.StyledLog.Debug("No config file, using defaults", zap.String("path", config.DefaultPath))
		return config.Default(), nil
	}
	return nil, err
}
