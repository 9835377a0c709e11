package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/pipeline"
	"github.com/pixperk/spssprep/internal/ui"
	"github.com/pixperk/spssprep/internal/watcher"
)

var (
	watchFlags    runFlags
	watchDebounce int
)

var watchCmd = &cobra.Command{
	Use:   "watch [input]",
	Short: "Re-encode the input whenever it changes",
	Long: `Encodes the input once and then again every time the file is saved.
The config file is re-read before each run so column edits take effect
on the next save of the data.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		cfg, err := watchFlags.load(cmd, input)
		if err != nil {
			return err
		}
		if cfg.Input == "" {
			return fmt.Errorf("no input file: pass one as an argument or set input in the config")
		}

		debounce := cfg.DebounceInterval()
		if watchDebounce > 0 {
			debounce = time.Duration(watchDebounce) * time.Millisecond
		}

		log := logx.StyledLog
		ui.PrintBox("Watch",
			"Input:    "+cfg.Input+"\n"+
				"Debounce: "+debounce.String())

		run := func(ctx context.Context, _ string) error {
			current, err := watchFlags.load(cmd, input)
			if err != nil {
				return err
			}
			if current.Input == "" {
				current.Input = cfg.Input
			}
			report, err := pipeline.Run(ctx, current, nil)
			if err != nil {
				return err
			}
			log.Success(fmt.Sprintf("Encoded %s rows, %d columns labelled -> %s",
				humanize.Comma(int64(report.Rows)), report.EncodedColumns(), report.ScriptPath),
				logx.Path(report.ScriptPath))
			if n := report.Diagnostics.TotalMisses(); n > 0 {
				log.Warn(fmt.Sprintf("%s values had no code and were left blank", humanize.Comma(int64(n))))
			}
			return nil
		}

		w, err := watcher.New(cfg.Input, run,
			watcher.WithDebounce(debounce),
			watcher.WithRunOnStart(),
			watcher.WithOnError(func(err error) {
				log.Error("Encode failed", zap.Error(err))
			}),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Highlight("Watching " + cfg.Input + ", press Ctrl+C to stop")
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("Stopped watching")
		return nil
	},
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().IntVar(&watchDebounce, "debounce-ms", 0, "Quiet period before re-encoding (default: config or 500)")
	rootCmd.AddCommand(watchCmd)
}
