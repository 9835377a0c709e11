package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/pipeline"
	"github.com/pixperk/spssprep/internal/ui"
)

var encodeFlags runFlags

var encodeCmd = &cobra.Command{
	Use:   "encode [input...]",
	Short: "Recode a spreadsheet and generate its SPSS syntax",
	Long: `Reads the input spreadsheet, recodes ordinal and nominal columns into
integer codes, writes the recoded data and a .sps script with
VARIABLE LABELS and VALUE LABELS.

With several inputs each file is encoded in parallel using the same
column settings; outputs are written beside each input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if len(args) > 1 {
			cfg, err := encodeFlags.load(cmd, "")
			if err != nil {
				return err
			}
			return encodeMany(ctx, cfg, args)
		}

		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		cfg, err := encodeFlags.load(cmd, input)
		if err != nil {
			return err
		}
		if cfg.Input == "" {
			return fmt.Errorf("no input file: pass one as an argument or set input in the config")
		}

		ui.PrintTitle("Encoding " + filepath.Base(cfg.Input))

		var report *pipeline.Report
		if useInteractive {
			report, err = encodeWithProgress(ctx, cfg)
		} else {
			report, err = pipeline.Run(ctx, cfg, encodeOptions())
		}
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}

// encodeOptions logs progress through the styled logger
func encodeOptions() *pipeline.Options {
	log := logx.StyledLog
	return &pipeline.Options{
		OnStage: func(stage pipeline.Stage, done, total int) {
			log.Debug("Stage", zap.String("stage", string(stage)), zap.Int("step", done+1), zap.Int("of", total))
		},
		OnColumn: func(_ detect.Metadata, c config.ResolvedColumnConfig, identifier string) {
			log.Debug("Column configured",
				logx.Column(c.Name),
				zap.String("identifier", identifier),
				zap.String("kind", string(c.Kind)),
				zap.Int("values", len(c.Order)),
			)
		},
	}
}

// encodeWithProgress runs the pipeline behind a bubbletea progress bar
func encodeWithProgress(ctx context.Context, cfg *config.Config) (*pipeline.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewProgressModel("Encoding "+filepath.Base(cfg.Input), len(pipeline.Stages)))

	var (
		report *pipeline.Report
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = pipeline.Run(ctx, cfg, &pipeline.Options{
			OnStage: func(stage pipeline.Stage, step, total int) {
				p.Send(ui.StageMsg{Stage: string(stage), Done: step, Total: total})
			},
		})
		summary := ""
		if runErr == nil {
			summary = fmt.Sprintf("%s rows, %d columns encoded", humanize.Comma(int64(report.Rows)), report.EncodedColumns())
		}
		p.Send(ui.FinishedMsg{Err: runErr, Summary: summary})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if m, ok := final.(ui.ProgressModel); ok && !m.Finished() {
		cancel()
	}
	<-done
	return report, runErr
}

func printReport(r *pipeline.Report) {
	log := logx.StyledLog

	lines := []string{
		"Input:   " + r.Input,
		"Data:    " + r.OutputPath,
		"Syntax:  " + r.ScriptPath,
	}
	if r.SavePath != "" {
		lines = append(lines, "Save:    "+r.SavePath)
	}
	lines = append(lines,
		fmt.Sprintf("Rows:    %s", humanize.Comma(int64(r.Rows))),
		fmt.Sprintf("Encoded: %d of %d columns", r.EncodedColumns(), len(r.Identifiers)),
		"Took:    "+r.Duration.Round(time.Millisecond).String(),
	)
	ui.PrintBox("Encoding Complete", strings.Join(lines, "\n"))

	rows := make([][]string, 0, len(r.Columns))
	for i, c := range r.Columns {
		codes := ""
		if m, ok := r.Mappings[r.Identifiers[i]]; ok {
			codes = codeRange(m)
		}
		rows = append(rows, []string{
			ui.Truncate(c.Name, 30),
			r.Identifiers[i],
			ui.KindBadge(string(c.Kind)),
			codes,
		})
	}
	ui.DisplayTable([]string{"Column", "Variable", "Kind", "Codes"}, rows)

	for _, id := range r.Identifiers {
		miss, ok := r.Diagnostics.Misses[id]
		if !ok {
			continue
		}
		log.Warn(fmt.Sprintf("%s: %s values had no code and were left blank (%s)",
			id, humanize.Comma(int64(miss.Count)), ui.Truncate(strings.Join(miss.Values, ", "), 60)),
			zap.String("identifier", id), zap.Int("count", miss.Count))
	}
	for _, name := range r.Diagnostics.Stale {
		log.Warn("Configured column not found in input: "+name, logx.Column(name))
	}
}

// codeRange renders the code span of a mapping, e.g. "1-5 (5 labels)"
func codeRange(m encoding.Mapping) string {
	pairs := m.Pairs()
	if len(pairs) == 0 {
		return ""
	}
	lo, hi := pairs[0].Code, pairs[len(pairs)-1].Code
	return fmt.Sprintf("%d-%d (%d labels)", lo, hi, len(pairs))
}

func encodeMany(ctx context.Context, cfg *config.Config, inputs []string) error {
	ui.PrintTitle(fmt.Sprintf("Encoding %d files", len(inputs)))

	results := pipeline.RunMany(ctx, cfg, inputs, nil)

	failed := 0
	rows := make([][]string, len(results))
	for i, res := range results {
		if res.Error != nil {
			failed++
			rows[i] = []string{res.Input, "", "", ui.ErrorStyle.Render(ui.Truncate(res.Error.Error(), 60))}
			logx.StyledLog.Debug("Encode failed", logx.Path(res.Input), zap.Error(res.Error))
			continue
		}
		rows[i] = []string{
			res.Input,
			humanize.Comma(int64(res.Report.Rows)),
			fmt.Sprintf("%d", res.Report.EncodedColumns()),
			res.Report.ScriptPath,
		}
	}
	ui.DisplayTable([]string{"Input", "Rows", "Encoded", "Syntax"}, rows)

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	logx.StyledLog.Success(fmt.Sprintf("Encoded %d files", len(inputs)))
	return nil
}

func init() {
	encodeFlags.register(encodeCmd)
	rootCmd.AddCommand(encodeCmd)
}
