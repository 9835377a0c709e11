package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/naming"
	"github.com/pixperk/spssprep/internal/pipeline"
	"github.com/pixperk/spssprep/internal/ui"
	"github.com/pixperk/spssprep/internal/warehouse"
)

var (
	publishFlags   runFlags
	publishURL     string
	publishTable   string
	publishBatch   int
	publishReplace bool
)

var publishCmd = &cobra.Command{
	Use:   "publish [input]",
	Short: "Encode the input and load it with its codebook into a SQL warehouse",
	Long: `Runs the same pass as encode, then creates <table> with the recoded
data and <table>_labels with one row per value label. Supported URLs:
postgres://, clickhouse:// (or tcp://) and sqlite://.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		cfg, err := publishFlags.load(cmd, input)
		if err != nil {
			return err
		}
		if cfg.Input == "" {
			return fmt.Errorf("no input file: pass one as an argument or set input in the config")
		}

		url := cfg.Warehouse.URL
		if publishURL != "" {
			url = publishURL
		}
		if url == "" {
			return fmt.Errorf("no warehouse url: use --url or set warehouse.url in the config")
		}
		tableName := cfg.Warehouse.Table
		if publishTable != "" {
			tableName = publishTable
		}
		if tableName == "" {
			tableName = tableNameFor(cfg.Input)
		}
		batch := cfg.Warehouse.BatchSize
		if publishBatch > 0 {
			batch = publishBatch
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logx.StyledLog
		ui.PrintTitle("Publishing " + filepath.Base(cfg.Input))

		report, err := pipeline.Run(ctx, cfg, encodeOptions())
		if err != nil {
			return err
		}
		log.Success(fmt.Sprintf("Encoded %s rows", humanize.Comma(int64(report.Rows))), logx.Rows(report.Rows))

		sink, err := warehouse.Open(ctx, url)
		if err != nil {
			return err
		}
		defer sink.Close()

		ds := warehouse.Dataset{Table: report.Table, Mappings: report.Mappings, Originals: report.Originals}
		res, err := warehouse.Publish(ctx, sink, ds, warehouse.Options{
			Table:     tableName,
			BatchSize: batch,
			Replace:   publishReplace,
			OnBatch: func(table string, written, total int) {
				log.Debug("Batch written", zap.String("table", table), zap.Int("written", written), zap.Int("total", total))
			},
		})
		if err != nil {
			return err
		}

		ui.PrintBox("Publish Complete",
			"Dialect: "+string(sink.Dialect())+"\n"+
				fmt.Sprintf("Data:    %s (%s rows)\n", res.Table, humanize.Comma(int64(res.Rows)))+
				fmt.Sprintf("Labels:  %s (%s rows)", res.LabelsTable, humanize.Comma(int64(res.Labels))))
		return nil
	},
}

// tableNameFor derives a table name from the input file name
func tableNameFor(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return strings.ToLower(naming.SanitizeASCII(base, 63))
}

func init() {
	publishFlags.register(publishCmd)
	publishCmd.Flags().StringVar(&publishURL, "url", "", "Warehouse URL (default: warehouse.url from config)")
	publishCmd.Flags().StringVar(&publishTable, "table", "", "Target table (default: derived from the input name)")
	publishCmd.Flags().IntVar(&publishBatch, "batch-size", 0, "Rows per insert (default: 500)")
	publishCmd.Flags().BoolVar(&publishReplace, "replace", false, "Drop existing tables instead of appending")
	rootCmd.AddCommand(publishCmd)
}
