package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/api"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/ui"
)

var (
	servePort       string
	serveConfigPath string
	serveWorkDir    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server for web-based encoding",
	Long:  `Starts a REST API server with WebSocket support for real-time encoding progress`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintTitle("spssprep API Server")
		ui.PrintSubtitle("REST API with WebSocket support for real-time monitoring")

		log := logx.StyledLog

		cfg, err := loadConfig(serveConfigPath)
		if err != nil {
			return err
		}

		server, err := api.NewServer(cfg, log.GetZapLogger(), serveWorkDir)
		if err != nil {
			return err
		}

		workDir := serveWorkDir
		if workDir == "" {
			workDir = "(temporary)"
		}
		ui.PrintBox("Configuration",
			"Server Port: "+servePort+"\n"+
				"Work Dir:    "+workDir)

		log.Highlight("Starting API server on http://localhost:" + servePort)
		log.Info("Endpoints available:")
		log.Info("  GET  /health                   - Health check")
		log.Info("  POST /api/v1/detect            - Profile an uploaded spreadsheet")
		log.Info("  POST /api/v1/jobs              - Start an encoding job")
		log.Info("  GET  /api/v1/jobs              - List all jobs")
		log.Info("  GET  /api/v1/jobs/{id}         - Get job status")
		log.Info("  GET  /api/v1/jobs/{id}/syntax  - Download the .sps")
		log.Info("  GET  /api/v1/jobs/{id}/data    - Download the recoded data")
		log.Info("  WS   /ws                       - WebSocket for real-time updates")
		log.Highlight("Press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.Start(ctx, ":"+servePort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			return err
		}
		log.Info("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to run the API server on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to YAML config file used as the base for jobs")
	serveCmd.Flags().StringVar(&serveWorkDir, "work-dir", "", "Directory for uploads and results (default: a temporary directory)")
	rootCmd.AddCommand(serveCmd)
}
