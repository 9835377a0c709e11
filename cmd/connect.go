package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/warehouse"
)

var (
	connectConfigPath string
	connectTimeout    time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect [url...]",
	Short: "Test warehouse connections",
	Long: "Opens and pings each warehouse URL. Without arguments the warehouse.url of the config is tested.\n" +
		"Supported schemes: " + strings.Join(warehouse.Schemes(), ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if len(urls) == 0 {
			cfg, err := loadConfig(connectConfigPath)
			if err != nil {
				return err
			}
			if cfg.Warehouse.URL == "" {
				return fmt.Errorf("no url given and warehouse.url is not set in the config")
			}
			urls = []string{cfg.Warehouse.URL}
		}

		log := logx.StyledLog
		failed := 0
		for _, url := range urls {
			log.Info("Testing " + redactURL(url) + "...")
			if err := ping(cmd.Context(), url); err != nil {
				failed++
				log.Error("Connection failed: "+redactURL(url), zap.Error(err))
				continue
			}
			log.Success("Connected: " + redactURL(url))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d connections failed", failed, len(urls))
		}
		return nil
	},
}

func ping(ctx context.Context, url string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	sink, err := warehouse.Open(ctx, url)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Ping(ctx)
}

// redactURL hides the password of user:password@host URLs
func redactURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return url
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":***" + rest[at:]
}

func init() {
	connectCmd.Flags().StringVar(&connectConfigPath, "config", "", "Path to YAML config file (default: .spssprep.yaml)")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 10*time.Second, "Connection timeout")
	rootCmd.AddCommand(connectCmd)
}
