/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Start the vifgate JSON API in front of the configured venue host.

Every venue exchange is recorded in the journal when it is enabled. The
catalog cache and booking events are used when configured.

Examples:
  vifgate serve
  vifgate serve --config ./vifgate.yaml --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		generated, err := resolveAPIKey(cfg)
		if err != nil {
			return err
		}
		if generated {
			cmd.Printf("Generated API key for this run: %s\n", cfg.Server.APIKey)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		deps, err := container.ServerDependencies(ctx)
		if err != nil {
			return err
		}

		container.Logger().Info("venue gateway configured",
			zap.String("host", cfg.Gateway.Host),
			zap.Int("port", cfg.Gateway.Port),
			zap.String("site", cfg.Gateway.SiteName),
			zap.Bool("journal", deps.Journal != nil),
			zap.Bool("cache", deps.Cache != nil),
			zap.Bool("events", deps.Publisher != nil))

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, deps, container.ServerConfig())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind the API server to")
	serveCmd.Flags().IntP("port", "p", 8080, "Port for the API server")
}

// resolveAPIKey replaces an empty or "auto" API key with a generated one.
func resolveAPIKey(cfg *config.Config) (bool, error) {
	if cfg.Server.APIKey != "" && cfg.Server.APIKey != config.AutoAPIKey {
		return false, nil
	}
	key, err := config.GenerateSecureKey(32)
	if err != nil {
		return false, err
	}
	cfg.Server.APIKey = key
	return true, nil
}
