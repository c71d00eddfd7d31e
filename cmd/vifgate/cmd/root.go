/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/config"
	"github.com/ssargent/vifgate/pkg/di"
	"github.com/ssargent/vifgate/pkg/observability"
)

// container is built by the root command unless a test set one
var container *di.Container

// SetContainer injects a prebuilt container.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vifgate",
	Short: "vifgate - VIF venue ticketing gateway",
	Long: `vifgate talks to a box-office host over the VIF protocol: a
bracket-delimited record format sent over a raw TCP socket.

It can query the host directly, decode captured VIF text, and serve the
venue operations as a JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil {
			return nil
		}
		configPath, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env-file")

		cfg, err := loadConfig(configPath, envFile)
		if err != nil {
			return err
		}
		logger, err := observability.SetupLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		container = di.NewContainer(cfg, logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if container != nil {
		_ = container.Logger().Sync()
		if cerr := container.Close(); cerr != nil {
			rootCmd.PrintErrf("Error: %v\n", cerr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file with VIFGATE_* overrides")
}

// loadConfig reads the config file when it exists, then applies the .env
// file and VIFGATE_* variables on top.
func loadConfig(configPath, envFile string) (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

