/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a vifgate configuration file",
	Long: `Create a configuration file with a generated API key for the JSON API.

The venue host, site name and credentials can be given now or edited in
the file later. An existing file is left alone unless --force is set.

Examples:
  vifgate init --host box-office.example --site BARKER
  vifgate init --config ./vifgate.yaml --auth-key K3Y --agent-no 12 --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		host, _ := cmd.Flags().GetString("host")
		site, _ := cmd.Flags().GetString("site")
		authKey, _ := cmd.Flags().GetString("auth-key")
		agentNo, _ := cmd.Flags().GetString("agent-no")
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := initConfig(configPath, config.Gateway{
			Host:     host,
			SiteName: site,
			AuthKey:  authKey,
			AgentNo:  agentNo,
		}, force)
		if err != nil {
			return err
		}

		cmd.Printf("✅ Configuration written to %s\n", configPath)
		cmd.Printf("API key: %s\n", cfg.Server.APIKey)
		if err := cfg.Validate(); err != nil {
			cmd.Printf("\nBefore serving, fill in:\n%v\n", err)
			return nil
		}
		cmd.Printf("\nStart the API with:\n  vifgate serve --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("host", "", "Venue host name or address")
	initCmd.Flags().String("site", "", "Site name sent in every request header")
	initCmd.Flags().String("auth-key", "", "Gateway authentication key")
	initCmd.Flags().String("agent-no", "", "Agent number appended to the auth key")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

// initConfig bootstraps a configuration at path with the given gateway
// identity.
func initConfig(path string, gw config.Gateway, force bool) (*config.Config, error) {
	if config.ConfigExists(path) && !force {
		return nil, fmt.Errorf("configuration already exists at %s; use --force to overwrite", path)
	}

	cfg, err := config.BootstrapConfig(path, gw.Host, gw.SiteName)
	if err != nil {
		return nil, err
	}
	if gw.AuthKey == "" && gw.AgentNo == "" {
		return cfg, nil
	}

	cfg.Gateway.AuthKey = gw.AuthKey
	cfg.Gateway.AgentNo = gw.AgentNo
	if err := config.SaveConfig(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
