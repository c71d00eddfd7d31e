/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/config"
)

const (
	serviceName     = "vifgate.service"
	defaultUnitPath = "/etc/systemd/system/" + serviceName
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage vifgate as a systemd service",
	Long: `Install and manage vifgate as a systemd service running "vifgate serve".

Examples:
  sudo vifgate service install --config /etc/vifgate/config.yaml
  vifgate service unit --config /etc/vifgate/config.yaml
  sudo vifgate service logs -f`,
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install vifgate as a systemd service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return errors.New("service install requires root privileges; run with sudo")
		}
		unit, err := unitFromFlags(cmd)
		if err != nil {
			return err
		}
		startNow, _ := cmd.Flags().GetBool("start")

		cmd.Printf("🔧 Installing vifgate systemd service...\n")
		if err := os.WriteFile(defaultUnitPath, []byte(unit), 0600); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return err
		}
		if err := runSystemctlCommand("enable", serviceName); err != nil {
			return err
		}
		cmd.Printf("✅ Service enabled\n")

		if startNow {
			if err := runSystemctlCommand("start", serviceName); err != nil {
				return err
			}
			cmd.Printf("✅ Service started\n")
		} else {
			cmd.Printf("To start the service: sudo systemctl start %s\n", serviceName)
		}
		cmd.Printf("To view logs: sudo journalctl -u %s -f\n", serviceName)
		return nil
	},
}

// unitCmd represents the service unit command
var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Print the systemd unit file without installing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := unitFromFlags(cmd)
		if err != nil {
			return err
		}
		cmd.Print(unit)
		return nil
	},
}

// uninstallCmd represents the service uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the vifgate service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return errors.New("service uninstall requires root privileges; run with sudo")
		}

		_ = runSystemctlCommand("stop", serviceName) // may already be stopped
		if err := runSystemctlCommand("disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}
		if err := os.Remove(defaultUnitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return err
		}

		cmd.Printf("✅ vifgate service uninstalled\n")
		cmd.Printf("Note: configuration and journal files were not removed\n")
		return nil
	},
}

// logsCmd represents the service logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show vifgate service logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")

		journalArgs := []string{"-u", serviceName}
		if follow {
			journalArgs = append(journalArgs, "-f")
		}
		if lines > 0 {
			journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
		}
		return runCommand("journalctl", journalArgs...)
	},
}

func systemctlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystemctlCommand(action, serviceName)
		},
	}
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(unitCmd)
	serviceCmd.AddCommand(uninstallCmd)
	serviceCmd.AddCommand(logsCmd)
	serviceCmd.AddCommand(systemctlCmd("start", "Start the vifgate service"))
	serviceCmd.AddCommand(systemctlCmd("stop", "Stop the vifgate service"))
	serviceCmd.AddCommand(systemctlCmd("restart", "Restart the vifgate service"))
	serviceCmd.AddCommand(systemctlCmd("status", "Show vifgate service status"))

	for _, c := range []*cobra.Command{installServiceCmd, unitCmd} {
		c.Flags().String("user", "vifgate", "User to run the service as")
		c.Flags().String("binary", "/usr/local/bin/vifgate", "Path to the vifgate binary")
	}
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}

// unitParams fills the systemd unit template.
type unitParams struct {
	User       string
	Binary     string
	ConfigPath string
	// WritePaths are the directories the service may write to.
	WritePaths []string
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=vifgate venue gateway
After=network-online.target
Wants=network-online.target

[Service]
User={{.User}}
Group={{.User}}
ExecStart={{.Binary}} serve --config {{.ConfigPath}}
Restart=on-failure
NoNewPrivileges=true
UMask=0077
{{- range .WritePaths}}
ReadWritePaths={{.}}
{{- end}}

[Install]
WantedBy=multi-user.target
`))

func unitFromFlags(cmd *cobra.Command) (string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	user, _ := cmd.Flags().GetString("user")
	binary, _ := cmd.Flags().GetString("binary")

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("invalid config path: %w", err)
	}
	return renderUnit(container.Config(), absConfig, user, binary)
}

// renderUnit builds the unit file for cfg, granting write access to the
// config directory and, when enabled, the journal directory.
func renderUnit(cfg *config.Config, configPath, user, binary string) (string, error) {
	p := unitParams{
		User:       user,
		Binary:     binary,
		ConfigPath: configPath,
		WritePaths: []string{filepath.Dir(configPath)},
	}
	if cfg.Journal.Enabled {
		dir, err := filepath.Abs(cfg.Journal.Dir)
		if err != nil {
			return "", fmt.Errorf("invalid journal dir: %w", err)
		}
		p.WritePaths = append(p.WritePaths, dir)
	}

	var b strings.Builder
	if err := unitTemplate.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// runSystemctlCommand runs a systemctl command
func runSystemctlCommand(args ...string) error {
	return runCommand("systemctl", args...)
}

// runCommand runs a system command with its output attached to ours
func runCommand(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", command, strings.Join(args, " "), err)
	}
	return nil
}
