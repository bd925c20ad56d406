package main

import (
	"deedles.dev/kms/internal/config"
	"deedles.dev/kms/internal/logger"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Version is set during build.
var Version = "0.1.0-dev"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "kmscomp",
		Short: "A Wayland compositor for bare DRM/KMS",
		Long: `kmscomp runs a Wayland compositor directly on a DRM device, without
a display server underneath. It also has commands for inspecting the
device and controlling a running compositor.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/kmscomp/kmscomp.toml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(outputsCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(globalsCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	err := config.Init()
	if err != nil {
		return err
	}

	if level := config.Get().Logging.Level; level != "" {
		logger.SetLevel(level)
	}
	return nil
}
