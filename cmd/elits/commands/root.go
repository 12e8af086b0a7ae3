package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global configuration (loaded lazily via GetConfig)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "elits",
	Short: "Create and talk to your AI agent",
	Long: `elits - train, chat with, and register a personal AI agent.

Commands:
  call     Realtime voice training call (microphone and speaker)
  chat     Text chat with a persona, with per-agent history
  extract  Distill personality insights from stored conversations
  avatar   Generate a stylized agent portrait from a photo
  agent    On-chain agent registry operations
  history  Inspect or clear stored conversations

Configuration lives in the OS config directory:
  macOS:   ~/Library/Application Support/elits/config.yaml
  Linux:   ~/.config/elits/config.yaml
  Windows: %AppData%/elits/config.yaml

The API key can also come from the GEMINI_API_KEY environment variable.

Examples:
  # Start a voice training call
  GEMINI_API_KEY=... elits call

  # Chat and then extract a personality profile
  elits chat --agent ada
  elits extract --agent ada -o profile.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: OS config dir)")
}

// GetConfig loads the configuration once and caches it.
func GetConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	globalConfig = cfg
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
