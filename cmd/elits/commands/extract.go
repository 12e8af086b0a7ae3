package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/cli"
	"github.com/elits-ai/elits/pkg/persona"
)

var (
	extractAgentID string
	extractFormat  string
	extractFile    string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract personality insights from a chat history",
	Long: `Distill stored conversations into a structured personality profile:
skills, interests, values, communication style, and a short bio.

Examples:
  elits extract --agent ada
  elits extract --agent ada --format json -o profile.json`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractAgentID, "agent", "default", "agent ID to analyze")
	extractCmd.Flags().StringVar(&extractFormat, "format", "yaml", "output format (yaml, json)")
	extractCmd.Flags().StringVarP(&extractFile, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	key, err := cfg.RequireAPIKey()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.History(ctx, extractAgentID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no conversation history for agent %q; run 'elits chat' or 'elits call' first", extractAgentID)
	}

	msgs := make([]persona.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, persona.Message{Role: m.Role, Content: m.Content})
	}

	svc, err := persona.NewService(ctx, key, persona.Options{})
	if err != nil {
		return err
	}
	insights, err := svc.ExtractInsights(ctx, msgs)
	if err != nil {
		return err
	}

	return cli.Output(insights, cli.OutputOptions{
		Format: cli.OutputFormat(extractFormat),
		File:   extractFile,
	})
}
