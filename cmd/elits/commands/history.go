package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/cli"
)

var (
	historyAgentID string
	historyFormat  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear stored conversations",
	Long: `Inspect the stored chat history and call transcripts of an agent.

Examples:
  elits history chat --agent ada
  elits history calls --agent ada --format json
  elits history clear --agent ada`,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyAgentID, "agent", "default", "agent ID")
	historyCmd.PersistentFlags().StringVar(&historyFormat, "format", "yaml", "output format (yaml, json)")

	chatHistCmd := &cobra.Command{
		Use:   "chat",
		Short: "Show the chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := GetConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			msgs, err := store.History(cmd.Context(), historyAgentID)
			if err != nil {
				return err
			}
			return cli.Output(msgs, cli.OutputOptions{Format: cli.OutputFormat(historyFormat)})
		},
	}

	callsCmd := &cobra.Command{
		Use:   "calls",
		Short: "Show stored call transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := GetConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.Calls(cmd.Context(), historyAgentID)
			if err != nil {
				return err
			}
			return cli.Output(recs, cli.OutputOptions{Format: cli.OutputFormat(historyFormat)})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := GetConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context(), historyAgentID); err != nil {
				return err
			}
			fmt.Printf("cleared chat history for agent %q\n", historyAgentID)
			return nil
		},
	}

	historyCmd.AddCommand(chatHistCmd, callsCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}
