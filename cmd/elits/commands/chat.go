package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/memory"
	"github.com/elits-ai/elits/pkg/persona"
)

var (
	chatAgentID string
	chatModel   string
	chatSystem  string
	chatTrain   bool
)

const defaultChatPrompt = "You are the user's personal AI agent. Answer in their interest, concisely and warmly."

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Text chat with a persona",
	Long: `Chat with a persona over text. History is stored per agent and feeds
'elits extract'.

With --train the trainer persona runs instead, asking questions to learn
about you.

Type 'exit' or press Ctrl+D to leave.

Examples:
  elits chat --agent ada
  elits chat --agent ada --train`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAgentID, "agent", "default", "agent ID for conversation history")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "chat model override")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system prompt override")
	chatCmd.Flags().BoolVar(&chatTrain, "train", false, "use the trainer persona")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	key, err := cfg.RequireAPIKey()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := persona.NewService(ctx, key, persona.Options{ChatModel: chatModel})
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.History(ctx, chatAgentID)
	if err != nil {
		return err
	}
	msgs := make([]persona.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, persona.Message{Role: m.Role, Content: m.Content})
	}
	if len(msgs) > 0 {
		fmt.Printf("(%d messages of history loaded)\n", len(msgs))
	}

	system := chatSystem
	if system == "" {
		system = defaultChatPrompt
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			fmt.Println()
			return sc.Err()
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if text == "exit" {
			return nil
		}

		msgs = append(msgs, persona.Message{Role: "user", Content: text})

		var reply string
		if chatTrain {
			reply, err = svc.Train(ctx, msgs)
			if err != nil {
				return err
			}
			fmt.Println(reply)
		} else {
			var sb strings.Builder
			for delta, err := range svc.Chat(ctx, system, msgs) {
				if err != nil {
					return err
				}
				fmt.Print(delta)
				sb.WriteString(delta)
			}
			fmt.Println()
			reply = sb.String()
		}

		msgs = append(msgs, persona.Message{Role: "model", Content: reply})
		now := time.Now()
		if err := store.Append(ctx, chatAgentID,
			memory.Message{Role: "user", Content: text, At: now},
			memory.Message{Role: "model", Content: reply, At: now},
		); err != nil {
			return err
		}
	}
}
