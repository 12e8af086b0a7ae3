package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/cli"
	"github.com/elits-ai/elits/pkg/live"
	"github.com/elits-ai/elits/pkg/memory"
	"github.com/elits-ai/elits/pkg/trainer"
)

var (
	callAgentID string
	callVoice   string
	callNoSave  bool
	callWidth   int
	callHeight  int
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Start a voice training call",
	Long: `Start a realtime voice call with the agent trainer.

The trainer interviews you over your microphone and speaker. The finalized
transcript is stored under the agent ID and feeds 'elits extract'.

Controls during the call:
  m + Enter   toggle microphone mute
  q + Enter   hang up

Examples:
  elits call
  elits call --agent ada --voice Puck`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callAgentID, "agent", "default", "agent ID the transcript is stored under")
	callCmd.Flags().StringVar(&callVoice, "voice", "", "prebuilt voice name (default from config)")
	callCmd.Flags().BoolVar(&callNoSave, "no-save", false, "do not persist the call transcript")
	callCmd.Flags().IntVar(&callWidth, "width", 80, "UI width in columns")
	callCmd.Flags().IntVar(&callHeight, "height", 24, "UI height in rows")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	key, err := cfg.RequireAPIKey()
	if err != nil {
		return err
	}

	var store memory.Store
	if !callNoSave {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	voice := callVoice
	if voice == "" {
		voice = cfg.Voice
	}
	t := trainer.New(trainer.Options{
		APIKey:        key,
		Voice:         voice,
		ClientOptions: liveOptions(cfg),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := readInput(ctx)

	if err := t.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	startedAt := time.Now()
	defer t.Disconnect()

	styles := cli.NewStyles(cli.DefaultTheme)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-input:
			if !ok {
				break loop
			}
			switch line {
			case "m":
				t.ToggleMute()
			case "q":
				break loop
			}
		case <-ticker.C:
			fmt.Print("\033[H\033[2J" + renderCallFrame(t, styles))
		}
	}

	elapsed := t.Elapsed()
	lines := t.Transcript()
	t.Disconnect()
	fmt.Printf("\033[H\033[2Jcall ended after %s, %d transcript lines\n", cli.FormatClock(elapsed), len(lines))

	if store == nil || len(lines) == 0 {
		return nil
	}
	return saveCall(store, callAgentID, startedAt, elapsed, lines)
}

// readInput feeds stdin lines to the UI loop until the context ends.
func readInput(ctx context.Context) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case ch <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func renderCallFrame(t *trainer.Trainer, styles cli.Styles) string {
	badge := ""
	switch {
	case t.AssistantSpeaking():
		badge = "● elit speaking"
	case t.UserSpeaking():
		badge = "● you"
	}

	mic := "mic  " + cli.FormatMeter(t.Level(), 20)
	if t.Muted() {
		mic = "mic  [muted]"
	}
	status := fmt.Sprintf("%s %s", t.State(), cli.FormatClock(t.Elapsed()))

	frame := cli.Frame{
		Styles: styles,
		Title:  "ELITS // TRAINING CALL",
		Status: status,
		Badge:  badge,
		Sections: []cli.Section{
			{Label: " Mic ", Content: func() []string { return []string{mic} }},
			{Label: " Transcript ", Content: func() []string { return transcriptLines(t.Transcript()) }},
		},
		Help: "m=mute  q=hang up",
	}
	return frame.Render(callWidth, callHeight)
}

func transcriptLines(lines []trainer.Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		speaker := "you"
		if l.Direction == live.DirectionModel {
			speaker = "elit"
		}
		out = append(out, fmt.Sprintf("%s: %s", speaker, l.Text))
	}
	return out
}

// saveCall persists the finished call both as a call record and as chat
// history so 'elits extract' can use it.
func saveCall(store memory.Store, agentID string, startedAt time.Time, elapsed time.Duration, lines []trainer.Line) error {
	ctx := context.Background()

	rec := memory.CallRecord{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Duration:  elapsed,
	}
	msgs := make([]memory.Message, 0, len(lines))
	for _, l := range lines {
		role := "user"
		if l.Direction == live.DirectionModel {
			role = "model"
		}
		rec.Lines = append(rec.Lines, memory.CallLine{Speaker: role, Text: l.Text, At: l.At})
		msgs = append(msgs, memory.Message{Role: role, Content: l.Text, At: l.At})
	}

	if err := store.SaveCall(ctx, agentID, rec); err != nil {
		return fmt.Errorf("save call: %w", err)
	}
	if err := store.Append(ctx, agentID, msgs...); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
