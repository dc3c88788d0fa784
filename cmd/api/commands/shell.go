package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// consoleMessenger prints replies to a terminal instead of calling Telegram
type consoleMessenger struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	dir      string
}

func (m *consoleMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	out, err := m.renderer.Render(text)
	if err != nil {
		out = text + "\n"
	}
	_, err = fmt.Fprint(m.out, out)
	return err
}

func (m *consoleMessenger) SendDocument(ctx context.Context, chatID int64, doc ports.Document) error {
	path := filepath.Join(m.dir, doc.FileName)
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err := fmt.Fprintf(m.out, "%s\nSaved %s\n", doc.Caption, path)
	return err
}

// NewShellCommand runs bot commands from the terminal against the configured store
func NewShellCommand() *cobra.Command {
	var (
		userID string
		dir    string
	)

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Talk to the bot from the terminal",
		Long:  "Read bot commands from stdin, one per line, and print the replies. Uses the configured store.",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, _, err := loadConfigAndLogger()
			if err != nil {
				log.Fatal(err)
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(80),
			)
			if err != nil {
				log.Fatalf("Failed to create renderer: %v", err)
			}

			messenger := &consoleMessenger{out: cmd.OutOrStdout(), renderer: renderer, dir: dir}
			a, err := newApp(cfg, messenger, ports.NopRecorder{}, logger.NewNop())
			if err != nil {
				log.Fatal(err)
			}
			defer a.Close()

			ctx := context.Background()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(cmd.OutOrStdout(), "> ")
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					return
				}
				if line != "" {
					msg := ports.Message{UserID: userID, Text: line}
					if err := a.bot.HandleAndReply(ctx, msg); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), "> ")
			}
		},
	}

	shellCmd.Flags().StringVar(&userID, "user", "local", "User id whose record the shell works on")
	shellCmd.Flags().StringVar(&dir, "export-dir", "", "Directory /export writes files to")

	return shellCmd
}
