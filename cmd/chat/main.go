package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/carechat/internal/client"
	"github.com/zhouzirui/carechat/internal/config"
	"github.com/zhouzirui/carechat/internal/controller"
	"github.com/zhouzirui/carechat/internal/logging"
	"github.com/zhouzirui/carechat/internal/view"
)

const (
	prompt             = "> "
	continuationPrompt = "... "
)

var rootCmd = &cobra.Command{
	Use:   "carechat",
	Short: "Terminal client for the AI health assistant",
	Long: `Chat with the AI health assistant from a terminal.

Enter sends the current message. End a line with a backslash to continue
the message on the next line.`,
	RunE:         runChat,
	SilenceUsage: true,
}

var (
	flagBaseURL      string
	flagToken        string
	flagAllowOverlap bool
	flagTimeout      time.Duration
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagBaseURL, "base-url", "", "chatbot backend base URL (env CHAT_BASE_URL)")
	flags.StringVar(&flagToken, "token", "", "anti-forgery token to send instead of the cookie/page token (env CSRF_TOKEN)")
	flags.BoolVar(&flagAllowOverlap, "allow-overlap", false, "allow a new message while a reply is pending (env CHAT_ALLOW_OVERLAP)")
	flags.DurationVar(&flagTimeout, "timeout", 0, "per-request timeout, 0 for none (env CHAT_TIMEOUT in seconds)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute chat command")
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Log)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("[chat] no .env file loaded")
	}

	clientCfg := applyFlags(cmd, cfg.Client)
	c, err := client.New(client.Options{
		BaseURL:     clientCfg.BaseURL,
		SendPath:    clientCfg.SendPath,
		PagePath:    clientCfg.PagePath,
		CookieName:  clientCfg.CookieName,
		FieldName:   clientCfg.FieldName,
		StaticToken: clientCfg.Token,
		Timeout:     clientCfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create chat client: %w", err)
	}

	out := cmd.OutOrStdout()
	term := view.NewTerminal(out, prompt)
	var opts []controller.Option
	if clientCfg.AllowOverlap {
		opts = append(opts, controller.WithOverlappingSends())
	}
	ctrl := controller.New(term, c, opts...)

	stopWatch := watchForeground(ctx, func() { ctrl.HandleVisibility(true) })
	defer stopWatch()

	fmt.Fprintf(out, "AI Health Assistant (%s). Ctrl-D to quit.\n", clientCfg.BaseURL)
	ctrl.Start()

	lines := readLines(cmd.InOrStdin())
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				ctrl.Wait()
				fmt.Fprintln(out)
				return nil
			}
			handleLine(ctx, out, ctrl, term, line)
		}
	}
}

func applyFlags(cmd *cobra.Command, cfg config.ClientConfig) config.ClientConfig {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("token") {
		cfg.Token = flagToken
	}
	if flags.Changed("allow-overlap") {
		cfg.AllowOverlap = flagAllowOverlap
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	return cfg
}

// handleLine maps one terminal line onto key events: a trailing backslash is
// Shift+Enter, anything else is Enter.
func handleLine(ctx context.Context, out io.Writer, ctrl *controller.Controller, term *view.Terminal, line string) {
	if strings.HasSuffix(line, `\`) {
		term.AppendInput(strings.TrimSuffix(line, `\`))
		ctrl.HandleKey(ctx, controller.KeyEvent{Key: controller.KeyEnter, Shift: true})
		fmt.Fprint(out, continuationPrompt)
		return
	}

	term.AppendInput(line)
	if strings.TrimSpace(term.Input()) == "" {
		term.ClearInput()
		term.Focus()
		return
	}
	if !term.InputEnabled() {
		fmt.Fprintln(out, "Still waiting for the previous reply; press Enter again to send your message.")
		return
	}
	ctrl.HandleKey(ctx, controller.KeyEvent{Key: controller.KeyEnter})
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Warn().Err(err).Msg("[chat] read input failed")
		}
	}()
	return lines
}
