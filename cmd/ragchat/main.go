// Command ragchat runs the conversation engines against a local retrieval index.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	modeFlag   string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat answers questions over ingested documents.

Strategies (chat.mode):
  simple             plain conversation, no retrieval
  condense_question  rewrite follow-ups into standalone questions, then query the index
  context            retrieve context for every message (default)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if modeFlag != "" {
			loaded.Chat.Mode = modeFlag
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded

		logger, err = newLogger(cfg.Log, cmd.ErrOrStderr())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Chat mode: simple, condense_question or context")

	rootCmd.AddCommand(chatCmd, askCmd, ingestCmd)
}

// newLogger builds the root logger from config.
func newLogger(lc config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if lc.Level != "" {
		parsed, err := zerolog.ParseLevel(lc.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		level = parsed
	}

	if lc.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
