package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/chatsubs/internal/config"
	"github.com/nfrund/chatsubs/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chatsubs",
	Short: "Render chat replay logs as subtitles",
	Long: `chatsubs turns a chat replay log into a subtitle track that shows the chat
next to the video.

Available commands:
  convert    Convert a chat log once
  watch      Convert a chat log and convert again whenever it changes
  version    Print the version

Use "chatsubs [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.New()
		logging.New(cfg.LogFormat, cfg.LogLevel)
	},
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
