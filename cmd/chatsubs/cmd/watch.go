package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/chatsubs/internal/app"
	"github.com/nfrund/chatsubs/internal/watch"
)

var (
	watchFlags    jobFlags
	watchDebounce = watch.DefaultDebounce
)

var watchCmd = &cobra.Command{
	Use:   "watch <chatlog.jsonl>",
	Short: "Convert a chat log and convert it again whenever it changes",
	Long: `Watch converts like convert, then keeps running and converts again each
time the chat log, the preset, the emoticon catalog, the user colors or the
filter script change. Stop it with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		services, cleanup, err := app.NewServices(ctx, cfg, slog.Default())
		if err != nil {
			return err
		}
		defer cleanup()
		if err := logProgress(ctx, services); err != nil {
			return err
		}

		convert := func(ctx context.Context) error {
			// The preset is read again on every run.
			job, err := watchFlags.job(ctx, cmd, services.Dependencies, args[0])
			if err != nil {
				return err
			}
			report, err := app.Run(ctx, services.Dependencies, job)
			if err != nil {
				return err
			}
			printReport(cmd, job, report)
			return nil
		}
		if err := convert(ctx); err != nil {
			slog.Error("Conversion failed", "error", err)
		}

		w, err := watch.New([]string{
			args[0], watchFlags.preset, watchFlags.emoticons, watchFlags.userColors, watchFlags.filter,
		}, watchDebounce, slog.Default())
		if err != nil {
			return err
		}
		return w.Run(ctx, convert)
	},
}

func init() {
	addJobFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watchDebounce, "quiet period before converting again")
	rootCmd.AddCommand(watchCmd)
}
