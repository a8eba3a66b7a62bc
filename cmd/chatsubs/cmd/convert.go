package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/chatsubs/internal/app"
	"github.com/nfrund/chatsubs/internal/config"
	"github.com/nfrund/chatsubs/internal/pubsub"
)

// jobFlags are the flags shared by convert and watch.
type jobFlags struct {
	output     string
	preset     string
	emoticons  string
	userColors string
	filter     string
	settings   config.Settings
}

// settingFlags copies each style flag from the parsed values onto the
// settings it overrides.
var settingFlags = map[string]func(dst, src *config.Settings){
	"strategy":              func(d, s *config.Settings) { d.Strategy = s.Strategy },
	"format":                func(d, s *config.Settings) { d.Format = s.Format },
	"font-size":             func(d, s *config.Settings) { d.FontSize = s.FontSize },
	"side":                  func(d, s *config.Settings) { d.Side = s.Side },
	"band":                  func(d, s *config.Settings) { d.Band = s.Band },
	"direction":             func(d, s *config.Settings) { d.Direction = s.Direction },
	"speed":                 func(d, s *config.Settings) { d.Speed = s.Speed },
	"step-duration":         func(d, s *config.Settings) { d.StepDuration = s.StepDuration },
	"cue-duration":          func(d, s *config.Settings) { d.CueDuration = s.CueDuration },
	"line-length":           func(d, s *config.Settings) { d.LineLength = s.LineLength },
	"timestamps":            func(d, s *config.Settings) { d.ShowTimestamp = s.ShowTimestamp },
	"user-colors-enabled":   func(d, s *config.Settings) { d.UseUserColors = s.UseUserColors },
	"default-color":         func(d, s *config.Settings) { d.DefaultColor = s.DefaultColor },
	"moderator-color":       func(d, s *config.Settings) { d.ModeratorColor = s.ModeratorColor },
	"bold":                  func(d, s *config.Settings) { d.Bold = s.Bold },
	"remove-emoticon-names": func(d, s *config.Settings) { d.RemoveEmoticonNames = s.RemoveEmoticonNames },
	"tag-links":             func(d, s *config.Settings) { d.TagLinks = s.TagLinks },
	"tag-mentions":          func(d, s *config.Settings) { d.TagMentions = s.TagMentions },
	"video-width":           func(d, s *config.Settings) { d.VideoWidth = s.VideoWidth },
	"video-height":          func(d, s *config.Settings) { d.VideoHeight = s.VideoHeight },
	"max-bottom-row":        func(d, s *config.Settings) { d.MaxBottomRow = s.MaxBottomRow },
	"margin":                func(d, s *config.Settings) { d.Margin = s.Margin },
}

func addJobFlags(cmd *cobra.Command, f *jobFlags) {
	f.settings = config.DefaultSettings()
	s := &f.settings
	fs := cmd.Flags()

	fs.StringVarP(&f.output, "output", "o", "", `output file ("-" for standard output)`)
	fs.StringVar(&f.preset, "preset", "", "TOML style preset; flags override it")
	fs.StringVar(&f.emoticons, "emoticons", "", "emoticon catalog, one name per line")
	fs.StringVar(&f.userColors, "user-colors", "", "JSON object of user name to #rrggbb color")
	fs.StringVar(&f.filter, "filter", "", "tengo script deciding which messages to keep")

	fs.StringVar(&s.Strategy, "strategy", s.Strategy, "instant, scroll, accumulate or transcript")
	fs.StringVar(&s.Format, "format", s.Format, "srt, vtt or transcript")
	fs.StringVar(&s.FontSize, "font-size", s.FontSize, "small, medium, large or xlarge")
	fs.StringVar(&s.Side, "side", s.Side, "left or right")
	fs.StringVar(&s.Band, "band", s.Band, "full, top-half, bottom-half, top-two-thirds or bottom-two-thirds")
	fs.StringVar(&s.Direction, "direction", s.Direction, "bottom-to-top or top-to-bottom")
	fs.StringVar(&s.Speed, "speed", s.Speed, "slow, normal, fast or custom")
	fs.DurationVar(&s.StepDuration, "step-duration", s.StepDuration, "scroll step length for custom speed")
	fs.DurationVar(&s.CueDuration, "cue-duration", s.CueDuration, "how long a caption stays up")
	fs.IntVar(&s.LineLength, "line-length", s.LineLength, "columns per line when wrapping")
	fs.BoolVar(&s.ShowTimestamp, "timestamps", s.ShowTimestamp, "prefix messages with their time")
	fs.BoolVar(&s.UseUserColors, "user-colors-enabled", s.UseUserColors, "color names from the user color table")
	fs.StringVar(&s.DefaultColor, "default-color", s.DefaultColor, "name color when none is known")
	fs.StringVar(&s.ModeratorColor, "moderator-color", s.ModeratorColor, "name color for moderators")
	fs.BoolVar(&s.Bold, "bold", s.Bold, "draw names in bold")
	fs.BoolVar(&s.RemoveEmoticonNames, "remove-emoticon-names", s.RemoveEmoticonNames, "drop emoticon names from messages")
	fs.BoolVar(&s.TagLinks, "tag-links", s.TagLinks, "underline links")
	fs.BoolVar(&s.TagMentions, "tag-mentions", s.TagMentions, "color names of known users, bold other @mentions")
	fs.IntVar(&s.VideoWidth, "video-width", s.VideoWidth, "frame width in pixels")
	fs.IntVar(&s.VideoHeight, "video-height", s.VideoHeight, "frame height in pixels")
	fs.IntVar(&s.MaxBottomRow, "max-bottom-row", s.MaxBottomRow, "lowest pixel row a line may start on")
	fs.IntVar(&s.Margin, "margin", s.Margin, "distance from the frame edge in pixels")
}

// job resolves the flags into a conversion job: the preset is read first
// and every flag given on the command line overrides it.
func (f *jobFlags) job(ctx context.Context, cmd *cobra.Command, deps app.Dependencies, input string) (app.Job, error) {
	settings := config.DefaultSettings()
	if f.preset != "" {
		var err error
		if settings, err = config.LoadSettings(ctx, deps.Store, f.preset); err != nil {
			return app.Job{}, err
		}
	}
	for name, apply := range settingFlags {
		if cmd.Flags().Changed(name) {
			apply(&settings, &f.settings)
		}
	}

	output := f.output
	if output == "" {
		output = defaultOutput(input, settings.Format)
	}
	return app.Job{
		Input:          input,
		Output:         output,
		EmoticonsPath:  f.emoticons,
		UserColorsPath: f.userColors,
		FilterPath:     f.filter,
		Settings:       settings,
	}, nil
}

// defaultOutput places the subtitles next to the chat log.
func defaultOutput(input, format string) string {
	ext := "." + format
	if format == "transcript" {
		ext = ".txt"
	}
	for _, suffix := range []string{".jsonl", ".json"} {
		if strings.HasSuffix(input, suffix) {
			return strings.TrimSuffix(input, suffix) + ext
		}
	}
	return input + ext
}

// logProgress logs the progress events of every run on the bus.
func logProgress(ctx context.Context, services *app.Services) error {
	if err := pubsub.Subscribe(ctx, services.Bus, pubsub.ProgressUpdated, func(_ context.Context, runID string, p pubsub.ProgressEvent) error {
		slog.Info("Progress", "run_id", runID, "processed", p.Processed, "total", p.Total, "cues", p.Cues)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to subscribe to progress: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, job app.Job, report app.Report) {
	if job.Output == app.StdoutPath {
		return
	}
	if report.Canceled {
		fmt.Fprintf(cmd.ErrOrStderr(), "canceled after %d of %d messages\n", report.Processed, report.Total)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d messages, %d discarded, %d cues\n",
		job.Output, report.Processed, report.Discarded, report.Written)
}

var convertFlags jobFlags

var convertCmd = &cobra.Command{
	Use:   "convert <chatlog.jsonl>",
	Short: "Convert a chat log into subtitles",
	Long: `Convert reads a chat replay log (one JSON object per line) and writes a
subtitle file in the chosen style.

Example:
  chatsubs convert chat.jsonl -o chat.srt --strategy scroll --side right`,
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

		job, err := convertFlags.job(ctx, cmd, services.Dependencies, args[0])
		if err != nil {
			return err
		}
		report, err := app.Run(ctx, services.Dependencies, job)
		if err != nil {
			return err
		}
		printReport(cmd, job, report)
		return nil
	},
}

func init() {
	addJobFlags(convertCmd, &convertFlags)
	rootCmd.AddCommand(convertCmd)
}
