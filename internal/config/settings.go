package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/engine"
	"github.com/nfrund/chatsubs/internal/layout"
	"github.com/nfrund/chatsubs/internal/storage"
	"github.com/nfrund/chatsubs/internal/textnorm"
	"github.com/nfrund/chatsubs/internal/writer"
)

var validatorInstance = validator.New()

// Speed tiers for scrolling chat.
const (
	SpeedSlow   = "slow"
	SpeedNormal = "normal"
	SpeedFast   = "fast"
	SpeedCustom = "custom"
)

var speedSteps = map[string]time.Duration{
	SpeedSlow:   1500 * time.Millisecond,
	SpeedNormal: time.Second,
	SpeedFast:   500 * time.Millisecond,
}

// Settings are the style choices of a conversion. They can be stored as a
// TOML preset and overridden from the command line.
type Settings struct {
	Strategy  string `toml:"strategy" validate:"oneof=instant scroll accumulate transcript"`
	Format    string `toml:"format" validate:"oneof=srt vtt transcript"`
	FontSize  string `toml:"font_size" validate:"oneof=small medium large xlarge"`
	Side      string `toml:"side" validate:"oneof=left right"`
	Band      string `toml:"band" validate:"oneof=full top-half bottom-half top-two-thirds bottom-two-thirds"`
	Direction string `toml:"direction" validate:"oneof=bottom-to-top top-to-bottom"`
	Speed     string `toml:"speed" validate:"oneof=slow normal fast custom"`
	// StepDuration is only read when Speed is custom.
	StepDuration time.Duration `toml:"step_duration" validate:"min=0s"`
	CueDuration  time.Duration `toml:"cue_duration" validate:"gt=0s"`

	LineLength          int    `toml:"line_length" validate:"min=8,max=400"`
	ShowTimestamp       bool   `toml:"show_timestamp"`
	UseUserColors       bool   `toml:"use_user_colors"`
	DefaultColor        string `toml:"default_color" validate:"omitempty,hexcolor"`
	ModeratorColor      string `toml:"moderator_color" validate:"omitempty,hexcolor"`
	Bold                bool   `toml:"bold"`
	RemoveEmoticonNames bool   `toml:"remove_emoticon_names"`
	TagLinks            bool   `toml:"tag_links"`
	TagMentions         bool   `toml:"tag_mentions"`

	VideoWidth   int `toml:"video_width" validate:"min=16"`
	VideoHeight  int `toml:"video_height" validate:"min=16"`
	MaxBottomRow int `toml:"max_bottom_row" validate:"min=0"`
	Margin       int `toml:"margin" validate:"min=0"`
}

// DefaultSettings returns the settings used when no preset or flag says
// otherwise: scrolling chat on the left of a 1080p frame.
func DefaultSettings() Settings {
	return Settings{
		Strategy:            string(domain.StrategyScroll),
		Format:              string(domain.FormatSRT),
		FontSize:            string(layout.FontMedium),
		Side:                string(domain.SideLeft),
		Band:                string(domain.BandFull),
		Direction:           string(domain.BottomToTop),
		Speed:               SpeedNormal,
		CueDuration:         5 * time.Second,
		LineLength:          40,
		UseUserColors:       true,
		DefaultColor:        "#ffffff",
		RemoveEmoticonNames: true,
		VideoWidth:          1920,
		VideoHeight:         1080,
		MaxBottomRow:        1020,
		Margin:              10,
	}
}

// LoadSettings reads a TOML preset over the defaults. Keys the preset does
// not set keep their default value; unknown keys are rejected.
func LoadSettings(ctx context.Context, store storage.Store, path string) (Settings, error) {
	s := DefaultSettings()
	data, err := store.ReadFile(ctx, path)
	if err != nil {
		return s, err
	}
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return s, fmt.Errorf("%w: failed to decode preset %s: %v", domain.ErrInvalidSettings, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return s, fmt.Errorf("%w: unknown preset keys in %s: %s", domain.ErrInvalidSettings, path, strings.Join(keys, ", "))
	}
	return s, nil
}

// Validate checks field values and the combinations between them.
func (s Settings) Validate() error {
	if err := validatorInstance.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s=%v fails %s", fe.Field(), fe.Value(), fe.ActualTag())
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidSettings, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	if s.Speed == SpeedCustom && s.StepDuration <= 0 {
		return fmt.Errorf("%w: custom speed needs a positive step duration", domain.ErrInvalidSettings)
	}
	if s.Format == string(domain.FormatTranscript) && s.Strategy != string(domain.StrategyTranscript) {
		return fmt.Errorf("%w: %s output needs the transcript strategy, got %s", domain.ErrFormatMismatch, s.Format, s.Strategy)
	}
	if s.MaxBottomRow > s.VideoHeight {
		return fmt.Errorf("%w: max bottom row %d is below the frame", domain.ErrInvalidSettings, s.MaxBottomRow)
	}
	return nil
}

// StepDurationFor returns the time one scrolling step lasts.
func (s Settings) StepDurationFor() time.Duration {
	if s.Speed == SpeedCustom {
		return s.StepDuration
	}
	if d, ok := speedSteps[s.Speed]; ok {
		return d
	}
	return speedSteps[SpeedNormal]
}

// Geometry computes the chat area for the font size and location.
func (s Settings) Geometry() (layout.Geometry, error) {
	font, err := layout.Metrics(layout.FontTier(s.FontSize))
	if err != nil {
		return layout.Geometry{}, err
	}
	return layout.Compute(font,
		domain.Location{Side: domain.Side(s.Side), Band: domain.Band(s.Band)},
		layout.Frame{Width: s.VideoWidth, MaxBottomRow: s.MaxBottomRow, Margin: s.Margin})
}

// NormalizerOptions returns the text normalizer settings. Only the strategies
// that lay out fixed rows wrap text.
func (s Settings) NormalizerOptions() textnorm.Options {
	return textnorm.Options{
		RemoveEmoticonNames: s.RemoveEmoticonNames,
		Wrap:                domain.Strategy(s.Strategy).Wraps(),
		LineLength:          s.LineLength,
		ShowTimestamp:       s.ShowTimestamp,
		TagLinks:            s.TagLinks,
		TagMentions:         s.TagMentions,
		UseUserColors:       s.UseUserColors,
	}
}

// EngineOptions returns the engine settings for the chat area geom.
func (s Settings) EngineOptions(geom layout.Geometry, flushThreshold int) engine.Options {
	return engine.Options{
		Strategy:       domain.Strategy(s.Strategy),
		FlushThreshold: flushThreshold,
		CueDuration:    s.CueDuration,
		StepDuration:   s.StepDurationFor(),
		Direction:      domain.Direction(s.Direction),
		Geometry:       geom,
	}
}

// WriterStyle returns the encoder settings for the chat area geom.
func (s Settings) WriterStyle(geom layout.Geometry) writer.Style {
	return writer.Style{
		ShowTimestamp:  s.ShowTimestamp,
		DefaultColor:   s.DefaultColor,
		ModeratorColor: s.ModeratorColor,
		Bold:           s.Bold,
		Positioned:     domain.Strategy(s.Strategy).Wraps(),
		X:              geom.X,
		FrameWidth:     s.VideoWidth,
		FrameHeight:    s.VideoHeight,
	}
}
