package domain

import "fmt"

// Strategy selects how normalized messages become cues.
type Strategy string

const (
	StrategyInstant    Strategy = "instant"
	StrategyScroll     Strategy = "scroll"
	StrategyAccumulate Strategy = "accumulate"
	StrategyTranscript Strategy = "transcript"
)

// Wraps reports whether the strategy lays text out in fixed-width lines.
func (s Strategy) Wraps() bool {
	return s == StrategyScroll || s == StrategyAccumulate
}

// ParseStrategy converts a flag or preset value into a Strategy.
func ParseStrategy(v string) (Strategy, error) {
	switch s := Strategy(v); s {
	case StrategyInstant, StrategyScroll, StrategyAccumulate, StrategyTranscript:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, v)
}

// Format is the serialization used by the cue writer.
type Format string

const (
	FormatSRT        Format = "srt"
	FormatVTT        Format = "vtt"
	FormatTranscript Format = "transcript"
)

// ParseFormat converts a flag or preset value into a Format.
func ParseFormat(v string) (Format, error) {
	switch f := Format(v); f {
	case FormatSRT, FormatVTT, FormatTranscript:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, v)
}

// Direction is the way chat lines travel across the screen.
type Direction string

const (
	BottomToTop Direction = "bottom-to-top"
	TopToBottom Direction = "top-to-bottom"
)

// Side is the horizontal half of the frame the chat is drawn on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Band is the vertical region of the frame the chat may occupy.
type Band string

const (
	BandFull            Band = "full"
	BandTopHalf         Band = "top-half"
	BandBottomHalf      Band = "bottom-half"
	BandTopTwoThirds    Band = "top-two-thirds"
	BandBottomTwoThirds Band = "bottom-two-thirds"
)

// Location combines the side and vertical band of the chat area.
type Location struct {
	Side Side
	Band Band
}

func (l Location) String() string {
	return string(l.Side) + "/" + string(l.Band)
}
