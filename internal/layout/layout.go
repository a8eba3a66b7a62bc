// Package layout turns the style settings into fixed screen geometry: the
// font metrics for a size tier and the rows the chat area spans.
package layout

import (
	"fmt"

	"github.com/nfrund/chatsubs/internal/domain"
)

// FontTier is the user-facing font size choice.
type FontTier string

const (
	FontSmall  FontTier = "small"
	FontMedium FontTier = "medium"
	FontLarge  FontTier = "large"
	FontXLarge FontTier = "xlarge"
)

// FontMetrics are the pixel measurements of the subtitle font at one tier.
type FontMetrics struct {
	Size       int
	LineHeight int
	CharWidth  int
}

// fontTable was measured for the default subtitle font at 1080p.
var fontTable = map[FontTier]FontMetrics{
	FontSmall:  {Size: 24, LineHeight: 30, CharWidth: 12},
	FontMedium: {Size: 32, LineHeight: 40, CharWidth: 16},
	FontLarge:  {Size: 40, LineHeight: 50, CharWidth: 20},
	FontXLarge: {Size: 48, LineHeight: 60, CharWidth: 24},
}

// Metrics looks up the font metrics for tier.
func Metrics(tier FontTier) (FontMetrics, error) {
	m, ok := fontTable[tier]
	if !ok {
		return FontMetrics{}, fmt.Errorf("%w: font size %q", domain.ErrInvalidSettings, tier)
	}
	return m, nil
}

// Geometry is the row layout of the chat area. Rows are pixel y coordinates of
// a line's top edge; TopRow and BottomRow are the first and last usable rows.
type Geometry struct {
	TopRow    int
	BottomRow int
	Rows      int
	Pitch     int
	// X is the left edge of the chat column.
	X    int
	Side domain.Side
}

// Frame describes the video frame the geometry is computed for.
type Frame struct {
	Width        int
	MaxBottomRow int
	Margin       int
}

// Compute derives the geometry for the font and location. It is a pure
// function of its arguments.
func Compute(font FontMetrics, loc domain.Location, frame Frame) (Geometry, error) {
	if font.LineHeight <= 0 {
		return Geometry{}, fmt.Errorf("%w: line height must be positive", domain.ErrInvalidSettings)
	}

	top, bottom := frame.Margin, frame.MaxBottomRow
	switch loc.Band {
	case domain.BandFull, "":
	case domain.BandTopHalf:
		bottom = frame.MaxBottomRow / 2
	case domain.BandBottomHalf:
		top = frame.MaxBottomRow / 2
	case domain.BandTopTwoThirds:
		bottom = frame.MaxBottomRow * 2 / 3
	case domain.BandBottomTwoThirds:
		top = frame.MaxBottomRow / 3
	default:
		return Geometry{}, fmt.Errorf("%w: band %q", domain.ErrInvalidSettings, loc.Band)
	}

	if bottom < top {
		return Geometry{}, fmt.Errorf("%w: chat area %d..%d has no room for a line", domain.ErrInvalidSettings, top, bottom)
	}
	rows := (bottom-top)/font.LineHeight + 1

	x := frame.Margin
	switch loc.Side {
	case domain.SideLeft, "":
	case domain.SideRight:
		x = frame.Width/2 + frame.Margin
	default:
		return Geometry{}, fmt.Errorf("%w: side %q", domain.ErrInvalidSettings, loc.Side)
	}

	return Geometry{
		TopRow:    top,
		BottomRow: top + (rows-1)*font.LineHeight,
		Rows:      rows,
		Pitch:     font.LineHeight,
		X:         x,
		Side:      loc.Side,
	}, nil
}

// SlotRow returns the row of the zero-based slot, counted from the top.
func (g Geometry) SlotRow(slot int) int {
	return g.TopRow + slot*g.Pitch
}

// StackRow returns the row at which a block of lines starts when its last
// line sits on the bottom row.
func (g Geometry) StackRow(lines int) int {
	return g.SlotRow(g.Rows - lines)
}
