package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatsubs/internal/domain"
)

var frame1080 = Frame{Width: 1920, MaxBottomRow: 1000, Margin: 20}

func TestMetrics(t *testing.T) {
	m, err := Metrics(FontMedium)
	require.NoError(t, err)
	assert.Equal(t, 40, m.LineHeight)

	_, err = Metrics("huge")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
}

func TestCompute(t *testing.T) {
	font := FontMetrics{Size: 32, LineHeight: 40, CharWidth: 16}

	tests := []struct {
		name     string
		loc      domain.Location
		wantTop  int
		wantRows int
		wantX    int
	}{
		{"full left", domain.Location{Side: domain.SideLeft, Band: domain.BandFull}, 20, 25, 20},
		{"top half", domain.Location{Side: domain.SideLeft, Band: domain.BandTopHalf}, 20, 13, 20},
		{"bottom half right", domain.Location{Side: domain.SideRight, Band: domain.BandBottomHalf}, 500, 13, 980},
		{"top two thirds", domain.Location{Side: domain.SideLeft, Band: domain.BandTopTwoThirds}, 20, 17, 20},
		{"bottom two thirds", domain.Location{Side: domain.SideLeft, Band: domain.BandBottomTwoThirds}, 333, 17, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Compute(font, tt.loc, frame1080)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTop, g.TopRow)
			assert.Equal(t, tt.wantRows, g.Rows)
			assert.Equal(t, tt.wantX, g.X)
			assert.Equal(t, g.TopRow+(g.Rows-1)*g.Pitch, g.BottomRow)
			assert.LessOrEqual(t, g.BottomRow, frame1080.MaxBottomRow)
		})
	}
}

func TestCompute_Invalid(t *testing.T) {
	font := FontMetrics{LineHeight: 40}

	_, err := Compute(font, domain.Location{Band: "middle"}, frame1080)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = Compute(font, domain.Location{Side: "center"}, frame1080)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = Compute(FontMetrics{}, domain.Location{}, frame1080)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = Compute(font, domain.Location{}, Frame{MaxBottomRow: 10, Margin: 20})
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
}

func TestGeometry_Rows(t *testing.T) {
	g := Geometry{TopRow: 100, Rows: 4, Pitch: 10}
	assert.Equal(t, 100, g.SlotRow(0))
	assert.Equal(t, 130, g.SlotRow(3))
	assert.Equal(t, 120, g.StackRow(2))
}
