package engine

import (
	"slices"
	"sort"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
)

// SortByShow orders cues by show time, keeping insertion order for ties.
func SortByShow(cues []*caption.Cue) {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].ShowTime < cues[j].ShowTime
	})
}

// Merge replaces every chain of overlapping cues in the show-sorted slice
// with disjoint sub-cues. A chain is a maximal run in which each cue starts
// before the latest hide time seen so far in the run. The run is cut at each
// distinct show time and ends at its latest hide time; every member's
// messages go into each sub-cue its interval overlaps, in member order.
// Output cues never overlap, so merging the result again changes nothing.
func Merge(cues []*caption.Cue) []*caption.Cue {
	out := make([]*caption.Cue, 0, len(cues))
	for start := 0; start < len(cues); {
		end, hide := runEnd(cues, start)
		if end-start == 1 {
			out = append(out, cues[start])
		} else {
			out = append(out, split(cues[start:end], hide)...)
		}
		start = end
	}
	return out
}

// runEnd returns the exclusive end of the overlap run starting at start and
// the run's latest hide time.
func runEnd(cues []*caption.Cue, start int) (int, time.Duration) {
	hide := cues[start].HideTime
	end := start + 1
	for end < len(cues) && cues[end].ShowTime < hide {
		hide = max(hide, cues[end].HideTime)
		end++
	}
	return end, hide
}

func split(run []*caption.Cue, hide time.Duration) []*caption.Cue {
	bounds := make([]time.Duration, 0, len(run)+1)
	for _, c := range run {
		bounds = append(bounds, c.ShowTime)
	}
	bounds = append(bounds, hide)
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	subs := make([]*caption.Cue, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		sub := caption.NewCue(bounds[i], bounds[i+1], run[0].Row)
		for _, c := range run {
			if c.ShowTime < sub.HideTime && sub.ShowTime < c.HideTime {
				for _, m := range c.Messages() {
					sub.Append(m)
				}
			}
		}
		subs = append(subs, sub)
	}
	return subs
}
