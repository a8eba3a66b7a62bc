package textnorm

import (
	"github.com/mattn/go-runewidth"
)

// lineSpan is a wrapped line as a half-open rune range of the source text.
type lineSpan struct {
	start, end int
}

func isURLDelimiter(r rune) bool {
	return r == '/' || r == '?' || r == '&'
}

// wrap splits runes into lines no wider than width columns, the first line
// limited to first columns. It breaks at spaces, then after URL delimiters,
// and finally hard-breaks at the column limit. Every iteration consumes at
// least one rune, so a zero or negative budget still terminates.
func wrap(runes []rune, first, width int) []lineSpan {
	var lines []lineSpan
	budget := first
	start := 0
	for {
		for start < len(runes) && runes[start] == ' ' {
			start++
		}
		if start >= len(runes) {
			break
		}

		end, used := start, 0
		for end < len(runes) {
			w := runewidth.RuneWidth(runes[end])
			if used+w > budget {
				break
			}
			used += w
			end++
		}
		if end == len(runes) {
			lines = append(lines, lineSpan{start, end})
			break
		}

		brk := -1
		for i := end; i > start; i-- {
			if runes[i] == ' ' {
				brk = i
				break
			}
		}
		switch {
		case brk > start:
			lines = append(lines, lineSpan{start, trimRight(runes, start, brk)})
			start = brk + 1
		default:
			for i := end - 1; i > start; i-- {
				if isURLDelimiter(runes[i]) {
					brk = i + 1
					break
				}
			}
			if brk <= start {
				brk = end
				if brk == start {
					brk = start + 1
				}
			}
			lines = append(lines, lineSpan{start, brk})
			start = brk
		}
		budget = width
	}
	return lines
}

func trimRight(runes []rune, start, end int) int {
	for end > start && runes[end-1] == ' ' {
		end--
	}
	return end
}
