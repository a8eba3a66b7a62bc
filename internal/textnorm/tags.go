package textnorm

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nfrund/chatsubs/internal/caption"
)

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s]+`)

// tag is a styled rune range of the text with its opening and closing markers.
type tag struct {
	start, end int
	open       string
	close      string
}

// findTags locates links and user mentions in text as rune ranges.
func (n *Normalizer) findTags(text string) []tag {
	var tags []tag
	if n.opts.TagLinks {
		for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
			tags = append(tags, tag{
				start: utf8.RuneCountInString(text[:loc[0]]),
				end:   utf8.RuneCountInString(text[:loc[1]]),
				open:  "<u>",
				close: "</u>",
			})
		}
	}
	if n.opts.TagMentions {
		tags = append(tags, n.findMentions(text, tags)...)
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].start < tags[j].start })
	return tags
}

// findMentions tags "@name" words and bare words naming a user with a known
// color. Words inside links are left alone.
func (n *Normalizer) findMentions(text string, links []tag) []tag {
	var tags []tag
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if runes[i] == ' ' {
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] != ' ' {
			j++
		}
		start, end := i, j
		i = j

		if insideAny(start, end, links) {
			continue
		}
		for end > start && unicode.IsPunct(runes[end-1]) && runes[end-1] != '_' {
			end--
		}
		word := string(runes[start:end])
		name := strings.TrimPrefix(word, "@")
		if name == "" {
			continue
		}

		color, known := n.users.Lookup(name)
		switch {
		case known:
			tags = append(tags, tag{start: start, end: end, open: `<font color="` + color + `">`, close: "</font>"})
		case strings.HasPrefix(word, "@"):
			tags = append(tags, tag{start: start, end: end, open: "<b>", close: "</b>"})
		}
	}
	return tags
}

func insideAny(start, end int, tags []tag) bool {
	for _, t := range tags {
		if start < t.end && t.start < end {
			return true
		}
	}
	return false
}

// render joins the wrapped lines with hard newlines, opening and closing the
// markers on every line a tag touches so no marker spans a line break.
func render(runes []rune, lines []lineSpan, tags []tag) string {
	var b strings.Builder
	for li, line := range lines {
		if li > 0 {
			b.WriteString(caption.LineBreak)
		}
		open := -1
		for pos := line.start; pos < line.end; pos++ {
			if open >= 0 && tags[open].end == pos {
				b.WriteString(tags[open].close)
				open = -1
			}
			if open < 0 {
				for ti, t := range tags {
					if t.start <= pos && pos < t.end {
						b.WriteString(t.open)
						open = ti
						break
					}
				}
			}
			b.WriteRune(runes[pos])
		}
		if open >= 0 {
			b.WriteString(tags[open].close)
		}
	}
	return b.String()
}
