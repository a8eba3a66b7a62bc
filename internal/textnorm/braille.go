package textnorm

import (
	"strings"
	"unicode"

	"github.com/nfrund/chatsubs/internal/caption"
)

// brailleBlank is the empty braille cell, used to keep art columns aligned.
const brailleBlank = '⠀'

func isBraille(r rune) bool {
	return r >= 0x2800 && r <= 0x28FF
}

// IsBrailleArt reports whether s consists of braille cells and whitespace only.
func IsBrailleArt(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case isBraille(r):
			seen = true
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return seen
}

// brailleArt rebuilds the art from the raw body: emoticon names become blank
// cells (or the cell flanking them when both sides agree), runs of plain-text
// words collapse into one blank cell, and every space starts a new art line.
func (n *Normalizer) brailleArt(raw string, emoticons map[string]struct{}) string {
	isEmoticon := func(token string) bool {
		if _, ok := emoticons[fold(token)]; ok {
			return true
		}
		return n.catalog.Contains(token)
	}

	var lines []string
	textRun := false
	for _, field := range strings.Fields(raw) {
		if !strings.ContainsFunc(field, isBraille) {
			if isEmoticon(field) {
				lines = append(lines, string(brailleBlank))
				textRun = false
				continue
			}
			if !textRun {
				lines = append(lines, string(brailleBlank))
				textRun = true
			}
			continue
		}
		textRun = false
		lines = append(lines, blankInnerEmoticons(field, isEmoticon))
	}
	return strings.Join(lines, caption.LineBreak)
}

// blankInnerEmoticons replaces emoticon names glued to braille cells.
func blankInnerEmoticons(field string, isEmoticon func(string) bool) string {
	runes := []rune(field)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if isBraille(runes[i]) {
			out = append(out, runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && !isBraille(runes[j]) {
			j++
		}
		token := string(runes[i:j])
		switch {
		case !isEmoticon(token):
			out = append(out, runes[i:j]...)
		case i > 0 && j < len(runes) && runes[i-1] == runes[j]:
			out = append(out, runes[j])
		default:
			out = append(out, brailleBlank)
		}
		i = j
	}
	return string(out)
}
