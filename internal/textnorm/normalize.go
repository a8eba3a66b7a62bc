// Package textnorm turns raw chat events into display-ready message text:
// emoticon stripping, braille-art handling, whitespace cleanup, word-wrap and
// link/mention styling.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
)

// Options are the style settings the normalizer depends on.
type Options struct {
	RemoveEmoticonNames bool
	// Wrap enables fixed-width wrapping at LineLength columns.
	Wrap          bool
	LineLength    int
	ShowTimestamp bool
	TagLinks      bool
	TagMentions   bool
	// UseUserColors fills in missing author colors from the user table.
	UseUserColors bool
}

// Normalizer is safe for concurrent use: it only reads its catalog and
// user table.
type Normalizer struct {
	opts    Options
	catalog *Catalog
	users   *UserColors
}

// New creates a Normalizer. catalog and users may be nil.
func New(opts Options, catalog *Catalog, users *UserColors) *Normalizer {
	return &Normalizer{
		opts:    opts,
		catalog: catalog,
		users:   users,
	}
}

// Normalize converts ev into a message. ok is false when nothing displayable
// is left, in which case the event is to be counted as discarded.
func (n *Normalizer) Normalize(ev domain.ChatEvent) (msg caption.Message, ok bool) {
	msg = caption.Message{
		Offset:    ev.Offset,
		Author:    strings.TrimSpace(ev.Author),
		Moderator: ev.Moderator,
		Color:     ev.Color,
	}
	if msg.Color == "" && n.opts.UseUserColors && msg.Author != "" {
		msg.Color, _ = n.users.Lookup(msg.Author)
	}

	body := ev.Body
	if n.opts.RemoveEmoticonNames {
		body = ev.TextOnly()
	}

	if IsBrailleArt(body) {
		names := make(map[string]struct{})
		for _, name := range ev.EmoticonNames() {
			names[fold(name)] = struct{}{}
		}
		msg.Body = n.brailleArt(ev.Body, names)
		msg.Braille = true
		return msg, msg.Body != ""
	}

	if n.opts.RemoveEmoticonNames {
		body = n.stripEmoticons(body)
	}

	body = collapseSpace(body)
	if body == "" {
		return caption.Message{}, false
	}

	runes := []rune(body)
	lines := []lineSpan{{0, len(runes)}}
	if n.opts.Wrap {
		prefix := runewidth.StringWidth(caption.Prefix(msg, n.opts.ShowTimestamp))
		lines = wrap(runes, n.opts.LineLength-prefix, n.opts.LineLength)
	}

	var tags []tag
	if n.opts.TagLinks || n.opts.TagMentions {
		tags = n.findTags(body)
	}
	msg.Body = render(runes, lines, tags)
	return msg, true
}

// stripEmoticons drops every whole word that names a catalog emoticon.
func (n *Normalizer) stripEmoticons(body string) string {
	if n.catalog.Len() == 0 {
		return body
	}
	words := strings.Fields(body)
	kept := words[:0]
	for _, w := range words {
		if !n.catalog.Contains(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// collapseSpace turns control characters and whitespace runs into single
// spaces and trims the result.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
