package render

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

const (
	yearFormat   = "06-01-02 "
	timeFormat   = "15:04"
	secondFormat = ":05"

	yearWidth   = 9
	timeWidth   = 5
	secondWidth = 3
)

// FormatterOptions configures a MessageFormatter. Attrs fields are applied
// wholesale to the corresponding spans; characters must be one display cell
// wide.
type FormatterOptions struct {
	ShowYear    bool
	ShowSeconds bool
	MetaAttrs   styled.Attrs

	SurroundLeft  string
	SurroundRight string
	SurroundAttrs styled.Attrs
	NickAttrs     styled.Attrs
	OwnNickAttrs  styled.Attrs

	CursorSurroundLeft  string
	CursorSurroundRight string
	CursorSurroundAttrs styled.Attrs
	CursorOwnNickAttrs  styled.Attrs
	CursorFill          string
	CursorFillAttrs     styled.Attrs

	// WidePlaceholder replaces runes that would occupy two cells.
	WidePlaceholder string
}

// MessageFormatter renders messages the way the room displays them: a time
// meta prefix, a surround-framed nick, and content lines aligned under the
// first one. Wide East-Asian runes are replaced so every character occupies
// exactly one cell.
type MessageFormatter struct {
	opts FormatterOptions
	nick string
}

// NewMessageFormatter returns a formatter rendering on behalf of ownNick,
// which is shown in the cursor line and styled distinctly in message nicks.
func NewMessageFormatter(ownNick string, opts FormatterOptions) *MessageFormatter {
	if opts.WidePlaceholder == "" {
		opts.WidePlaceholder = "?"
	}
	return &MessageFormatter{opts: opts, nick: ownNick}
}

// SetNick updates the own nick. Callers must invalidate the cache afterwards
// so own-nick styling is recomputed.
func (f *MessageFormatter) SetNick(nick string) {
	f.nick = nick
}

// Nick returns the own nick.
func (f *MessageFormatter) Nick() string {
	return f.nick
}

// MetaWidth returns the exact width of the meta prefix, including the
// trailing space.
func (f *MessageFormatter) MetaWidth() int {
	w := timeWidth + 1
	if f.opts.ShowYear {
		w += yearWidth
	}
	if f.opts.ShowSeconds {
		w += secondWidth
	}
	return w
}

// filterWide replaces every rune whose East-Asian width class would make it
// occupy two cells. Neutral, narrow, halfwidth and ambiguous runes pass
// through.
func (f *MessageFormatter) filterWide(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.Neutral, width.EastAsianNarrow, width.EastAsianHalfwidth, width.EastAsianAmbiguous:
			b.WriteRune(r)
		default:
			b.WriteString(f.opts.WidePlaceholder)
		}
	}
	return b.String()
}

func (f *MessageFormatter) renderMeta(msg supply.Message) styled.Text {
	format := timeFormat
	if f.opts.ShowYear {
		format = yearFormat + format
	}
	if f.opts.ShowSeconds {
		format += secondFormat
	}
	stamp := msg.Timestamp.Format(format)
	return styled.New(stamp, f.opts.MetaAttrs).Append(styled.Plain(" "))
}

// Render lays out one message at the given content width.
func (f *MessageFormatter) Render(msg supply.Message, width int) RenderedMessage {
	meta := f.renderMeta(msg)

	nickAttrs := f.opts.NickAttrs
	if msg.Nick == f.nick {
		nickAttrs = f.opts.OwnNickAttrs
	}
	framed := styled.Concat(
		styled.New(f.opts.SurroundLeft, f.opts.SurroundAttrs),
		styled.New(f.filterWide(msg.Nick), nickAttrs),
		styled.New(f.opts.SurroundRight, f.opts.SurroundAttrs),
		styled.Plain(" "),
	)
	blank := styled.Plain(strings.Repeat(" ", framed.Len()))

	content := f.filterWide(msg.Content)
	var lines []styled.Text
	for i, line := range strings.Split(content, "\n") {
		prefix := framed
		if i > 0 {
			prefix = blank
		}
		lines = append(lines, prefix.Append(styled.Plain(line)))
	}

	return RenderedMessage{ID: msg.ID, Meta: meta, Lines: lines}
}

// RenderCursor produces the reply-cursor line, padded to width with the
// cursor fill.
func (f *MessageFormatter) RenderCursor(width int) styled.Text {
	framed := styled.Concat(
		styled.New(f.opts.CursorSurroundLeft, f.opts.CursorSurroundAttrs),
		styled.New(f.filterWide(f.nick), f.opts.CursorOwnNickAttrs),
		styled.New(f.opts.CursorSurroundRight, f.opts.CursorSurroundAttrs),
	)
	rest := width - framed.Len()
	if rest <= 0 {
		return framed
	}
	fill := f.opts.CursorFill
	if fill == "" {
		fill = " "
	}
	return framed.Append(styled.New(strings.Repeat(fill, rest), f.opts.CursorFillAttrs))
}
