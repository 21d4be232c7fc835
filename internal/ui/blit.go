package ui

import (
	"strings"

	"github.com/xonecas/coppice/internal/styled"
)

// blitText converts one styled text into an ANSI string by rendering each
// maximal same-style run through the palette. Attributes other than "style"
// (message ids, offsets, the cursor marker) carry no visual weight and are
// ignored here.
func (m Model) blitText(text styled.Text) string {
	var b strings.Builder
	for _, run := range text.SplitBy("style") {
		name, _ := run.Value.(string)
		if name == "" {
			b.WriteString(run.Text.String())
			continue
		}
		b.WriteString(m.palette.Get(name).Render(run.Text.String()))
	}
	return b.String()
}

// blitTree renders the tree viewport into ANSI rows, applying the
// horizontal offset and the configured filler and overflow markers.
func (m Model) blitTree(width, height int) []string {
	rows := m.tree.Lines().Render(width, height, m.hOffset, m.fillerChar, m.overflowChar)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = m.blitText(row)
	}
	return out
}
