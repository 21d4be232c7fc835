// Package render turns the message forest into a cursor-aware, scroll-stable
// viewport of styled lines. The heart of the package is CursorTree, which
// owns the anchor and cursor state; Formatter renders individual messages
// and Cache memoizes them per id.
package render

import (
	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

// RenderedMessage is a message laid out at one content width: a fixed meta
// prefix plus one body line per content line.
type RenderedMessage struct {
	ID    supply.Id
	Meta  styled.Text
	Lines []styled.Text
}

// Formatter renders messages and the cursor line at a target width. The
// tree renderer depends only on this capability set.
type Formatter interface {
	// MetaWidth is the exact cell width of the meta prefix every rendered
	// message carries, including its trailing space.
	MetaWidth() int
	// Render lays out one message at the given content width.
	Render(msg supply.Message, width int) RenderedMessage
	// RenderCursor produces the reply-cursor line at the given width.
	RenderCursor(width int) styled.Text
}
