package render

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

// Row-wide attributes stamped onto every rendered line.
const (
	// AttrMessageID holds the supply.Id of the message on a line.
	AttrMessageID = "mid"
	// AttrOffset holds the line's offset within its message (0 = first).
	AttrOffset = "offset"
	// AttrCursor marks the reply-cursor line.
	AttrCursor = "cursor"
)

// ErrInvariant reports an internal inconsistency during cursor movement or
// refocusing. The renderer recovers by dropping its anchor and rerendering;
// the error is logged, never propagated.
var ErrInvariant = errors.New("cursor tree invariant violation")

// overlapWidth is the right-edge column reserved for the horizontal
// overflow marker; message content never renders into it.
const overlapWidth = 1

// Stable codes identifying which invariant broke.
const (
	codeMoveBottom = 1
	codeMovePath   = 2
)

// TreeOptions configures indentation and scrolling behaviour. Characters
// must be one display cell wide.
type TreeOptions struct {
	IndentWidth int
	IndentChar  string
	IndentFill  string
	IndentAttrs styled.Attrs

	CursorIndentChar  string
	CursorCorner      string
	CursorFill        string
	CursorIndentAttrs styled.Attrs

	Scrolloff int
}

// CursorTree renders the message forest into a viewport of styled lines,
// maintaining a scroll anchor and a reply cursor.
//
// The anchor pins one message's first line (or the cursor line) to a
// viewport row given as a fraction of the height. Every render starts from
// the anchor's tree and extends up and down until the screen is covered,
// snapping so that the bottom row is never empty and the top row is only
// empty when the supply has no more messages above.
//
// The cursor is the message a reply would attach under; the nil cursor sits
// past the last root and composes a new root message.
type CursorTree struct {
	supply    *supply.Supply
	formatter Formatter
	cache     *Cache
	opts      TreeOptions

	lines  *styled.Lines
	hitTop bool

	cursorID     supply.Id
	anchorID     supply.Id
	anchorOffset float64

	width  int
	height int
}

// NewCursorTree returns a renderer over the given supply and formatter.
func NewCursorTree(s *supply.Supply, f Formatter, opts TreeOptions) *CursorTree {
	return &CursorTree{
		supply:       s,
		formatter:    f,
		cache:        NewCache(),
		opts:         opts,
		lines:        styled.NewLines(),
		anchorOffset: 0.5,
		width:        80,
		height:       40,
	}
}

// Lines returns the last rendered viewport, padded to exactly the last
// render's height.
func (r *CursorTree) Lines() *styled.Lines {
	return r.lines.ToSize(0, r.height-1)
}

// HitTop reports whether the last render exhausted the supply upwards.
func (r *CursorTree) HitTop() bool {
	return r.hitTop
}

// CursorID returns the current cursor, supply.None for the bottom cursor.
func (r *CursorTree) CursorID() supply.Id {
	return r.cursorID
}

// SetCursorID moves the cursor directly and refocuses the view on it.
func (r *CursorTree) SetCursorID(id supply.Id) {
	r.cursorID = id
	r.renderOnce()
	r.refocus()
}

// Invalidate drops the cached rendering of one message.
func (r *CursorTree) Invalidate(id supply.Id) {
	r.cache.Invalidate(id)
}

// InvalidateAll drops every cached rendering.
func (r *CursorTree) InvalidateAll() {
	r.cache.InvalidateAll()
}

// Render assembles the viewport at the given dimensions. A width change
// invalidates all cached messages, since content width depends on it.
func (r *CursorTree) Render(width, height int) {
	if width != r.width {
		r.cache.InvalidateAll()
	}
	r.width = width
	r.height = height
	r.renderOnce()
}

// Offsets

func absoluteOffset(offset float64, height int) int {
	return int(math.Round(offset * float64(height-1)))
}

func relativeOffset(line, height int) float64 {
	if height <= 1 {
		return 0.5
	}
	return float64(line) / float64(height-1)
}

func (r *CursorTree) absoluteAnchorOffset() int {
	return absoluteOffset(r.anchorOffset, r.height)
}

func (r *CursorTree) setAbsoluteAnchorOffset(offset int) {
	r.anchorOffset = relativeOffset(offset, r.height)
}

// Rendering a single message

func (r *CursorTree) renderedMessage(id supply.Id, width int) (RenderedMessage, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached, nil
	}
	msg, err := r.supply.Get(id)
	if err != nil {
		return RenderedMessage{}, err
	}
	rendered := r.formatter.Render(msg, width)
	r.cache.Add(rendered)
	return rendered, nil
}

func (r *CursorTree) renderMessageLines(id supply.Id, indent styled.Text) (*styled.Lines, error) {
	width := r.width - overlapWidth - indent.Len() - r.formatter.MetaWidth()
	rendered, err := r.renderedMessage(id, width)
	if err != nil {
		return nil, err
	}

	meta := rendered.Meta
	metaSpaces := styled.Plain(strings.Repeat(" ", meta.Len()))

	lines := styled.NewLines()
	for i, body := range rendered.Lines {
		prefix := meta
		if i > 0 {
			prefix = metaSpaces
		}
		attrs := styled.Attrs{AttrMessageID: id, AttrOffset: i}
		lines.AppendBelow(attrs, styled.Concat(prefix, indent, body))
	}
	return lines, nil
}

func (r *CursorTree) renderCursorLines(indent styled.Text) *styled.Lines {
	width := r.width - overlapWidth - indent.Len() - r.formatter.MetaWidth()
	metaSpaces := styled.Plain(strings.Repeat(" ", r.formatter.MetaWidth()))

	lines := styled.NewLines()
	attrs := styled.Attrs{AttrCursor: true, AttrOffset: 0}
	lines.AppendBelow(attrs, styled.Concat(metaSpaces, indent, r.formatter.RenderCursor(width)))
	return lines
}

// renderIndent produces one nesting level of indentation. The cursor's
// children get a distinct leading character; the cursor line itself gets a
// corner plus fill.
func (r *CursorTree) renderIndent(cursor, cursorLine bool) styled.Text {
	if r.opts.IndentWidth < 1 {
		return styled.Text{}
	}

	var start, fill styled.Text
	switch {
	case cursorLine:
		start = styled.New(r.opts.CursorCorner, r.opts.CursorIndentAttrs)
		fill = styled.New(r.opts.CursorFill, r.opts.CursorIndentAttrs)
	case cursor:
		start = styled.New(r.opts.CursorIndentChar, r.opts.CursorIndentAttrs)
		fill = styled.New(r.opts.IndentFill, r.opts.IndentAttrs)
	default:
		start = styled.New(r.opts.IndentChar, r.opts.IndentAttrs)
		fill = styled.New(r.opts.IndentFill, r.opts.IndentAttrs)
	}

	return start.Append(fill.Repeat(r.opts.IndentWidth - start.Len()))
}

func (r *CursorTree) indentCells() int {
	if r.opts.IndentWidth < 1 {
		return 0
	}
	return r.opts.IndentWidth
}

// Rendering trees

// renderSubtree emits rootID's lines, its descendants depth-first, and the
// cursor line when rootID is the cursor's message. Pinning the lower offset
// to -1 right before emitting the anchor makes the anchor's first line land
// at offset 0. Unknown subtrees are skipped.
func (r *CursorTree) renderSubtree(lines *styled.Lines, rootID supply.Id, indent styled.Text) {
	if r.anchorID == rootID {
		lines.SetLowerOffset(-1)
	}

	cursor := r.cursorID == rootID

	rendered, err := r.renderMessageLines(rootID, indent)
	if err != nil {
		return
	}
	lines.ExtendBelow(rendered)

	newIndent := indent.Append(r.renderIndent(cursor, false))
	for _, childID := range r.supply.ChildIDs(rootID) {
		r.renderSubtree(lines, childID, newIndent)
	}

	if cursor {
		// The cursor anchors itself when no anchor is set.
		if r.anchorID == supply.None {
			lines.SetLowerOffset(-1)
		}
		cursorIndent := indent.Append(r.renderIndent(false, true))
		lines.ExtendBelow(r.renderCursorLines(cursorIndent))
	}
}

func (r *CursorTree) renderTree(rootID supply.Id) *styled.Lines {
	lines := styled.NewLines()
	r.renderSubtree(lines, rootID, styled.Text{})
	return lines
}

// expandUpwardsUntil prepends previous sibling trees until the buffer's
// upper offset reaches target or the supply runs out above. Reports the
// last tree rendered and whether the top was hit. The supply check comes
// first: if the first tree alone fills the screen we may still be at the
// top.
func (r *CursorTree) expandUpwardsUntil(lines *styled.Lines, ancestorID supply.Id, target int) (supply.Id, bool) {
	last := ancestorID
	for {
		next := r.supply.PreviousID(last)
		if next == supply.None {
			return last, true
		}
		if lines.UpperOffset() <= target {
			return last, false
		}
		lines.ExtendAbove(r.renderTree(next))
		last = next
	}
}

// expandDownwardsUntil appends next sibling trees until the buffer's lower
// offset reaches target or the supply runs out below. When the bottom is
// reached and the cursor is the bottom cursor, its line is appended last.
func (r *CursorTree) expandDownwardsUntil(lines *styled.Lines, ancestorID supply.Id, target int) {
	last := ancestorID
	for {
		next := r.supply.NextID(last)
		if next == supply.None {
			break
		}
		if lines.LowerOffset() >= target {
			return
		}
		lines.ExtendBelow(r.renderTree(next))
		last = next
	}

	if r.cursorID == supply.None {
		lines.ExtendBelow(r.renderCursorLines(styled.Text{}))
	}
}

// Viewport assembly

// renderFromCursor handles the bottom-cursor state: the cursor line is
// pinned to the last row and trees are stacked above it.
func (r *CursorTree) renderFromCursor() (*styled.Lines, int, bool) {
	lines := r.renderCursorLines(styled.Text{})
	lines.SetLowerOffset(r.height - 1)
	delta := r.height - 1 - r.absoluteAnchorOffset()

	lowestRootID := r.supply.LowestRootID()
	if lowestRootID == supply.None {
		return lines, delta, true
	}

	lines.ExtendAbove(r.renderTree(lowestRootID))
	_, hitTop := r.expandUpwardsUntil(lines, lowestRootID, 0)
	return lines, delta, hitTop
}

// renderFromAnchor renders the anchor's tree at the anchor offset, then
// extends and snaps: never a blank bottom row, and a blank top row only
// when the supply is exhausted above.
func (r *CursorTree) renderFromAnchor(anchorID supply.Id) (*styled.Lines, int, bool) {
	delta := 0

	ancestorID := r.supply.RootID(anchorID)
	lines := r.renderTree(ancestorID)
	lines.OffsetBy(r.absoluteAnchorOffset())

	upperID, hitTop := r.expandUpwardsUntil(lines, ancestorID, 0)

	if lines.UpperOffset() > 0 {
		delta -= lines.UpperOffset()
		lines.SetUpperOffset(0)
	}

	r.expandDownwardsUntil(lines, ancestorID, r.height-1)

	if lines.LowerOffset() < r.height-1 {
		delta += r.height - 1 - lines.LowerOffset()
		lines.SetLowerOffset(r.height - 1)
	}

	if !hitTop && lines.UpperOffset() > 0 {
		_, hitTop = r.expandUpwardsUntil(lines, upperID, 0)
	}

	return lines, delta, hitTop
}

// renderOnce runs one assembly pass, persists the result, and returns how
// far the requested anchor offset had to be corrected to satisfy the
// snapping rules.
func (r *CursorTree) renderOnce() int {
	var (
		lines  *styled.Lines
		delta  int
		hitTop bool
	)

	if r.cursorID == supply.None && r.anchorID == supply.None {
		lines, delta, hitTop = r.renderFromCursor()
	} else {
		workingID := r.anchorID
		if workingID == supply.None {
			workingID = r.cursorID
		}
		lines, delta, hitTop = r.renderFromAnchor(workingID)
	}

	r.lines = lines
	r.hitTop = hitTop
	return delta
}

// Cursor movement

// MoveCursorUp moves the cursor to the reply slot above it. At the top of
// the supply the cursor stays and the view just refocuses.
func (r *CursorTree) MoveCursorUp() {
	newID := r.supply.PositionAboveID(r.cursorID)
	if newID == supply.None {
		r.refocus()
		return
	}
	r.applyCursorMove(newID)
}

// MoveCursorDown moves the cursor to the message below it in the visual
// tree, or to the bottom cursor past the last message. The bottom cursor
// stays put.
func (r *CursorTree) MoveCursorDown() {
	if r.cursorID == supply.None {
		return
	}
	r.applyCursorMove(r.supply.BelowID(r.cursorID))
}

func (r *CursorTree) applyCursorMove(newID supply.Id) {
	delta, err := r.slotRowDelta(r.cursorID, newID)
	if err != nil {
		r.recover(err)
		return
	}
	r.setAbsoluteAnchorOffset(r.absoluteAnchorOffset() + delta)
	r.cursorID = newID
	r.renderOnce()
	r.refocus()
}

// nodeAboveSlot returns the message whose last line sits directly above the
// given cursor's line: the bottom of the cursor message's subtree, or the
// bottom of the whole forest for the bottom cursor.
func (r *CursorTree) nodeAboveSlot(cursor supply.Id) supply.Id {
	base := cursor
	if base == supply.None {
		base = r.supply.LowestRootID()
	}
	if base == supply.None {
		return supply.None
	}
	for {
		kids := r.supply.ChildIDs(base)
		if len(kids) == 0 {
			return base
		}
		base = kids[len(kids)-1]
	}
}

// slotRowDelta computes how many rows the cursor line moves when the cursor
// changes from oldCursor to newCursor: the distance between the bottoms of
// the nodes above each slot, negative when the new slot is higher up.
func (r *CursorTree) slotRowDelta(oldCursor, newCursor supply.Id) (int, error) {
	a := r.nodeAboveSlot(oldCursor)
	b := r.nodeAboveSlot(newCursor)
	if a == b {
		return 0, nil
	}
	if a == supply.None || b == supply.None {
		return 0, fmt.Errorf("%w (code %d): no node above slot", ErrInvariant, codeMoveBottom)
	}

	cmp := supply.ComparePaths(r.supply.AncestorPath(a), r.supply.AncestorPath(b))
	if cmp < 0 {
		rows, err := r.sumHeights(r.supply.BetweenIDs(r.supply.BelowID(a), b))
		return rows, err
	}
	rows, err := r.sumHeights(r.supply.BetweenIDs(r.supply.BelowID(b), a))
	return -rows, err
}

// sumHeights totals the rendered heights of the given messages, rendering
// them into the cache at their tree width as necessary.
func (r *CursorTree) sumHeights(ids []supply.Id) (int, error) {
	total := 0
	for _, id := range ids {
		depth := len(r.supply.AncestorPath(id)) - 1
		if depth < 0 {
			return 0, fmt.Errorf("%w (code %d): empty ancestor path", ErrInvariant, codeMovePath)
		}
		width := r.width - overlapWidth - r.formatter.MetaWidth() - depth*r.indentCells()
		rendered, err := r.renderedMessage(id, width)
		if err != nil {
			return 0, fmt.Errorf("%w (code %d): %v", ErrInvariant, codeMovePath, err)
		}
		total += len(rendered.Lines)
	}
	return total, nil
}

// recover logs an invariant violation and resets the view to a sane state
// instead of crashing: the anchor is dropped so the cursor re-anchors.
func (r *CursorTree) recover(err error) {
	log.Warn().Err(err).Msg("cursor tree self-reset")
	r.anchorID = supply.None
	r.renderOnce()
	r.refocus()
}

// Refocusing and scrolling

// cursorRow locates the cursor line inside the visible viewport.
func (r *CursorTree) cursorRow() (int, bool) {
	row, found := 0, false
	r.lines.Each(func(offset int, line styled.Line) {
		if found || offset < 0 || offset > r.height-1 {
			return
		}
		if cursor, _ := line.Attrs[AttrCursor].(bool); cursor {
			row, found = offset, true
		}
	})
	return row, found
}

// elementNearMiddle finds the message line closest to the middle row,
// returning its row, id and line offset within its message.
func (r *CursorTree) elementNearMiddle() (int, supply.Id, int) {
	middle := (r.height - 1) / 2

	bestRow, bestID, bestOffset := 0, supply.None, 0
	bestDist := -1
	r.lines.Each(func(offset int, line styled.Line) {
		if offset < 0 || offset > r.height-1 {
			return
		}
		id, ok := line.Attrs[AttrMessageID].(supply.Id)
		if !ok {
			return
		}
		dist := offset - middle
		if dist < 0 {
			dist = -dist
		}
		if bestDist == -1 || dist < bestDist {
			lineOffset, _ := line.Attrs[AttrOffset].(int)
			bestRow, bestID, bestOffset, bestDist = offset, id, lineOffset, dist
		}
	})
	return bestRow, bestID, bestOffset
}

// refocus re-anchors the view on the cursor: at its current row when
// visible, else pulled to the top or bottom edge depending on which side of
// the viewport the cursor is on. The anchor row is clamped to keep
// scrolloff rows of context.
func (r *CursorTree) refocus() {
	if row, ok := r.cursorRow(); ok {
		r.anchorID = supply.None
		r.setAbsoluteAnchorOffset(row)
	} else {
		r.anchorID = supply.None
		if r.cursorAboveViewport() {
			r.setAbsoluteAnchorOffset(0)
		} else {
			r.setAbsoluteAnchorOffset(r.height - 1)
		}
	}

	offset := r.absoluteAnchorOffset()
	low, high := r.opts.Scrolloff, r.height-1-r.opts.Scrolloff
	if low > high {
		low = (r.height - 1) / 2
		high = low
	}
	if offset < low {
		offset = low
	}
	if offset > high {
		offset = high
	}
	r.setAbsoluteAnchorOffset(offset)

	r.renderOnce()
}

// cursorAboveViewport decides which direction the offscreen cursor lies in
// by comparing ancestor paths against the element in the middle of the
// screen. The bottom cursor is below everything.
func (r *CursorTree) cursorAboveViewport() bool {
	if r.cursorID == supply.None {
		return false
	}
	_, midID, _ := r.elementNearMiddle()
	if midID == supply.None {
		return false
	}
	cursorPath := r.supply.AncestorPath(r.cursorID)
	midPath := r.supply.AncestorPath(midID)
	return supply.ComparePaths(cursorPath, midPath) < 0
}

// Scroll shifts the anchor row by delta and rerenders. If the snapping
// rules push back, the correction is applied and the view rendered once
// more. Afterwards the view refocuses on the cursor when visible, otherwise
// the element nearest the middle becomes the anchor at its current row so
// offscreen churn cannot slide the visible conversation around.
func (r *CursorTree) Scroll(delta int) {
	r.setAbsoluteAnchorOffset(r.absoluteAnchorOffset() + delta)
	correction := r.renderOnce()
	if correction != 0 {
		r.setAbsoluteAnchorOffset(r.absoluteAnchorOffset() + correction)
		r.renderOnce()
	}

	if _, ok := r.cursorRow(); ok {
		r.refocus()
		return
	}

	row, id, lineOffset := r.elementNearMiddle()
	if id != supply.None {
		r.anchorID = id
		r.setAbsoluteAnchorOffset(row - lineOffset)
	}
}
