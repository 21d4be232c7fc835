package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

func defaultTreeOptions(scrolloff int) TreeOptions {
	return TreeOptions{
		IndentWidth:      2,
		IndentChar:       "│",
		IndentFill:       " ",
		CursorIndentChar: "┃",
		CursorCorner:     "┗",
		CursorFill:       "━",
		Scrolloff:        scrolloff,
	}
}

// treeOf builds a supply from (id, parent) pairs; each message's content is
// its id.
func treeOf(pairs ...[2]string) *supply.Supply {
	s := supply.New()
	stamp := time.Date(2019, 5, 7, 13, 25, 6, 0, time.UTC)
	for _, p := range pairs {
		s.Add(supply.Message{
			ID:        supply.Id(p[0]),
			Parent:    supply.Id(p[1]),
			Timestamp: stamp,
			Nick:      "u",
			Content:   p[0],
		})
	}
	return s
}

func newTestTree(s *supply.Supply, scrolloff int) *CursorTree {
	return NewCursorTree(s, NewMessageFormatter("me", testFormatterOptions()), defaultTreeOptions(scrolloff))
}

// viewport renders the current buffer to plain rows with a space filler and
// '>' overflow marker.
func viewport(tree *CursorTree, width, height int) []string {
	rows := tree.Lines().Render(width, height, 0, ' ', '>')
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.String()
	}
	return out
}

func TestEmptySupply(t *testing.T) {
	tree := newTestTree(supply.New(), 0)
	tree.Render(20, 5)

	rows := viewport(tree, 20, 5)
	if len(rows) != 5 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i := 0; i < 4; i++ {
		if strings.TrimRight(rows[i], " ") != "" {
			t.Errorf("row %d not blank: %q", i, rows[i])
		}
	}
	if rows[4] != "      <me>          " {
		t.Errorf("cursor row = %q", rows[4])
	}
	if !tree.HitTop() {
		t.Error("hit top should be set for an empty supply")
	}
}

func TestBottomAlignedForest(t *testing.T) {
	s := treeOf(
		[2]string{"a", ""},
		[2]string{"b", "a"},
		[2]string{"c", "a"},
	)
	tree := newTestTree(s, 0)
	tree.Render(30, 5)

	rows := viewport(tree, 30, 5)
	want := []string{
		"",
		"13:25 [u] a",
		"13:25 │ [u] b",
		"13:25 │ [u] c",
		"      <me>",
	}
	for i, w := range want {
		if got := strings.TrimRight(rows[i], " "); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
	if !tree.HitTop() {
		t.Error("hit top should be set")
	}
}

func TestCursorLineUnderSubtree(t *testing.T) {
	s := treeOf(
		[2]string{"a", ""},
		[2]string{"b", "a"},
		[2]string{"c", "a"},
	)
	tree := newTestTree(s, 0)
	tree.SetCursorID("a")
	tree.Render(30, 5)

	rows := viewport(tree, 30, 5)
	want := []string{
		"",
		"13:25 [u] a",
		"13:25 ┃ [u] b",
		"13:25 ┃ [u] c",
		"      ┗━<me>",
	}
	for i, w := range want {
		if got := strings.TrimRight(rows[i], " "); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestCursorMovementSequence(t *testing.T) {
	s := treeOf(
		[2]string{"a", ""},
		[2]string{"b", "a"},
		[2]string{"c", "a"},
	)
	tree := newTestTree(s, 0)
	tree.Render(30, 5)

	tree.SetCursorID("a")

	tree.MoveCursorDown()
	if got := tree.CursorID(); got != "b" {
		t.Fatalf("after first down: cursor = %q", got)
	}
	tree.MoveCursorDown()
	if got := tree.CursorID(); got != "c" {
		t.Fatalf("after second down: cursor = %q", got)
	}
	tree.MoveCursorDown()
	if got := tree.CursorID(); got != supply.None {
		t.Fatalf("after third down: cursor = %q, want bottom", got)
	}
	// The bottom cursor stays put.
	tree.MoveCursorDown()
	if got := tree.CursorID(); got != supply.None {
		t.Fatalf("bottom cursor moved to %q", got)
	}

	// Moving up from the bottom lands on the lowest root's slot.
	tree.MoveCursorUp()
	if got := tree.CursorID(); got != "a" {
		t.Fatalf("up from bottom: cursor = %q", got)
	}
	// Then the last child's slot.
	tree.MoveCursorUp()
	if got := tree.CursorID(); got != "c" {
		t.Fatalf("up from a: cursor = %q", got)
	}
	tree.MoveCursorUp()
	if got := tree.CursorID(); got != "b" {
		t.Fatalf("up from c: cursor = %q", got)
	}
	// b holds the topmost slot; up again stays.
	tree.MoveCursorUp()
	if got := tree.CursorID(); got != "b" {
		t.Fatalf("up from topmost slot: cursor = %q", got)
	}
}

func TestScrolloffClamp(t *testing.T) {
	var pairs [][2]string
	for i := 1; i <= 20; i++ {
		pairs = append(pairs, [2]string{fmt.Sprintf("m%02d", i), ""})
	}
	s := treeOf(pairs...)
	tree := newTestTree(s, 3)
	tree.Render(30, 10)

	tree.SetCursorID("m10")

	for move := 0; move < 5; move++ {
		tree.MoveCursorUp()

		found := false
		var cursorAt int
		for i, r := range viewportAttrs(tree, 10) {
			if r {
				found = true
				cursorAt = i
				break
			}
		}
		if !found {
			t.Fatalf("move %d: cursor not visible", move)
		}
		if cursorAt < 3 || cursorAt > 6 {
			t.Errorf("move %d: cursor at row %d, outside scrolloff bounds [3,6]", move, cursorAt)
		}
	}
}

// viewportAttrs reports, per visible row, whether it is the cursor line.
func viewportAttrs(tree *CursorTree, height int) []bool {
	out := make([]bool, height)
	tree.Lines().Each(func(offset int, line styled.Line) {
		if offset < 0 || offset >= height {
			return
		}
		if cursor, _ := line.Attrs[AttrCursor].(bool); cursor {
			out[offset] = true
		}
	})
	return out
}

func TestWidthChangeInvalidates(t *testing.T) {
	s := treeOf(
		[2]string{"a", ""},
		[2]string{"b", "a"},
		[2]string{"c", ""},
	)
	counting := &countingFormatter{inner: NewMessageFormatter("me", testFormatterOptions())}
	tree := NewCursorTree(s, counting, defaultTreeOptions(0))

	tree.Render(40, 10)
	first := counting.renders
	if first != 3 {
		t.Fatalf("first render formatted %d messages, want 3", first)
	}

	tree.Render(40, 10)
	if counting.renders != first {
		t.Errorf("unchanged width re-rendered messages: %d", counting.renders)
	}

	tree.Render(30, 10)
	if counting.renders != first*2 {
		t.Errorf("width change rendered %d messages total, want %d", counting.renders, first*2)
	}
}

type countingFormatter struct {
	inner   Formatter
	renders int
}

func (c *countingFormatter) MetaWidth() int { return c.inner.MetaWidth() }

func (c *countingFormatter) Render(msg supply.Message, width int) RenderedMessage {
	c.renders++
	return c.inner.Render(msg, width)
}

func (c *countingFormatter) RenderCursor(width int) styled.Text {
	return c.inner.RenderCursor(width)
}

func TestRenderIsIdempotent(t *testing.T) {
	s := treeOf(
		[2]string{"a", ""},
		[2]string{"b", "a"},
		[2]string{"c", "a"},
		[2]string{"d", "b"},
	)
	tree := newTestTree(s, 0)

	tree.Render(30, 8)
	first := viewport(tree, 30, 8)
	tree.Render(30, 8)
	second := viewport(tree, 30, 8)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d changed between identical renders: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestHitTopFalseWhenSupplyExtendsAbove(t *testing.T) {
	var pairs [][2]string
	for i := 1; i <= 30; i++ {
		pairs = append(pairs, [2]string{fmt.Sprintf("m%02d", i), ""})
	}
	tree := newTestTree(treeOf(pairs...), 0)
	tree.Render(30, 10)

	if tree.HitTop() {
		t.Error("hit top should be false when messages remain above the viewport")
	}

	rows := viewport(tree, 30, 10)
	if strings.TrimRight(rows[0], " ") == "" {
		t.Error("top row should hold content when the supply extends above")
	}
	if !strings.Contains(rows[9], "<me>") {
		t.Errorf("bottom row should be the cursor line: %q", rows[9])
	}
}

func TestViewportExactHeight(t *testing.T) {
	tree := newTestTree(treeOf([2]string{"a", ""}), 0)
	tree.Render(30, 7)
	if got := tree.Lines().Len(); got != 7 {
		t.Errorf("trimmed buffer has %d lines, want 7", got)
	}
}
