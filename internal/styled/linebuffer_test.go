package styled

import "testing"

func bufferOf(texts ...string) *Lines {
	l := NewLines()
	for _, t := range texts {
		l.AppendBelow(nil, Plain(t))
	}
	return l
}

func TestOffsetAlgebra(t *testing.T) {
	l := NewLines()
	if l.LowerOffset() >= l.UpperOffset() {
		t.Error("empty buffer must have lower < upper")
	}

	l.AppendBelow(nil, Plain("a"))
	if l.UpperOffset() != 0 || l.LowerOffset() != 0 {
		t.Errorf("single line: offsets %d..%d", l.UpperOffset(), l.LowerOffset())
	}

	l.AppendBelow(nil, Plain("b"))
	if l.UpperOffset() != 0 || l.LowerOffset() != 1 {
		t.Errorf("append below: offsets %d..%d", l.UpperOffset(), l.LowerOffset())
	}

	l.AppendAbove(nil, Plain("z"))
	if l.UpperOffset() != -1 || l.LowerOffset() != 1 {
		t.Errorf("append above: offsets %d..%d", l.UpperOffset(), l.LowerOffset())
	}

	l.SetLowerOffset(9)
	if l.UpperOffset() != 7 {
		t.Errorf("SetLowerOffset: upper = %d, want 7", l.UpperOffset())
	}
	l.SetUpperOffset(0)
	if l.LowerOffset() != 2 {
		t.Errorf("SetUpperOffset: lower = %d, want 2", l.LowerOffset())
	}
}

func TestExtendKeepsOwnOffsets(t *testing.T) {
	l := bufferOf("a", "b")

	other := bufferOf("x", "y")
	other.SetUpperOffset(100) // ignored by extend

	l.ExtendBelow(other)
	if l.UpperOffset() != 0 || l.LowerOffset() != 3 {
		t.Errorf("extend below: offsets %d..%d", l.UpperOffset(), l.LowerOffset())
	}

	l.ExtendAbove(bufferOf("p", "q"))
	if l.UpperOffset() != -2 || l.LowerOffset() != 3 {
		t.Errorf("extend above: offsets %d..%d", l.UpperOffset(), l.LowerOffset())
	}

	line, ok := l.At(-2)
	if !ok || line.Text.String() != "p" {
		t.Errorf("line at -2 = %q", line.Text.String())
	}

	l.ExtendBelow(NewLines())
	if l.LowerOffset() != 3 {
		t.Errorf("extend below empty moved lower to %d", l.LowerOffset())
	}
}

func TestBetween(t *testing.T) {
	l := bufferOf("a", "b", "c", "d", "e")
	l.SetUpperOffset(-2) // rows -2..2

	cut := l.Between(0, 1)
	if cut.Len() != 2 || cut.UpperOffset() != 0 {
		t.Fatalf("between: %d lines at %d", cut.Len(), cut.UpperOffset())
	}
	line, _ := cut.At(0)
	if line.Text.String() != "c" {
		t.Errorf("row 0 = %q, want c", line.Text.String())
	}

	empty := l.Between(10, 20)
	if empty.Len() != 0 {
		t.Errorf("between outside range returned %d lines", empty.Len())
	}
}

func TestToSizePads(t *testing.T) {
	l := bufferOf("a", "b")
	l.SetUpperOffset(2) // rows 2..3

	sized := l.ToSize(0, 4)
	if sized.Len() != 5 {
		t.Fatalf("ToSize returned %d lines, want 5", sized.Len())
	}
	for _, row := range []int{0, 1, 4} {
		line, ok := sized.At(row)
		if !ok || line.Text.Len() != 0 {
			t.Errorf("row %d should be blank", row)
		}
	}
	line, _ := sized.At(2)
	if line.Text.String() != "a" {
		t.Errorf("row 2 = %q", line.Text.String())
	}
}

func TestRenderLine(t *testing.T) {
	l := NewLines()
	l.AppendBelow(Attrs{"style": "bold"}, Plain("abcdef"))

	tests := []struct {
		name    string
		width   int
		hOffset int
		want    string
	}{
		{"fits", 8, 0, "abcdef.."},
		{"overflow", 4, 0, "abc>"},
		{"scrolled", 4, 2, "cde>"},
		{"scrolled to end", 4, 3, "def."},
		{"scrolled past end", 6, 4, "ef...."},
		{"negative offset", 6, -2, "..abc>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.RenderLine(0, tt.width, tt.hOffset, '.', '>')
			if got.String() != tt.want {
				t.Errorf("RenderLine = %q, want %q", got.String(), tt.want)
			}
			if got.Len() != tt.width {
				t.Errorf("RenderLine width = %d, want %d", got.Len(), tt.width)
			}
		})
	}
}

func TestRenderLineAppliesLineAttrs(t *testing.T) {
	l := NewLines()
	l.AppendBelow(Attrs{"mid": "m1"}, Plain("ab"))

	got := l.RenderLine(0, 5, 0, ' ', '>')
	for i := 0; i < got.Len(); i++ {
		if v := got.Get(i, "mid"); v != "m1" {
			t.Fatalf("cell %d missing line attr, got %v", i, v)
		}
	}
}

func TestRenderBlankRow(t *testing.T) {
	l := NewLines()
	got := l.RenderLine(3, 4, 0, '.', '>')
	if got.String() != "...." {
		t.Errorf("blank row = %q", got.String())
	}
}

func TestRenderViewport(t *testing.T) {
	l := bufferOf("aa", "bb")
	rows := l.Render(4, 3, 0, ' ', '>')
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].String() != "aa  " || rows[1].String() != "bb  " || rows[2].String() != "    " {
		t.Errorf("rows = %q %q %q", rows[0].String(), rows[1].String(), rows[2].String())
	}
}
