package styled

// Line is one buffer row: a text plus attributes that apply to the whole
// row (message id, line offset within the message, cursor marker).
type Line struct {
	Attrs Attrs
	Text  Text
}

// Lines is an ordered sequence of attributed rows with a signed vertical
// origin. Prepending a row decrements the upper offset; appending leaves it
// unchanged. Negative offsets are normal while a screen is being assembled
// around an anchor row.
type Lines struct {
	upper int
	lines []Line
}

// NewLines returns an empty buffer with origin 0.
func NewLines() *Lines {
	return &Lines{}
}

// Len returns the number of rows.
func (l *Lines) Len() int {
	return len(l.lines)
}

// UpperOffset returns the offset of the first row.
func (l *Lines) UpperOffset() int {
	return l.upper
}

// SetUpperOffset moves the whole buffer so its first row sits at offset.
func (l *Lines) SetUpperOffset(offset int) {
	l.upper = offset
}

// LowerOffset returns the offset of the last row. For an empty buffer it is
// one less than the upper offset.
func (l *Lines) LowerOffset() int {
	return l.upper + len(l.lines) - 1
}

// SetLowerOffset moves the whole buffer so its last row sits at offset.
func (l *Lines) SetLowerOffset(offset int) {
	l.upper = offset - len(l.lines) + 1
}

// OffsetBy shifts the buffer vertically by delta.
func (l *Lines) OffsetBy(delta int) {
	l.upper += delta
}

// At returns the row at the given absolute offset.
func (l *Lines) At(offset int) (Line, bool) {
	i := offset - l.upper
	if i < 0 || i >= len(l.lines) {
		return Line{}, false
	}
	return l.lines[i], true
}

// Each calls fn for every row with its absolute offset, top to bottom.
func (l *Lines) Each(fn func(offset int, line Line)) {
	for i, ln := range l.lines {
		fn(l.upper+i, ln)
	}
}

// AppendAbove prepends a row, decrementing the upper offset.
func (l *Lines) AppendAbove(attrs Attrs, text Text) {
	l.lines = append([]Line{{Attrs: attrs.clone(), Text: text}}, l.lines...)
	l.upper--
}

// AppendBelow appends a row, leaving the upper offset unchanged.
func (l *Lines) AppendBelow(attrs Attrs, text Text) {
	l.lines = append(l.lines, Line{Attrs: attrs.clone(), Text: text})
}

// ExtendAbove splices other's rows above l, ignoring other's own offsets.
func (l *Lines) ExtendAbove(other *Lines) {
	l.lines = append(append([]Line(nil), other.lines...), l.lines...)
	l.upper -= len(other.lines)
}

// ExtendBelow splices other's rows below l, ignoring other's own offsets.
func (l *Lines) ExtendBelow(other *Lines) {
	l.lines = append(l.lines, other.lines...)
}

// Between returns the rows whose offsets fall inside [start, end],
// preserving their absolute offsets.
func (l *Lines) Between(start, end int) *Lines {
	out := NewLines()
	out.upper = start
	for i, ln := range l.lines {
		off := l.upper + i
		if off < start || off > end {
			continue
		}
		if len(out.lines) == 0 {
			out.upper = off
		}
		out.lines = append(out.lines, ln)
	}
	return out
}

// ToSize is Between, padded with blank rows so the result covers exactly
// [start, end].
func (l *Lines) ToSize(start, end int) *Lines {
	cut := l.Between(start, end)
	out := NewLines()
	out.upper = start
	for off := start; off <= end; off++ {
		if ln, ok := cut.At(off); ok {
			out.lines = append(out.lines, ln)
		} else {
			out.lines = append(out.lines, Line{})
		}
	}
	return out
}

// RenderLine produces the row at the given offset as a text exactly width
// cells wide. The rightmost column is reserved for the overflow marker: it
// shows overflow when the row's content extends past the right edge of the
// body, fill otherwise. hOffset scrolls the body horizontally; the body is
// padded with fill on either side as needed. Row-wide attributes are applied
// to every cell afterwards.
func (l *Lines) RenderLine(offset, width, hOffset int, fill, overflow rune) Text {
	if width < 1 {
		return Text{}
	}

	ln, _ := l.At(offset)
	text := ln.Text
	n := text.Len()

	body := width - 1
	bodyStart := hOffset
	bodyEnd := hOffset + body

	var parts []Text
	if bodyStart < 0 {
		pad := min(-bodyStart, body)
		parts = append(parts, Plain(stringsRepeat(fill, pad)))
	}
	visible := text.Slice(max(bodyStart, 0), min(bodyEnd, n))
	parts = append(parts, visible)

	used := 0
	for _, p := range parts {
		used += p.Len()
	}
	if used < body {
		parts = append(parts, Plain(stringsRepeat(fill, body-used)))
	}

	marker := fill
	if bodyEnd < n {
		marker = overflow
	}
	parts = append(parts, Plain(string(marker)))

	out := Concat(parts...)
	for name, value := range ln.Attrs {
		out = out.Set(name, value)
	}
	return out
}

// Render produces the viewport rows [0, height-1], each exactly width cells
// wide.
func (l *Lines) Render(width, height, hOffset int, fill, overflow rune) []Text {
	sized := l.ToSize(0, height-1)
	rows := make([]Text, 0, height)
	for off := 0; off < height; off++ {
		rows = append(rows, sized.RenderLine(off, width, hOffset, fill, overflow))
	}
	return rows
}

func stringsRepeat(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]rune, n)
	for i := range buf {
		buf[i] = r
	}
	return string(buf)
}
