// Package styled implements attributed terminal text: sequences of
// characters that each carry a map of named attributes. Attributes survive
// slicing, concatenation and repetition, which lets message content keep its
// styling while the tree renderer splices indentation and meta prefixes
// around it.
package styled

import "strings"

// Attrs is a set of named attributes applied to a run of characters.
// Attribute values must be comparable (strings, ints, bools, ids).
type Attrs map[string]any

func (a Attrs) clone() Attrs {
	if len(a) == 0 {
		return nil
	}
	c := make(Attrs, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

func attrsEqual(a, b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// chunk is a run of characters sharing one attribute set.
type chunk struct {
	runes []rune
	attrs Attrs
}

// Text is an immutable sequence of attributed characters. The zero value is
// the empty text. Positions are rune indices, which equal display cells
// because wide runes are filtered out before text enters the renderer.
type Text struct {
	chunks []chunk
}

// Cell is a single attributed character, used with FromCells and Cells.
type Cell struct {
	Rune  rune
	Attrs Attrs
}

// New returns a Text with the given attributes applied to every character.
func New(text string, attrs Attrs) Text {
	if text == "" {
		return Text{}
	}
	return Text{chunks: []chunk{{runes: []rune(text), attrs: attrs.clone()}}}
}

// Plain returns a Text with no attributes.
func Plain(text string) Text {
	return New(text, nil)
}

// FromCells builds a Text from individual cells, merging adjacent cells with
// equal attributes.
func FromCells(cells []Cell) Text {
	chunks := make([]chunk, 0, len(cells))
	for _, c := range cells {
		chunks = append(chunks, chunk{runes: []rune{c.Rune}, attrs: c.Attrs.clone()})
	}
	return fromChunks(chunks)
}

// fromChunks normalizes: empty chunks are dropped and adjacent chunks with
// equal attributes are merged.
func fromChunks(chunks []chunk) Text {
	joined := make([]chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.runes) == 0 {
			continue
		}
		if n := len(joined); n > 0 && attrsEqual(joined[n-1].attrs, c.attrs) {
			joined[n-1].runes = append(joined[n-1].runes[:len(joined[n-1].runes):len(joined[n-1].runes)], c.runes...)
			continue
		}
		joined = append(joined, c)
	}
	return Text{chunks: joined}
}

// Len returns the number of characters.
func (t Text) Len() int {
	n := 0
	for _, c := range t.chunks {
		n += len(c.runes)
	}
	return n
}

// String returns the plain text without attributes.
func (t Text) String() string {
	var b strings.Builder
	for _, c := range t.chunks {
		b.WriteString(string(c.runes))
	}
	return b.String()
}

// Cells returns one Cell per character.
func (t Text) Cells() []Cell {
	cells := make([]Cell, 0, t.Len())
	for _, c := range t.chunks {
		for _, r := range c.runes {
			cells = append(cells, Cell{Rune: r, Attrs: c.attrs.clone()})
		}
	}
	return cells
}

// Equal reports structural equality: same characters with same attributes.
func (t Text) Equal(other Text) bool {
	if len(t.chunks) != len(other.chunks) {
		return false
	}
	for i, c := range t.chunks {
		o := other.chunks[i]
		if string(c.runes) != string(o.runes) || !attrsEqual(c.attrs, o.attrs) {
			return false
		}
	}
	return true
}

// Append concatenates texts onto t.
func (t Text) Append(others ...Text) Text {
	chunks := append([]chunk(nil), t.chunks...)
	for _, o := range others {
		chunks = append(chunks, o.chunks...)
	}
	return fromChunks(chunks)
}

// Concat concatenates a sequence of texts.
func Concat(texts ...Text) Text {
	var chunks []chunk
	for _, t := range texts {
		chunks = append(chunks, t.chunks...)
	}
	return fromChunks(chunks)
}

// Repeat returns t repeated n times. Non-positive n yields the empty text.
func (t Text) Repeat(n int) Text {
	var chunks []chunk
	for i := 0; i < n; i++ {
		chunks = append(chunks, t.chunks...)
	}
	return fromChunks(chunks)
}

// Slice returns the characters in [start, end). Bounds are clamped to the
// text; an inverted range yields the empty text.
func (t Text) Slice(start, end int) Text {
	n := t.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return Text{}
	}

	var out []chunk
	pos := 0
	for _, c := range t.chunks {
		cStart := start - pos
		cEnd := end - pos
		pos += len(c.runes)
		if cEnd <= 0 || cStart >= len(c.runes) {
			continue
		}
		if cStart < 0 {
			cStart = 0
		}
		if cEnd > len(c.runes) {
			cEnd = len(c.runes)
		}
		out = append(out, chunk{runes: c.runes[cStart:cEnd], attrs: c.attrs})
	}
	return fromChunks(out)
}

// SliceFrom returns the characters from start to the end of the text.
func (t Text) SliceFrom(start int) Text {
	return t.Slice(start, t.Len())
}

// AttrsAt returns a copy of the attributes at pos. Out-of-range positions
// yield nil.
func (t Text) AttrsAt(pos int) Attrs {
	c, ok := t.chunkAt(pos)
	if !ok {
		return nil
	}
	return c.attrs.clone()
}

// Get returns the named attribute at pos, or nil if absent.
func (t Text) Get(pos int, name string) any {
	c, ok := t.chunkAt(pos)
	if !ok {
		return nil
	}
	return c.attrs[name]
}

func (t Text) chunkAt(pos int) (chunk, bool) {
	if pos < 0 {
		return chunk{}, false
	}
	cur := 0
	for _, c := range t.chunks {
		if pos < cur+len(c.runes) {
			return c, true
		}
		cur += len(c.runes)
	}
	return chunk{}, false
}

// Set applies name=value to every character.
func (t Text) Set(name string, value any) Text {
	out := make([]chunk, len(t.chunks))
	for i, c := range t.chunks {
		attrs := c.attrs.clone()
		if attrs == nil {
			attrs = Attrs{}
		}
		attrs[name] = value
		out[i] = chunk{runes: c.runes, attrs: attrs}
	}
	return fromChunks(out)
}

// SetRange applies name=value to [start, end). An inverted range (start >
// end) applies the attribute to the complement: everything outside
// [end, start).
func (t Text) SetRange(name string, value any, start, end int) Text {
	if start > end {
		return t.SetRange(name, value, 0, end).SetRange(name, value, start, t.Len())
	}
	mid := t.Slice(start, end).Set(name, value)
	return Concat(t.Slice(0, start), mid, t.SliceFrom(end))
}

// SetAt applies name=value to the single character at pos.
func (t Text) SetAt(name string, value any, pos int) Text {
	return t.SetRange(name, value, pos, pos+1)
}

// Remove deletes the named attribute from every character.
func (t Text) Remove(name string) Text {
	out := make([]chunk, len(t.chunks))
	for i, c := range t.chunks {
		attrs := c.attrs.clone()
		delete(attrs, name)
		out[i] = chunk{runes: c.runes, attrs: attrs}
	}
	return fromChunks(out)
}

// RemoveRange deletes the named attribute from [start, end), or from the
// complement when the range is inverted.
func (t Text) RemoveRange(name string, start, end int) Text {
	if start > end {
		return t.RemoveRange(name, 0, end).RemoveRange(name, start, t.Len())
	}
	mid := t.Slice(start, end).Remove(name)
	return Concat(t.Slice(0, start), mid, t.SliceFrom(end))
}

// Run is a maximal stretch of characters sharing one value for the attribute
// SplitBy was called with. Value is nil where the attribute is absent.
type Run struct {
	Text  Text
	Value any
}

// SplitBy partitions the text into maximal runs where the named attribute
// has the same value. Concatenating the runs in order reproduces the text.
func (t Text) SplitBy(name string) []Run {
	var runs []Run
	var cur []chunk
	var curVal any

	for _, c := range t.chunks {
		val := c.attrs[name]
		if len(cur) > 0 && curVal == val {
			cur = append(cur, c)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, Run{Text: fromChunks(cur), Value: curVal})
		}
		cur = []chunk{c}
		curVal = val
	}
	if len(cur) > 0 {
		runs = append(runs, Run{Text: fromChunks(cur), Value: curVal})
	}
	return runs
}

// Join intersperses t between consecutive segments.
func (t Text) Join(segments []Text) Text {
	var chunks []chunk
	for i, seg := range segments {
		if i > 0 {
			chunks = append(chunks, t.chunks...)
		}
		chunks = append(chunks, seg.chunks...)
	}
	return fromChunks(chunks)
}
