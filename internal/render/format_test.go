package render

import (
	"strings"
	"testing"
	"time"

	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

func testFormatterOptions() FormatterOptions {
	return FormatterOptions{
		SurroundLeft:        "[",
		SurroundRight:       "]",
		CursorSurroundLeft:  "<",
		CursorSurroundRight: ">",
		CursorFill:          " ",
		WidePlaceholder:     "?",
	}
}

var testStamp = time.Date(2019, 5, 7, 13, 25, 6, 0, time.UTC)

func TestMetaWidth(t *testing.T) {
	tests := []struct {
		name          string
		year, seconds bool
		want          int
		wantMeta      string
	}{
		{"time only", false, false, 6, "13:25 "},
		{"with seconds", false, true, 9, "13:25:06 "},
		{"with year", true, false, 15, "19-05-07 13:25 "},
		{"with both", true, true, 18, "19-05-07 13:25:06 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testFormatterOptions()
			opts.ShowYear = tt.year
			opts.ShowSeconds = tt.seconds
			f := NewMessageFormatter("me", opts)

			if got := f.MetaWidth(); got != tt.want {
				t.Errorf("MetaWidth = %d, want %d", got, tt.want)
			}

			rendered := f.Render(supply.Message{ID: "m", Timestamp: testStamp, Nick: "u", Content: "x"}, 40)
			if got := rendered.Meta.String(); got != tt.wantMeta {
				t.Errorf("meta = %q, want %q", got, tt.wantMeta)
			}
			if rendered.Meta.Len() != f.MetaWidth() {
				t.Errorf("meta length %d != MetaWidth %d", rendered.Meta.Len(), f.MetaWidth())
			}
		})
	}
}

func TestRenderBody(t *testing.T) {
	f := NewMessageFormatter("me", testFormatterOptions())

	rendered := f.Render(supply.Message{
		ID:        "m",
		Timestamp: testStamp,
		Nick:      "alice",
		Content:   "first\nsecond",
	}, 40)

	if len(rendered.Lines) != 2 {
		t.Fatalf("got %d lines", len(rendered.Lines))
	}
	if got := rendered.Lines[0].String(); got != "[alice] first" {
		t.Errorf("first line = %q", got)
	}
	if got := rendered.Lines[1].String(); got != strings.Repeat(" ", 8)+"second" {
		t.Errorf("second line = %q", got)
	}
}

func TestRenderOwnNickStyling(t *testing.T) {
	opts := testFormatterOptions()
	opts.NickAttrs = styled.Attrs{"style": "nick"}
	opts.OwnNickAttrs = styled.Attrs{"style": "own_nick"}
	f := NewMessageFormatter("me", opts)

	own := f.Render(supply.Message{ID: "m", Timestamp: testStamp, Nick: "me", Content: "x"}, 40)
	if got := own.Lines[0].Get(1, "style"); got != "own_nick" {
		t.Errorf("own nick style = %v", got)
	}

	other := f.Render(supply.Message{ID: "m", Timestamp: testStamp, Nick: "you", Content: "x"}, 40)
	if got := other.Lines[0].Get(1, "style"); got != "nick" {
		t.Errorf("other nick style = %v", got)
	}
}

func TestWideRuneReplacement(t *testing.T) {
	f := NewMessageFormatter("me", testFormatterOptions())

	rendered := f.Render(supply.Message{
		ID:        "m",
		Timestamp: testStamp,
		Nick:      "日本",
		Content:   "ascii と café",
	}, 40)

	if got := rendered.Lines[0].String(); got != "[??] ascii ? café" {
		t.Errorf("filtered line = %q", got)
	}
}

func TestRenderCursor(t *testing.T) {
	f := NewMessageFormatter("alice", testFormatterOptions())

	cursor := f.RenderCursor(12)
	if got := cursor.String(); got != "<alice>     " {
		t.Errorf("cursor = %q", got)
	}
	if cursor.Len() != 12 {
		t.Errorf("cursor length = %d", cursor.Len())
	}

	// Narrower than the framed nick: no padding, no truncation.
	tight := f.RenderCursor(3)
	if got := tight.String(); got != "<alice>" {
		t.Errorf("tight cursor = %q", got)
	}
}

func TestSetNick(t *testing.T) {
	f := NewMessageFormatter("", testFormatterOptions())
	f.SetNick("bob")
	if got := f.RenderCursor(8).String(); got != "<bob>   " {
		t.Errorf("cursor after SetNick = %q", got)
	}
}
