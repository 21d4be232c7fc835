package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/ansi"
)

// singleCell requires a string option to occupy exactly one display cell.
func singleCell(value any) bool {
	s, ok := value.(string)
	return ok && ansi.StringWidth(s) == 1
}

func atLeast(n int) func(any) bool {
	return func(value any) bool {
		v, ok := value.(int)
		return ok && v >= n
	}
}

func cellCond() Condition {
	return Condition{Check: singleCell, Message: "must be exactly one cell wide"}
}

func minCond(n int) Condition {
	return Condition{Check: atLeast(n), Message: fmt.Sprintf("must be at least %d", n)}
}

// Options declares the full coppice option surface with its defaults.
func Options() *Registry {
	r := NewRegistry()

	// indent
	r.Add("indent.width", KindInt, 2, minCond(1))
	r.Add("indent.char", KindString, "│", cellCond())
	r.Add("indent.fill", KindString, " ", cellCond())
	r.AddStyle("indent.style", "gray")
	r.Add("indent.cursor.char", KindString, "┃", cellCond())
	r.Add("indent.cursor.corner", KindString, "┗", cellCond())
	r.Add("indent.cursor.fill", KindString, "━", cellCond())
	r.AddStyle("indent.cursor.style", "bold")

	// surround
	r.Add("surround.left", KindString, "[", cellCond())
	r.Add("surround.right", KindString, "]", cellCond())
	r.AddStyle("surround.style", "none")
	r.Add("cursor.surround.left", KindString, "<", cellCond())
	r.Add("cursor.surround.right", KindString, ">", cellCond())
	r.AddStyle("cursor.surround.style", "none")
	r.AddStyle("cursor.own_nick_style", "own_nick")
	r.Add("cursor.fill.char", KindString, " ", cellCond())
	r.AddStyle("cursor.fill.style", "none")

	// meta
	r.Add("meta.show_year", KindBool, false)
	r.Add("meta.show_seconds", KindBool, false)
	r.AddStyle("meta.style", "gray")

	// nicks and rooms
	r.AddStyle("nick_style", "nick")
	r.AddStyle("own_nick_style", "own_nick")
	r.AddStyle("room_style", "room")
	r.AddStyle("error_style", "error")

	// scrolling
	r.Add("scroll.scrolloff", KindInt, 2, minCond(0))
	r.Add("scroll.vertical", KindInt, 1, minCond(1))
	r.Add("scroll.horizontal", KindInt, 4, minCond(1))
	r.Add("scroll.half_page", KindBool, true)

	// rendering
	r.Add("rendering.filler_char", KindString, " ", cellCond())
	r.Add("rendering.overflow_char", KindString, "→", cellCond())
	r.Add("rendering.wide_unicode_placeholder", KindString, "?", cellCond())

	// room layout
	r.Add("layout.nick_list_width", KindInt, 24, minCond(1))
	r.Add("layout.room_name_separator", KindString, "═", cellCond())
	r.Add("layout.room_name_split", KindString, "╤", cellCond())
	r.Add("layout.nick_list_separator", KindString, "│", cellCond())
	r.Add("layout.nick_list_split", KindString, "┤", cellCond())
	r.Add("layout.edit_separator", KindString, "─", cellCond())
	r.AddStyle("layout.borders_style", "gray")
	r.AddStyle("nick_list.heading_style", "bold")
	r.AddStyle("nick_list.counter_style", "gray")

	// built-in styles
	r.AddDefaultStyle("none", Style{})
	r.AddDefaultStyle("bold", Style{FG: "bold"})
	r.AddDefaultStyle("gray", Style{FG: "8"})
	r.AddDefaultStyle("room", Style{FG: "12"})
	r.AddDefaultStyle("nick", Style{FG: "14"})
	r.AddDefaultStyle("own_nick", Style{FG: "11"})
	r.AddDefaultStyle("error", Style{FG: "9"})

	return r
}

// DefaultPath returns the default config file location
// (~/.config/coppice/coppice.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "coppice", "coppice.toml"), nil
}

// DataDir returns the coppice data directory (~/.config/coppice), creating
// it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "coppice")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
