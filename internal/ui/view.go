package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	return v
}

// renderContent produces the full-screen string for the current mode.
func (m Model) renderContent() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	switch m.mode {
	case ModeConnecting:
		return m.renderCentered("Connecting to &"+m.roomName+"...", m.cfg.Str("room_style"))
	case ModeConnectionFailed:
		return m.renderCentered("Could not connect to &"+m.roomName, m.cfg.Str("error_style"))
	}

	return m.renderRoom()
}

// renderCentered fills the screen with one centered line.
func (m Model) renderCentered(text, styleName string) string {
	rows := make([]string, m.height)
	blank := strings.Repeat(" ", m.width)
	for i := range rows {
		rows[i] = blank
	}

	line := m.palette.Get(styleName).Render(text)
	rows[m.height/2] = padRow(centerRow(line, m.width), m.width)
	return strings.Join(rows, "\n")
}

// renderRoom assembles the room layout: name header, divider, tree pane,
// nick list column, and the editor pane when composing.
func (m Model) renderRoom() string {
	treeW := m.nickDividerX()
	nickW := m.width - treeW - 1
	contentH := m.contentHeight()
	borders := m.palette.Get(m.cfg.Str("layout.borders_style"))

	var b strings.Builder

	// Room name, centered over the whole width.
	name := m.palette.Get(m.cfg.Str("room_style")).Render("&" + m.roomName)
	b.WriteString(padRow(centerRow(name, m.width), m.width))
	b.WriteByte('\n')

	// Header divider with the nick list split.
	sep := m.cfg.Str("layout.room_name_separator")
	b.WriteString(borders.Render(strings.Repeat(sep, treeW) +
		m.cfg.Str("layout.room_name_split") +
		strings.Repeat(sep, max(0, nickW))))
	b.WriteByte('\n')

	treeRows := m.blitTree(treeW, m.treeHeight())
	nickRows := m.renderNickList(nickW, contentH)
	editLines := m.renderEditor(treeW)

	splitRow := -1
	if m.mode == ModeEditing {
		splitRow = m.treeHeight()
	}

	for row := 0; row < contentH; row++ {
		// Left pane: tree, then divider and editor when composing.
		switch {
		case row < len(treeRows):
			b.WriteString(treeRows[row])
		case row == splitRow:
			b.WriteString(borders.Render(strings.Repeat(m.cfg.Str("layout.edit_separator"), treeW)))
		default:
			idx := row - splitRow - 1
			if idx >= 0 && idx < len(editLines) {
				b.WriteString(padRow(editLines[idx], treeW))
			} else {
				b.WriteString(strings.Repeat(" ", treeW))
			}
		}

		// Nick list divider, split where the editor divider meets it.
		if row == splitRow {
			b.WriteString(borders.Render(m.cfg.Str("layout.nick_list_split")))
		} else {
			b.WriteString(borders.Render(m.cfg.Str("layout.nick_list_separator")))
		}

		if row < len(nickRows) {
			b.WriteString(nickRows[row])
		} else {
			b.WriteString(strings.Repeat(" ", max(0, nickW)))
		}

		if row < contentH-1 {
			b.WriteByte('\n')
		}
	}

	content := b.String()
	if m.mode == ModeSettingNick {
		content = m.overlayNickInput(content)
	}
	return content
}

func (m Model) nickDividerX() int {
	return m.treeWidth()
}

// renderEditor returns the compose editor rows, empty when not composing.
func (m Model) renderEditor(width int) []string {
	if m.mode != ModeEditing {
		return nil
	}
	lines := strings.Split(m.editor.View(), "\n")
	if len(lines) > editorRows {
		lines = lines[:editorRows]
	}
	return lines
}

// renderNickList renders the presence column: a heading with the session
// count, then the nicks, own nick styled distinctly.
func (m Model) renderNickList(width, height int) []string {
	if width <= 0 {
		return nil
	}

	heading := m.palette.Get(m.cfg.Str("nick_list.heading_style")).Render("People") +
		m.palette.Get(m.cfg.Str("nick_list.counter_style")).Render(fmt.Sprintf(" [%d]", m.nicks.Len()))

	rows := []string{padRow(" "+heading, width)}
	for _, nick := range m.nicks.Nicks() {
		style := m.palette.Get(m.cfg.Str("nick_style"))
		if nick != "" && nick == m.nicks.Own() {
			style = m.palette.Get(m.cfg.Str("own_nick_style"))
		}
		rows = append(rows, padRow(" "+style.Render(nick), width))
		if len(rows) >= height {
			break
		}
	}
	return rows
}

// overlayNickInput draws the nick prompt over the middle of the screen.
func (m Model) overlayNickInput(content string) string {
	rows := strings.Split(content, "\n")
	mid := len(rows) / 2

	prompt := "Choose a nick: @" + m.nickInput.Value()
	style := m.palette.Get(m.cfg.Str("own_nick_style"))
	line := centerRow(style.Render(prompt), m.width)
	if mid < len(rows) {
		rows[mid] = padRow(line, m.width)
	}
	return strings.Join(rows, "\n")
}

// Row helpers.

// padRow truncates or pads a styled row to exactly width cells.
func padRow(row string, width int) string {
	w := lipgloss.Width(row)
	if w > width {
		return ansi.Truncate(row, width, "")
	}
	return row + strings.Repeat(" ", width-w)
}

// centerRow left-pads a styled row so it sits centered in width.
func centerRow(row string, width int) string {
	w := lipgloss.Width(row)
	if w >= width {
		return row
	}
	return strings.Repeat(" ", (width-w)/2) + row
}
