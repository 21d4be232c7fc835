// Package ui implements the room widget: a Bubble Tea model that owns the
// message supply, the cursor-tree renderer and the presence list, reacts to
// protocol events and key presses, and blits the rendered viewport.
package ui

import (
	"context"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/coppice/internal/config"
	"github.com/xonecas/coppice/internal/protocol"
	"github.com/xonecas/coppice/internal/render"
	"github.com/xonecas/coppice/internal/styled"
	"github.com/xonecas/coppice/internal/supply"
)

const (
	editorRows  = 3   // compose editor height
	chromeRows  = 2   // room name + divider
	logPageSize = 200 // messages per log fetch
)

// ---------------------------------------------------------------------------
// ELM messages
// ---------------------------------------------------------------------------

// eventMsg wraps one protocol event for the update loop.
type eventMsg struct{ event protocol.Event }

// eventsClosedMsg reports the event channel draining dry.
type eventsClosedMsg struct{}

// clientErrMsg reports a failed outbound call.
type clientErrMsg struct{ err error }

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model is the room widget. It is created once per room and torn down with
// the program.
type Model struct {
	cfg      *config.Config
	palette  Palette
	roomName string
	client   protocol.Client
	ctx      context.Context

	supply    *supply.Supply
	formatter *render.MessageFormatter
	tree      *render.CursorTree
	nicks     *NickList

	mode   Mode
	width  int
	height int

	// Horizontal scroll of the tree pane, in cells.
	hOffset      int
	fillerChar   rune
	overflowChar rune

	editor    textarea.Model
	nickInput textarea.Model

	requestingLogs bool
	topOfRoom      bool
	closed         bool
	lastError      string
}

// New assembles a room widget from a validated config and a connected-to-be
// client.
func New(cfg *config.Config, client protocol.Client, roomName string) Model {
	sup := supply.New()

	formatter := render.NewMessageFormatter("", render.FormatterOptions{
		ShowYear:    cfg.Bool("meta.show_year"),
		ShowSeconds: cfg.Bool("meta.show_seconds"),
		MetaAttrs:   styled.Attrs{"style": cfg.Str("meta.style")},

		SurroundLeft:  cfg.Str("surround.left"),
		SurroundRight: cfg.Str("surround.right"),
		SurroundAttrs: styled.Attrs{"style": cfg.Str("surround.style")},
		NickAttrs:     styled.Attrs{"style": cfg.Str("nick_style")},
		OwnNickAttrs:  styled.Attrs{"style": cfg.Str("own_nick_style")},

		CursorSurroundLeft:  cfg.Str("cursor.surround.left"),
		CursorSurroundRight: cfg.Str("cursor.surround.right"),
		CursorSurroundAttrs: styled.Attrs{"style": cfg.Str("cursor.surround.style")},
		CursorOwnNickAttrs:  styled.Attrs{"style": cfg.Str("cursor.own_nick_style")},
		CursorFill:          cfg.Str("cursor.fill.char"),
		CursorFillAttrs:     styled.Attrs{"style": cfg.Str("cursor.fill.style")},

		WidePlaceholder: cfg.Str("rendering.wide_unicode_placeholder"),
	})

	tree := render.NewCursorTree(sup, formatter, render.TreeOptions{
		IndentWidth: cfg.Int("indent.width"),
		IndentChar:  cfg.Str("indent.char"),
		IndentFill:  cfg.Str("indent.fill"),
		IndentAttrs: styled.Attrs{"style": cfg.Str("indent.style")},

		CursorIndentChar:  cfg.Str("indent.cursor.char"),
		CursorCorner:      cfg.Str("indent.cursor.corner"),
		CursorFill:        cfg.Str("indent.cursor.fill"),
		CursorIndentAttrs: styled.Attrs{"style": cfg.Str("indent.cursor.style")},

		Scrolloff: cfg.Int("scroll.scrolloff"),
	})

	editor := textarea.New()
	editor.Placeholder = ""
	editor.ShowLineNumbers = false

	nickInput := textarea.New()
	nickInput.Placeholder = ""
	nickInput.ShowLineNumbers = false
	nickInput.SetHeight(1)

	return Model{
		cfg:          cfg,
		palette:      NewPalette(cfg),
		roomName:     roomName,
		client:       client,
		ctx:          context.Background(),
		supply:       sup,
		formatter:    formatter,
		tree:         tree,
		nicks:        NewNickList(),
		mode:         ModeConnecting,
		fillerChar:   firstRune(cfg.Str("rendering.filler_char"), ' '),
		overflowChar: firstRune(cfg.Str("rendering.overflow_char"), '→'),
		editor:       editor,
		nickInput:    nickInput,
	}
}

func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

// Tree exposes the renderer, mainly so tests can reach cursor state.
func (m Model) Tree() *render.CursorTree {
	return m.tree
}

// Mode returns the current UI mode.
func (m Model) Mode() Mode {
	return m.mode
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m Model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(m.ctx); err != nil {
			return clientErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.client.Events()
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m Model) sendCmd(content string, parent supply.Id) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Send(m.ctx, content, parent); err != nil {
			return clientErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) nickCmd(nick string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.SetNick(m.ctx, nick); err != nil {
			return clientErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) logCmd(before supply.Id) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Log(m.ctx, logPageSize, before); err != nil {
			return clientErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) closeCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Close(); err != nil {
			log.Warn().Err(err).Msg("client close failed")
		}
		return nil
	}
}

// ---------------------------------------------------------------------------
// Bubble Tea
// ---------------------------------------------------------------------------

// Init connects and starts draining events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.connectCmd(), m.waitForEvent())
}

// Update is the single entry point for key presses, resizes and protocol
// events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		cmd := m.maybeRequestLogs()
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKeyPress(msg)

	case eventMsg:
		cmd := m.applyEvent(msg.event)
		m.renderTree()
		logs := m.maybeRequestLogs()
		return m, tea.Batch(cmd, m.waitForEvent(), logs)

	case eventsClosedMsg:
		return m, tea.Quit

	case clientErrMsg:
		m.lastError = msg.err.Error()
		log.Warn().Err(msg.err).Msg("protocol call failed")
		if m.mode == ModeConnecting {
			m.mode = ModeConnectionFailed
		}
		return m, nil
	}

	return m, nil
}

// handleResize applies a window size change and rerenders at the new tree
// pane dimensions.
func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width, m.height = msg.Width, msg.Height

	treeW := m.treeWidth()
	m.editor.SetWidth(treeW)
	m.editor.SetHeight(editorRows)
	m.nickInput.SetWidth(min(treeW, 32))

	m.renderTree()
}

// Tree pane geometry.

func (m Model) nickListWidth() int {
	w := m.cfg.Int("layout.nick_list_width")
	if w > m.width-2 {
		w = max(0, m.width-2)
	}
	return w
}

func (m Model) treeWidth() int {
	return max(1, m.width-m.nickListWidth()-1)
}

func (m Model) contentHeight() int {
	return max(1, m.height-chromeRows)
}

func (m Model) treeHeight() int {
	h := m.contentHeight()
	if m.mode == ModeEditing {
		h -= editorRows + 1
	}
	return max(1, h)
}

// renderTree runs a render pass at the current pane dimensions.
func (m *Model) renderTree() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.tree.Render(m.treeWidth(), m.treeHeight())
}

// maybeRequestLogs issues one log fetch when the last render hit the top of
// the supply and no fetch is in flight. An empty reply latches topOfRoom
// and stops the requests for good.
func (m *Model) maybeRequestLogs() tea.Cmd {
	if m.topOfRoom || m.requestingLogs || !m.tree.HitTop() {
		return nil
	}
	oldest := m.supply.OldestID()
	if oldest == supply.None {
		return nil
	}
	m.requestingLogs = true
	return m.logCmd(oldest)
}

// ---------------------------------------------------------------------------
// Protocol events
// ---------------------------------------------------------------------------

func (m *Model) receiveMessage(msg supply.Message) {
	m.supply.Add(msg)
	m.tree.Invalidate(msg.ID)
}

func (m *Model) setOwnNick(nick string) {
	if nick == m.formatter.Nick() {
		return
	}
	m.formatter.SetNick(nick)
	m.nicks.SetOwn(nick)
	m.tree.InvalidateAll()
}

func (m *Model) applyEvent(ev protocol.Event) tea.Cmd {
	switch ev := ev.(type) {
	case protocol.ConnectedEvent:
		if m.mode == ModeConnecting {
			m.mode = ModeViewing
		}

	case protocol.SnapshotEvent:
		for _, msg := range ev.Messages {
			m.receiveMessage(msg)
		}
		m.nicks.Replace(ev.Sessions)
		m.setOwnNick(ev.Nick)

	case protocol.SendEvent:
		m.receiveMessage(ev.Message)

	case protocol.EditEvent:
		m.receiveMessage(ev.Message)

	case protocol.JoinEvent:
		m.nicks.Join(ev.Session)

	case protocol.PartEvent:
		m.nicks.Part(ev.Session)

	case protocol.NickEvent:
		m.nicks.Rename(ev.Session, ev.To)
		if ev.From == m.formatter.Nick() {
			m.setOwnNick(ev.To)
		}

	case protocol.LogEvent:
		if len(ev.Messages) == 0 {
			m.topOfRoom = true
		}
		for _, msg := range ev.Messages {
			m.receiveMessage(msg)
		}
		m.requestingLogs = false

	case protocol.DisconnectEvent:
		log.Info().Str("reason", ev.Reason).Msg("disconnected")
		return m.emitClose()
	}
	return nil
}

// emitClose quits exactly once per widget lifetime.
func (m *Model) emitClose() tea.Cmd {
	if m.closed {
		return nil
	}
	m.closed = true
	return tea.Quit
}

// ---------------------------------------------------------------------------
// Key presses
// ---------------------------------------------------------------------------

func (m Model) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeViewing:
		return m.handleViewingKey(msg)
	case ModeEditing:
		return m.handleEditingKey(msg)
	case ModeSettingNick:
		return m.handleNickKey(msg)
	case ModeConnectionFailed:
		if msg.Keystroke() == "q" || msg.Keystroke() == "enter" {
			cmd := tea.Sequence(m.closeCmd(), m.emitClose())
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleViewingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Keystroke() {
	case "up":
		m.tree.MoveCursorUp()
		cmd := m.maybeRequestLogs()
		return m, cmd
	case "down":
		m.tree.MoveCursorDown()
		cmd := m.maybeRequestLogs()
		return m, cmd

	case "shift+up":
		m.tree.Scroll(-m.cfg.Int("scroll.vertical"))
		cmd := m.maybeRequestLogs()
		return m, cmd
	case "shift+down":
		m.tree.Scroll(m.cfg.Int("scroll.vertical"))
		cmd := m.maybeRequestLogs()
		return m, cmd

	case "pgup":
		m.tree.Scroll(-m.pageStep())
		cmd := m.maybeRequestLogs()
		return m, cmd
	case "pgdown":
		m.tree.Scroll(m.pageStep())
		cmd := m.maybeRequestLogs()
		return m, cmd

	case "shift+left":
		m.hOffset = max(0, m.hOffset-m.cfg.Int("scroll.horizontal"))
		return m, nil
	case "shift+right":
		m.hOffset += m.cfg.Int("scroll.horizontal")
		return m, nil

	case "enter":
		if m.formatter.Nick() == "" {
			return m.switchSettingNick(), nil
		}
		m.editor.Reset()
		return m.switchEditing(), nil
	case "alt+enter":
		if m.formatter.Nick() == "" {
			return m.switchSettingNick(), nil
		}
		return m.switchEditing(), nil

	case "n":
		return m.switchSettingNick(), nil

	case "r":
		m.tree.InvalidateAll()
		m.renderTree()
		return m, nil

	case "q":
		cmd := tea.Sequence(m.closeCmd(), m.emitClose())
		return m, cmd
	}
	return m, nil
}

func (m Model) pageStep() int {
	if m.cfg.Bool("scroll.half_page") {
		return max(1, m.treeHeight()/2)
	}
	return m.treeHeight()
}

func (m Model) handleEditingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Keystroke() {
	case "enter":
		content := m.editor.Value()
		m = m.switchViewing()
		if content == "" {
			return m, nil
		}
		return m, m.sendCmd(content, m.tree.CursorID())
	case "alt+enter":
		m.editor.InsertString("\n")
		return m, nil
	case "esc":
		return m.switchViewing(), nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleNickKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Keystroke() {
	case "enter":
		nick := m.nickInput.Value()
		m = m.switchViewing()
		if nick == "" {
			return m, nil
		}
		return m, m.nickCmd(nick)
	case "esc":
		return m.switchViewing(), nil
	}

	var cmd tea.Cmd
	m.nickInput, cmd = m.nickInput.Update(msg)
	return m, cmd
}

// Mode switches. switchViewing and switchEditing re-render because the tree
// pane height depends on whether the editor is open; the nick prompt is an
// overlay and leaves the pane size unchanged.

func (m Model) switchViewing() Model {
	m.mode = ModeViewing
	m.editor.Blur()
	m.nickInput.Blur()
	m.renderTree()
	return m
}

func (m Model) switchEditing() Model {
	m.mode = ModeEditing
	m.editor.Focus()
	m.renderTree()
	return m
}

func (m Model) switchSettingNick() Model {
	m.mode = ModeSettingNick
	m.nickInput.Reset()
	m.nickInput.SetValue(m.formatter.Nick())
	m.nickInput.Focus()
	return m
}
