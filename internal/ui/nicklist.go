package ui

import (
	"sort"
	"strings"

	"github.com/xonecas/coppice/internal/protocol"
)

// NickList tracks the sessions present in the room and renders them as the
// right-hand pane.
type NickList struct {
	sessions map[string]protocol.Session
	own      string
}

// NewNickList returns an empty presence list.
func NewNickList() *NickList {
	return &NickList{sessions: make(map[string]protocol.Session)}
}

// SetOwn marks which nick is ours for styling.
func (n *NickList) SetOwn(nick string) {
	n.own = nick
}

// Join adds or updates a session.
func (n *NickList) Join(s protocol.Session) {
	n.sessions[s.ID] = s
}

// Part removes a session. Unknown sessions are ignored.
func (n *NickList) Part(s protocol.Session) {
	delete(n.sessions, s.ID)
}

// Rename updates the nick of a session.
func (n *NickList) Rename(s protocol.Session, to string) {
	cur, ok := n.sessions[s.ID]
	if !ok {
		cur = s
	}
	cur.Nick = to
	n.sessions[s.ID] = cur
}

// Replace swaps the whole presence list, as a snapshot does.
func (n *NickList) Replace(sessions []protocol.Session) {
	n.sessions = make(map[string]protocol.Session, len(sessions))
	for _, s := range sessions {
		n.sessions[s.ID] = s
	}
}

// Len returns the number of present sessions.
func (n *NickList) Len() int {
	return len(n.sessions)
}

// Nicks returns the present nicks sorted case-insensitively.
func (n *NickList) Nicks() []string {
	nicks := make([]string, 0, len(n.sessions))
	for _, s := range n.sessions {
		nicks = append(nicks, s.Nick)
	}
	sort.Slice(nicks, func(i, j int) bool {
		return strings.ToLower(nicks[i]) < strings.ToLower(nicks[j])
	})
	return nicks
}

// Own returns our own nick.
func (n *NickList) Own() string {
	return n.own
}
