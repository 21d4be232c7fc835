// Package protocol defines the narrow boundary between the room UI and a
// chat backend: the event types a backend delivers and the capability set
// the UI calls. Real transports live behind the Client interface; this
// package ships an in-memory client for tests and offline use.
package protocol

import (
	"context"

	"github.com/xonecas/coppice/internal/supply"
)

// Session is one connected user session.
type Session struct {
	ID   string
	Nick string
}

// Event is anything a backend can deliver to the UI. Events are applied one
// at a time between renders; the UI never observes a half-applied event.
type Event interface {
	isEvent()
}

// ConnectedEvent reports a successful connection.
type ConnectedEvent struct{}

// SnapshotEvent delivers the initial room state: its messages, the present
// sessions and our own nick. Log-fetch replies arrive as LogEvent.
type SnapshotEvent struct {
	Messages []supply.Message
	Sessions []Session
	Nick     string // own nick as the server knows it
}

// SendEvent delivers one new message, our own local echo included.
type SendEvent struct {
	Message supply.Message
}

// EditEvent replaces a message under its existing id.
type EditEvent struct {
	Message supply.Message
}

// JoinEvent reports a session joining the room.
type JoinEvent struct {
	Session Session
}

// PartEvent reports a session leaving the room.
type PartEvent struct {
	Session Session
}

// NickEvent reports a session changing its nick.
type NickEvent struct {
	Session Session
	From    string
	To      string
}

// LogEvent delivers older messages fetched before some id. An empty batch
// means the room's history is exhausted.
type LogEvent struct {
	Messages []supply.Message
	Before   supply.Id
}

// DisconnectEvent reports the connection closing.
type DisconnectEvent struct {
	Reason string
}

func (ConnectedEvent) isEvent()  {}
func (SnapshotEvent) isEvent()   {}
func (SendEvent) isEvent()       {}
func (EditEvent) isEvent()       {}
func (JoinEvent) isEvent()       {}
func (PartEvent) isEvent()       {}
func (NickEvent) isEvent()       {}
func (LogEvent) isEvent()        {}
func (DisconnectEvent) isEvent() {}

// Client is the capability set the room UI needs from a backend. Calls may
// block on I/O; replies arrive as events, not return values, so the UI task
// never waits on the wire.
type Client interface {
	// Connect starts the session. The initial room state arrives as a
	// SnapshotEvent.
	Connect(ctx context.Context) error
	// Events returns the channel the backend delivers on. The channel is
	// closed after DisconnectEvent.
	Events() <-chan Event
	// Send posts a message under parent; the bottom cursor posts a new
	// root. The created message comes back as a SendEvent.
	Send(ctx context.Context, content string, parent supply.Id) error
	// SetNick requests a nick change, confirmed by a NickEvent.
	SetNick(ctx context.Context, nick string) error
	// Log requests up to n messages older than before, delivered as a
	// LogEvent.
	Log(ctx context.Context, n int, before supply.Id) error
	// Close tears the session down.
	Close() error
}
