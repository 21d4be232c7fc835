package protocol

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xonecas/coppice/internal/supply"
)

// LocalClient is an in-memory Client: a room that lives only inside this
// process. It backs tests and offline mode. Sends are echoed back with
// provisional uuid ids, the way a server would confirm them.
type LocalClient struct {
	mu       sync.Mutex
	nick     string
	history  []supply.Message // older than the snapshot, newest last
	snapshot []supply.Message
	events   chan Event
	closed   bool
}

// NewLocalClient returns a client whose room starts with the given
// messages. The most recent snapshotSize messages form the initial
// snapshot; anything older is served through Log.
func NewLocalClient(nick string, messages []supply.Message, snapshotSize int) *LocalClient {
	sorted := append([]supply.Message(nil), messages...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	cut := len(sorted) - snapshotSize
	if cut < 0 {
		cut = 0
	}
	return &LocalClient{
		nick:     nick,
		history:  sorted[:cut],
		snapshot: sorted[cut:],
		events:   make(chan Event, 64),
	}
}

// Connect delivers the initial snapshot.
func (c *LocalClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client closed")
	}
	c.events <- ConnectedEvent{}
	c.events <- SnapshotEvent{
		Messages: append([]supply.Message(nil), c.snapshot...),
		Sessions: []Session{{ID: uuid.NewString(), Nick: c.nick}},
		Nick:     c.nick,
	}
	return nil
}

// Events returns the delivery channel.
func (c *LocalClient) Events() <-chan Event {
	return c.events
}

// Send echoes the message back with a fresh provisional id.
func (c *LocalClient) Send(ctx context.Context, content string, parent supply.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client closed")
	}
	msg := supply.Message{
		ID:        supply.Id(uuid.NewString()),
		Parent:    parent,
		Timestamp: time.Now(),
		Nick:      c.nick,
		Content:   content,
	}
	c.events <- SendEvent{Message: msg}
	return nil
}

// SetNick confirms the change immediately.
func (c *LocalClient) SetNick(ctx context.Context, nick string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client closed")
	}
	from := c.nick
	c.nick = nick
	c.events <- NickEvent{Session: Session{Nick: nick}, From: from, To: nick}
	return nil
}

// Log serves up to n history messages older than before.
func (c *LocalClient) Log(ctx context.Context, n int, before supply.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client closed")
	}

	var batch []supply.Message
	for i := len(c.history) - 1; i >= 0 && len(batch) < n; i-- {
		if before != supply.None && c.history[i].ID >= before {
			continue
		}
		batch = append(batch, c.history[i])
	}
	// Oldest first, like a server page.
	for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
		batch[i], batch[j] = batch[j], batch[i]
	}
	c.events <- LogEvent{Messages: batch, Before: before}
	return nil
}

// Close delivers a final DisconnectEvent and closes the channel.
func (c *LocalClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.events <- DisconnectEvent{Reason: "closed"}
	close(c.events)
	return nil
}
