package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/xonecas/coppice/internal/supply"
)

func messages(n int) []supply.Message {
	stamp := time.Date(2019, 5, 7, 13, 25, 6, 0, time.UTC)
	out := make([]supply.Message, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, supply.Message{
			ID:        supply.Id(rune('a' + i)),
			Timestamp: stamp,
			Nick:      "u",
			Content:   "m",
		})
	}
	return out
}

func nextEvent(t *testing.T, c *LocalClient) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func TestConnectDeliversSnapshot(t *testing.T) {
	c := NewLocalClient("me", messages(5), 3)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := nextEvent(t, c).(ConnectedEvent); !ok {
		t.Fatal("first event is not ConnectedEvent")
	}

	snap, ok := nextEvent(t, c).(SnapshotEvent)
	if !ok {
		t.Fatal("second event is not SnapshotEvent")
	}
	if len(snap.Messages) != 3 {
		t.Errorf("snapshot has %d messages, want 3", len(snap.Messages))
	}
	if snap.Nick != "me" {
		t.Errorf("snapshot nick = %q", snap.Nick)
	}
}

func TestSendEchoes(t *testing.T) {
	c := NewLocalClient("me", nil, 10)
	if err := c.Send(context.Background(), "hello", "parent-id"); err != nil {
		t.Fatal(err)
	}

	ev, ok := nextEvent(t, c).(SendEvent)
	if !ok {
		t.Fatal("send did not produce a SendEvent")
	}
	if ev.Message.Content != "hello" || ev.Message.Parent != "parent-id" {
		t.Errorf("echoed message = %+v", ev.Message)
	}
	if ev.Message.ID == supply.None {
		t.Error("echoed message has no id")
	}
	if ev.Message.Nick != "me" {
		t.Errorf("echoed nick = %q", ev.Message.Nick)
	}
}

func TestLogPagesHistory(t *testing.T) {
	c := NewLocalClient("me", messages(6), 2) // history a..d, snapshot e,f
	if err := c.Log(context.Background(), 3, "e"); err != nil {
		t.Fatal(err)
	}

	ev, ok := nextEvent(t, c).(LogEvent)
	if !ok {
		t.Fatal("log did not produce a LogEvent")
	}
	if len(ev.Messages) != 3 {
		t.Fatalf("log page has %d messages, want 3", len(ev.Messages))
	}
	// Oldest first, all older than "e".
	if ev.Messages[0].ID != "b" || ev.Messages[2].ID != "d" {
		t.Errorf("log page ids = %v..%v", ev.Messages[0].ID, ev.Messages[2].ID)
	}

	// Exhausting history produces an empty page.
	if err := c.Log(context.Background(), 10, "a"); err != nil {
		t.Fatal(err)
	}
	empty := nextEvent(t, c).(LogEvent)
	if len(empty.Messages) != 0 {
		t.Errorf("expected empty page, got %d messages", len(empty.Messages))
	}
}

func TestNickChange(t *testing.T) {
	c := NewLocalClient("", nil, 10)
	if err := c.SetNick(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	ev, ok := nextEvent(t, c).(NickEvent)
	if !ok {
		t.Fatal("nick change did not produce a NickEvent")
	}
	if ev.From != "" || ev.To != "bob" {
		t.Errorf("nick event = %+v", ev)
	}
}

func TestCloseDisconnectsOnce(t *testing.T) {
	c := NewLocalClient("me", nil, 10)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := nextEvent(t, c).(DisconnectEvent); !ok {
		t.Fatal("close did not deliver DisconnectEvent")
	}
	if _, ok := <-c.Events(); ok {
		t.Error("events channel still open after close")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close errored: %v", err)
	}
}
