package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/chesslobby/game/engine"
)

// fakeConn records every message sent to it.
type fakeConn struct {
	name string

	mu   sync.Mutex
	msgs []any
}

func newConn(name string) *fakeConn {
	return &fakeConn{name: name}
}

func (c *fakeConn) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.msgs...)
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

// lastAs returns the most recent message sent to c, asserting its type.
func lastAs[T any](t *testing.T, c *fakeConn) T {
	t.Helper()
	msgs := c.messages()
	if len(msgs) == 0 {
		var zero T
		t.Fatalf("%s received nothing, expected %T", c.name, zero)
		return zero
	}
	v, ok := msgs[len(msgs)-1].(T)
	if !ok {
		t.Fatalf("%s: expected %T, got %#v", c.name, v, msgs[len(msgs)-1])
	}
	return v
}

// scriptedRules answers moves from a fixed table and rejects everything else.
type scriptedRules struct {
	results map[string]engine.Result
	calls   []string
}

func (s *scriptedRules) Apply(state string, mover engine.Color, move string) engine.Result {
	s.calls = append(s.calls, move)
	if r, ok := s.results[move]; ok {
		return r
	}
	return engine.Rejected(engine.ReasonInvalidMove)
}

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestManager returns a manager where the older request always plays white.
func newTestManager(opts ...Option) *Manager {
	base := []Option{
		WithCoinFlip(func() bool { return true }),
		WithIDGenerator(sequentialIDs()),
	}
	return NewManager(append(base, opts...)...)
}

// startGame pairs alice (white) and bob (black) and returns their snapshots.
func startGame(t *testing.T, m *Manager, alice, bob *fakeConn) (Snapshot, Snapshot) {
	t.Helper()
	if err := m.RequestMatch(MatchRequest{Username: "alice", Conn: alice}); err != nil {
		t.Fatalf("alice request failed: %v", err)
	}
	if err := m.RequestMatch(MatchRequest{Username: "bob", Conn: bob}); err != nil {
		t.Fatalf("bob request failed: %v", err)
	}
	return lastAs[Snapshot](t, alice), lastAs[Snapshot](t, bob)
}
