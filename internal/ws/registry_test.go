package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPeer struct {
	id string

	mu       sync.Mutex
	received [][]byte
	closed   bool
	sendErr  error
}

func (m *mockPeer) UserID() string { return m.id }

func (m *mockPeer) Send(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, frame)
	return nil
}

func (m *mockPeer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockPeer) frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.received...)
}

func (m *mockPeer) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func TestRegistry_AddAndLookup(t *testing.T) {
	r := NewRegistry()
	p := &mockPeer{id: "alice"}

	r.Add(p)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, Peer(p), got)
	assert.True(t, r.IsOnline("alice"))
	assert.False(t, r.IsOnline("bob"))
	assert.Equal(t, 1, r.OnlineCount())
}

func TestRegistry_AddReplacesPrior(t *testing.T) {
	r := NewRegistry()
	first := &mockPeer{id: "alice"}
	second := &mockPeer{id: "alice"}

	r.Add(first)
	r.Add(second)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, Peer(second), got, "newer connection wins")
	assert.True(t, first.isClosed(), "superseded handle must be closed")
	assert.False(t, second.isClosed())
	assert.Equal(t, 1, r.OnlineCount(), "one live entry per user")
}

func TestRegistry_RemoveIgnoresStaleHandle(t *testing.T) {
	r := NewRegistry()
	stale := &mockPeer{id: "alice"}
	current := &mockPeer{id: "alice"}

	r.Add(stale)
	r.Add(current)

	// A delayed disconnect for the replaced connection must not evict
	// the newer one.
	assert.False(t, r.Remove(stale))
	assert.True(t, r.IsOnline("alice"))

	assert.True(t, r.Remove(current))
	assert.False(t, r.IsOnline("alice"))
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Remove(&mockPeer{id: "ghost"}))
}

func TestRegistry_ConcurrentLifecycle(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n%10)
			p := &mockPeer{id: id}
			r.Add(p)
			r.Lookup(id)
			r.Remove(p)
		}(i)
	}
	wg.Wait()

	// Every add is paired with a compare-and-remove of the same peer:
	// a peer is either removed by its own goroutine or replaced by a
	// later one, whose own remove then clears it. Nothing lingers.
	assert.Equal(t, 0, r.OnlineCount())
}
