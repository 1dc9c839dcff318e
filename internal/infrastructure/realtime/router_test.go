package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConn builds a connection without a live socket and without a running
// write loop, so delivered payloads stay readable on the send buffer.
func newTestConn(t *testing.T, r *Router) *Connection {
	t.Helper()
	conn := NewConnection(nil)
	r.Attach(conn)
	return conn
}

func received(conn *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case payload := <-conn.send:
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestJoin_SetsActiveRoom(t *testing.T) {
	r := NewRouter()
	conn := newTestConn(t, r)

	_, ok := r.ActiveRoom(conn)
	assert.False(t, ok)

	r.Join("room-a", conn)
	room, ok := r.ActiveRoom(conn)
	require.True(t, ok)
	assert.Equal(t, "room-a", room)
}

func TestJoin_OverwritesActiveRoomKeepsMembership(t *testing.T) {
	r := NewRouter()
	conn := newTestConn(t, r)

	r.Join("room-a", conn)
	r.Join("room-b", conn)

	room, ok := r.ActiveRoom(conn)
	require.True(t, ok)
	assert.Equal(t, "room-b", room)

	// Earlier membership still receives traffic.
	assert.True(t, r.IsMember("room-a", conn))
	assert.Equal(t, 1, r.Broadcast("room-a", []byte("x")))
}

func TestLeave_NonActiveRoomKeepsPointer(t *testing.T) {
	r := NewRouter()
	conn := newTestConn(t, r)

	r.Join("room-a", conn)
	r.Join("room-b", conn)
	r.Leave("room-a", conn)

	room, ok := r.ActiveRoom(conn)
	require.True(t, ok)
	assert.Equal(t, "room-b", room)
	assert.False(t, r.IsMember("room-a", conn))
}

func TestLeave_ActiveRoomClearsPointer(t *testing.T) {
	r := NewRouter()
	conn := newTestConn(t, r)

	r.Join("room-a", conn)
	r.Leave("room-a", conn)

	_, ok := r.ActiveRoom(conn)
	assert.False(t, ok)
}

func TestBroadcast_ReachesAllMembersIncludingSender(t *testing.T) {
	r := NewRouter()
	sender := newTestConn(t, r)
	peer := newTestConn(t, r)
	outsider := newTestConn(t, r)

	r.Join("room-a", sender)
	r.Join("room-a", peer)
	r.Join("room-b", outsider)

	delivered := r.Broadcast("room-a", []byte("hello"))
	assert.Equal(t, 2, delivered)

	require.Len(t, received(sender), 1)
	require.Len(t, received(peer), 1)
	assert.Empty(t, received(outsider))
}

func TestBroadcast_EmptyRoom(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, 0, r.Broadcast("nobody-here", []byte("x")))
}

func TestJoin_UnattachedConnectionIgnored(t *testing.T) {
	r := NewRouter()
	conn := NewConnection(nil)

	r.Join("room-a", conn)
	_, ok := r.ActiveRoom(conn)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Broadcast("room-a", []byte("x")))
}

func TestDetach_RemovesAllMemberships(t *testing.T) {
	r := NewRouter()
	conn := newTestConn(t, r)
	peer := newTestConn(t, r)

	r.Join("room-a", conn)
	r.Join("room-b", conn)
	r.Join("room-a", peer)

	r.Detach(conn)

	_, ok := r.ActiveRoom(conn)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Broadcast("room-a", []byte("x")))
	assert.Equal(t, 0, r.Broadcast("room-b", []byte("x")))
}
