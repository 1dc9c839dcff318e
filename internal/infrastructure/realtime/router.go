package realtime

import (
	"sync"
)

// Router is the room registry. It tracks live connections, their transport
// room memberships, and one *active* room pointer per connection.
//
// The two notions are deliberately distinct: joining a room overwrites the
// active pointer but never revokes earlier memberships, so a connection keeps
// receiving traffic from rooms it joined before while its outgoing messages
// target the room it joined last. Leaving a room drops the membership and
// clears the pointer only when the room left was the active one.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	rooms        map[string]map[string]*Connection // roomID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of roomIDs
	activeRoom   map[string]string                 // sessionID -> active roomID
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
		activeRoom:   make(map[string]string),
	}
}

// Attach registers a connection. The caller starts the write loop.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()
}

// Detach removes a connection and all of its room memberships.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// Join adds the connection to the room and makes it the connection's active
// room, overwriting any previous pointer.
func (r *Router) Join(roomID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}

	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[roomID] = room
	}
	room[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[roomID] = struct{}{}

	r.activeRoom[conn.ID] = roomID
}

// Leave removes the connection from the room. The active pointer survives
// unless the room left is the active one.
func (r *Router) Leave(roomID string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(roomID, conn.ID)
	r.mu.Unlock()
}

// ActiveRoom returns the room the connection currently targets for outgoing
// messages, if any.
func (r *Router) ActiveRoom(conn *Connection) (string, bool) {
	r.mu.RLock()
	roomID, ok := r.activeRoom[conn.ID]
	r.mu.RUnlock()
	return roomID, ok
}

// IsMember reports whether the connection currently belongs to the room.
func (r *Router) IsMember(roomID string, conn *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	memberships, ok := r.sessionRooms[conn.ID]
	if !ok {
		return false
	}
	_, ok = memberships[roomID]
	return ok
}

// Broadcast writes payload to every member of the room, sender included, and
// returns the number of connections reached.
func (r *Router) Broadcast(roomID string, payload []byte) int {
	r.mu.RLock()
	room := r.rooms[roomID]
	if len(room) == 0 {
		r.mu.RUnlock()
		return 0
	}

	delivered := 0
	for _, conn := range room {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	r.mu.RUnlock()
	return delivered
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.activeRoom = make(map[string]string)
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) {
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	delete(r.sessions, sessionID)

	for roomID := range r.sessionRooms[sessionID] {
		r.removeMemberLocked(roomID, sessionID)
	}
	delete(r.sessionRooms, sessionID)
	delete(r.activeRoom, sessionID)
}

func (r *Router) leaveLocked(roomID string, sessionID string) {
	if sessionID == "" {
		return
	}
	r.removeMemberLocked(roomID, sessionID)
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, roomID)
	}
	if r.activeRoom[sessionID] == roomID {
		delete(r.activeRoom, sessionID)
	}
}

func (r *Router) removeMemberLocked(roomID string, sessionID string) {
	room := r.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}
