// Package socket streams engine views to websocket clients
package socket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Manager keeps track of the open view streams
type Manager interface {
	Add(conn *websocket.Conn) string
	Remove(id string)
	CurrentConnectionCount() int64
}

type manager struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewManager() Manager {
	return &manager{
		conns: make(map[string]*websocket.Conn),
	}
}

// Add registers conn and returns its connection id
func (m *manager) Add(conn *websocket.Conn) string {
	id := uuid.New().String()

	m.mu.Lock()
	m.conns[id] = conn
	m.mu.Unlock()

	return id
}

// Remove closes and forgets the connection
func (m *manager) Remove(id string) {
	m.mu.Lock()
	conn, ok := m.conns[id]
	delete(m.conns, id)
	m.mu.Unlock()

	if ok {
		conn.Close()
	}
}

func (m *manager) CurrentConnectionCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.conns))
}
