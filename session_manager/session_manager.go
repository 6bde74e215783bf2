// Package session_manager tracks the set of live 2PC sessions this
// process is driving, assigns each a Sid, and tears sessions down either
// on explicit request or after a period of inactivity.
//
// Grounded on the teacher's session_manager/session_manager.go: the
// map+mutex+monitor-goroutine+destroy-channel idiom is kept as is,
// generalized from "one TLSNotary session per client IP" to "one 2PC
// session per Sid, of any protocol kind in this module".
package session_manager

import (
	"log"
	"sync"
	"time"

	"github.com/ciphermed/mpccompare/session"
)

// staleAfter and maxAge mirror the teacher's monitorSessions thresholds
// (1200s inactivity, 2400s total age), generalized since this module's
// protocols are single-shot and typically finish in well under a second;
// the bound mainly guards against a session whose peer never connects.
const (
	staleAfter = 1200 * time.Second
	maxAge     = 2400 * time.Second
)

type item struct {
	sess         *session.Session
	lastSeen     time.Time
	creationTime time.Time
}

// Manager owns a set of sessions keyed by Sid. It is safe for concurrent
// use.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*item
	destroyChan chan string
	stopMonitor chan struct{}
}

// New constructs a Manager and starts its background monitors. Call
// Cleanup when done to stop them and tear down any remaining sessions.
func New() *Manager {
	m := &Manager{
		sessions:    make(map[string]*item),
		destroyChan: make(chan string, 16),
		stopMonitor: make(chan struct{}),
	}
	go m.monitorStaleSessions()
	go m.monitorDestroyChan()
	return m
}

// AddSession creates and registers a new session for the given role,
// returning it so the caller can attach a Protocol and call Run.
func (m *Manager) AddSession(sid string, role session.Role) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sid]; ok {
		log.Println("session_manager: session already exists:", sid)
	}
	now := time.Now()
	s := session.New(sid, role, m.destroyChan)
	m.sessions[sid] = &item{sess: s, lastSeen: now, creationTime: now}
	return s
}

// GetSession returns an already-registered session and refreshes its
// last-seen time, or nil if sid is unknown.
func (m *Manager) GetSession(sid string) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.sessions[sid]
	if !ok {
		log.Println("session_manager: unknown session:", sid)
		return nil
	}
	it.lastSeen = time.Now()
	return it.sess
}

// removeSession drops sid from the table. Safe to call for an unknown
// sid (a no-op, logged).
func (m *Manager) removeSession(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sid]; !ok {
		log.Println("session_manager: cannot remove unknown session:", sid)
		return
	}
	delete(m.sessions, sid)
}

// monitorStaleSessions periodically evicts sessions that have been idle
// or running too long, mirroring the teacher's monitorSessions loop.
func (m *Manager) monitorStaleSessions() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			var stale []string
			for sid, it := range m.sessions {
				if now.Sub(it.lastSeen) > staleAfter || now.Sub(it.creationTime) > maxAge {
					stale = append(stale, sid)
				}
			}
			m.mu.Unlock()
			for _, sid := range stale {
				log.Println("session_manager: evicting stale session:", sid)
				m.removeSession(sid)
			}
		case <-m.stopMonitor:
			return
		}
	}
}

// monitorDestroyChan waits for sessions to signal their own completion
// (success, failure, or panic recovery — see session.Session.Run) and
// removes them, exactly as the teacher's monitorDestroyChan does for
// session.DestroyChan.
func (m *Manager) monitorDestroyChan() {
	for {
		select {
		case sid := <-m.destroyChan:
			m.removeSession(sid)
		case <-m.stopMonitor:
			return
		}
	}
}

// Cleanup stops the background monitors and removes every remaining
// session.
func (m *Manager) Cleanup() {
	close(m.stopMonitor)
	m.mu.Lock()
	sids := make([]string, 0, len(m.sessions))
	for sid := range m.sessions {
		sids = append(sids, sid)
	}
	m.mu.Unlock()
	for _, sid := range sids {
		m.removeSession(sid)
	}
}

// Count returns the number of currently tracked sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
