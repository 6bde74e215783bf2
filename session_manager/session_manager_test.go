package session_manager

import (
	"testing"
	"time"

	"github.com/ciphermed/mpccompare/session"
)

type okProtocol struct{}

func (okProtocol) Run() error { return nil }

func TestAddAndGetSession(t *testing.T) {
	m := New()
	defer m.Cleanup()

	s := m.AddSession("sid-a", session.RoleOwner)
	if s == nil {
		t.Fatal("AddSession returned nil")
	}
	if got := m.GetSession("sid-a"); got != s {
		t.Fatal("GetSession did not return the same session")
	}
	if got := m.GetSession("missing"); got != nil {
		t.Fatal("expected nil for an unknown sid")
	}
}

func TestSessionRemovedOnFinish(t *testing.T) {
	m := New()
	defer m.Cleanup()

	s := m.AddSession("sid-b", session.RoleHelper)
	if err := s.Run(okProtocol{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.Count() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session was not removed after finishing")
}

func TestCleanupRemovesAll(t *testing.T) {
	m := New()
	m.AddSession("sid-c", session.RoleOwner)
	m.AddSession("sid-d", session.RoleHelper)
	if m.Count() != 2 {
		t.Fatalf("got %d sessions, want 2", m.Count())
	}
	m.Cleanup()
	if m.Count() != 0 {
		t.Fatalf("got %d sessions after Cleanup, want 0", m.Count())
	}
}
