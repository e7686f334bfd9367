package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/player"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []string
}

func (m *MockConnection) Send(event string, data []byte) error {
	m.sent = append(m.sent, event)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_ClaimUsername(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess2 := NewSession("session2", &MockConnection{})
	manager.Add(sess1)
	manager.Add(sess2)

	p1 := player.New("alice", sess1)
	if !manager.ClaimUsername(sess1, "alice", p1) {
		t.Fatal("first claim of a free username should succeed")
	}
	if sess1.Username() != "alice" || sess1.Player() != p1 {
		t.Error("claim should bind username and player to the session")
	}

	if manager.ClaimUsername(sess2, "alice", player.New("alice", sess2)) {
		t.Error("a username held by another session must be rejected")
	}
	if sess2.Username() != "" {
		t.Errorf("rejected claim must not bind, got %q", sess2.Username())
	}

	// re-claiming your own name is fine
	if !manager.ClaimUsername(sess1, "alice", p1) {
		t.Error("re-claiming the same username should succeed")
	}

	found, ok := manager.GetByUsername("alice")
	if !ok || found != sess1 {
		t.Error("GetByUsername should find the claiming session")
	}
	if _, ok := manager.GetByUsername("bob"); ok {
		t.Error("GetByUsername should not find an unknown name")
	}
}

func TestSession_Send(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	if err := sess.Send(network.EventPong, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(conn.sent) != 1 || conn.sent[0] != network.EventPong {
		t.Errorf("Expected one pong to be sent, got %v", conn.sent)
	}
	if !sess.LastActive.After(before) {
		t.Error("Send should refresh LastActive")
	}
}
