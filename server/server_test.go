package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/tetrisserver/config"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/monitor"
	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/persistence"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{HTTPAddress: "127.0.0.1:0"},
		Database: config.DatabaseConfig{
			Driver:  persistence.DriverMemory,
			Timeout: time.Second,
		},
		Game: config.GameConfig{
			Rows:            20,
			Cols:            10,
			MaxPlayers:      4,
			QueueLength:     16,
			FrameDuration:   time.Second,
			FastMultiplier:  0.5,
			TimerResolution: 10 * time.Millisecond,
			Seed:            7,
		},
	}
}

// countingDatabase counts history loads.
type countingDatabase struct {
	*persistence.MemoryDatabase
	loads atomic.Int32
}

func (d *countingDatabase) LoadHistory(ctx context.Context, username string) ([]models.MatchResult, error) {
	d.loads.Add(1)
	return d.MemoryDatabase.LoadHistory(ctx, username)
}

func startServer(t *testing.T) (*GameServer, string) {
	t.Helper()
	return startServerWith(t, persistence.NewMemoryDatabase())
}

func startServerWith(t *testing.T, db persistence.Database) (*GameServer, string) {
	t.Helper()
	gs, err := NewGameServer(testConfig(), db, monitor.NewMonitor("tetris_server_test"))
	require.NoError(t, err)

	ts := httptest.NewServer(gs.Handler())
	t.Cleanup(func() {
		ts.Close()
		gs.Shutdown(context.Background())
	})
	return gs, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(event string, payload any) {
	c.t.Helper()
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		require.NoError(c.t, err)
	}
	frame, err := network.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

// expect reads until event arrives and decodes its data into v.
func (c *wsClient) expect(event string, v any) {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		_, frame, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", event)
		packet, err := network.Decode(frame)
		require.NoError(c.t, err)
		if packet.Event != event {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(packet.Data, v))
		}
		return
	}
}

func (c *wsClient) expectError(contains string) {
	c.t.Helper()
	var msg network.ErrorMessage
	c.expect(network.EventError, &msg)
	assert.Contains(c.t, msg.Message, contains)
}

func login(t *testing.T, url, username string) *wsClient {
	c := dial(t, url)
	c.send(network.EventSetUsername, network.SetUsernameRequest{Username: username})
	var set network.UsernameSet
	c.expect(network.EventUsernameSet, &set)
	require.Equal(t, username, set.Username)
	return c
}

func TestServer_MatchFlow(t *testing.T) {
	gs, url := startServer(t)
	alice := login(t, url, "alice")
	bob := login(t, url, "bob")

	alice.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "r1"})
	var created network.RoomInfo
	alice.expect(network.EventRoomCreated, &created)
	assert.Equal(t, "r1", created.Room)
	alice.expect(network.EventRoomJoined, nil)

	bob.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "r1"})
	var joined network.RoomInfo
	bob.expect(network.EventRoomJoined, &joined)
	assert.Equal(t, "alice", joined.Owner)

	bob.send(network.EventStartGame, nil)
	bob.expectError("owner")

	alice.send(network.EventStartGame, nil)
	var started network.GameStarted
	bob.expect(network.EventGameStarted, &started)
	assert.Len(t, started.Roster, 2)
	assert.Equal(t, len(started.Queues["alice"]), len(started.Queues["bob"]))

	alice.send(network.EventMovePiece, network.MovePieceRequest{Direction: "left"})
	var state network.GameState
	alice.expect(network.EventGameState, &state)
	assert.Equal(t, "alice", state.Player)
	var spec network.SpecterUpdate
	bob.expect(network.EventSpecter, &spec)
	assert.Equal(t, "alice", spec.Player)

	alice.send(network.EventMovePiece, network.MovePieceRequest{Direction: "sideways"})
	alice.expectError("direction")

	r, ok := gs.Rooms().GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, "in_progress", r.Status())
}

func TestServer_CommandErrors(t *testing.T) {
	_, url := startServer(t)
	anon := dial(t, url)

	anon.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "r"})
	anon.expectError("username")

	anon.send("dance", nil)
	anon.expectError("unknown event")

	require.NoError(t, anon.conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	anon.expectError("malformed")

	login(t, url, "taken")
	anon.send(network.EventSetUsername, network.SetUsernameRequest{Username: "taken"})
	anon.expectError("taken")

	// the connection survives every error above
	anon.send(network.EventPing, nil)
	anon.expect(network.EventPong, nil)
}

func TestServer_SoloRoomIsPrivate(t *testing.T) {
	_, url := startServer(t)
	owner := login(t, url, "owner")
	guest := login(t, url, "guest")

	owner.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "mine", Solo: true})
	owner.expect(network.EventRoomJoined, nil)

	guest.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "mine"})
	guest.expectError("solo")
}

func TestServer_DisconnectLeavesRoom(t *testing.T) {
	gs, url := startServer(t)
	alice := login(t, url, "alice")
	bob := login(t, url, "bob")

	alice.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "r"})
	alice.expect(network.EventRoomJoined, nil)
	bob.send(network.EventJoinRoom, network.JoinRoomRequest{Room: "r"})
	bob.expect(network.EventRoomJoined, nil)

	require.NoError(t, alice.conn.Close())

	assert.Eventually(t, func() bool {
		r, ok := gs.Rooms().GetRoom("r")
		return ok && r.PlayerCount() == 1 && r.Owner() != nil && r.Owner().ID == "bob"
	}, 5*time.Second, 10*time.Millisecond)

	// the name is free again
	assert.Eventually(t, func() bool {
		_, held := gs.Sessions().GetByUsername("alice")
		return !held
	}, 5*time.Second, 10*time.Millisecond)

	bob.send(network.EventLeaveRoom, nil)
	var left network.RoomInfo
	bob.expect(network.EventRoomLeft, &left)
	assert.Equal(t, "r", left.Room)
	assert.Equal(t, 0, gs.Rooms().Count())
}

func TestServer_SetUsernameLoadsHistoryOnce(t *testing.T) {
	db := &countingDatabase{MemoryDatabase: persistence.NewMemoryDatabase()}
	ctx := context.Background()
	require.NoError(t, db.AppendMatchResult(ctx, "carol", models.MatchResult{RoomID: "r1", Outcome: models.OutcomeWin, Score: 300, Lines: 3}))
	require.NoError(t, db.AppendMatchResult(ctx, "carol", models.MatchResult{RoomID: "r2", Outcome: models.OutcomeLose, Score: 40, Lines: 1}))
	_, url := startServerWith(t, db)

	c := dial(t, url)
	c.send(network.EventSetUsername, network.SetUsernameRequest{Username: "carol"})
	var set network.UsernameSet
	c.expect(network.EventUsernameSet, &set)

	assert.Len(t, set.History, 2)
	assert.Equal(t, models.PlayerStats{Username: "carol", TotalGames: 2, Wins: 1, Losses: 1, BestScore: 300, TotalLines: 4}, set.Stats)
	assert.Equal(t, int32(1), db.loads.Load())
}
