package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/tetrisserver/broadcast"
	"github.com/wfunc/tetrisserver/config"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/monitor"
	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/persistence"
	"github.com/wfunc/tetrisserver/piece"
	"github.com/wfunc/tetrisserver/player"
	"github.com/wfunc/tetrisserver/room"
	tetris_rpc "github.com/wfunc/tetrisserver/rpc"
	"github.com/wfunc/tetrisserver/services"
	"github.com/wfunc/tetrisserver/session"
	"github.com/wfunc/tetrisserver/timer"
)

type handlerFunc func(sess *session.Session, data json.RawMessage) error

type GameServer struct {
	addr           string
	heartbeat      time.Duration
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	playerService  *services.PlayerService
	broadcaster    broadcast.Broadcaster
	timers         *timer.TimerManager
	monitor        *monitor.Monitor
	rpcServer      *tetris_rpc.Server
	httpServer     *http.Server
	handlers       map[string]handlerFunc
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

// NewGameServer wires the room registry, sessions, persistence and the
// admin RPC server. An empty rpc address disables the admin service; a nil
// monitor disables metrics.
func NewGameServer(cfg *config.Config, db persistence.Database, mon *monitor.Monitor) (*GameServer, error) {
	g := cfg.Game
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		heartbeat:      cfg.Server.Heartbeat,
		sessionManager: session.NewManager(),
		playerService:  services.NewPlayerService(db, cfg.Database.Timeout),
		timers:         timer.NewTimerManager(g.TimerResolution),
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	deps := room.Deps{
		Scheduler: s.timers,
		Generator: piece.NewGenerator(g.Seed),
		Results:   s.playerService,
	}
	if mon != nil {
		deps.Observer = mon
	}
	s.roomManager = room.NewRoomManager(room.Options{
		Rows:        g.Rows,
		Cols:        g.Cols,
		MaxPlayers:  g.MaxPlayers,
		QueueLength: g.QueueLength,
		Settings: player.Settings{
			FrameDuration:  g.FrameDuration,
			FastMultiplier: g.FastMultiplier,
			MoveCooldown:   g.MoveCooldown,
			SpawnCooldown:  g.SpawnCooldown,
		},
	}, deps)

	// 初始化广播器
	b := broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.roomManager.SetBroadcaster(b)
	s.broadcaster = b

	// 初始化RPC服务器
	if cfg.Server.RPCAddress != "" {
		rpcServer, err := tetris_rpc.NewServer(cfg.Server.RPCAddress,
			tetris_rpc.NewAdminService(s.roomManager, s.playerService))
		if err != nil {
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	s.handlers = map[string]handlerFunc{
		network.EventPing:        s.handlePing,
		network.EventSetUsername: s.handleSetUsername,
		network.EventJoinRoom:    s.handleJoinRoom,
		network.EventLeaveRoom:   s.handleLeaveRoom,
		network.EventStartGame:   s.handleStartGame,
		network.EventRestartGame: s.handleRestartGame,
		network.EventMovePiece:   s.handleMovePiece,
	}
	return s, nil
}

// Handler serves the websocket endpoint and a health probe.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

func (s *GameServer) Sessions() *session.Manager {
	return s.sessionManager
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, tears down every room and waits
// for pending result writes.
func (s *GameServer) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logger.Log.Warnf("http shutdown: %v", err)
			}
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		s.roomManager.CloseAll()
		s.timers.Stop()
		s.playerService.Wait()
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.heartbeat > 0 {
		wsConn.SetHeartbeat(s.heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.disconnect(sess)
		wsConn.Close()
		if s.monitor != nil {
			s.monitor.DecOnlinePlayers()
		}
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				// 非法帧只回错误，连接错误才断开
				if errors.Is(err, network.ErrMalformedPacket) {
					s.sendError(sess, network.ErrMalformedPacket)
					continue
				}
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// disconnect removes the participant from its room and frees the username.
func (s *GameServer) disconnect(sess *session.Session) {
	if p := sess.Player(); p != nil && p.Room() != nil {
		if _, err := s.roomManager.LeaveRoom(p); err != nil {
			logger.Log.Warnf("Session %s: leave on disconnect: %v", sess.GetID(), err)
		}
		s.updateRoomGauge()
	}
	s.sessionManager.Remove(sess.GetID())
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	sess.Touch()
	if s.monitor != nil {
		s.monitor.IncMessagesReceived()
		defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Session %s: panic handling %s: %v", sess.GetID(), packet.Event, r)
			s.send(sess, network.EventError, network.ErrorMessage{Message: "internal error"})
		}
	}()

	handler, ok := s.handlers[packet.Event]
	if !ok {
		logger.Log.Infof("Unknown event: %s", packet.Event)
		s.sendError(sess, errUnknownEvent)
		return
	}
	if err := handler(sess, packet.Data); err != nil {
		s.sendError(sess, err)
	}
}

func (s *GameServer) updateRoomGauge() {
	if s.monitor != nil {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}
}
