package network

import (
	"encoding/json"
	"strings"

	"github.com/wfunc/tetrisserver/board"
	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/piece"
	"github.com/wfunc/tetrisserver/player"
)

// 客户端 -> 服务器
const (
	EventPing        = "ping"
	EventSetUsername = "set-username"
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventStartGame   = "start-game"
	EventRestartGame = "restart-game"
	EventMovePiece   = "move-piece"
)

// 服务器 -> 客户端
const (
	EventError        = "error"
	EventPong         = "pong"
	EventUsernameSet  = "username-set"
	EventRoomCreated  = "room-created"
	EventRoomJoined   = "room-joined"
	EventRoomLeft     = "room-left"
	EventRoomUpdate   = "room-update"
	EventGameStarted  = "game-started"
	EventGameState    = "game-state"
	EventSpecter      = "specter"
	EventLinesCleared = "lines-cleared"
	EventGameLost     = "game-lost"
	EventGameOver     = "game-over"
)

// MaxUsernameLength bounds set-username.
const MaxUsernameLength = 32

// Request is an inbound payload that validates itself at the boundary.
type Request interface {
	Validate() error
}

// Unmarshal decodes data into req (empty data leaves req zero) and validates it.
func Unmarshal(data []byte, req Request) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, req); err != nil {
			return errs.New(errs.KindValidation, "malformed payload")
		}
	}
	return req.Validate()
}

// --- inbound ---

type SetUsernameRequest struct {
	Username string `json:"username"`
}

func (r *SetUsernameRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return errs.New(errs.KindValidation, "username is required")
	}
	if len(r.Username) > MaxUsernameLength {
		return errs.New(errs.KindValidation, "username is too long")
	}
	return nil
}

type JoinRoomRequest struct {
	Room string          `json:"room"`
	Solo bool            `json:"solo,omitempty"`
	Mode models.GameMode `json:"mode,omitempty"`
}

func (r *JoinRoomRequest) Validate() error {
	r.Room = strings.TrimSpace(r.Room)
	if r.Room == "" {
		return errs.New(errs.KindValidation, "room name is required")
	}
	mode, err := models.ParseGameMode(string(r.Mode))
	if err != nil {
		return errs.New(errs.KindValidation, err.Error())
	}
	r.Mode = mode
	return nil
}

// EmptyRequest is used by events without a payload.
type EmptyRequest struct{}

func (EmptyRequest) Validate() error { return nil }

type MovePieceRequest struct {
	Direction string `json:"direction"`
	parsed    player.Direction
}

func (r *MovePieceRequest) Validate() error {
	d, err := player.ParseDirection(strings.TrimSpace(r.Direction))
	if err != nil {
		return err
	}
	r.parsed = d
	return nil
}

// Dir is the validated direction.
func (r *MovePieceRequest) Dir() player.Direction {
	return r.parsed
}

// --- outbound ---

type ErrorMessage struct {
	Message string `json:"message"`
}

type UsernameSet struct {
	Username string               `json:"username"`
	Stats    models.PlayerStats   `json:"stats"`
	History  []models.MatchResult `json:"history"`
}

type RoomInfo struct {
	Room  string          `json:"room"`
	Owner string          `json:"owner,omitempty"`
	Mode  models.GameMode `json:"mode,omitempty"`
	Solo  bool            `json:"solo,omitempty"`
}

type RosterEntry struct {
	Player string `json:"player"`
	Owner  bool   `json:"owner"`
	Lost   bool   `json:"lost"`
	Score  int    `json:"score"`
}

type RoomUpdate struct {
	Room   string        `json:"room"`
	Status string        `json:"status"`
	Roster []RosterEntry `json:"roster"`
}

type GameStarted struct {
	Room   string                    `json:"room"`
	Mode   models.GameMode           `json:"mode"`
	Roster []RosterEntry             `json:"roster"`
	Queues map[string][]*piece.Piece `json:"queues"`
	Grids  map[string]*board.Grid    `json:"grids"`
}

type Opponent struct {
	Player  string      `json:"player"`
	Score   int         `json:"score"`
	Lost    bool        `json:"lost"`
	Specter *board.Grid `json:"specter"`
}

type GameState struct {
	player.Snapshot
	Opponents []Opponent `json:"opponents"`
}

type SpecterUpdate = Opponent

type GameLost struct {
	Player  string      `json:"player"`
	Specter *board.Grid `json:"specter"`
}

type GameOver struct {
	Room   string         `json:"room"`
	Winner string         `json:"winner,omitempty"`
	Roster []RosterEntry  `json:"roster"`
	Scores map[string]int `json:"scores"`
}
