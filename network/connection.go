// network/connection.go
package network

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/tetrisserver/errs"
)

// ErrMalformedPacket is returned for frames that are not a valid envelope;
// the connection stays usable.
var ErrMalformedPacket = errs.New(errs.KindValidation, "malformed message")

// Packet 一条命名事件消息: {"event": "...", "data": {...}}
type Packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Connection interface {
	Send(event string, data []byte) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	heartbeat time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn, done: make(chan struct{})}
}

// Encode builds the wire frame for an event. data must be JSON or empty.
func Encode(event string, data []byte) ([]byte, error) {
	packet := Packet{Event: event}
	if len(data) > 0 {
		packet.Data = json.RawMessage(data)
	}
	return json.Marshal(packet)
}

// Decode parses one wire frame.
func Decode(frame []byte) (*Packet, error) {
	var packet Packet
	if err := json.Unmarshal(frame, &packet); err != nil {
		return nil, errs.Wrap(errs.KindValidation, ErrMalformedPacket, "decode packet (%v)", err)
	}
	if packet.Event == "" {
		return nil, errs.Wrap(errs.KindValidation, ErrMalformedPacket, "decode packet (missing event)")
	}
	return &packet, nil
}

func (c *WSConnection) Send(event string, data []byte) error {
	frame, err := Encode(event, data)
	if err != nil {
		return err
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if c.heartbeat > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.heartbeat))
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}
	return Decode(data)
}

// SetHeartbeat pings the peer every interval; a peer silent for two
// intervals (no frame, no pong) fails the next ReadPacket. Call once.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})
	go c.pingLoop(interval)
}

func (c *WSConnection) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		}
	}
}

// Ping writes a control ping frame.
func (c *WSConnection) Ping() error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.heartbeat))
}

func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
