package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/network"
)

// send formats and sends one event to the WebSocket server.
func send(c *websocket.Conn, event string, payload any) error {
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	frame, err := network.Encode(event, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, frame)
}

// command maps one line of input to an event.
func command(line string) (string, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "name":
		if len(fields) < 2 {
			return "", nil, fmt.Errorf("usage: name <username>")
		}
		return network.EventSetUsername, network.SetUsernameRequest{Username: fields[1]}, nil
	case "join", "solo":
		if len(fields) < 2 {
			return "", nil, fmt.Errorf("usage: %s <room> [classic|fast|invisible]", fields[0])
		}
		req := network.JoinRoomRequest{Room: fields[1], Solo: fields[0] == "solo"}
		if len(fields) > 2 {
			req.Mode = models.GameMode(fields[2])
		}
		return network.EventJoinRoom, req, nil
	case "leave":
		return network.EventLeaveRoom, nil, nil
	case "start":
		return network.EventStartGame, nil, nil
	case "restart":
		return network.EventRestartGame, nil, nil
	case "ping":
		return network.EventPing, nil, nil
	case "down", "left", "right", "up", "space", "swap":
		return network.EventMovePiece, network.MovePieceRequest{Direction: fields[0]}, nil
	}
	return "", nil, fmt.Errorf("unknown command %q", fields[0])
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid frame: %v", err)
				continue
			}
			// game-state 太多，只打印摘要
			if packet.Event == network.EventGameState || packet.Event == network.EventSpecter {
				log.Printf("<- %s (%d bytes)", packet.Event, len(packet.Data))
				continue
			}
			log.Printf("<- %s: %s", packet.Event, string(packet.Data))
		}
	}()

	log.Println("Commands: name <u> | join <room> [mode] | solo <room> [mode] | start | restart | leave | down/left/right/up/space/swap | ping")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// Write loop
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			event, payload, err := command(line)
			if err != nil {
				log.Println(err)
				continue
			}
			if err := send(c, event, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> %s", event)
		}
	}
}
