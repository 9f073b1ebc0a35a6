// Package ws binds websocket sessions to rooms: upgrade, the
// player_connect handshake, and the per-connection read loop feeding the
// input gateway. All writes go through the room's subscriber so a slow
// client never stalls a tick.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/room"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests into player sessions.
type Handler struct {
	rooms    *room.Manager
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a session handler over the given room registry.
func NewHandler(rooms *room.Manager, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{rooms: rooms, logger: logger, upgrader: upgrader}
}

// Handle upgrades the connection and runs the session until the client
// disconnects.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	roomID := r.URL.Query().Get("room")
	target, ok := h.rooms.Get(roomID)
	if !ok {
		nethttp.Error(w, "unknown room", nethttp.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	h.serve(target, conn)
}

// serve runs the handshake and read loop for one connection.
func (h *Handler) serve(target *room.Room, conn *websocket.Conn) {
	playerID, ok := h.handshake(target, conn)
	if !ok {
		conn.Close()
		return
	}

	defer target.Disconnect(playerID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env proto.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		switch env.Type {
		case proto.TypePlayerInput:
			var msg proto.PlayerInput
			if err := json.Unmarshal(env.Payload, &msg); err != nil {
				h.logger.Printf("discarding malformed input from %s: %v", playerID, err)
				continue
			}
			target.QueueInput(playerID, msg)
		case proto.TypePlayerReady:
			var msg proto.PlayerReady
			if err := json.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			target.SetReady(playerID, msg.IsReady)
		case proto.TypeTargetDestroyed:
			var msg proto.TargetDestroyed
			if err := json.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			target.RecordTargetDestroyed(playerID, msg.TargetID)
		default:
			h.logger.Printf("unknown message type %q from %s", env.Type, playerID)
		}
	}
}

// handshake waits for player_connect, registers the actor, and sends the
// spawn message plus an initial snapshot over the new subscription.
func (h *Handler) handshake(target *room.Room, conn *websocket.Conn) (string, bool) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	var env proto.Envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Type != proto.TypePlayerConnect {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected player_connect")
		conn.WriteMessage(websocket.CloseMessage, message)
		return "", false
	}

	var connect proto.PlayerConnect
	if err := json.Unmarshal(env.Payload, &connect); err != nil {
		return "", false
	}

	spawned, ok := target.Join(connect.Name)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "match over")
		conn.WriteMessage(websocket.CloseMessage, message)
		return "", false
	}

	sub, ok := target.Subscribe(spawned.PlayerID, conn)
	if !ok {
		return "", false
	}

	if data, err := proto.Encode(proto.TypePlayerSpawned, spawned); err == nil {
		if err := sub.Write(data); err != nil {
			target.Disconnect(spawned.PlayerID)
			return "", false
		}
	}

	if data, err := proto.Encode(proto.TypeGameState, target.Snapshot(time.Now())); err == nil {
		if err := sub.Write(data); err != nil {
			target.Disconnect(spawned.PlayerID)
			return "", false
		}
	}

	return spawned.PlayerID, true
}
