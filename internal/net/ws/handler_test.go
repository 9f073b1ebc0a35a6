package ws

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/room"
)

func startServer(t *testing.T) (*httptest.Server, *room.Room, *room.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := room.NewManager(room.Config{IdleTimeout: time.Hour}, logger)
	r := manager.Create()
	t.Cleanup(manager.Shutdown)

	handler := NewHandler(manager, HandlerConfig{Logger: log.New(io.Discard, "", 0)})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return srv, r, manager
}

func dial(t *testing.T, srv *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := proto.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) proto.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env proto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandshakeSpawnsAndSeedsState(t *testing.T) {
	srv, r, _ := startServer(t)
	conn := dial(t, srv, r.ID)

	send(t, conn, proto.TypePlayerConnect, proto.PlayerConnect{Name: "alice"})

	env := readEnvelope(t, conn)
	if env.Type != proto.TypePlayerSpawned {
		t.Fatalf("expected player_spawned first, got %q", env.Type)
	}
	var spawned proto.PlayerSpawned
	if err := json.Unmarshal(env.Payload, &spawned); err != nil {
		t.Fatalf("decode spawn: %v", err)
	}
	if spawned.PlayerID == "" || spawned.Health != 100 {
		t.Fatalf("bad spawn message %+v", spawned)
	}

	env = readEnvelope(t, conn)
	if env.Type != proto.TypeGameState {
		t.Fatalf("expected initial game_state, got %q", env.Type)
	}
	var state proto.GameState
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if _, ok := state.Players[spawned.PlayerID]; !ok {
		t.Fatalf("initial snapshot missing own avatar")
	}
}

func TestUnknownRoomRejected(t *testing.T) {
	srv, _, _ := startServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure for unknown room")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

func TestHandshakeRequiresPlayerConnect(t *testing.T) {
	srv, r, _ := startServer(t)
	conn := dial(t, srv, r.ID)

	send(t, conn, proto.TypePlayerReady, proto.PlayerReady{IsReady: true})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected close after bad handshake")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
	if r.PlayerCount() != 0 {
		t.Fatalf("bad handshake still joined the room")
	}
}

func TestInputFlowsThroughToTheRoom(t *testing.T) {
	srv, r, _ := startServer(t)
	conn := dial(t, srv, r.ID)

	send(t, conn, proto.TypePlayerConnect, proto.PlayerConnect{Name: "alice"})
	env := readEnvelope(t, conn)
	var spawned proto.PlayerSpawned
	json.Unmarshal(env.Payload, &spawned)
	readEnvelope(t, conn) // initial game_state

	send(t, conn, proto.TypePlayerReady, proto.PlayerReady{IsReady: true})
	send(t, conn, proto.TypePlayerInput, proto.PlayerInput{Keys: proto.KeyState{W: true}})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		actor, ok := r.Actor(spawned.PlayerID)
		if !ok {
			t.Fatalf("actor vanished")
		}
		if actor.Position.Z != spawned.Position.Z {
			return // the queued input moved the authoritative actor
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("input never reached the simulation")
}

func TestMalformedFrameIsSkippedNotFatal(t *testing.T) {
	srv, r, _ := startServer(t)
	conn := dial(t, srv, r.ID)

	send(t, conn, proto.TypePlayerConnect, proto.PlayerConnect{Name: "alice"})
	env := readEnvelope(t, conn) // player_spawned
	var spawned proto.PlayerSpawned
	json.Unmarshal(env.Payload, &spawned)
	readEnvelope(t, conn) // game_state

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The connection survives the garbage frame: a message sent after it
	// still reaches the room.
	send(t, conn, proto.TypeTargetDestroyed, proto.TargetDestroyed{TargetID: "t1"})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if actor, ok := r.Actor(spawned.PlayerID); ok && actor.Score == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection did not survive a malformed frame")
}
