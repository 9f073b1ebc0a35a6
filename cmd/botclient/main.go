// Command botclient connects a headless player to a running server, wanders
// the arena with the client-side predictor, and reports the reconciliation
// error. Useful for smoke-testing prediction against a live room.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/coder/websocket"

	"ironfall/server/internal/client"
	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/sim"
	"ironfall/server/internal/world"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "server websocket URL")
	name := flag.String("name", "bot", "player name")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *addr, *name); err != nil {
		slog.Error("bot exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, name string) error {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := send(ctx, conn, proto.TypePlayerConnect, proto.PlayerConnect{Name: name}); err != nil {
		return err
	}

	spawn, err := awaitSpawn(ctx, conn)
	if err != nil {
		return err
	}
	slog.Info("spawned", "player", spawn.PlayerID, "x", spawn.Position.X, "z", spawn.Position.Z)

	view := client.NewView(spawn, world.NewArena())

	if err := send(ctx, conn, proto.TypePlayerReady, proto.PlayerReady{PlayerID: spawn.PlayerID, IsReady: true}); err != nil {
		return err
	}

	snapshots := make(chan proto.GameState, 8)
	go readLoop(ctx, conn, snapshots)

	const frame = 33 * time.Millisecond
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-snapshots:
			if !ok {
				return nil
			}
			before := view.Predictor.Actor.Position
			view.ApplySnapshot(state, time.Now())
			gap := view.Predictor.Actor.Position.Sub(before).Len()
			slog.Debug("reconciled", "correction", gap)
		case <-ticker.C:
			// Walk a slow circle.
			yaw := time.Since(start).Seconds() * 0.3 * math.Pi
			input := sim.Input{Forward: true, Yaw: yaw}
			view.Predictor.Advance(frame.Seconds(), input)

			shoot := false
			msg := proto.PlayerInput{
				Keys:      proto.KeyState{W: true},
				Yaw:       &yaw,
				Shoot:     &shoot,
				Timestamp: float64(time.Now().UnixMilli()),
				PlayerID:  spawn.PlayerID,
			}
			if err := send(ctx, conn, proto.TypePlayerInput, msg); err != nil {
				return err
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	data, err := proto.Encode(msgType, payload)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func awaitSpawn(ctx context.Context, conn *websocket.Conn) (proto.PlayerSpawned, error) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return proto.PlayerSpawned{}, err
		}
		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Type != proto.TypePlayerSpawned {
			continue
		}
		var spawn proto.PlayerSpawned
		if err := json.Unmarshal(env.Payload, &spawn); err != nil {
			return proto.PlayerSpawned{}, err
		}
		return spawn, nil
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, snapshots chan<- proto.GameState) {
	defer close(snapshots)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case proto.TypeGameState:
			var state proto.GameState
			if err := json.Unmarshal(env.Payload, &state); err != nil {
				continue
			}
			select {
			case snapshots <- state:
			default:
			}
		case proto.TypePlayerHit, proto.TypePlayerDied, proto.TypeMatchResult:
			slog.Info("event", "type", env.Type, "payload", string(env.Payload))
		}
	}
}
