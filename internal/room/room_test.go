package room

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"ironfall/server/internal/net/proto"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRoom puts two spawn slots in clear line of sight of each other.
func newTestRoom(t *testing.T) *Room {
	t.Helper()
	cfg := Config{
		Seed:        1,
		IdleTimeout: time.Hour,
		SpawnPoints: [][2]float64{{-2, 0}, {2, 0}},
	}
	return New(cfg, quietLogger())
}

func joinTwo(t *testing.T, r *Room) (string, string) {
	t.Helper()
	a, ok := r.Join("alice")
	if !ok {
		t.Fatalf("first join refused")
	}
	b, ok := r.Join("bob")
	if !ok {
		t.Fatalf("second join refused")
	}
	return a.PlayerID, b.PlayerID
}

func boolPtr(v bool) *bool { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }

// shootInput aims down +X and pulls or releases the trigger.
func shootInput(shoot bool) proto.PlayerInput {
	return proto.PlayerInput{
		Yaw:   floatPtr(-math.Pi / 2),
		Pitch: floatPtr(0),
		Shoot: boolPtr(shoot),
	}
}

func TestJoinAssignsDistinctSpawnSlots(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)

	a, _ := r.Actor(aID)
	b, _ := r.Actor(bID)
	if a.Position == b.Position {
		t.Fatalf("both actors spawned at %v", a.Position)
	}
	if r.PlayerCount() != 2 {
		t.Fatalf("expected 2 players, got %d", r.PlayerCount())
	}
}

func TestMatchStartsWhenAllReady(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)

	r.SetReady(aID, true)
	if r.Phase() != PhaseOpen {
		t.Fatalf("match started with one unready player")
	}
	r.SetReady(bID, true)
	if r.Phase() != PhaseActive {
		t.Fatalf("expected active match, got phase %v", r.Phase())
	}
}

func TestMatchNeedsTwoPlayers(t *testing.T) {
	r := newTestRoom(t)
	spawned, _ := r.Join("solo")

	r.SetReady(spawned.PlayerID, true)
	if r.Phase() != PhaseOpen {
		t.Fatalf("solo room must stay open")
	}
}

func TestPistolDuelEndsTheMatch(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)
	r.SetReady(aID, true)
	r.SetReady(bID, true)

	now := time.Now()
	advance := func(in *proto.PlayerInput) {
		if in != nil {
			r.QueueInput(aID, *in)
		}
		now = now.Add(300 * time.Millisecond)
		r.Advance(now, 0.3)
	}

	// Alice spawns at eye height inside Bob's head band, so every pistol
	// round is a 50-damage headshot.
	in := shootInput(true)
	advance(&in)

	b, _ := r.Actor(bID)
	if b.Health != 50 {
		t.Fatalf("expected headshot to leave 50 health, got %v", b.Health)
	}

	// Holding the trigger must not fire again.
	advance(nil)
	b, _ = r.Actor(bID)
	if b.Health != 50 {
		t.Fatalf("held semi-auto trigger fired again, health %v", b.Health)
	}

	// Release then press kills.
	release := shootInput(false)
	advance(&release)
	press := shootInput(true)
	advance(&press)

	b, _ = r.Actor(bID)
	if b.Health != 0 || !b.Eliminated {
		t.Fatalf("expected elimination, got health=%v eliminated=%v", b.Health, b.Eliminated)
	}
	if r.Phase() != PhaseOver {
		t.Fatalf("first elimination must end the match")
	}
	res := r.Result()
	if res.WinnerID != aID || res.LoserID != bID {
		t.Fatalf("unexpected result %+v", res)
	}

	// The frozen room ignores further ticks.
	tick := r.Snapshot(now).Tick
	advance(nil)
	if got := r.Snapshot(now).Tick; got != tick {
		t.Fatalf("frozen room still ticking: %d -> %d", tick, got)
	}
}

func TestLobbyKillRespawnsInsteadOfEndingMatch(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)
	// Nobody is ready: the room is still open when the shots land.

	now := time.Now()
	advance := func(in proto.PlayerInput) {
		r.QueueInput(aID, in)
		now = now.Add(300 * time.Millisecond)
		r.Advance(now, 0.3)
	}

	advance(shootInput(true))
	advance(shootInput(false))
	advance(shootInput(true))

	if r.Phase() != PhaseOpen {
		t.Fatalf("lobby kill ended the match, phase %v", r.Phase())
	}
	b, _ := r.Actor(bID)
	if b.Eliminated || b.Health != 100 {
		t.Fatalf("lobby victim not respawned: health=%v eliminated=%v", b.Health, b.Eliminated)
	}
	if b.Position.X != 2 || b.Position.Z != 0 {
		t.Fatalf("victim respawned away from its slot: %+v", b.Position)
	}

	// The room is still startable.
	r.SetReady(aID, true)
	r.SetReady(bID, true)
	if r.Phase() != PhaseActive {
		t.Fatalf("room unstartable after lobby kill, phase %v", r.Phase())
	}
}

func TestRifleFiresEveryCooldownInterval(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)
	r.SetReady(aID, true)
	r.SetReady(bID, true)

	in := shootInput(true)
	in.WeaponType = strPtr("rifle")
	r.QueueInput(aID, in)

	// Rifle: 20 damage every 0.1s, no headshot bonus. Five ticks at the fire
	// interval drain Bob's 100 health exactly.
	now := time.Now()
	for i := 0; i < 5; i++ {
		now = now.Add(100 * time.Millisecond)
		r.Advance(now, 0.1)

		b, _ := r.Actor(bID)
		want := 100 - float64(i+1)*20
		if b.Health != want {
			t.Fatalf("after %d ticks expected health %v, got %v", i+1, want, b.Health)
		}
	}
	if r.Phase() != PhaseOver {
		t.Fatalf("expected the fifth rifle round to end the match")
	}
}

func TestLauncherSplashDamagesBothActors(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)
	r.SetReady(aID, true)
	r.SetReady(bID, true)

	in := shootInput(true)
	in.WeaponType = strPtr("launcher")
	r.QueueInput(aID, in)

	now := time.Now()
	dt := 1.0 / 30.0
	for i := 0; i < 10; i++ {
		now = now.Add(time.Duration(dt * float64(time.Second)))
		r.Advance(now, dt)
	}

	a, _ := r.Actor(aID)
	b, _ := r.Actor(bID)
	if b.Health >= 100 {
		t.Fatalf("rocket never hit the target, health %v", b.Health)
	}
	if a.Health >= 100 {
		t.Fatalf("shooter inside the blast radius must take self-splash, health %v", a.Health)
	}
	if b.Health >= a.Health {
		t.Fatalf("direct target must take more splash: target %v, shooter %v", b.Health, a.Health)
	}
	if n := len(r.Snapshot(now).Projectiles); n != 0 {
		t.Fatalf("detonated projectile still in snapshot: %d", n)
	}
}

func TestCombatOnlyFoldKeepsHeldMovement(t *testing.T) {
	var p pendingInput
	p.fold(queuedInput{msg: proto.PlayerInput{
		Keys: proto.KeyState{W: true, Shift: true},
		Yaw:  floatPtr(1.2),
	}}, false)

	// A rate-limited message arrives with the movement payload stripped; the
	// held keys and aim must survive it.
	p.fold(queuedInput{msg: proto.PlayerInput{Shoot: boolPtr(true)}, combatOnly: true}, true)

	in := p.take()
	if !in.Forward || !in.Sprint || in.Yaw != 1.2 {
		t.Fatalf("combat-only message clobbered held movement: %+v", in)
	}
	if !in.Shoot || !in.ShootPressed {
		t.Fatalf("combat-only message lost fire intent: %+v", in)
	}
}

func TestRateLimitedPlayerKeepsMoving(t *testing.T) {
	cfg := Config{
		Seed:        1,
		IdleTimeout: time.Hour,
		InputRate:   2,
		InputBurst:  1,
		SpawnPoints: [][2]float64{{-2, 0}, {2, 0}},
	}
	r := New(cfg, quietLogger())
	aID, _ := joinTwo(t, r)

	// The single-token bucket admits the first message and degrades the
	// second to combat-only.
	r.QueueInput(aID, proto.PlayerInput{Keys: proto.KeyState{W: true}})
	r.QueueInput(aID, proto.PlayerInput{Shoot: boolPtr(true)})

	r.Advance(time.Now(), 1.0/30.0)

	a, _ := r.Actor(aID)
	if a.Position.Z >= 0 {
		t.Fatalf("rate-limited player stopped moving: z=%v", a.Position.Z)
	}
}

func TestUnknownPlayerInputIgnored(t *testing.T) {
	r := newTestRoom(t)
	r.QueueInput("ghost", shootInput(true))
	r.Advance(time.Now(), 1.0/30.0)
}

func TestIdlePlayersArePruned(t *testing.T) {
	cfg := Config{
		Seed:        1,
		IdleTimeout: time.Second,
		SpawnPoints: [][2]float64{{-2, 0}, {2, 0}},
	}
	r := New(cfg, quietLogger())
	joinTwo(t, r)

	r.Advance(time.Now().Add(2*time.Second), 1.0/30.0)
	if r.PlayerCount() != 0 {
		t.Fatalf("expected idle players pruned, %d remain", r.PlayerCount())
	}
}

func TestDisconnectFreesSpawnSlot(t *testing.T) {
	r := newTestRoom(t)
	aID, _ := joinTwo(t, r)

	a, _ := r.Actor(aID)
	r.Disconnect(aID)
	if r.PlayerCount() != 1 {
		t.Fatalf("expected 1 player after disconnect, got %d", r.PlayerCount())
	}

	next, ok := r.Join("carol")
	if !ok {
		t.Fatalf("rejoin refused")
	}
	c, _ := r.Actor(next.PlayerID)
	if c.Position != a.Position {
		t.Fatalf("expected freed slot %v to be reused, got %v", a.Position, c.Position)
	}
}

func TestTargetDestroyedBumpsScore(t *testing.T) {
	r := newTestRoom(t)
	aID, _ := joinTwo(t, r)

	r.RecordTargetDestroyed(aID, "range-target-3")
	a, _ := r.Actor(aID)
	if a.Score != 1 {
		t.Fatalf("expected score 1, got %d", a.Score)
	}
}

func TestSnapshotCarriesWeaponAndStance(t *testing.T) {
	r := newTestRoom(t)
	aID, bID := joinTwo(t, r)
	r.SetReady(aID, true)
	r.SetReady(bID, true)

	in := proto.PlayerInput{
		Keys:       proto.KeyState{Ctrl: true},
		WeaponType: strPtr("shotgun"),
	}
	r.QueueInput(aID, in)
	now := time.Now()
	r.Advance(now, 1.0/30.0)

	snap := r.Snapshot(now)
	p, ok := snap.Players[aID]
	if !ok {
		t.Fatalf("snapshot missing %s", aID)
	}
	if !p.IsCrouched {
		t.Fatalf("snapshot lost crouch state")
	}
	if p.CurrentWeapon != "shotgun" {
		t.Fatalf("snapshot weapon %q", p.CurrentWeapon)
	}
	if snap.Tick == 0 {
		t.Fatalf("snapshot tick not advancing")
	}
}
