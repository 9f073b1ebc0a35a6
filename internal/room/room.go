// Package room owns one match: every actor and projectile in it, the
// fixed-rate tick loop that is the sole writer of that state, and the
// snapshot broadcast to subscribed connections. Rooms share nothing, so any
// number of them tick concurrently.
package room

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ironfall/server/internal/combat"
	"ironfall/server/internal/net/intake"
	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/sim"
	"ironfall/server/internal/world"
)

// Phase is the match lifecycle state.
type Phase int

const (
	// PhaseOpen accepts joins; actors can move around while waiting.
	PhaseOpen Phase = iota
	// PhaseActive is the live match.
	PhaseActive
	// PhaseOver is frozen; no further ticks mutate state.
	PhaseOver
)

// Config tunes one room. Zero values fall back to defaults.
type Config struct {
	TickRate         int
	SnapshotInterval time.Duration
	InputRate        float64
	InputBurst       float64
	IdleTimeout      time.Duration
	InputQueueDepth  int
	Seed             int64
	// SpawnPoints overrides the arena's default spawn slots.
	SpawnPoints [][2]float64
}

// DefaultConfig is the shipped tuning: 30 Hz simulation, 20 Hz snapshots,
// 60 inputs per second per actor.
func DefaultConfig() Config {
	return Config{
		TickRate:         30,
		SnapshotInterval: 50 * time.Millisecond,
		InputRate:        60,
		InputBurst:       90,
		IdleTimeout:      15 * time.Second,
		InputQueueDepth:  64,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = d.SnapshotInterval
	}
	if c.InputRate <= 0 {
		c.InputRate = d.InputRate
	}
	if c.InputBurst <= 0 {
		c.InputBurst = d.InputBurst
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.InputQueueDepth <= 0 {
		c.InputQueueDepth = d.InputQueueDepth
	}
	if len(c.SpawnPoints) == 0 {
		c.SpawnPoints = world.SpawnPoints
	}
	return c
}

// subscriber wraps one outbound websocket connection. The write mutex plus
// deadline isolate a slow client to its own connection; the tick loop never
// blocks on it.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

const writeWait = 10 * time.Second

func (s *subscriber) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// playerSession is the room-side bookkeeping for one connected actor.
type playerSession struct {
	actor     *sim.Actor
	queue     *inputRing
	pending   pendingInput
	ready     bool
	spawnSlot int
	lastSeen  time.Time
}

// Room is the aggregate owner of one match's state.
type Room struct {
	ID string

	mu          sync.Mutex
	cfg         Config
	world       *world.World
	sessions    map[string]*playerSession
	subscribers map[string]*subscriber
	projectiles []*combat.Projectile
	gateway     *intake.Gateway
	rng         *rand.Rand
	logger      *slog.Logger

	nextID atomic.Uint64

	tick          uint64
	phase         Phase
	lastBroadcast time.Time
	result        proto.MatchResult

	drainScratch []queuedInput
}

// New creates an empty room on the fixed arena.
func New(cfg Config, logger *slog.Logger) *Room {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Room{
		ID:          uuid.NewString(),
		cfg:         cfg,
		world:       world.NewArena(),
		sessions:    make(map[string]*playerSession),
		subscribers: make(map[string]*subscriber),
		gateway:     intake.NewGateway(cfg.InputRate, cfg.InputBurst),
		rng:         rand.New(rand.NewSource(seed)),
		logger:      logger,
	}
}

// World exposes the arena geometry read-only.
func (r *Room) World() *world.World {
	return r.world
}

// Phase reports the current lifecycle state.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Result returns the match outcome once PhaseOver is reached.
func (r *Room) Result() proto.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// PlayerCount reports connected actors, for the liveness endpoint.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Join registers a new actor at the next unused spawn slot and returns its
// spawn message. Other subscribers learn about it via player_joined.
func (r *Room) Join(name string) (proto.PlayerSpawned, bool) {
	r.mu.Lock()

	if r.phase == PhaseOver {
		r.mu.Unlock()
		return proto.PlayerSpawned{}, false
	}

	id := fmt.Sprintf("player-%d", r.nextID.Add(1))
	slot := r.freeSpawnSlotLocked()
	spawn := r.cfg.SpawnPoints[slot%len(r.cfg.SpawnPoints)]
	actor := sim.NewActor(id, name, spawn[0], spawn[1])

	r.sessions[id] = &playerSession{
		actor:     actor,
		queue:     newInputRing(r.cfg.InputQueueDepth),
		spawnSlot: slot,
		lastSeen:  time.Now(),
	}

	spawned := proto.PlayerSpawned{
		PlayerID: id,
		Position: toVec3(actor.Position),
		Rotation: proto.Rotation{Yaw: actor.Yaw, Pitch: actor.Pitch},
		Health:   actor.Health,
	}
	joined := proto.PlayerJoined{PlayerID: id, Position: spawned.Position}
	r.mu.Unlock()

	if data, err := proto.Encode(proto.TypePlayerJoined, joined); err == nil {
		r.broadcast(data, id)
	}
	return spawned, true
}

// respawnLocked puts a session's actor back at its own spawn slot with a
// fresh loadout.
func (r *Room) respawnLocked(session *playerSession) {
	spawn := r.cfg.SpawnPoints[session.spawnSlot%len(r.cfg.SpawnPoints)]
	session.actor.Respawn(spawn[0], spawn[1])
}

// freeSpawnSlotLocked picks the lowest spawn slot no live session occupies.
func (r *Room) freeSpawnSlotLocked() int {
	used := make(map[int]bool, len(r.sessions))
	for _, s := range r.sessions {
		used[s.spawnSlot] = true
	}
	for slot := 0; ; slot++ {
		if !used[slot] {
			return slot
		}
	}
}

// Subscribe attaches a websocket connection to an existing actor, replacing
// any previous connection for the same id.
func (r *Room) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[playerID]
	if !ok {
		return nil, false
	}
	session.lastSeen = time.Now()

	if existing, ok := r.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	r.subscribers[playerID] = sub
	return sub, true
}

// Disconnect removes an actor immediately: its queue, rate-limit bucket, and
// subscriber are freed and the remaining players get a player_left.
func (r *Room) Disconnect(playerID string) {
	r.mu.Lock()
	sub, subOK := r.subscribers[playerID]
	if subOK {
		delete(r.subscribers, playerID)
	}
	_, playerOK := r.sessions[playerID]
	if playerOK {
		delete(r.sessions, playerID)
	}
	r.mu.Unlock()

	r.gateway.Forget(playerID)
	if subOK {
		sub.conn.Close()
	}
	if !playerOK {
		return
	}

	if data, err := proto.Encode(proto.TypePlayerLeft, proto.PlayerLeft{PlayerID: playerID}); err == nil {
		r.broadcast(data, "")
	}
}

// QueueInput validates one raw input message and stages it for the next
// tick. Unknown actors are logged and ignored; malformed messages are
// dropped whole.
func (r *Room) QueueInput(playerID string, msg proto.PlayerInput) {
	in, verdict, err := r.gateway.Admit(playerID, msg, time.Now())
	if err != nil {
		r.logger.Debug("rejected input", "player", playerID, "err", err)
		return
	}
	if verdict == intake.CombatOnly {
		r.logger.Debug("rate limited to combat-only input", "player", playerID)
	}

	r.mu.Lock()
	session, ok := r.sessions[playerID]
	if !ok {
		r.mu.Unlock()
		r.logger.Info("input for unknown player ignored", "player", playerID)
		return
	}
	session.lastSeen = time.Now()
	if !session.queue.push(queuedInput{msg: in, combatOnly: verdict == intake.CombatOnly}) {
		r.logger.Debug("input queue full", "player", playerID)
	}
	r.mu.Unlock()
}

// SetReady flips an actor's lobby readiness; the match starts once at least
// two actors are connected and every one of them is ready.
func (r *Room) SetReady(playerID string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[playerID]
	if !ok {
		r.logger.Info("ready for unknown player ignored", "player", playerID)
		return
	}
	session.ready = ready
	session.lastSeen = time.Now()

	if r.phase != PhaseOpen || len(r.sessions) < 2 {
		return
	}
	for _, s := range r.sessions {
		if !s.ready {
			return
		}
	}
	r.phase = PhaseActive
	r.logger.Info("match started", "room", r.ID, "players", len(r.sessions))
}

// RecordTargetDestroyed bumps the cosmetic PvE score. Never authoritative.
func (r *Room) RecordTargetDestroyed(playerID, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[playerID]; ok {
		session.actor.Score++
		session.lastSeen = time.Now()
	}
	_ = targetID
}

func toVec3(v [3]float64) proto.Vec3 {
	return proto.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
