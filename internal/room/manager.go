package room

import (
	"log/slog"
	"sync"
)

// Manager tracks the live rooms in this process. Rooms share no state, so
// each gets its own tick goroutine.
type Manager struct {
	mu     sync.Mutex
	rooms  map[string]*managedRoom
	cfg    Config
	logger *slog.Logger
}

type managedRoom struct {
	room *Room
	stop chan struct{}
}

// NewManager creates an empty room registry.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		rooms:  make(map[string]*managedRoom),
		cfg:    cfg,
		logger: logger,
	}
}

// Create starts a new room and its simulation goroutine.
func (m *Manager) Create() *Room {
	r := New(m.cfg, m.logger)
	stop := make(chan struct{})

	m.mu.Lock()
	m.rooms[r.ID] = &managedRoom{room: r, stop: stop}
	m.mu.Unlock()

	go r.RunSimulation(stop)
	m.logger.Info("room created", "room", r.ID)
	return r
}

// Get looks up a room by id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rooms[id]
	if !ok {
		return nil, false
	}
	return mr.room, true
}

// Close stops one room's tick loop and forgets it.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	mr, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		close(mr.stop)
		m.logger.Info("room closed", "room", id)
	}
}

// Shutdown stops every room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*managedRoom)
	m.mu.Unlock()
	for id, mr := range rooms {
		close(mr.stop)
		m.logger.Info("room closed", "room", id)
	}
}

// TotalPlayers sums connected players across rooms, for the liveness
// endpoint.
func (m *Manager) TotalPlayers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, mr := range m.rooms {
		total += mr.room.PlayerCount()
	}
	return total
}
