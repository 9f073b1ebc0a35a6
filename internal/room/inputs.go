package room

import (
	"sync"

	"ironfall/server/internal/combat"
	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/sim"
)

// queuedInput is one staged message plus the gateway's verdict on it. A
// combat-only message carries no movement payload, so folding it must not
// disturb the held keys.
type queuedInput struct {
	msg        proto.PlayerInput
	combatOnly bool
}

// inputRing stores one actor's staged inputs in a fixed-size ring with
// apply-at-next-tick semantics. Safe for a concurrent producer (the socket
// read loop) and a single consumer (the tick loop).
type inputRing struct {
	mu    sync.Mutex
	data  []queuedInput
	head  int
	tail  int
	count int
}

func newInputRing(capacity int) *inputRing {
	if capacity < 1 {
		capacity = 1
	}
	return &inputRing{data: make([]queuedInput, capacity)}
}

// push stages an input, returning false if the ring is full.
func (r *inputRing) push(in queuedInput) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.data) {
		return false
	}
	r.data[r.tail] = in
	r.tail = (r.tail + 1) % len(r.data)
	r.count++
	return true
}

// drain returns all staged inputs in FIFO order and clears the ring.
func (r *inputRing) drain(into []queuedInput) []queuedInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return into[:0]
	}
	into = into[:0]
	for i := 0; i < r.count; i++ {
		into = append(into, r.data[(r.head+i)%len(r.data)])
	}
	r.head = 0
	r.tail = 0
	r.count = 0
	return into
}

// pendingInput folds a tick's drained messages into one sim.Input. Held
// fields take the latest sample; the trigger edge and reload/switch intents
// are latched so a press arriving and releasing inside one tick still
// registers.
type pendingInput struct {
	current      sim.Input
	shootPressed bool
	reload       bool
	switchWeapon bool
	weapon       combat.Type
}

// fold applies one validated message. edge is the actor's trigger edge
// detector output for this sample. A combat-only message was stripped of its
// movement payload by the rate limiter; the previously held keys and aim
// persist.
func (p *pendingInput) fold(in queuedInput, edge bool) {
	msg := in.msg
	if !in.combatOnly {
		p.current.Forward = msg.Keys.W
		p.current.Back = msg.Keys.S
		p.current.Left = msg.Keys.A
		p.current.Right = msg.Keys.D
		p.current.Jump = msg.Keys.Space
		p.current.Sprint = msg.Keys.Shift
		p.current.Crouch = msg.Keys.Ctrl

		if msg.Yaw != nil {
			p.current.Yaw = *msg.Yaw
		}
		if msg.Pitch != nil {
			p.current.Pitch = *msg.Pitch
		}
	}
	if msg.Shoot != nil {
		p.current.Shoot = *msg.Shoot
	}
	if edge {
		p.shootPressed = true
	}
	if msg.Reload != nil && *msg.Reload {
		p.reload = true
	}
	if msg.WeaponType != nil {
		if weapon, ok := combat.ParseType(*msg.WeaponType); ok {
			p.switchWeapon = true
			p.weapon = weapon
		}
	}
}

// take produces the sim.Input for this tick and clears the latches.
func (p *pendingInput) take() sim.Input {
	in := p.current
	in.ShootPressed = p.shootPressed
	in.Reload = p.reload
	in.SwitchWeapon = p.switchWeapon
	in.Weapon = p.weapon
	p.shootPressed = false
	p.reload = false
	p.switchWeapon = false
	return in
}
