// Package client is the consumer-side consistency layer: a locally
// predicted actor for the player's own avatar, reconciled against
// authoritative snapshots, plus interpolation buffers for remote avatars.
package client

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/sim"
	"ironfall/server/internal/world"
)

const (
	// SnapThreshold is the predicted-vs-authoritative gap past which the
	// predictor snaps instead of blending; a gap that large is a lag spike
	// or a desync, not jitter.
	SnapThreshold = 2.0
	// BlendFactor moves the prediction this fraction of the way toward the
	// authoritative position per snapshot; a hard overwrite would rubber-band
	// visibly under normal jitter.
	BlendFactor = 0.2
)

// Predictor advances the local avatar every frame with the same integrator
// the server runs, so the avatar answers input immediately regardless of
// round-trip time.
type Predictor struct {
	Actor *sim.Actor
	world *world.World
}

// NewPredictor seeds the prediction from the spawn message.
func NewPredictor(spawn proto.PlayerSpawned, w *world.World) *Predictor {
	actor := sim.NewActor(spawn.PlayerID, "", spawn.Position.X, spawn.Position.Z)
	actor.Position = mgl64.Vec3{spawn.Position.X, spawn.Position.Y, spawn.Position.Z}
	actor.Health = spawn.Health
	return &Predictor{Actor: actor, world: w}
}

// Advance re-runs the shared simulation step for one frame of local input.
func (p *Predictor) Advance(dt float64, in sim.Input) {
	sim.Step(p.Actor, dt, in, nil, p.world)
}

// Reconcile folds an authoritative position into the prediction. Within the
// snap threshold the prediction blends a bounded step toward authority and
// never jumps past it; beyond the threshold it snaps exactly.
func (p *Predictor) Reconcile(authoritative proto.PlayerSnapshot) {
	auth := mgl64.Vec3{authoritative.Position.X, authoritative.Position.Y, authoritative.Position.Z}
	gap := auth.Sub(p.Actor.Position)

	if gap.Len() > SnapThreshold {
		p.Actor.Position = auth
	} else {
		p.Actor.Position = p.Actor.Position.Add(gap.Mul(BlendFactor))
	}

	p.Actor.Health = authoritative.Health
	p.Actor.Stamina = authoritative.Stamina
}

// Interpolator renders one remote avatar between its last two snapshots.
// Remote actors are never predicted.
type Interpolator struct {
	prev       mgl64.Vec3
	target     mgl64.Vec3
	prevTime   time.Time
	targetTime time.Time
	seeded     bool
}

// Observe records a new authoritative position for the remote actor.
func (i *Interpolator) Observe(pos proto.Vec3, at time.Time) {
	next := mgl64.Vec3{pos.X, pos.Y, pos.Z}
	if !i.seeded {
		i.prev = next
		i.prevTime = at
		i.seeded = true
	} else {
		i.prev = i.target
		i.prevTime = i.targetTime
	}
	i.target = next
	i.targetTime = at
}

// At returns the interpolated position for the render time, with progress
// clamped to [0, 1] across the inter-snapshot window.
func (i *Interpolator) At(now time.Time) mgl64.Vec3 {
	if !i.seeded {
		return mgl64.Vec3{}
	}
	span := i.targetTime.Sub(i.prevTime)
	if span <= 0 {
		return i.target
	}
	progress := now.Sub(i.targetTime).Seconds() / span.Seconds()
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return i.prev.Add(i.target.Sub(i.prev).Mul(progress))
}

// View tracks the whole client-side shadow state: the local prediction plus
// one interpolator per remote actor.
type View struct {
	LocalID   string
	Predictor *Predictor
	remotes   map[string]*Interpolator
}

// NewView builds a view around a freshly spawned local avatar.
func NewView(spawn proto.PlayerSpawned, w *world.World) *View {
	return &View{
		LocalID:   spawn.PlayerID,
		Predictor: NewPredictor(spawn, w),
		remotes:   make(map[string]*Interpolator),
	}
}

// ApplySnapshot folds one game_state broadcast into the shadow state:
// reconciliation for the local actor, interpolation buffers for the rest.
func (v *View) ApplySnapshot(state proto.GameState, at time.Time) {
	for id, snap := range state.Players {
		if id == v.LocalID {
			v.Predictor.Reconcile(snap)
			continue
		}
		interp, ok := v.remotes[id]
		if !ok {
			interp = &Interpolator{}
			v.remotes[id] = interp
		}
		interp.Observe(snap.Position, at)
	}
	// Forget remotes the server stopped reporting.
	for id := range v.remotes {
		if _, ok := state.Players[id]; !ok {
			delete(v.remotes, id)
		}
	}
}

// Remote returns the interpolated position of one remote actor.
func (v *View) Remote(id string, now time.Time) (mgl64.Vec3, bool) {
	interp, ok := v.remotes[id]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return interp.At(now), true
}
