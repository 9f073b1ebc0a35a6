// Package sim is the per-actor kinematic simulation: the authoritative
// server and the client predictor both advance actors through the same Step
// so their trajectories cannot drift apart.
package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"ironfall/server/internal/combat"
)

const (
	MaxHealth  = 100.0
	MaxStamina = 100.0

	// StandingHeight and CrouchHeight are capsule heights; Position.Y tracks
	// the top of the capsule, so ground contact is Y < height.
	StandingHeight = 1.8
	CrouchHeight   = 1.2
	Radius         = 0.4

	Gravity     = 20.0
	JumpImpulse = 8.0
	ClimbSpeed  = 3.0

	// Stamina drains while sprinting and recovers otherwise, in points per
	// second.
	StaminaDrain   = 20.0
	StaminaRecover = 10.0
)

// Actor is one player's full authoritative state.
type Actor struct {
	ID   string
	Name string

	Position mgl64.Vec3 // Y is the top of the capsule
	Velocity mgl64.Vec3
	Yaw      float64
	Pitch    float64

	Health  float64
	Stamina float64

	Crouching  bool
	Grounded   bool
	canJump    bool
	OnLadder   bool
	Eliminated bool

	Loadout combat.Loadout

	// Score counts cosmetic PvE target destructions; never authoritative.
	Score int
}

// NewActor creates an actor at the given spawn point with a fresh loadout.
func NewActor(id, name string, spawnX, spawnZ float64) *Actor {
	return &Actor{
		ID:       id,
		Name:     name,
		Position: mgl64.Vec3{spawnX, StandingHeight, spawnZ},
		Health:   MaxHealth,
		Stamina:  MaxStamina,
		Grounded: true,
		canJump:  true,
		Loadout:  combat.NewLoadout(),
	}
}

// Height is the current capsule height for the actor's stance.
func (a *Actor) Height() float64 {
	if a.Crouching {
		return CrouchHeight
	}
	return StandingHeight
}

// FootY is the bottom of the capsule.
func (a *Actor) FootY() float64 {
	return a.Position.Y() - a.Height()
}

// EyePosition is where rays and projectiles originate.
func (a *Actor) EyePosition() mgl64.Vec3 {
	return mgl64.Vec3{a.Position.X(), a.Position.Y() - 0.2, a.Position.Z()}
}

// Target converts the actor into a combat capsule.
func (a *Actor) Target() combat.Target {
	return combat.Target{
		ID:     a.ID,
		X:      a.Position.X(),
		Y:      a.FootY(),
		Z:      a.Position.Z(),
		Radius: Radius,
		Height: a.Height(),
	}
}

// Respawn resets health, position, velocity, and loadout while keeping the
// actor's identity and score.
func (a *Actor) Respawn(spawnX, spawnZ float64) {
	a.Position = mgl64.Vec3{spawnX, StandingHeight, spawnZ}
	a.Velocity = mgl64.Vec3{}
	a.Health = MaxHealth
	a.Stamina = MaxStamina
	a.Crouching = false
	a.Grounded = true
	a.canJump = true
	a.OnLadder = false
	a.Eliminated = false
	a.Loadout = combat.NewLoadout()
}
