package sim

import (
	"ironfall/server/internal/combat"
	"ironfall/server/internal/mathx"
	"ironfall/server/internal/world"
)

// Input is one tick's worth of validated player intent. ShootPressed is the
// accumulated output of the trigger edge detector: it must be derived by
// feeding every raw input sample through Loadout.ObserveTrigger, so a
// release/press pair inside one tick still counts as a discrete press.
type Input struct {
	Forward, Back, Left, Right bool
	Jump, Sprint, Crouch       bool

	Yaw, Pitch float64

	Shoot        bool
	ShootPressed bool
	Reload       bool

	SwitchWeapon bool
	Weapon       combat.Type
}

// FireEvent is emitted when the weapon state machine discharges. The room
// drains these after the step and resolves them into hit-scan rays or
// spawned projectiles; the step itself never mutates other actors.
type FireEvent struct {
	ActorID string
	Weapon  combat.Type
	Yaw     float64
	Pitch   float64
}

// Step advances one actor by dt. Mutates the actor in place and returns the
// fire events the weapon layer produced this tick. Assumes input was already
// validated upstream; internal inconsistencies degrade to safe defaults
// rather than aborting the tick.
func Step(a *Actor, dt float64, in Input, others []*Actor, w *world.World) []FireEvent {
	if a.Eliminated {
		return nil
	}

	a.Yaw = in.Yaw
	a.Pitch = in.Pitch

	// Weapon sub-state first: switches, reloads, then the fire decision.
	var events []FireEvent
	if in.SwitchWeapon {
		a.Loadout.SwitchTo(in.Weapon)
	}
	if in.Reload {
		a.Loadout.StartReload()
	}
	if a.Loadout.Step(dt, in.Shoot, in.ShootPressed) {
		events = append(events, FireEvent{
			ActorID: a.ID,
			Weapon:  a.Loadout.Current,
			Yaw:     a.Yaw,
			Pitch:   a.Pitch,
		})
	}

	// Stance before movement: crouch height feeds every collision query.
	a.Crouching = in.Crouch
	height := a.Height()

	move := mathx.MoveVector(in.Forward, in.Back, in.Left, in.Right, a.Yaw)
	moving := move.Len() > 0

	sprinting := in.Sprint && moving && !a.Crouching && a.Stamina >= 1
	if sprinting {
		a.Stamina -= StaminaDrain * dt
		if a.Stamina < 0 {
			a.Stamina = 0
		}
	} else {
		a.Stamina += StaminaRecover * dt
		if a.Stamina > MaxStamina {
			a.Stamina = MaxStamina
		}
	}
	speed := mathx.MoveSpeed(sprinting, a.Crouching)

	oldX, oldZ := a.Position.X(), a.Position.Z()
	newX := oldX + move.X()*speed*dt
	newZ := oldZ + move.Z()*speed*dt

	footY := a.Position.Y() - height
	resolvedX, resolvedZ := w.ResolveMovement(oldX, oldZ, newX, newZ, footY, Radius, height)

	// Actor-vs-actor collision blocks the whole move; no partial slide.
	footprints := make([]world.ActorFootprint, 0, len(others))
	for _, o := range others {
		if o.Eliminated {
			continue
		}
		footprints = append(footprints, world.ActorFootprint{X: o.Position.X(), Z: o.Position.Z()})
	}
	if w.CollidesWithActors(resolvedX, resolvedZ, Radius, footprints) {
		resolvedX, resolvedZ = oldX, oldZ
	}

	y := a.Position.Y()
	vy := a.Velocity.Y()

	ladder := w.FindLadder(resolvedX, resolvedZ, y-height, Radius, height)
	if ladder != nil && !(in.Jump && !a.Crouching) {
		// Climb-driven vertical motion; gravity is suspended on the ladder.
		a.OnLadder = true
		vy = 0
		if in.Forward {
			y += ClimbSpeed * dt
		} else if in.Back {
			y -= ClimbSpeed * dt
		}
		if y > ladder.MaxY+height {
			y = ladder.MaxY + height
		}
		a.Grounded = false
		a.canJump = true
	} else {
		if a.OnLadder && in.Jump && !a.Crouching {
			// Jumping off the ladder exits climb mode with an upward impulse.
			vy = JumpImpulse
		} else if in.Jump && a.canJump && a.Grounded {
			vy = JumpImpulse
			a.canJump = false
			a.Grounded = false
		}
		a.OnLadder = false

		vy -= Gravity * dt
		y += vy * dt

		// Ground contact: Y tracks the top of the capsule, so the floor sits
		// at the current height.
		if y < height {
			y = height
			vy = 0
			a.Grounded = true
			a.canJump = true
		}
	}

	resolvedX, resolvedZ = w.ClampToBounds(resolvedX, resolvedZ)

	a.Position[0] = resolvedX
	a.Position[1] = y
	a.Position[2] = resolvedZ
	a.Velocity[1] = vy

	return events
}
