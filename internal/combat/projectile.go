package combat

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"ironfall/server/internal/mathx"
	"ironfall/server/internal/world"
)

// projectileGravity pulls ballistic rounds down, independent of actor
// gravity tuning.
const projectileGravity = 12.0

// projectileRadius is the contact radius against geometry and actors.
const projectileRadius = 0.2

// Projectile is one in-flight ballistic round.
type Projectile struct {
	ID       string
	OwnerID  string
	Weapon   Type
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Damage   float64
	Lifetime float64
	Exploded bool
}

// NewProjectile spawns a round at the muzzle along the fire direction.
func NewProjectile(ownerID string, weapon Type, origin mgl64.Vec3, yaw, pitch float64) *Projectile {
	def := Def(weapon)
	dir := mathx.AimDirection(yaw, pitch)
	return &Projectile{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Weapon:   weapon,
		Position: origin,
		Velocity: dir.Mul(def.LaunchSpeed),
		Damage:   def.Damage,
		Lifetime: def.Lifetime,
	}
}

// Step integrates one tick of flight. It returns splash hits when the round
// detonates this tick (contact with geometry, ground, or a target) and
// reports whether the projectile is spent — either detonated or expired.
func (p *Projectile) Step(dt float64, w *world.World, targets []Target) ([]Hit, bool) {
	if p.Exploded {
		return nil, true
	}

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return nil, true
	}

	p.Velocity = p.Velocity.Sub(mgl64.Vec3{0, projectileGravity * dt, 0})
	p.Position = p.Position.Add(p.Velocity.Mul(dt))

	contact := p.Position.Y() <= 0 ||
		w.CollidesAt(p.Position.X(), p.Position.Y(), p.Position.Z(), projectileRadius, projectileRadius)
	if !contact {
		for _, t := range targets {
			if t.ID == p.OwnerID {
				continue
			}
			if p.Position.Y() >= t.Y && p.Position.Y() <= t.Y+t.Height &&
				mathx.HorizontalDistance(p.Position.X(), p.Position.Z(), t.X, t.Z) <= t.Radius+projectileRadius {
				contact = true
				break
			}
		}
	}
	if !contact {
		return nil, false
	}

	p.Exploded = true
	return p.splash(targets), true
}

// splash applies area damage scaled down linearly with distance from the
// blast center, zero beyond the blast radius. The owner is not exempt; a
// badly aimed rocket hurts its shooter.
func (p *Projectile) splash(targets []Target) []Hit {
	def := Def(p.Weapon)
	var hits []Hit
	for _, t := range targets {
		center := mgl64.Vec3{t.X, t.Y + t.Height/2, t.Z}
		dist := p.Position.Sub(center).Len()
		if dist > def.BlastRadius {
			continue
		}
		damage := p.Damage * (1 - dist/def.BlastRadius)
		if damage <= 0 {
			continue
		}
		hits = append(hits, Hit{
			AttackerID: p.OwnerID,
			TargetID:   t.ID,
			Damage:     damage,
			Weapon:     p.Weapon,
		})
	}
	return hits
}
