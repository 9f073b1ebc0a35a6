package combat

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"ironfall/server/internal/mathx"
)

// rayStep is the fixed march increment along each pellet ray.
const rayStep = 0.1

// hitTolerance widens each target capsule slightly so grazing rays still
// register, matching what players perceive as a hit.
const hitTolerance = 0.1

// headBandHeight is the vertical band below the top of a target capsule
// that counts as a headshot for headshot-capable weapons.
const headBandHeight = 0.35

// unboundedRange substitutes for a zero MaxRange.
const unboundedRange = 200.0

// Target is the capsule a pellet can intersect.
type Target struct {
	ID     string
	X      float64
	Y      float64 // foot height
	Z      float64
	Radius float64
	Height float64
}

// Hit is one pellet's resolved damage.
type Hit struct {
	AttackerID string
	TargetID   string
	Damage     float64
	Weapon     Type
	Headshot   bool
}

// ResolveHitscan marches every pellet of one shot through the target list
// and returns the resulting hits. Each pellet stops at the first capsule it
// enters; per-pellet damage is the weapon's total damage divided evenly
// across pellets, doubled inside the head band when the weapon allows it.
func ResolveHitscan(attackerID string, origin mgl64.Vec3, yaw, pitch float64, loadout *Loadout, targets []Target, rng *rand.Rand) []Hit {
	def := Def(loadout.Current)
	base := mathx.AimDirection(yaw, pitch)
	spread := loadout.CurrentSpread()

	maxRange := def.MaxRange
	if maxRange <= 0 {
		maxRange = unboundedRange
	}

	pellets := def.PelletCount
	if pellets < 1 {
		pellets = 1
	}
	perPellet := def.Damage / float64(pellets)

	var hits []Hit
	for p := 0; p < pellets; p++ {
		dir := perturb(base, spread, rng)
		if hit, ok := marchPellet(origin, dir, maxRange, targets); ok {
			damage := perPellet
			headshot := hit.headshot && def.HeadshotMultiplier > 1
			if headshot {
				damage *= def.HeadshotMultiplier
			}
			hits = append(hits, Hit{
				AttackerID: attackerID,
				TargetID:   hit.targetID,
				Damage:     damage,
				Weapon:     loadout.Current,
				Headshot:   headshot,
			})
		}
	}
	return hits
}

type pelletHit struct {
	targetID string
	headshot bool
}

// marchPellet walks the ray in fixed steps and reports the first capsule
// entered.
func marchPellet(origin, dir mgl64.Vec3, maxRange float64, targets []Target) (pelletHit, bool) {
	for dist := rayStep; dist <= maxRange; dist += rayStep {
		point := origin.Add(dir.Mul(dist))
		for _, t := range targets {
			if point.Y() < t.Y || point.Y() > t.Y+t.Height+hitTolerance {
				continue
			}
			if mathx.HorizontalDistance(point.X(), point.Z(), t.X, t.Z) > t.Radius+hitTolerance {
				continue
			}
			return pelletHit{
				targetID: t.ID,
				headshot: point.Y() >= t.Y+t.Height-headBandHeight,
			}, true
		}
	}
	return pelletHit{}, false
}

// perturb tilts the base direction by a random angle inside the spread cone:
// uniform azimuth, random radius up to the cone half-angle.
func perturb(base mgl64.Vec3, spread float64, rng *rand.Rand) mgl64.Vec3 {
	if spread <= 0 || rng == nil {
		return base
	}

	angle := rng.Float64() * spread
	azimuth := rng.Float64() * 2 * math.Pi

	// Build an orthonormal basis around the fire direction.
	up := mgl64.Vec3{0, 1, 0}
	if math.Abs(base.Dot(up)) > 0.99 {
		up = mgl64.Vec3{1, 0, 0}
	}
	right := base.Cross(up).Normalize()
	above := right.Cross(base).Normalize()

	offset := right.Mul(math.Cos(azimuth) * math.Tan(angle)).
		Add(above.Mul(math.Sin(azimuth) * math.Tan(angle)))
	return base.Add(offset).Normalize()
}
