package combat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// aimPlusX is the yaw that points the fire direction down +X.
const aimPlusX = -math.Pi / 2

func pistolLoadout() Loadout {
	l := NewLoadout()
	l.Current = Pistol
	return l
}

func TestHitscanHeadshotDoublesPistolDamage(t *testing.T) {
	target := Target{ID: "victim", X: 5, Y: 0, Z: 0, Radius: 0.4, Height: 1.8}
	l := pistolLoadout()

	// Eye height 1.6 lies inside the head band (top 1.8, band 0.35).
	hits := ResolveHitscan("shooter", mgl64.Vec3{0, 1.6, 0}, aimPlusX, 0, &l, []Target{target}, nil)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if !hits[0].Headshot {
		t.Fatalf("expected headshot at eye height")
	}
	if hits[0].Damage != Def(Pistol).Damage*2 {
		t.Fatalf("expected doubled damage %v, got %v", Def(Pistol).Damage*2, hits[0].Damage)
	}

	// A ray through the torso deals base damage.
	hits = ResolveHitscan("shooter", mgl64.Vec3{0, 1.0, 0}, aimPlusX, 0, &l, []Target{target}, nil)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Headshot {
		t.Fatalf("torso hit flagged as headshot")
	}
	if hits[0].Damage != Def(Pistol).Damage {
		t.Fatalf("expected base damage %v, got %v", Def(Pistol).Damage, hits[0].Damage)
	}
}

func TestHitscanFirstTargetAbsorbsPellet(t *testing.T) {
	near := Target{ID: "near", X: 4, Y: 0, Z: 0, Radius: 0.4, Height: 1.8}
	far := Target{ID: "far", X: 8, Y: 0, Z: 0, Radius: 0.4, Height: 1.8}
	l := pistolLoadout()

	hits := ResolveHitscan("shooter", mgl64.Vec3{0, 1.0, 0}, aimPlusX, 0, &l, []Target{far, near}, nil)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].TargetID != "near" {
		t.Fatalf("expected the nearer target to absorb the pellet, hit %q", hits[0].TargetID)
	}
}

func TestHitscanStopsAtMaxRange(t *testing.T) {
	target := Target{ID: "victim", X: Def(Pistol).MaxRange + 10, Y: 0, Z: 0, Radius: 0.4, Height: 1.8}
	l := pistolLoadout()

	hits := ResolveHitscan("shooter", mgl64.Vec3{0, 1.0, 0}, aimPlusX, 0, &l, []Target{target}, nil)
	if len(hits) != 0 {
		t.Fatalf("expected no hits past max range, got %d", len(hits))
	}
}

func TestHitscanMisses(t *testing.T) {
	target := Target{ID: "victim", X: 5, Y: 0, Z: 10, Radius: 0.4, Height: 1.8}
	l := pistolLoadout()

	hits := ResolveHitscan("shooter", mgl64.Vec3{0, 1.0, 0}, aimPlusX, 0, &l, []Target{target}, nil)
	if len(hits) != 0 {
		t.Fatalf("expected a clean miss, got %d hits", len(hits))
	}
}

func TestShotgunDamageSplitsAcrossPellets(t *testing.T) {
	// A point-blank wide target catches every pellet despite the spread cone.
	target := Target{ID: "victim", X: 2, Y: 0, Z: 0, Radius: 1.0, Height: 1.8}
	l := NewLoadout()
	l.SwitchTo(Shotgun)
	def := Def(Shotgun)
	rng := rand.New(rand.NewSource(7))

	hits := ResolveHitscan("shooter", mgl64.Vec3{0, 1.0, 0}, aimPlusX, 0, &l, []Target{target}, rng)
	if len(hits) != def.PelletCount {
		t.Fatalf("expected %d pellet hits, got %d", def.PelletCount, len(hits))
	}
	total := 0.0
	for _, h := range hits {
		if h.Damage != def.Damage/float64(def.PelletCount) {
			t.Fatalf("expected per-pellet damage %v, got %v", def.Damage/float64(def.PelletCount), h.Damage)
		}
		if h.Headshot {
			t.Fatalf("shotgun has no headshot bonus")
		}
		total += h.Damage
	}
	if math.Abs(total-def.Damage) > 1e-9 {
		t.Fatalf("expected total damage %v, got %v", def.Damage, total)
	}
}

func TestPerturbStaysInsideCone(t *testing.T) {
	base := mgl64.Vec3{1, 0, 0}
	rng := rand.New(rand.NewSource(1))
	const spread = 0.12
	for i := 0; i < 1000; i++ {
		dir := perturb(base, spread, rng)
		if math.Abs(dir.Len()-1) > 1e-9 {
			t.Fatalf("perturbed direction not unit length: %v", dir.Len())
		}
		angle := math.Acos(dir.Dot(base))
		if angle > spread+1e-9 {
			t.Fatalf("perturbed direction outside cone: %v > %v", angle, spread)
		}
	}
}
