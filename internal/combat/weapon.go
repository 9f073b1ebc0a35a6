// Package combat implements the per-actor weapon state machine and the two
// damage models: instantaneous hit-scan resolution and ballistic
// projectiles. Weapon definitions are process-wide immutable configuration.
package combat

// Type identifies a weapon. The fixed enum lets per-weapon state live in
// small arrays instead of open maps.
type Type int

const (
	Pistol Type = iota
	Rifle
	Shotgun
	Launcher

	// TypeCount sizes fixed per-weapon tables.
	TypeCount
)

var typeNames = [TypeCount]string{"pistol", "rifle", "shotgun", "launcher"}

func (t Type) String() string {
	if t < 0 || t >= TypeCount {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType maps a wire name onto a weapon type.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

// FireMode distinguishes hold-to-fire from one-shot-per-press weapons.
type FireMode int

const (
	Auto FireMode = iota
	SemiAuto
)

// Kind distinguishes instantaneous rays from simulated projectiles.
type Kind int

const (
	Hitscan Kind = iota
	Ballistic
)

// Definition is the static tuning for one weapon type. Never mutated after
// process start.
type Definition struct {
	Name         string
	Damage       float64 // total damage across all pellets
	FireInterval float64 // seconds between shots
	MagazineSize int
	ReserveSize  int
	Mode         FireMode
	Kind         Kind
	ReloadTime   float64
	MaxRange     float64
	PelletCount  int

	// Spread model. SpreadBase applies for the first TightShots consecutive
	// shots; each further shot adds SpreadPerShot up to SpreadMax. The
	// counter decays back to zero once firing stops.
	SpreadBase    float64
	SpreadPerShot float64
	SpreadMax     float64
	TightShots    int

	// HeadshotMultiplier > 1 enables the head-band damage bonus.
	HeadshotMultiplier float64

	// Ballistic tuning, zero for hit-scan weapons.
	LaunchSpeed float64
	BlastRadius float64
	Lifetime    float64
}

// definitions is the singleton weapon table.
var definitions = [TypeCount]Definition{
	Pistol: {
		Name:               "pistol",
		Damage:             25,
		FireInterval:       0.25,
		MagazineSize:       12,
		ReserveSize:        36,
		Mode:               SemiAuto,
		Kind:               Hitscan,
		ReloadTime:         1.2,
		MaxRange:           50,
		PelletCount:        1,
		HeadshotMultiplier: 2,
	},
	Rifle: {
		Name:          "rifle",
		Damage:        20,
		FireInterval:  0.1,
		MagazineSize:  30,
		ReserveSize:   90,
		Mode:          Auto,
		Kind:          Hitscan,
		ReloadTime:    2.0,
		MaxRange:      80,
		PelletCount:   1,
		SpreadBase:    0.01,
		SpreadPerShot: 0.008,
		SpreadMax:     0.06,
		TightShots:    3,
	},
	Shotgun: {
		Name:         "shotgun",
		Damage:       80,
		FireInterval: 0.8,
		MagazineSize: 6,
		ReserveSize:  18,
		Mode:         SemiAuto,
		Kind:         Hitscan,
		ReloadTime:   2.4,
		MaxRange:     25,
		PelletCount:  8,
		SpreadBase:   0.12,
		SpreadMax:    0.12,
	},
	Launcher: {
		Name:         "launcher",
		Damage:       90,
		FireInterval: 1.2,
		MagazineSize: 1,
		ReserveSize:  5,
		Mode:         SemiAuto,
		Kind:         Ballistic,
		ReloadTime:   2.5,
		MaxRange:     0,
		PelletCount:  1,
		LaunchSpeed:  25,
		BlastRadius:  5,
		Lifetime:     3,
	},
}

// Def returns the static definition for a weapon type. Unknown values
// degrade to the pistol definition rather than panicking mid-tick.
func Def(t Type) Definition {
	if t < 0 || t >= TypeCount {
		return definitions[Pistol]
	}
	return definitions[t]
}
