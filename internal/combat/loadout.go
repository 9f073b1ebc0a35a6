package combat

// Ammo tracks one weapon's magazine and reserve.
type Ammo struct {
	Loaded  int `json:"loaded"`
	Reserve int `json:"reserve"`
}

// ReloadState is the in-progress reload timer for the current weapon.
type ReloadState struct {
	Active    bool
	Remaining float64
}

// FireControl carries the cooldown timer and the previous trigger sample
// backing the semi-auto edge detector.
type FireControl struct {
	Cooldown    float64
	TriggerHeld bool
}

// spreadHeat tracks consecutive shots for state-dependent spread.
type spreadHeat struct {
	shots     int
	sinceShot float64
}

// spreadRecovery is how long fire must stop before the heat counter decays
// back to the tight value.
const spreadRecovery = 0.4

// Loadout is the full per-actor weapon state: one ammo slot per weapon type,
// the current selection, and the reload/fire-control machines.
type Loadout struct {
	Ammo    [TypeCount]Ammo
	Current Type
	Reload  ReloadState
	Fire    FireControl
	heat    spreadHeat
}

// NewLoadout returns a loadout with every weapon at full magazine and
// reserve, pistol selected.
func NewLoadout() Loadout {
	var l Loadout
	for t := Type(0); t < TypeCount; t++ {
		def := Def(t)
		l.Ammo[t] = Ammo{Loaded: def.MagazineSize, Reserve: def.ReserveSize}
	}
	l.Current = Pistol
	return l
}

// ObserveTrigger feeds one trigger sample through the edge detector and
// reports whether this sample is a discrete press. Every queued input must
// pass through here, not just the last one per tick, so a release/press pair
// arriving inside a single tick still registers as a press.
func (l *Loadout) ObserveTrigger(held bool) bool {
	pressed := held && !l.Fire.TriggerHeld
	l.Fire.TriggerHeld = held
	return pressed
}

// SwitchTo selects another weapon. Switching is blocked while reloading and
// force-resets the trigger edge so the next press on the new weapon always
// fires. The remaining cooldown carries over; switching is not a way around
// the fire interval.
func (l *Loadout) SwitchTo(t Type) bool {
	if t < 0 || t >= TypeCount || t == l.Current {
		return false
	}
	if l.Reload.Active {
		return false
	}
	l.Current = t
	l.Fire.TriggerHeld = false
	l.heat = spreadHeat{}
	return true
}

// StartReload begins a reload if one is useful: magazine not full, reserve
// available, none already running.
func (l *Loadout) StartReload() bool {
	def := Def(l.Current)
	ammo := &l.Ammo[l.Current]
	if l.Reload.Active || ammo.Reserve <= 0 || ammo.Loaded >= def.MagazineSize {
		return false
	}
	l.Reload = ReloadState{Active: true, Remaining: def.ReloadTime}
	return true
}

// Step advances cooldown, reload, and spread timers by dt and decides
// whether a shot fires this tick. held is the current trigger state;
// pressed is the edge-detector output accumulated since the last tick.
func (l *Loadout) Step(dt float64, held, pressed bool) bool {
	def := Def(l.Current)
	ammo := &l.Ammo[l.Current]

	if l.Fire.Cooldown > 0 {
		l.Fire.Cooldown -= dt
		if l.Fire.Cooldown < 0 {
			l.Fire.Cooldown = 0
		}
	}

	l.heat.sinceShot += dt
	if l.heat.sinceShot > spreadRecovery {
		l.heat.shots = 0
	}

	if l.Reload.Active {
		l.Reload.Remaining -= dt
		if l.Reload.Remaining <= 0 {
			moved := def.MagazineSize - ammo.Loaded
			if moved > ammo.Reserve {
				moved = ammo.Reserve
			}
			ammo.Loaded += moved
			ammo.Reserve -= moved
			l.Reload = ReloadState{}
		}
		return false
	}

	wants := held
	if def.Mode == SemiAuto {
		wants = pressed
	}
	if !wants || l.Fire.Cooldown > 0 {
		return false
	}

	if ammo.Loaded <= 0 {
		// Empty magazine: auto-reload when reserve remains.
		l.StartReload()
		return false
	}

	ammo.Loaded--
	l.Fire.Cooldown = def.FireInterval
	l.heat.shots++
	l.heat.sinceShot = 0
	return true
}

// CurrentSpread returns the cone half-angle in radians for the next shot,
// accounting for consecutive-shot widening.
func (l *Loadout) CurrentSpread() float64 {
	def := Def(l.Current)
	extra := l.heat.shots - def.TightShots
	if extra <= 0 {
		return def.SpreadBase
	}
	spread := def.SpreadBase + float64(extra)*def.SpreadPerShot
	if spread > def.SpreadMax {
		spread = def.SpreadMax
	}
	return spread
}
