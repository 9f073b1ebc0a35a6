package room

import (
	"time"

	"ironfall/server/internal/net/proto"
)

// snapshotLocked serializes every actor and live projectile into one
// authoritative game_state payload. Read-only relative to the tick's
// mutation pass.
func (r *Room) snapshotLocked(now time.Time) proto.GameState {
	players := make(map[string]proto.PlayerSnapshot, len(r.sessions))
	for id, session := range r.sessions {
		a := session.actor
		players[id] = proto.PlayerSnapshot{
			Position:      toVec3(a.Position),
			Rotation:      proto.Rotation{Yaw: a.Yaw, Pitch: a.Pitch},
			Health:        a.Health,
			Stamina:       a.Stamina,
			IsCrouched:    a.Crouching,
			CurrentWeapon: a.Loadout.Current.String(),
		}
	}

	var projectiles []proto.ProjectileSnapshot
	for _, p := range r.projectiles {
		projectiles = append(projectiles, proto.ProjectileSnapshot{
			ID:         p.ID,
			OwnerID:    p.OwnerID,
			Position:   toVec3(p.Position),
			Velocity:   toVec3(p.Velocity),
			WeaponType: p.Weapon.String(),
		})
	}

	return proto.GameState{
		Timestamp:   now.UnixMilli(),
		Tick:        r.tick,
		Players:     players,
		Projectiles: projectiles,
	}
}

// broadcast sends a frame to every subscriber except excludeID. Send
// failures disconnect the offending player; everyone else is unaffected.
func (r *Room) broadcast(data []byte, excludeID string) {
	r.mu.Lock()
	subs := make(map[string]*subscriber, len(r.subscribers))
	for id, sub := range r.subscribers {
		if id != excludeID {
			subs[id] = sub
		}
	}
	r.mu.Unlock()

	for id, sub := range subs {
		if err := sub.Write(data); err != nil {
			r.logger.Info("dropping subscriber after send failure", "player", id, "err", err)
			r.Disconnect(id)
		}
	}
}

// Snapshot returns the current state outside the tick loop, for tests and
// the initial frame sent to a fresh subscriber.
func (r *Room) Snapshot(now time.Time) proto.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(now)
}

// Actor returns a copy of one actor's state, for tests and diagnostics.
func (r *Room) Actor(playerID string) (actorCopy ActorView, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, found := r.sessions[playerID]
	if !found {
		return ActorView{}, false
	}
	a := session.actor
	return ActorView{
		ID:         a.ID,
		Position:   toVec3(a.Position),
		Health:     a.Health,
		Stamina:    a.Stamina,
		Eliminated: a.Eliminated,
		Weapon:     a.Loadout.Current.String(),
		Score:      a.Score,
	}, true
}

// ActorView is a read-only copy handed out across the room boundary.
type ActorView struct {
	ID         string
	Position   proto.Vec3
	Health     float64
	Stamina    float64
	Eliminated bool
	Weapon     string
	Score      int
}
