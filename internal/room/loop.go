package room

import (
	"time"

	"ironfall/server/internal/combat"
	"ironfall/server/internal/net/proto"
	"ironfall/server/internal/sim"
)

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes. Broadcast happens on its own cadence, not every tick.
func (r *Room) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(r.cfg.TickRate)
			}
			last = now
			r.Advance(now, dt)
		}
	}
}

// Advance runs one authoritative mutation pass and then, if due, one
// read-only broadcast pass. Exported so tests can drive ticks directly.
func (r *Room) Advance(now time.Time, dt float64) {
	r.mu.Lock()

	if r.phase == PhaseOver {
		r.mu.Unlock()
		return
	}

	r.tick++
	r.pruneIdleLocked(now)

	var outbound [][]byte

	// Apply every queued input, then step each actor against its peers.
	for _, session := range r.sessions {
		r.applyQueuedInputsLocked(session)
	}
	for id, session := range r.sessions {
		input := session.pending.take()
		others := r.otherActorsLocked(id)
		events := r.stepActorLocked(session.actor, dt, input, others)
		for _, ev := range events {
			r.resolveFireLocked(ev, &outbound)
		}
	}

	r.stepProjectilesLocked(dt, &outbound)

	var snapshot []byte
	if now.Sub(r.lastBroadcast) >= r.cfg.SnapshotInterval {
		r.lastBroadcast = now
		if data, err := proto.Encode(proto.TypeGameState, r.snapshotLocked(now)); err == nil {
			snapshot = data
		} else {
			r.logger.Error("failed to marshal snapshot", "err", err)
		}
	}
	r.mu.Unlock()

	for _, data := range outbound {
		r.broadcast(data, "")
	}
	if snapshot != nil {
		r.broadcast(snapshot, "")
	}
}

// stepActorLocked isolates one actor's simulation fault: a panic inside Step
// is recovered and logged so the rest of the room still ticks.
func (r *Room) stepActorLocked(actor *sim.Actor, dt float64, input sim.Input, others []*sim.Actor) (events []sim.FireEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("actor step fault isolated", "player", actor.ID, "fault", rec)
			events = nil
		}
	}()
	return sim.Step(actor, dt, input, others, r.world)
}

// applyQueuedInputsLocked drains an actor's staged messages into its pending
// input, feeding every sample through the trigger edge detector.
func (r *Room) applyQueuedInputsLocked(session *playerSession) {
	r.drainScratch = session.queue.drain(r.drainScratch)
	for _, in := range r.drainScratch {
		edge := false
		if in.msg.Shoot != nil {
			edge = session.actor.Loadout.ObserveTrigger(*in.msg.Shoot)
		}
		session.pending.fold(in, edge)
	}
}

func (r *Room) otherActorsLocked(selfID string) []*sim.Actor {
	others := make([]*sim.Actor, 0, len(r.sessions)-1)
	for id, s := range r.sessions {
		if id != selfID {
			others = append(others, s.actor)
		}
	}
	return others
}

// livingTargetsLocked collects capsules for every living actor except the
// excluded one.
func (r *Room) livingTargetsLocked(excludeID string) []combat.Target {
	targets := make([]combat.Target, 0, len(r.sessions))
	for id, s := range r.sessions {
		if id == excludeID || s.actor.Eliminated {
			continue
		}
		targets = append(targets, s.actor.Target())
	}
	return targets
}

// resolveFireLocked turns one fire event into hit-scan damage or a spawned
// projectile.
func (r *Room) resolveFireLocked(ev sim.FireEvent, outbound *[][]byte) {
	session, ok := r.sessions[ev.ActorID]
	if !ok {
		return
	}
	actor := session.actor
	def := combat.Def(ev.Weapon)

	if def.Kind == combat.Ballistic {
		p := combat.NewProjectile(ev.ActorID, ev.Weapon, actor.EyePosition(), ev.Yaw, ev.Pitch)
		r.projectiles = append(r.projectiles, p)
		return
	}

	hits := combat.ResolveHitscan(ev.ActorID, actor.EyePosition(), ev.Yaw, ev.Pitch,
		&actor.Loadout, r.livingTargetsLocked(ev.ActorID), r.rng)
	for _, hit := range hits {
		r.applyDamageLocked(hit, outbound)
	}
}

// stepProjectilesLocked advances every live projectile and drops the spent
// ones. Splash targets include the owner; only direct contact excludes it.
func (r *Room) stepProjectilesLocked(dt float64, outbound *[][]byte) {
	if len(r.projectiles) == 0 {
		return
	}
	targets := r.livingTargetsLocked("")
	alive := r.projectiles[:0]
	for _, p := range r.projectiles {
		hits, spent := p.Step(dt, r.world, targets)
		for _, hit := range hits {
			r.applyDamageLocked(hit, outbound)
		}
		if !spent {
			alive = append(alive, p)
		}
	}
	r.projectiles = alive
}

// applyDamageLocked is the single damage path: health update, hit event,
// death, and match termination all flow through here.
func (r *Room) applyDamageLocked(hit combat.Hit, outbound *[][]byte) {
	target, ok := r.sessions[hit.TargetID]
	if !ok || target.actor.Eliminated {
		return
	}

	actor := target.actor
	actor.Health -= hit.Damage
	if actor.Health < 0 {
		actor.Health = 0
	}
	fatal := actor.Health <= 0

	msg := proto.PlayerHit{
		AttackerID:      hit.AttackerID,
		TargetID:        hit.TargetID,
		Damage:          hit.Damage,
		RemainingHealth: actor.Health,
		WeaponType:      hit.Weapon.String(),
		WasFatal:        fatal,
		IsHeadshot:      hit.Headshot,
	}
	if data, err := proto.Encode(proto.TypePlayerHit, msg); err == nil {
		*outbound = append(*outbound, data)
	}

	if !fatal {
		return
	}

	actor.Eliminated = true
	if data, err := proto.Encode(proto.TypePlayerDied, proto.PlayerDied{
		PlayerID: hit.TargetID,
		KillerID: hit.AttackerID,
	}); err == nil {
		*outbound = append(*outbound, data)
	}

	// Only a live match ends on elimination. A lobby kill respawns the
	// victim; the room stays open.
	if r.phase != PhaseActive {
		r.respawnLocked(target)
		return
	}

	r.endMatchLocked(hit.AttackerID, hit.TargetID, outbound)
}

// endMatchLocked freezes the room on first elimination. The attacker wins
// unless it eliminated itself, in which case the surviving actor does.
func (r *Room) endMatchLocked(killerID, victimID string, outbound *[][]byte) {
	winner := killerID
	if winner == victimID || winner == "" {
		winner = ""
		for id, s := range r.sessions {
			if id != victimID && !s.actor.Eliminated {
				winner = id
				break
			}
		}
	}

	r.phase = PhaseOver
	r.result = proto.MatchResult{WinnerID: winner, LoserID: victimID, KillerID: killerID}
	r.logger.Info("match over", "room", r.ID, "winner", winner, "loser", victimID)

	if data, err := proto.Encode(proto.TypeMatchResult, r.result); err == nil {
		*outbound = append(*outbound, data)
	}
}

// pruneIdleLocked drops actors whose connection went silent past the idle
// timeout, the same way the heartbeat timeout works on the original hub.
func (r *Room) pruneIdleLocked(now time.Time) {
	for id, session := range r.sessions {
		if now.Sub(session.lastSeen) <= r.cfg.IdleTimeout {
			continue
		}
		r.logger.Info("disconnecting idle player", "player", id)
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			sub.conn.Close()
		}
		delete(r.sessions, id)
		r.gateway.Forget(id)
	}
}
