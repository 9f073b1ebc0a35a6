// Package intake validates and rate-limits untrusted client input before it
// reaches a room. Validation is fail-closed: a message that violates any
// bound is rejected whole, never partially applied.
package intake

import (
	"errors"
	"math"
	"sync"
	"time"

	"ironfall/server/internal/combat"
	"ironfall/server/internal/net/proto"
)

const (
	// maxMouseDelta bounds a single frame's mouse movement.
	maxMouseDelta = 500.0
	// maxYawMagnitude bounds accumulated yaw; clients normalize, so anything
	// past this is garbage or an overflow probe.
	maxYawMagnitude = 1000.0
	// maxPitchMagnitude allows a little slack past straight up/down.
	maxPitchMagnitude = math.Pi/2 + 0.01
	// maxFutureSkew is how far ahead of server time a client timestamp may
	// plausibly sit.
	maxFutureSkew = 5 * time.Second
)

var (
	ErrBadAngle     = errors.New("intake: angle out of range")
	ErrBadMouse     = errors.New("intake: mouse delta out of range")
	ErrBadTimestamp = errors.New("intake: implausible timestamp")
	ErrBadWeapon    = errors.New("intake: unknown weapon type")
)

// Verdict is the gateway's decision for one message.
type Verdict int

const (
	// Accepted passes the full message through.
	Accepted Verdict = iota
	// CombatOnly means the rate limiter dropped the movement payload but the
	// fire-intent fields pass through; combat responsiveness outranks strict
	// rate fairness.
	CombatOnly
	// Rejected drops the message entirely.
	Rejected
)

// Validate checks every optional field's type range. Boolean typing is
// enforced by the typed decode; this covers the numeric bounds.
func Validate(msg proto.PlayerInput, now time.Time) error {
	for _, angle := range []*float64{msg.Yaw, msg.Pitch} {
		if angle != nil && (math.IsNaN(*angle) || math.IsInf(*angle, 0)) {
			return ErrBadAngle
		}
	}
	if msg.Yaw != nil && math.Abs(*msg.Yaw) > maxYawMagnitude {
		return ErrBadAngle
	}
	if msg.Pitch != nil && math.Abs(*msg.Pitch) > maxPitchMagnitude {
		return ErrBadAngle
	}
	for _, delta := range []*float64{msg.MouseX, msg.MouseY} {
		if delta == nil {
			continue
		}
		if math.IsNaN(*delta) || math.IsInf(*delta, 0) || math.Abs(*delta) > maxMouseDelta {
			return ErrBadMouse
		}
	}
	if math.IsNaN(msg.Timestamp) || math.IsInf(msg.Timestamp, 0) || msg.Timestamp < 0 {
		return ErrBadTimestamp
	}
	// Compare in float space: converting a huge float to int64 overflows to
	// a negative value and would slip past the bound.
	if msg.Timestamp > float64(now.Add(maxFutureSkew).UnixMilli()) {
		return ErrBadTimestamp
	}
	if msg.WeaponType != nil {
		if _, ok := combat.ParseType(*msg.WeaponType); !ok {
			return ErrBadWeapon
		}
	}
	return nil
}

type bucket struct {
	tokens float64
	last   time.Time
}

// Gateway owns one token bucket per actor.
type Gateway struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   float64
}

// NewGateway builds a gateway admitting ratePerSecond inputs steady-state
// with the given burst headroom.
func NewGateway(ratePerSecond, burst float64) *Gateway {
	if ratePerSecond <= 0 {
		ratePerSecond = 60
	}
	if burst < ratePerSecond/2 {
		burst = ratePerSecond / 2
	}
	return &Gateway{
		buckets: make(map[string]*bucket),
		rate:    ratePerSecond,
		burst:   burst,
	}
}

// Admit validates one input message and charges the actor's bucket. On rate
// exhaustion the movement payload is stripped but shoot and weapon-switch
// intent survive in the returned message.
func (g *Gateway) Admit(actorID string, msg proto.PlayerInput, now time.Time) (proto.PlayerInput, Verdict, error) {
	if err := Validate(msg, now); err != nil {
		return proto.PlayerInput{}, Rejected, err
	}

	if g.take(actorID, now) {
		return msg, Accepted, nil
	}

	stripped := proto.PlayerInput{
		Shoot:      msg.Shoot,
		WeaponType: msg.WeaponType,
		Timestamp:  msg.Timestamp,
		PlayerID:   msg.PlayerID,
	}
	return stripped, CombatOnly, nil
}

// Forget releases an actor's bucket on disconnect.
func (g *Gateway) Forget(actorID string) {
	g.mu.Lock()
	delete(g.buckets, actorID)
	g.mu.Unlock()
}

func (g *Gateway) take(actorID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.buckets[actorID]
	if !ok {
		b = &bucket{tokens: g.burst, last: now}
		g.buckets[actorID] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(g.burst, b.tokens+elapsed*g.rate)
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
