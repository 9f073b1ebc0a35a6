// Package world owns the static collision geometry for one arena: solid
// axis-aligned boxes plus climbable ladder volumes, and the capsule queries
// the simulation runs against them. Geometry is built once at room
// initialization and never mutated.
package world

import "ironfall/server/internal/mathx"

// Box is an axis-aligned solid collider.
type Box struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// Ladder is a climbable volume. Unlike a Box it never blocks movement; an
// actor whose capsule overlaps it switches to climb-driven vertical motion.
type Ladder struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	MinY, MaxY float64
}

// ladderMargin widens each ladder region so an actor brushing the side of
// the volume still latches on.
const ladderMargin = 0.35

// World holds the immutable geometry for one arena.
type World struct {
	boxes      []Box
	ladders    []Ladder
	halfExtent float64
}

// New builds a world from explicit geometry.
func New(boxes []Box, ladders []Ladder, halfExtent float64) *World {
	return &World{boxes: boxes, ladders: ladders, halfExtent: halfExtent}
}

// overlapsCapsule reports whether the capsule spanning [y, y+height]
// vertically and [±radius] horizontally intersects the box. One interval
// overlap test per axis.
func (b Box) overlapsCapsule(x, y, z, radius, height float64) bool {
	return x+radius > b.MinX && x-radius < b.MaxX &&
		y+height > b.MinY && y < b.MaxY &&
		z+radius > b.MinZ && z-radius < b.MaxZ
}

// contains reports whether the actor's head-to-foot span sits inside the
// ladder region, widened by the climb margin.
func (l Ladder) contains(x, z, y, radius, height float64) bool {
	return x+radius > l.MinX-ladderMargin && x-radius < l.MaxX+ladderMargin &&
		z+radius > l.MinZ-ladderMargin && z-radius < l.MaxZ+ladderMargin &&
		y+height > l.MinY && y < l.MaxY
}

// CollidesAt reports whether a capsule at the given position intersects any
// solid box.
func (w *World) CollidesAt(x, y, z, radius, height float64) bool {
	for _, b := range w.boxes {
		if b.overlapsCapsule(x, y, z, radius, height) {
			return true
		}
	}
	return false
}

// ResolveMovement advances a capsule from (oldX, oldZ) toward (newX, newZ)
// with axis-separated sliding: the X move is attempted first against the old
// Z, then the Z move against the already-resolved X. A blocked axis keeps its
// old coordinate, which produces wall-sliding without iterative physics.
func (w *World) ResolveMovement(oldX, oldZ, newX, newZ, y, radius, height float64) (float64, float64) {
	x := newX
	if w.CollidesAt(newX, y, oldZ, radius, height) {
		x = oldX
	}
	z := newZ
	if w.CollidesAt(x, y, newZ, radius, height) {
		z = oldZ
	}
	return x, z
}

// ActorFootprint is the horizontal disc another actor occupies.
type ActorFootprint struct {
	X, Z float64
}

// CollidesWithActors reports whether a disc of the given radius at (x, z)
// overlaps any other actor's disc. Actor collision blocks movement entirely;
// there is no push-apart.
func (w *World) CollidesWithActors(x, z, radius float64, others []ActorFootprint) bool {
	minDist := 2 * radius
	for _, o := range others {
		if mathx.HorizontalDistance(x, z, o.X, o.Z) < minDist {
			return true
		}
	}
	return false
}

// FindLadder returns the first ladder whose region contains the capsule
// span, or nil. When two ladders overlap, the first in insertion order wins;
// that tie-break is an accident of construction, not a guarantee.
func (w *World) FindLadder(x, z, y, radius, height float64) *Ladder {
	for i := range w.ladders {
		if w.ladders[i].contains(x, z, y, radius, height) {
			return &w.ladders[i]
		}
	}
	return nil
}

// HalfExtent reports the arena's half width; positions are clamped to
// [-HalfExtent, HalfExtent] on X and Z every tick.
func (w *World) HalfExtent() float64 {
	return w.halfExtent
}

// ClampToBounds pulls a horizontal position back inside the arena.
func (w *World) ClampToBounds(x, z float64) (float64, float64) {
	return mathx.Clamp(x, -w.halfExtent, w.halfExtent),
		mathx.Clamp(z, -w.halfExtent, w.halfExtent)
}

// Boxes exposes the solid geometry, for broadcast to joining clients.
func (w *World) Boxes() []Box {
	return w.boxes
}

// Ladders exposes the climbable volumes.
func (w *World) Ladders() []Ladder {
	return w.ladders
}
