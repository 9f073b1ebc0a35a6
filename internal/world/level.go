package world

// Arena dimensions and fixed level geometry. The layout mirrors the shipped
// map: an enclosed square arena with scattered cover boxes, a staircase up to
// a raised platform, and two ladders on the platform's far side.

const (
	// ArenaHalfExtent is half the playable width on X and Z.
	ArenaHalfExtent = 25.0
	wallThickness   = 1.0
	wallHeight      = 6.0
)

// NewArena constructs the fixed level every room plays on.
func NewArena() *World {
	boxes := make([]Box, 0, 24)

	// Perimeter walls.
	e := ArenaHalfExtent
	t := wallThickness
	boxes = append(boxes,
		Box{MinX: -e - t, MaxX: e + t, MinY: 0, MaxY: wallHeight, MinZ: -e - t, MaxZ: -e},
		Box{MinX: -e - t, MaxX: e + t, MinY: 0, MaxY: wallHeight, MinZ: e, MaxZ: e + t},
		Box{MinX: -e - t, MaxX: -e, MinY: 0, MaxY: wallHeight, MinZ: -e - t, MaxZ: e + t},
		Box{MinX: e, MaxX: e + t, MinY: 0, MaxY: wallHeight, MinZ: -e - t, MaxZ: e + t},
	)

	// Cover boxes around the mid field.
	boxes = append(boxes,
		Box{MinX: -8, MaxX: -6, MinY: 0, MaxY: 1.6, MinZ: -2, MaxZ: 2},
		Box{MinX: 6, MaxX: 8, MinY: 0, MaxY: 1.6, MinZ: -2, MaxZ: 2},
		Box{MinX: -2, MaxX: 2, MinY: 0, MaxY: 1.2, MinZ: -10, MaxZ: -8},
		Box{MinX: -2, MaxX: 2, MinY: 0, MaxY: 1.2, MinZ: 8, MaxZ: 10},
		Box{MinX: -14, MaxX: -12, MinY: 0, MaxY: 2.0, MinZ: 10, MaxZ: 14},
		Box{MinX: 12, MaxX: 14, MinY: 0, MaxY: 2.0, MinZ: -14, MaxZ: -10},
	)

	// Staircase: four rising steps leading onto the platform.
	for i := 0; i < 4; i++ {
		step := float64(i)
		boxes = append(boxes, Box{
			MinX: 16 + step, MaxX: 17 + step,
			MinY: 0, MaxY: 0.5 * (step + 1),
			MinZ: 14, MaxZ: 18,
		})
	}

	// Raised platform in the corner.
	boxes = append(boxes, Box{
		MinX: 20, MaxX: 25, MinY: 0, MaxY: 2.0, MinZ: 14, MaxZ: 22,
	})

	ladders := []Ladder{
		{MinX: 20, MaxX: 21, MinZ: 22, MaxZ: 22.5, MinY: 0, MaxY: 2.5},
		{MinX: 24, MaxX: 25, MinZ: 22, MaxZ: 22.5, MinY: 0, MaxY: 2.5},
	}

	return New(boxes, ladders, ArenaHalfExtent)
}

// SpawnPoints are the deterministic spawn slots; slots are assigned
// round-robin as actors join and reused on respawn.
var SpawnPoints = [][2]float64{
	{-20, -20},
	{20, -20},
	{-20, 20},
	{0, 18},
}
