// Package mathx holds the movement and aim math shared verbatim by the
// authoritative simulation and the client-side predictor. Both sides must
// produce bit-identical trajectories from the same inputs, so every formula
// that influences an actor's position lives here and nowhere else.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// BaseSpeed is the walking speed in units per second.
	BaseSpeed = 5.0
	// SprintSpeed replaces BaseSpeed while sprint is eligible.
	SprintSpeed = 8.0
	// CrouchFactor scales the selected speed while crouched.
	CrouchFactor = 0.5
)

// MoveVector converts four directional flags into a world-space unit vector
// rotated by yaw. The rotation convention matches the client camera math:
//
//	worldX = localX*cos(yaw) + localZ*sin(yaw)
//	worldZ = -localX*sin(yaw) + localZ*cos(yaw)
//
// Changing this convention on one side only desynchronizes prediction.
func MoveVector(forward, back, left, right bool, yaw float64) mgl64.Vec3 {
	var localX, localZ float64
	if forward {
		localZ--
	}
	if back {
		localZ++
	}
	if left {
		localX--
	}
	if right {
		localX++
	}

	length := math.Hypot(localX, localZ)
	if length == 0 {
		return mgl64.Vec3{}
	}
	localX /= length
	localZ /= length

	sin, cos := math.Sincos(yaw)
	return mgl64.Vec3{
		localX*cos + localZ*sin,
		0,
		-localX*sin + localZ*cos,
	}
}

// AimDirection returns the normalized fire direction for a yaw/pitch pair.
func AimDirection(yaw, pitch float64) mgl64.Vec3 {
	sinYaw, cosYaw := math.Sincos(yaw)
	sinPitch, cosPitch := math.Sincos(pitch)
	dir := mgl64.Vec3{-sinYaw * cosPitch, sinPitch, -cosYaw * cosPitch}
	if dir.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return dir.Normalize()
}

// MoveSpeed selects the horizontal speed for the current stance.
func MoveSpeed(sprinting, crouched bool) float64 {
	speed := BaseSpeed
	if sprinting {
		speed = SprintSpeed
	}
	if crouched {
		speed *= CrouchFactor
	}
	return speed
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// HorizontalDistance measures the XZ-plane distance between two points.
func HorizontalDistance(ax, az, bx, bz float64) float64 {
	return math.Hypot(ax-bx, az-bz)
}
