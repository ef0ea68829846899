package physics

import "github.com/zeusync/vehicore/internal/core/math3d"

// Owner is the entity a bounding box is attached to.
// Only its live position and orientation are read.
type Owner interface {
	Position() math3d.Vector3
	Orientation() *math3d.RotationMatrix
}

// World is the world-collision collaborator.
//
// QueryCollisions receives a box whose GlobalCenter has already been displaced
// by motion. It returns the static obstacles overlapping the box and the
// collision depth along each axis of motion. With swept set, depth that is
// larger than the motion on that axis is discarded since it was there before
// the move. Implementations may block (e.g. while loading world data).
type World interface {
	QueryCollisions(box *BoundingBox, motion math3d.Vector3, swept bool) CollisionResult
}

// CollisionResult is what a World reports for one box.
type CollisionResult struct {
	// Obstacles holds the grid positions of every overlapping obstacle.
	Obstacles []math3d.Vector3
	// Depth is the per-axis penetration in the direction of motion.
	Depth math3d.Vector3
}
