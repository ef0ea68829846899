package physics

import (
	"fmt"

	"github.com/zeusync/vehicore/internal/core/math3d"
)

// hitboxClamp is the grid definition boxes snap to after every update. Block
// geometry is aligned to this grid, and snapping keeps jitter in the last bits
// of the center from flipping collision results between ticks.
const hitboxClamp = 0.015625

// BoundingBox is an axis-aligned box described by a center and three radii.
//
// The local center is the box position relative to its owner and never
// changes. GlobalCenter is the same point in world space; it is only valid
// after UpdateToEntity has run for the current tick. Radii are used instead of
// full extents because the bounds checks then need additions only. Width is
// along X, height along Y and depth along Z.
type BoundingBox struct {
	localCenter math3d.Vector3

	GlobalCenter math3d.Vector3
	WidthRadius  float64
	HeightRadius float64
	DepthRadius  float64

	CollidesWithLiquids bool
	Definition          *CollisionBoxDefinition

	// CollidingBlockPositions and CurrentCollisionDepth are rewritten by every
	// UpdateCollidingBlocks/UpdateMovingCollisions call.
	CollidingBlockPositions []math3d.Vector3
	CurrentCollisionDepth   math3d.Vector3

	tempGlobalCenter math3d.Vector3
	stale            bool
}

// NewBoundingBox creates a box whose local and global centers are the same.
// Used for blocks, bounds checks and other things with no owner transform.
func NewBoundingBox(center math3d.Vector3, widthRadius, heightRadius, depthRadius float64) *BoundingBox {
	return newBoundingBox(center, center, widthRadius, heightRadius, depthRadius, false, nil)
}

// NewLocalBoundingBox creates a box with distinct local and global centers.
func NewLocalBoundingBox(localCenter, globalCenter math3d.Vector3, widthRadius, heightRadius, depthRadius float64, collidesWithLiquids bool) *BoundingBox {
	return newBoundingBox(localCenter, globalCenter, widthRadius, heightRadius, depthRadius, collidesWithLiquids, nil)
}

// NewBoundingBoxFromDefinition creates a box from a collision definition. The
// definition has no depth, so the depth radius reuses the width.
func NewBoundingBoxFromDefinition(def *CollisionBoxDefinition) *BoundingBox {
	return newBoundingBox(def.Pos, def.Pos, def.Width/2, def.Height/2, def.Width/2, def.CollidesWithLiquids, def)
}

func newBoundingBox(local, global math3d.Vector3, w, h, d float64, liquids bool, def *CollisionBoxDefinition) *BoundingBox {
	return &BoundingBox{
		localCenter:         local,
		GlobalCenter:        global,
		WidthRadius:         w,
		HeightRadius:        h,
		DepthRadius:         d,
		CollidesWithLiquids: liquids,
		Definition:          def,
		tempGlobalCenter:    global,
	}
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("LocalCenter:%s GlobalCenter:%s Width:%g Height:%g Depth:%g",
		b.localCenter.String(), b.GlobalCenter.String(), b.WidthRadius, b.HeightRadius, b.DepthRadius)
}

// LocalCenter returns the box anchor relative to its owner.
func (b *BoundingBox) LocalCenter() math3d.Vector3 {
	return b.localCenter
}

// MarkStale flags the global center as outdated until the next UpdateToEntity.
func (b *BoundingBox) MarkStale() {
	b.stale = true
}

// IsStale reports whether MarkStale was called after the last update.
func (b *BoundingBox) IsStale() bool {
	return b.stale
}

// UpdateToEntity moves the box to its owner: the local center (or offset when
// non-nil) is rotated by the owner's orientation and added to its position.
// Definition boxes are then truncated to the 1/64 grid.
func (b *BoundingBox) UpdateToEntity(owner Owner, offset *math3d.Vector3) {
	if offset != nil {
		b.GlobalCenter = *offset
	} else {
		b.GlobalCenter = b.localCenter
	}
	b.GlobalCenter.Rotate(owner.Orientation())
	pos := owner.Position()
	b.GlobalCenter.AddVector(&pos)
	if b.Definition != nil {
		b.GlobalCenter.X = snapToHitboxGrid(b.GlobalCenter.X)
		b.GlobalCenter.Y = snapToHitboxGrid(b.GlobalCenter.Y)
		b.GlobalCenter.Z = snapToHitboxGrid(b.GlobalCenter.Z)
	}
	b.stale = false
}

func snapToHitboxGrid(f float64) float64 {
	return float64(int64(f/hitboxClamp)) * hitboxClamp
}

// UpdateCollidingBlocks refreshes the colliding obstacle list and collision
// depth as if the box were displaced by offset. The displacement only applies
// during the query. Returns true when anything collided.
func (b *BoundingBox) UpdateCollidingBlocks(world World, offset math3d.Vector3) bool {
	return b.updateCollisions(world, offset, false)
}

// UpdateMovingCollisions is UpdateCollidingBlocks with a swept depth: depth
// already present before the move is ignored.
func (b *BoundingBox) UpdateMovingCollisions(world World, offset math3d.Vector3) bool {
	return b.updateCollisions(world, offset, true)
}

func (b *BoundingBox) updateCollisions(world World, offset math3d.Vector3, swept bool) bool {
	b.assertFresh()
	b.tempGlobalCenter = b.GlobalCenter
	b.GlobalCenter.AddVector(&offset)
	result := world.QueryCollisions(b, offset, swept)
	b.GlobalCenter = b.tempGlobalCenter

	b.CollidingBlockPositions = append(b.CollidingBlockPositions[:0], result.Obstacles...)
	b.CurrentCollisionDepth = result.Depth
	return len(b.CollidingBlockPositions) > 0
}

// Min returns the lowest corner.
func (b *BoundingBox) Min() math3d.Vector3 {
	return math3d.Vector3{
		X: b.GlobalCenter.X - b.WidthRadius,
		Y: b.GlobalCenter.Y - b.HeightRadius,
		Z: b.GlobalCenter.Z - b.DepthRadius,
	}
}

// Max returns the highest corner.
func (b *BoundingBox) Max() math3d.Vector3 {
	return math3d.Vector3{
		X: b.GlobalCenter.X + b.WidthRadius,
		Y: b.GlobalCenter.Y + b.HeightRadius,
		Z: b.GlobalCenter.Z + b.DepthRadius,
	}
}

// OffsetBounds returns the corners of the box displaced by (x, y, z) without
// moving it.
func (b *BoundingBox) OffsetBounds(x, y, z float64) (lo, hi math3d.Vector3) {
	lo, hi = b.Min(), b.Max()
	lo.Add(x, y, z)
	hi.Add(x, y, z)
	return lo, hi
}

// EdgePoints returns the 8 corners relative to the center. The four -X
// corners come first; within each half Y goes -,-,+,+ and Z alternates.
func (b *BoundingBox) EdgePoints() [8]math3d.Vector3 {
	var points [8]math3d.Vector3
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				points[i*4+j*2+k] = math3d.Vector3{
					X: signed(i, b.WidthRadius),
					Y: signed(j, b.HeightRadius),
					Z: signed(k, b.DepthRadius),
				}
			}
		}
	}
	return points
}

func signed(i int, radius float64) float64 {
	if i == 0 {
		return -radius
	}
	return radius
}

// IsPointInside reports whether p lies in the box. Points on the boundary count
// as inside so that a hit found by IntersectionPoint maps back to its box.
func (b *BoundingBox) IsPointInside(p *math3d.Vector3) bool {
	b.assertFresh()
	return b.GlobalCenter.X-b.WidthRadius <= p.X &&
		b.GlobalCenter.X+b.WidthRadius >= p.X &&
		b.GlobalCenter.Y-b.HeightRadius <= p.Y &&
		b.GlobalCenter.Y+b.HeightRadius >= p.Y &&
		b.GlobalCenter.Z-b.DepthRadius <= p.Z &&
		b.GlobalCenter.Z+b.DepthRadius >= p.Z
}

// Intersects reports whether the two boxes overlap. Touching faces do not count.
func (b *BoundingBox) Intersects(o *BoundingBox) bool {
	b.assertFresh()
	o.assertFresh()
	return b.GlobalCenter.X-b.WidthRadius < o.GlobalCenter.X+o.WidthRadius &&
		b.GlobalCenter.X+b.WidthRadius > o.GlobalCenter.X-o.WidthRadius &&
		b.GlobalCenter.Y-b.HeightRadius < o.GlobalCenter.Y+o.HeightRadius &&
		b.GlobalCenter.Y+b.HeightRadius > o.GlobalCenter.Y-o.HeightRadius &&
		b.GlobalCenter.Z-b.DepthRadius < o.GlobalCenter.Z+o.DepthRadius &&
		b.GlobalCenter.Z+b.DepthRadius > o.GlobalCenter.Z-o.DepthRadius
}

// IntersectsWithYZ reports whether p is within the box on the Y and Z axes.
func (b *BoundingBox) IntersectsWithYZ(p *math3d.Vector3) bool {
	return p.Y >= b.GlobalCenter.Y-b.HeightRadius && p.Y <= b.GlobalCenter.Y+b.HeightRadius &&
		p.Z >= b.GlobalCenter.Z-b.DepthRadius && p.Z <= b.GlobalCenter.Z+b.DepthRadius
}

// IntersectsWithXZ reports whether p is within the box on the X and Z axes.
func (b *BoundingBox) IntersectsWithXZ(p *math3d.Vector3) bool {
	return p.X >= b.GlobalCenter.X-b.WidthRadius && p.X <= b.GlobalCenter.X+b.WidthRadius &&
		p.Z >= b.GlobalCenter.Z-b.DepthRadius && p.Z <= b.GlobalCenter.Z+b.DepthRadius
}

// IntersectsWithXY reports whether p is within the box on the X and Y axes.
func (b *BoundingBox) IntersectsWithXY(p *math3d.Vector3) bool {
	return p.X >= b.GlobalCenter.X-b.WidthRadius && p.X <= b.GlobalCenter.X+b.WidthRadius &&
		p.Y >= b.GlobalCenter.Y-b.HeightRadius && p.Y <= b.GlobalCenter.Y+b.HeightRadius
}

// XPlaneCollision returns where start→end crosses the plane X = x, provided the
// crossing lies on the box face.
func (b *BoundingBox) XPlaneCollision(start, end *math3d.Vector3, x float64) (math3d.Vector3, bool) {
	p, ok := start.IntermediateWithXValue(end, x)
	if !ok || !b.IntersectsWithYZ(&p) {
		return math3d.Vector3{}, false
	}
	return p, true
}

// YPlaneCollision is XPlaneCollision for the plane Y = y.
func (b *BoundingBox) YPlaneCollision(start, end *math3d.Vector3, y float64) (math3d.Vector3, bool) {
	p, ok := start.IntermediateWithYValue(end, y)
	if !ok || !b.IntersectsWithXZ(&p) {
		return math3d.Vector3{}, false
	}
	return p, true
}

// ZPlaneCollision is XPlaneCollision for the plane Z = z.
func (b *BoundingBox) ZPlaneCollision(start, end *math3d.Vector3, z float64) (math3d.Vector3, bool) {
	p, ok := start.IntermediateWithZValue(end, z)
	if !ok || !b.IntersectsWithXY(&p) {
		return math3d.Vector3{}, false
	}
	return p, true
}

// IntersectionPoint returns the first point where the segment start→end enters
// the box. Faces are tested in the order -X, +X, -Y, +Y, -Z, +Z and a later
// face only wins when it is strictly closer to start, so equal-distance hits
// resolve the same way every time.
func (b *BoundingBox) IntersectionPoint(start, end *math3d.Vector3) (math3d.Vector3, bool) {
	b.assertFresh()
	var (
		best     math3d.Vector3
		bestDist float64
		found    bool
	)
	consider := func(p math3d.Vector3, ok bool) {
		if !ok {
			return
		}
		d := start.DistanceTo(&p)
		if !found || d < bestDist {
			best, bestDist, found = p, d, true
		}
	}
	consider(b.XPlaneCollision(start, end, b.GlobalCenter.X-b.WidthRadius))
	consider(b.XPlaneCollision(start, end, b.GlobalCenter.X+b.WidthRadius))
	consider(b.YPlaneCollision(start, end, b.GlobalCenter.Y-b.HeightRadius))
	consider(b.YPlaneCollision(start, end, b.GlobalCenter.Y+b.HeightRadius))
	consider(b.ZPlaneCollision(start, end, b.GlobalCenter.Z-b.DepthRadius))
	consider(b.ZPlaneCollision(start, end, b.GlobalCenter.Z+b.DepthRadius))
	return best, found
}
