package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/math3d"
)

const epsilon = 1e-6

type testOwner struct {
	pos math3d.Vector3
	rot *math3d.RotationMatrix
}

func newTestOwner(x, y, z, yaw float64) *testOwner {
	return &testOwner{
		pos: math3d.Vector3{X: x, Y: y, Z: z},
		rot: math3d.NewRotationMatrixFromAngles(0, yaw, 0),
	}
}

func (o *testOwner) Position() math3d.Vector3            { return o.pos }
func (o *testOwner) Orientation() *math3d.RotationMatrix { return o.rot }

func assertVector(t *testing.T, expected math3d.Vector3, actual math3d.Vector3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, epsilon, "X")
	assert.InDelta(t, expected.Y, actual.Y, epsilon, "Y")
	assert.InDelta(t, expected.Z, actual.Z, epsilon, "Z")
}

func TestBoundingBox_UpdateToEntity(t *testing.T) {
	box := NewLocalBoundingBox(math3d.Vector3{Y: 1}, math3d.Vector3{}, 0.5, 0.5, 0.5, false)
	box.UpdateToEntity(newTestOwner(10, 0, 10, 0), nil)

	assertVector(t, math3d.Vector3{X: 10, Y: 1, Z: 10}, box.GlobalCenter)
	assert.True(t, box.IsPointInside(&math3d.Vector3{X: 10, Y: 1, Z: 10}))
	assert.False(t, box.IsPointInside(&math3d.Vector3{X: 10, Y: 2, Z: 10}))
	assertVector(t, math3d.Vector3{Y: 1}, box.LocalCenter())
}

func TestBoundingBox_UpdateToEntityRotatesAndUsesOffset(t *testing.T) {
	box := NewLocalBoundingBox(math3d.Vector3{Z: 2}, math3d.Vector3{}, 0.5, 0.5, 0.5, false)
	owner := newTestOwner(1, 0, 0, 90)

	box.UpdateToEntity(owner, nil)
	assertVector(t, math3d.Vector3{X: 3}, box.GlobalCenter)

	box.UpdateToEntity(owner, &math3d.Vector3{Z: -1})
	assertVector(t, math3d.Vector3{X: 0}, box.GlobalCenter)
	assertVector(t, math3d.Vector3{Z: 2}, box.LocalCenter())
}

func TestBoundingBox_DefinitionBoxSnapsToGrid(t *testing.T) {
	def := &CollisionBoxDefinition{Pos: math3d.Vector3{X: 0.01, Y: 0.5, Z: -0.01}, Width: 1, Height: 2}
	box := NewBoundingBoxFromDefinition(def)
	assert.Equal(t, 0.5, box.WidthRadius)
	assert.Equal(t, 1.0, box.HeightRadius)
	assert.Equal(t, 0.5, box.DepthRadius)

	box.UpdateToEntity(newTestOwner(1.02, 0, 0, 0), nil)

	// 1.03/ (1/64) = 65.92 truncates to 65; -0.01 truncates toward zero.
	assert.Equal(t, 1.015625, box.GlobalCenter.X)
	assert.Equal(t, 0.5, box.GlobalCenter.Y)
	assert.Equal(t, 0.0, box.GlobalCenter.Z)
}

func TestBoundingBox_CornersAndCenterInside(t *testing.T) {
	box := NewBoundingBox(math3d.Vector3{X: 3, Y: -2, Z: 7}, 1, 2, 0.5)
	center := box.GlobalCenter
	assert.True(t, box.IsPointInside(&center))

	for _, corner := range box.EdgePoints() {
		p := corner
		p.AddVector(&center)
		assert.True(t, box.IsPointInside(&p), p.String())
	}

	outside := []math3d.Vector3{
		{X: 3 + 1 + 1e-4, Y: -2, Z: 7},
		{X: 3 - 1 - 1e-4, Y: -2, Z: 7},
		{X: 3, Y: -2 + 2 + 1e-4, Z: 7},
		{X: 3, Y: -2 - 2 - 1e-4, Z: 7},
		{X: 3, Y: -2, Z: 7 + 0.5 + 1e-4},
		{X: 3, Y: -2, Z: 7 - 0.5 - 1e-4},
	}
	for _, p := range outside {
		assert.False(t, box.IsPointInside(&p), p.String())
	}
}

func TestBoundingBox_EdgePointOrder(t *testing.T) {
	box := NewBoundingBox(math3d.Vector3{}, 1, 2, 3)
	points := box.EdgePoints()

	assertVector(t, math3d.Vector3{X: -1, Y: -2, Z: -3}, points[0])
	assertVector(t, math3d.Vector3{X: -1, Y: -2, Z: 3}, points[1])
	assertVector(t, math3d.Vector3{X: -1, Y: 2, Z: -3}, points[2])
	assertVector(t, math3d.Vector3{X: 1, Y: 2, Z: 3}, points[7])
}

func TestBoundingBox_IntersectsSymmetric(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *BoundingBox
		expected bool
	}{
		{
			name:     "identical",
			a:        NewBoundingBox(math3d.Vector3{}, 1, 1, 1),
			b:        NewBoundingBox(math3d.Vector3{}, 1, 1, 1),
			expected: true,
		},
		{
			name:     "partial overlap",
			a:        NewBoundingBox(math3d.Vector3{}, 1, 1, 1),
			b:        NewBoundingBox(math3d.Vector3{X: 1.5, Y: 0.5}, 1, 1, 1),
			expected: true,
		},
		{
			name:     "contained",
			a:        NewBoundingBox(math3d.Vector3{}, 5, 5, 5),
			b:        NewBoundingBox(math3d.Vector3{X: 1, Y: 1, Z: 1}, 0.1, 0.1, 0.1),
			expected: true,
		},
		{
			name:     "touching faces",
			a:        NewBoundingBox(math3d.Vector3{}, 1, 1, 1),
			b:        NewBoundingBox(math3d.Vector3{X: 2}, 1, 1, 1),
			expected: false,
		},
		{
			name:     "separated on z",
			a:        NewBoundingBox(math3d.Vector3{}, 1, 1, 1),
			b:        NewBoundingBox(math3d.Vector3{Z: -3}, 1, 1, 1),
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.a.Intersects(tt.b), tt.b.Intersects(tt.a))
		})
	}
}

func TestBoundingBox_PlaneCollisions(t *testing.T) {
	box := NewBoundingBox(math3d.Vector3{}, 1, 1, 1)
	start := &math3d.Vector3{X: -5, Y: 0.5, Z: 0}
	end := &math3d.Vector3{X: 5, Y: 0.5, Z: 0}

	p, ok := box.XPlaneCollision(start, end, -1)
	require.True(t, ok)
	assertVector(t, math3d.Vector3{X: -1, Y: 0.5}, p)

	_, ok = box.YPlaneCollision(start, end, 1)
	assert.False(t, ok, "segment is parallel to the Y planes")

	miss := &math3d.Vector3{X: -5, Y: 3, Z: 0}
	_, ok = box.XPlaneCollision(miss, &math3d.Vector3{X: 5, Y: 3}, -1)
	assert.False(t, ok, "crossing lies outside the face")
}

func TestBoundingBox_IntersectionPoint(t *testing.T) {
	box := NewBoundingBox(math3d.Vector3{}, 1, 1, 1)
	tests := []struct {
		name       string
		start, end math3d.Vector3
		hit        bool
		expected   math3d.Vector3
	}{
		{name: "from -x", start: math3d.Vector3{X: -5}, end: math3d.Vector3{X: 5}, hit: true, expected: math3d.Vector3{X: -1}},
		{name: "from +x", start: math3d.Vector3{X: 5}, end: math3d.Vector3{X: -5}, hit: true, expected: math3d.Vector3{X: 1}},
		{name: "from above", start: math3d.Vector3{Y: 4, Z: 0.2}, end: math3d.Vector3{Y: -4, Z: 0.2}, hit: true, expected: math3d.Vector3{Y: 1, Z: 0.2}},
		{name: "from -z", start: math3d.Vector3{Z: -3}, end: math3d.Vector3{Z: 0}, hit: true, expected: math3d.Vector3{Z: -1}},
		{name: "through edge", start: math3d.Vector3{X: -2, Y: -2}, end: math3d.Vector3{X: 2, Y: 2}, hit: true, expected: math3d.Vector3{X: -1, Y: -1}},
		{name: "short of box", start: math3d.Vector3{X: -5}, end: math3d.Vector3{X: -2}, hit: false},
		{name: "passes beside", start: math3d.Vector3{X: -5, Y: 3}, end: math3d.Vector3{X: 5, Y: 3}, hit: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := box.IntersectionPoint(&tt.start, &tt.end)
			require.Equal(t, tt.hit, ok)
			if tt.hit {
				assertVector(t, tt.expected, p)
				assert.True(t, box.IsPointInside(&p))
			}
		})
	}
}

func TestBoundingBox_UpdateCollidingBlocksRestoresCenter(t *testing.T) {
	world := NewGridWorld()
	world.SetSolid(BlockPos{X: 2, Y: 0, Z: 0})
	box := NewBoundingBox(math3d.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, 0.5, 0.5, 0.5)

	assert.False(t, box.UpdateCollidingBlocks(world, math3d.Vector3{}))
	assert.True(t, box.UpdateCollidingBlocks(world, math3d.Vector3{X: 1.5}))
	require.Len(t, box.CollidingBlockPositions, 1)
	assertVector(t, math3d.Vector3{X: 2}, box.CollidingBlockPositions[0])
	assert.InDelta(t, 0.5, box.CurrentCollisionDepth.X, epsilon)
	assertVector(t, math3d.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, box.GlobalCenter)

	assert.False(t, box.UpdateCollidingBlocks(world, math3d.Vector3{}))
	assert.Empty(t, box.CollidingBlockPositions)
	assert.True(t, box.CurrentCollisionDepth.IsZero())
}

func TestBoundingBox_StaleFlag(t *testing.T) {
	box := NewLocalBoundingBox(math3d.Vector3{}, math3d.Vector3{}, 1, 1, 1, false)
	assert.False(t, box.IsStale())

	box.MarkStale()
	assert.True(t, box.IsStale())

	box.UpdateToEntity(newTestOwner(0, 0, 0, 0), nil)
	assert.False(t, box.IsStale())
}

func TestBoundingBox_OffsetBounds(t *testing.T) {
	box := NewBoundingBox(math3d.Vector3{X: 1, Y: 1, Z: 1}, 1, 2, 3)
	lo, hi := box.OffsetBounds(1, 0, -1)

	assertVector(t, math3d.Vector3{X: 1, Y: -1, Z: -3}, lo)
	assertVector(t, math3d.Vector3{X: 3, Y: 3, Z: 3}, hi)
}
