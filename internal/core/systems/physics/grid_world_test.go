package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/math3d"
)

func floorWorld() *GridWorld {
	w := NewGridWorld()
	for x := -3; x <= 3; x++ {
		for z := -3; z <= 3; z++ {
			w.SetSolid(BlockPos{X: x, Y: 0, Z: z})
		}
	}
	return w
}

func TestGridWorld_RestingOnFloorDoesNotCollide(t *testing.T) {
	w := floorWorld()
	box := NewBoundingBox(math3d.Vector3{Y: 1.5}, 0.5, 0.5, 0.5)

	assert.False(t, box.UpdateCollidingBlocks(w, math3d.Vector3{}))
}

func TestGridWorld_FallingIntoFloor(t *testing.T) {
	w := floorWorld()
	box := NewBoundingBox(math3d.Vector3{Y: 1.5}, 0.5, 0.5, 0.5)

	require.True(t, box.UpdateMovingCollisions(w, math3d.Vector3{Y: -0.25}))
	assert.Len(t, box.CollidingBlockPositions, 4)
	assert.InDelta(t, 0.25, box.CurrentCollisionDepth.Y, epsilon)
	assert.Zero(t, box.CurrentCollisionDepth.X)
	assert.Zero(t, box.CurrentCollisionDepth.Z)
}

func TestGridWorld_SweptIgnoresExistingPenetration(t *testing.T) {
	w := floorWorld()
	// Already sunk 0.3 into the floor; moving sideways.
	box := NewBoundingBox(math3d.Vector3{Y: 1.2}, 0.4, 0.5, 0.4)
	motion := math3d.Vector3{X: 0.1}

	require.True(t, box.UpdateCollidingBlocks(w, motion))
	assert.InDelta(t, 1.5, box.CurrentCollisionDepth.X, epsilon)

	require.True(t, box.UpdateMovingCollisions(w, motion))
	assert.Zero(t, box.CurrentCollisionDepth.X)
}

func TestGridWorld_Liquids(t *testing.T) {
	w := NewGridWorld()
	w.SetLiquid(BlockPos{X: 5, Y: 0, Z: 5})
	center := math3d.Vector3{X: 5.5, Y: 0.5, Z: 5.5}

	dry := NewLocalBoundingBox(center, center, 0.25, 0.25, 0.25, false)
	assert.False(t, dry.UpdateCollidingBlocks(w, math3d.Vector3{}))

	wet := NewLocalBoundingBox(center, center, 0.25, 0.25, 0.25, true)
	require.True(t, wet.UpdateCollidingBlocks(w, math3d.Vector3{}))
	assertVector(t, math3d.Vector3{X: 5, Z: 5}, wet.CollidingBlockPositions[0])
}

func TestGridWorld_PartialBlock(t *testing.T) {
	w := NewGridWorld()
	w.SetBlock(BlockPos{}, Block{Height: 0.5})
	box := NewBoundingBox(math3d.Vector3{X: 0.5, Y: 1, Z: 0.5}, 0.25, 0.25, 0.25)

	assert.False(t, box.UpdateCollidingBlocks(w, math3d.Vector3{}))
	assert.False(t, box.UpdateCollidingBlocks(w, math3d.Vector3{Y: -0.25}))
	require.True(t, box.UpdateCollidingBlocks(w, math3d.Vector3{Y: -0.3}))
	assert.InDelta(t, 0.05, box.CurrentCollisionDepth.Y, epsilon)
}

func TestGridWorld_Mutation(t *testing.T) {
	w := NewGridWorld()
	pos := BlockPos{X: 1, Y: 2, Z: 3}
	assert.True(t, w.IsFree(pos))

	w.SetSolid(pos)
	assert.False(t, w.IsFree(pos))
	b, ok := w.BlockAt(pos)
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Height)
	assert.Equal(t, 1, w.Len())

	w.Remove(pos)
	assert.True(t, w.IsFree(pos))
}
