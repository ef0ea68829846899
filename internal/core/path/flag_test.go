package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
)

func TestSurveyFlag_LinkIsSymmetric(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{}, 0)
	b := NewSurveyFlag(physics.BlockPos{X: 4, Z: 8}, 90)

	a.LinkTo(b)
	assert.Same(t, b, a.Linked())
	assert.Same(t, a, b.Linked())
	assert.True(t, a.Primary)
	assert.False(t, b.Primary)
	require.NotNil(t, a.Curve)
	require.NotNil(t, b.Curve)
	assert.Equal(t, b.Curve.EndPos, a.Curve.StartPos)
	assert.Equal(t, a.Curve.EndPos, b.Curve.StartPos)

	b.ClearLink()
	assert.Nil(t, a.Linked())
	assert.Nil(t, b.Linked())
	assert.Nil(t, a.Curve)
	assert.Nil(t, b.Curve)
	assert.False(t, a.Primary)
}

func TestSurveyFlag_RelinkClearsOldPartner(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{}, 0)
	b := NewSurveyFlag(physics.BlockPos{Z: 10}, 0)
	c := NewSurveyFlag(physics.BlockPos{X: 10}, 90)

	a.LinkTo(b)
	c.LinkTo(a)

	assert.Nil(t, b.Linked())
	assert.Nil(t, b.Curve)
	assert.Same(t, a, c.Linked())
	assert.True(t, c.Primary)
	assert.False(t, a.Primary)
}

func TestSurveyFlag_PlanTrackUnlinked(t *testing.T) {
	f := NewSurveyFlag(physics.BlockPos{}, 0)
	_, err := f.PlanTrack(physics.NewGridWorld())
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestSurveyFlag_PlanTrackStraight(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{}, 0)
	b := NewSurveyFlag(physics.BlockPos{Z: 10}, 0)
	a.LinkTo(b)

	cells, err := a.PlanTrack(physics.NewGridWorld())
	require.NoError(t, err)
	require.NotEmpty(t, cells)

	columns := make(map[int]int)
	seen := make(map[physics.BlockPos]bool)
	for _, c := range cells {
		assert.False(t, seen[c.Pos], "duplicate cell %v", c.Pos)
		seen[c.Pos] = true
		assert.Equal(t, 0, c.Pos.Y)
		assert.Equal(t, 0, c.Height)
		assert.GreaterOrEqual(t, c.Pos.Z, -1)
		assert.LessOrEqual(t, c.Pos.Z, 10)
		columns[c.Pos.X]++
	}
	assert.Len(t, columns, 3, "three-wide track")
	assert.Equal(t, columns[-1], columns[1])
	assert.True(t, seen[physics.BlockPos{Z: 5}])
}

func TestSurveyFlag_PlanTrackBelowOrigin(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{X: -2, Y: -1, Z: -2}, 0)
	b := NewSurveyFlag(physics.BlockPos{X: -2, Y: -3, Z: 8}, 0)
	a.LinkTo(b)

	cells, err := a.PlanTrack(physics.NewGridWorld())
	require.NoError(t, err)
	require.NotEmpty(t, cells)
	for _, c := range cells {
		top := float64(c.Pos.Y) + float64(c.Height)/16
		assert.LessOrEqual(t, top, -1.0, "cell %v height %d", c.Pos, c.Height)
		assert.GreaterOrEqual(t, top, -3.0-1.0/16, "cell %v height %d", c.Pos, c.Height)
		assert.GreaterOrEqual(t, c.Pos.X, -3)
		assert.LessOrEqual(t, c.Pos.X, -1)
	}
}

func TestSurveyFlag_PlanTrackBlocked(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{}, 0)
	b := NewSurveyFlag(physics.BlockPos{Z: 10}, 0)
	a.LinkTo(b)

	world := physics.NewGridWorld()
	world.SetSolid(physics.BlockPos{Z: 5})

	_, err := a.PlanTrack(world)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, physics.BlockPos{Z: 5}, blocked.Pos)
}

func TestSurveyFlag_PlanTrackIgnoresFlagCells(t *testing.T) {
	a := NewSurveyFlag(physics.BlockPos{}, 0)
	b := NewSurveyFlag(physics.BlockPos{Z: 6}, 0)
	a.LinkTo(b)

	world := physics.NewGridWorld()
	world.SetSolid(a.Pos)
	world.SetSolid(b.Pos)

	cells, err := a.PlanTrack(world)
	require.NoError(t, err)
	for _, c := range cells {
		assert.NotEqual(t, a.Pos, c.Pos)
		assert.NotEqual(t, b.Pos, c.Pos)
	}
}
