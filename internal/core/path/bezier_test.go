package path

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/math3d"
)

const epsilon = 1e-6

func assertVector(t *testing.T, expected, actual math3d.Vector3, delta float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, delta, "X")
	assert.InDelta(t, expected.Y, actual.Y, delta, "Y")
	assert.InDelta(t, expected.Z, actual.Z, delta, "Z")
}

func TestBezierCurve_StraightLine(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{}, math3d.Vector3{Z: 12}, 0, 0)
	assert.InDelta(t, 12, c.PathLength, 1e-9)

	var p math3d.Vector3
	c.SetPointToPositionAt(&p, 3)
	assertVector(t, math3d.Vector3{Z: 3}, p, 1e-3)

	c.SetPointToPositionAt(&p, 7.5)
	assertVector(t, math3d.Vector3{Z: 7.5}, p, 1e-3)

	var rot math3d.Vector3
	c.SetPointToRotationAt(&rot, 6)
	assertVector(t, math3d.Vector3{}, rot, 1e-9)
}

func TestBezierCurve_EndpointsByDistance(t *testing.T) {
	curves := []*BezierCurve{
		NewBezierCurve(math3d.Vector3{}, math3d.Vector3{X: 10, Z: 10}, 0, 90),
		NewBezierCurve(math3d.Vector3{X: 3, Y: 1, Z: -4}, math3d.Vector3{X: -20, Y: 4, Z: 7}, 45, 180),
		NewBezierCurve(math3d.Vector3{X: 0.5}, math3d.Vector3{X: 0.5, Z: 0.75}, 0, 0),
	}
	for _, c := range curves {
		t.Run(c.String(), func(t *testing.T) {
			var p math3d.Vector3
			c.SetPointToPositionAt(&p, 0)
			assertVector(t, c.StartPos, p, epsilon)

			c.SetPointToPositionAt(&p, c.PathLength)
			assertVector(t, c.EndPos, p, epsilon)
		})
	}
}

func TestBezierCurve_ClampsOutOfRange(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{}, math3d.Vector3{X: 10, Z: 10}, 0, 90)

	var p math3d.Vector3
	c.SetPointToPositionAt(&p, -5)
	assertVector(t, c.StartPos, p, epsilon)

	c.SetPointToPositionAt(&p, c.PathLength+100)
	assertVector(t, c.EndPos, p, epsilon)

	assertVector(t, c.StartPos, c.PointAt(-1), epsilon)
	assertVector(t, c.EndPos, c.PointAt(2), epsilon)
}

func TestBezierCurve_QuarterTurnHeadings(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{}, math3d.Vector3{X: 10, Z: 10}, 0, 90)

	assert.InDelta(t, 0, c.YawAngleAt(0), 1e-9)
	assert.InDelta(t, 90, c.YawAngleAt(1), 1e-9)
	assert.InDelta(t, 45, c.YawAngleAt(0.5), 1e-9)

	// Longer than the chord, shorter than the two legs.
	assert.Greater(t, c.PathLength, math.Sqrt(200))
	assert.Less(t, c.PathLength, 20.0)
}

func TestBezierCurve_ConstantSpeed(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{}, math3d.Vector3{X: 10, Z: 10}, 0, 90)

	var prior, p math3d.Vector3
	c.SetPointToPositionAt(&prior, 0)
	for d := 0.5; d <= c.PathLength; d += 0.5 {
		c.SetPointToPositionAt(&p, d)
		assert.InDelta(t, 0.5, p.DistanceTo(&prior), 0.01, "distance %.1f", d)
		prior = p
	}
}

func TestBezierCurve_OffsetPointByPositionAt(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{}, math3d.Vector3{X: 20}, 90, 90)

	// Heading +X, so the local +X offset points to world -Z.
	p := math3d.Vector3{X: 2, Y: 1}
	c.OffsetPointByPositionAt(&p, 5)
	assertVector(t, math3d.Vector3{X: 5, Y: 1, Z: -2}, p, 1e-3)
}

func TestBezierCurve_Degenerate(t *testing.T) {
	c := NewBezierCurve(math3d.Vector3{X: 1, Y: 2, Z: 3}, math3d.Vector3{X: 1, Y: 2, Z: 3}, 30, 60)
	require.Zero(t, c.PathLength)

	var p math3d.Vector3
	c.SetPointToPositionAt(&p, 4)
	assertVector(t, c.StartPos, p, epsilon)
	assert.Equal(t, 30.0, c.YawAngleAt(0.5))
}
