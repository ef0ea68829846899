package path

import (
	"fmt"
	"math"

	"github.com/zeusync/vehicore/internal/core/math3d"
)

const (
	// lengthSteps is the number of polyline segments used to measure the curve.
	lengthSteps = 1000
	// samplesPerUnit is the resolution of the distance table.
	samplesPerUnit = 16
)

// BezierCurve is a cubic curve between two anchored, oriented endpoints.
//
// The curve is immutable once built; moving an endpoint means building a new
// curve. Sampling by distance walks the curve at constant speed, which is what
// path following and road meshing need. Distances outside [0, PathLength]
// clamp to the nearest endpoint.
type BezierCurve struct {
	StartPos   math3d.Vector3
	EndPos     math3d.Vector3
	StartAngle float64
	EndAngle   float64
	PathLength float64

	ctrl1 math3d.Vector3
	ctrl2 math3d.Vector3
	// params[i] is the curve parameter at distance i/samplesPerUnit, the last
	// entry sitting exactly on PathLength.
	params []float64
}

// NewBezierCurve builds the curve leaving start with heading startAngle and
// arriving at end with heading endAngle. Headings are yaw degrees: 0 points
// along +Z, 90 along +X.
func NewBezierCurve(start, end math3d.Vector3, startAngle, endAngle float64) *BezierCurve {
	c := &BezierCurve{
		StartPos:   start,
		EndPos:     end,
		StartAngle: startAngle,
		EndAngle:   endAngle,
	}

	// Tangent handles scale with the anchor distance so short, sharp links
	// don't overshoot.
	handle := start.DistanceTo(&end) / 3
	startDir, endDir := heading(startAngle), heading(endAngle)
	c.ctrl1 = start
	c.ctrl1.AddScaled(&startDir, handle)
	c.ctrl2 = end
	c.ctrl2.AddScaled(&endDir, -handle)

	c.buildDistanceTable()
	return c
}

func (c *BezierCurve) String() string {
	return fmt.Sprintf("BezierCurve{%s@%.1f -> %s@%.1f, len=%.3f}",
		c.StartPos.String(), c.StartAngle, c.EndPos.String(), c.EndAngle, c.PathLength)
}

func heading(yaw float64) math3d.Vector3 {
	rad := math3d.Radians(yaw)
	return math3d.Vector3{X: math.Sin(rad), Z: math.Cos(rad)}
}

// buildDistanceTable measures the curve as a polyline and inverts the
// cumulative length so distance lookups become table reads.
func (c *BezierCurve) buildDistanceTable() {
	cumulative := make([]float64, lengthSteps+1)
	prior := c.StartPos
	for i := 1; i <= lengthSteps; i++ {
		p := c.PointAt(float64(i) / lengthSteps)
		cumulative[i] = cumulative[i-1] + p.DistanceTo(&prior)
		prior = p
	}
	c.PathLength = cumulative[lengthSteps]

	n := int(math.Ceil(c.PathLength * samplesPerUnit))
	c.params = make([]float64, n+1)
	step := 0
	for i := 1; i <= n; i++ {
		target := math.Min(float64(i)/samplesPerUnit, c.PathLength)
		for step < lengthSteps && cumulative[step+1] < target {
			step++
		}
		if step == lengthSteps {
			c.params[i] = 1
			continue
		}
		span := cumulative[step+1] - cumulative[step]
		frac := 0.0
		if span > 0 {
			frac = (target - cumulative[step]) / span
		}
		c.params[i] = (float64(step) + frac) / lengthSteps
	}
	if n > 0 {
		c.params[n] = 1
	}
}

// PointAt returns the point at raw curve parameter t, clamped to [0, 1].
func (c *BezierCurve) PointAt(t float64) math3d.Vector3 {
	t = clamp(t, 0, 1)
	u := 1 - t
	b0, b1, b2, b3 := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return math3d.Vector3{
		X: b0*c.StartPos.X + b1*c.ctrl1.X + b2*c.ctrl2.X + b3*c.EndPos.X,
		Y: b0*c.StartPos.Y + b1*c.ctrl1.Y + b2*c.ctrl2.Y + b3*c.EndPos.Y,
		Z: b0*c.StartPos.Z + b1*c.ctrl1.Z + b2*c.ctrl2.Z + b3*c.EndPos.Z,
	}
}

// tangentAt returns the (unnormalized) derivative at parameter t.
func (c *BezierCurve) tangentAt(t float64) math3d.Vector3 {
	t = clamp(t, 0, 1)
	u := 1 - t
	a, b, d := 3*u*u, 6*u*t, 3*t*t
	return math3d.Vector3{
		X: a*(c.ctrl1.X-c.StartPos.X) + b*(c.ctrl2.X-c.ctrl1.X) + d*(c.EndPos.X-c.ctrl2.X),
		Y: a*(c.ctrl1.Y-c.StartPos.Y) + b*(c.ctrl2.Y-c.ctrl1.Y) + d*(c.EndPos.Y-c.ctrl2.Y),
		Z: a*(c.ctrl1.Z-c.StartPos.Z) + b*(c.ctrl2.Z-c.ctrl1.Z) + d*(c.EndPos.Z-c.ctrl2.Z),
	}
}

// YawAngleAt returns the heading of the curve at raw parameter t. A degenerate
// curve (both anchors on the same point) reports the start heading.
func (c *BezierCurve) YawAngleAt(t float64) float64 {
	tan := c.tangentAt(t)
	if tan.X == 0 && tan.Z == 0 {
		return c.StartAngle
	}
	return math3d.Degrees(math.Atan2(tan.X, tan.Z))
}

// paramAt maps a distance along the curve to the raw parameter.
func (c *BezierCurve) paramAt(distance float64) float64 {
	if c.PathLength <= 0 {
		return 0
	}
	distance = clamp(distance, 0, c.PathLength)
	last := len(c.params) - 1
	f := distance * samplesPerUnit
	i := int(f)
	if i >= last {
		return c.params[last]
	}
	lo := float64(i) / samplesPerUnit
	hi := math.Min(float64(i+1)/samplesPerUnit, c.PathLength)
	frac := 0.0
	if hi > lo {
		frac = (distance - lo) / (hi - lo)
	}
	return c.params[i] + (c.params[i+1]-c.params[i])*frac
}

// SetPointToPositionAt sets out to the point at distance along the curve.
func (c *BezierCurve) SetPointToPositionAt(out *math3d.Vector3, distance float64) *math3d.Vector3 {
	p := c.PointAt(c.paramAt(distance))
	return out.SetVector(&p)
}

// SetPointToRotationAt sets out to the (pitch, yaw, 0) orientation of the curve
// at distance along it.
func (c *BezierCurve) SetPointToRotationAt(out *math3d.Vector3, distance float64) *math3d.Vector3 {
	t := c.paramAt(distance)
	tan := c.tangentAt(t)
	if tan.IsZero() {
		return out.Set(0, c.StartAngle, 0)
	}
	out.SetVector(&tan)
	return out.Angles(true)
}

// OffsetPointByPositionAt treats point as an offset in the curve's local frame
// at distance (X lateral, Y up, Z forward) and moves it into world space.
func (c *BezierCurve) OffsetPointByPositionAt(point *math3d.Vector3, distance float64) *math3d.Vector3 {
	var angles, pos math3d.Vector3
	c.SetPointToRotationAt(&angles, distance)
	c.SetPointToPositionAt(&pos, distance)

	var rot math3d.RotationMatrix
	rot.SetToAngles(&angles)
	return point.Rotate(&rot).AddVector(&pos)
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
