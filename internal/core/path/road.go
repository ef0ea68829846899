package path

import (
	"math"

	"github.com/zeusync/vehicore/internal/core/math3d"
)

// finalSegmentSlack is how far past the last regular sample (in spacings) the
// end of the curve may lie before an extra sample is taken.
const finalSegmentSlack = 1.25

// SegmentDistances splits the curve into samples roughly segmentLength apart.
//
// The spacing is stretched so a whole number of segments fits the curve. The
// first sample is 0 and the last one is always exactly PathLength, even when
// floating-point drift would otherwise stop the walk just short of it.
func (c *BezierCurve) SegmentDistances(segmentLength float64) []float64 {
	if c.PathLength <= 0 {
		return []float64{0}
	}
	count := 1.0
	if segmentLength > 0 {
		count = math.Max(1, math.Floor(c.PathLength/segmentLength))
	}
	delta := c.PathLength / count

	distances := make([]float64, 0, int(count)+1)
	distances = append(distances, 0)
	current := 0.0
	for {
		if current+delta*finalSegmentSlack > c.PathLength {
			distances = append(distances, c.PathLength)
			return distances
		}
		current += delta
		distances = append(distances, current)
	}
}

// RoadSegment holds the border points of the road at one sample distance.
type RoadSegment struct {
	Distance float64
	Points   []math3d.Vector3
}

// BorderSegments places each lateral offset (road edges, lane lines) along the
// curve at every sample distance.
//
// Very sharp curves can fold the inner edge over itself. A sample whose
// outermost border point runs backwards relative to the center line is
// skipped; the final sample is always kept so the road reaches its end.
func (c *BezierCurve) BorderSegments(segmentLength float64, offsets []float64) []RoadSegment {
	distances := c.SegmentDistances(segmentLength)
	outer := outermost(offsets)

	segments := make([]RoadSegment, 0, len(distances))
	var priorCenter, priorEdge math3d.Vector3
	for i, d := range distances {
		var center math3d.Vector3
		c.SetPointToPositionAt(&center, d)
		edge := math3d.Vector3{X: outer}
		c.OffsetPointByPositionAt(&edge, d)

		if i > 0 && i < len(distances)-1 && folded(&priorCenter, &center, &priorEdge, &edge) {
			continue
		}

		seg := RoadSegment{Distance: d, Points: make([]math3d.Vector3, len(offsets))}
		for j, off := range offsets {
			seg.Points[j] = math3d.Vector3{X: off}
			c.OffsetPointByPositionAt(&seg.Points[j], d)
		}
		segments = append(segments, seg)
		priorCenter, priorEdge = center, edge
	}
	return segments
}

func outermost(offsets []float64) float64 {
	var out float64
	for _, off := range offsets {
		if math.Abs(off) > math.Abs(out) {
			out = off
		}
	}
	return out
}

func folded(priorCenter, center, priorEdge, edge *math3d.Vector3) bool {
	return (center.X-priorCenter.X)*(edge.X-priorEdge.X) < 0 ||
		(center.Z-priorCenter.Z)*(edge.Z-priorEdge.Z) < 0
}
