//go:build physicsdebug

package physics

// assertFresh catches queries against a box whose owner moved this tick but
// whose global center was not recomputed yet.
func (b *BoundingBox) assertFresh() {
	if b.stale {
		panic("physics: query on stale bounding box " + b.String())
	}
}
