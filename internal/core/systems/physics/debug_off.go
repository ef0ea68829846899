//go:build !physicsdebug

package physics

func (b *BoundingBox) assertFresh() {}
