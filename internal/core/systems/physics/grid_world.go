package physics

import (
	"math"

	"github.com/zeusync/vehicore/internal/core/math3d"
)

// BlockPos is an integer grid cell.
type BlockPos struct {
	X, Y, Z int
}

// BlockPosAt returns the cell containing the point (x, y, z). Cells span
// [n, n+1) on every axis, negative coordinates included.
func BlockPosAt(x, y, z float64) BlockPos {
	return BlockPos{X: floor(x), Y: floor(y), Z: floor(z)}
}

// Block is the content of a grid cell. Solid blocks fill the cell from its
// floor up to Height (1 for a full block); liquids only collide with boxes
// that ask for it.
type Block struct {
	Height float64
	Liquid bool
}

// GridWorld is a World made of unit cells, the layout block-based game worlds
// use. It is not safe for concurrent mutation; populate it before the
// simulation starts or from the tick goroutine.
type GridWorld struct {
	blocks map[BlockPos]Block
}

var _ World = (*GridWorld)(nil)

// NewGridWorld returns an empty world.
func NewGridWorld() *GridWorld {
	return &GridWorld{blocks: make(map[BlockPos]Block)}
}

// SetSolid places a full solid block.
func (w *GridWorld) SetSolid(pos BlockPos) {
	w.blocks[pos] = Block{Height: 1}
}

// SetBlock places an arbitrary block.
func (w *GridWorld) SetBlock(pos BlockPos, block Block) {
	w.blocks[pos] = block
}

// SetLiquid places a liquid block.
func (w *GridWorld) SetLiquid(pos BlockPos) {
	w.blocks[pos] = Block{Height: 1, Liquid: true}
}

// Remove clears a cell.
func (w *GridWorld) Remove(pos BlockPos) {
	delete(w.blocks, pos)
}

// BlockAt returns the block at pos, if any.
func (w *GridWorld) BlockAt(pos BlockPos) (Block, bool) {
	b, ok := w.blocks[pos]
	return b, ok
}

// IsFree reports whether nothing occupies pos.
func (w *GridWorld) IsFree(pos BlockPos) bool {
	_, ok := w.blocks[pos]
	return !ok
}

// Len returns the number of occupied cells.
func (w *GridWorld) Len() int {
	return len(w.blocks)
}

// QueryCollisions scans every cell the box touches. A solid block collides
// when its shape overlaps the box; a liquid block collides whenever the box
// collides with liquids and touches its cell.
func (w *GridWorld) QueryCollisions(box *BoundingBox, motion math3d.Vector3, swept bool) CollisionResult {
	lo, hi := box.Min(), box.Max()

	var (
		result  CollisionResult
		shapes  []blockShape
		minCell = BlockPosAt(lo.X, lo.Y, lo.Z)
		maxCell = BlockPos{X: ceil(hi.X), Y: ceil(hi.Y), Z: ceil(hi.Z)}
	)
	for i := minCell.X; i < maxCell.X; i++ {
		for j := minCell.Y; j < maxCell.Y; j++ {
			for k := minCell.Z; k < maxCell.Z; k++ {
				pos := BlockPos{X: i, Y: j, Z: k}
				block, ok := w.blocks[pos]
				if !ok {
					continue
				}
				shape := blockShape{
					lo: math3d.Vector3{X: float64(i), Y: float64(j), Z: float64(k)},
					hi: math3d.Vector3{X: float64(i + 1), Y: float64(j) + block.Height, Z: float64(k + 1)},
				}
				if block.Liquid {
					if !box.CollidesWithLiquids {
						continue
					}
					shape.hi.Y = float64(j + 1)
				} else if !shape.overlaps(&lo, &hi) {
					continue
				}
				shapes = append(shapes, shape)
				result.Obstacles = append(result.Obstacles, shape.lo)
			}
		}
	}

	for _, s := range shapes {
		result.Depth.X = axisDepth(result.Depth.X, motion.X, hi.X-s.lo.X, s.hi.X-lo.X)
		result.Depth.Y = axisDepth(result.Depth.Y, motion.Y, hi.Y-s.lo.Y, s.hi.Y-lo.Y)
		result.Depth.Z = axisDepth(result.Depth.Z, motion.Z, hi.Z-s.lo.Z, s.hi.Z-lo.Z)
	}
	if swept {
		if result.Depth.X > math.Abs(motion.X) {
			result.Depth.X = 0
		}
		if result.Depth.Y > math.Abs(motion.Y) {
			result.Depth.Y = 0
		}
		if result.Depth.Z > math.Abs(motion.Z) {
			result.Depth.Z = 0
		}
	}
	return result
}

type blockShape struct {
	lo, hi math3d.Vector3
}

func (s *blockShape) overlaps(lo, hi *math3d.Vector3) bool {
	return s.lo.X < hi.X && s.hi.X > lo.X &&
		s.lo.Y < hi.Y && s.hi.Y > lo.Y &&
		s.lo.Z < hi.Z && s.hi.Z > lo.Z
}

// axisDepth keeps the deepest penetration on one axis, measured against the
// face the box is moving into. No motion on the axis means no depth.
func axisDepth(current, motion, positive, negative float64) float64 {
	switch {
	case motion > 0:
		return math.Max(current, positive)
	case motion < 0:
		return math.Max(current, negative)
	default:
		return current
	}
}

func floor(f float64) int { return int(math.Floor(f)) }
func ceil(f float64) int  { return int(math.Ceil(f)) }
