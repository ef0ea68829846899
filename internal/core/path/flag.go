package path

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
)

var ErrNotLinked = errors.New("survey flag is not linked")

// BlockedError reports the first cell that stops a track from being laid.
type BlockedError struct {
	Pos physics.BlockPos
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("track blocked at %d,%d,%d", e.Pos.X, e.Pos.Y, e.Pos.Z)
}

// Placer tells whether a track cell may be placed.
type Placer interface {
	IsFree(pos physics.BlockPos) bool
}

// TrackCell is one cell of a planned track. Height is the sub-block height of
// the curve inside the cell, in sixteenths.
type TrackCell struct {
	Pos    physics.BlockPos
	Height int
}

// SurveyFlag is a placed marker that can be linked to another flag, the pair
// describing a track curve between them. Each side of a link holds its own
// curve starting at itself; exactly one side is primary.
type SurveyFlag struct {
	Pos     physics.BlockPos
	Angle   float64
	Primary bool
	Curve   *BezierCurve

	linked *SurveyFlag
}

func NewSurveyFlag(pos physics.BlockPos, angle float64) *SurveyFlag {
	return &SurveyFlag{Pos: pos, Angle: angle}
}

// Linked returns the partner flag, or nil.
func (f *SurveyFlag) Linked() *SurveyFlag {
	return f.linked
}

// LinkTo links f to other, f becoming the primary side. Previous links on
// either flag are cleared on both of their ends first.
func (f *SurveyFlag) LinkTo(other *SurveyFlag) {
	f.ClearLink()
	other.ClearLink()

	f.linked, other.linked = other, f
	f.Primary, other.Primary = true, false
	f.Curve = NewBezierCurve(blockVector(f.Pos), blockVector(other.Pos), f.Angle, other.Angle)
	other.Curve = NewBezierCurve(blockVector(other.Pos), blockVector(f.Pos), other.Angle, f.Angle)
}

// ClearLink drops the link on both ends. It is a no-op on an unlinked flag.
func (f *SurveyFlag) ClearLink() {
	partner := f.linked
	if partner == nil {
		return
	}
	f.linked, f.Curve, f.Primary = nil, nil, false
	partner.ClearLink()
}

// PlanTrack walks the curve one unit at a time and lists the cells of a
// three-wide track along it. The walk stops at the first cell the placer
// refuses, unless that cell belongs to one of the two flags.
func (f *SurveyFlag) PlanTrack(placer Placer) ([]TrackCell, error) {
	if f.Curve == nil {
		return nil, ErrNotLinked
	}

	var (
		cells []TrackCell
		seen  = make(map[physics.BlockPos]struct{})
		point math3d.Vector3
		rot   math3d.Vector3
	)
	for i := 0; float64(i) <= f.Curve.PathLength; i++ {
		d := float64(i)
		f.Curve.SetPointToPositionAt(&point, d)
		f.Curve.SetPointToRotationAt(&rot, d)
		sin, cos := math.Sincos(math3d.Radians(rot.Y + 90))

		for j := -1.0; j <= 1; j++ {
			pos := physics.BlockPosAt(point.X+j*sin, point.Y, point.Z+j*cos)
			if _, ok := seen[pos]; ok {
				continue
			}
			if !placer.IsFree(pos) {
				if pos == f.Pos || pos == f.linked.Pos {
					continue
				}
				return nil, &BlockedError{Pos: pos}
			}
			seen[pos] = struct{}{}
			cells = append(cells, TrackCell{
				Pos:    pos,
				Height: int((point.Y - math.Floor(point.Y)) * 16),
			})
		}
	}
	return cells, nil
}

func blockVector(pos physics.BlockPos) math3d.Vector3 {
	return math3d.Vector3{X: float64(pos.X), Y: float64(pos.Y), Z: float64(pos.Z)}
}
