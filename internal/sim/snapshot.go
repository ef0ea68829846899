package sim

import (
	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/path"
)

// Snapshot is the state of the simulation after a finished tick. It shares
// nothing with the live entities and can be read from any goroutine.
type Snapshot struct {
	Tick     int64            `json:"tick"`
	Entities []EntitySnapshot `json:"entities"`
	Roads    []RoadSnapshot   `json:"roads,omitempty"`
}

type EntitySnapshot struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Position  math3d.Vector3     `json:"position"`
	Angles    math3d.Vector3     `json:"angles"`
	Velocity  math3d.Vector3     `json:"velocity"`
	Boxes     []BoxSnapshot      `json:"boxes"`
	Variables map[string]float64 `json:"variables"`
	Checksum  uint64             `json:"checksum"`
}

type BoxSnapshot struct {
	Center    math3d.Vector3 `json:"center"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Depth     float64        `json:"depth"`
	Colliding bool           `json:"colliding,omitempty"`
}

type RoadSnapshot struct {
	Name     string             `json:"name"`
	Length   float64            `json:"length"`
	Segments []path.RoadSegment `json:"segments"`
}

// Entity finds an entity by ID.
func (s *Snapshot) Entity(id string) (EntitySnapshot, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return EntitySnapshot{}, false
}

func snapshotEntity(e *Entity) EntitySnapshot {
	es := EntitySnapshot{
		ID:        e.ID,
		Name:      e.Name,
		Position:  e.position,
		Angles:    e.angles,
		Velocity:  e.Velocity,
		Variables: e.Vars.Values(),
		Checksum:  e.Vars.Checksum(),
	}
	for _, g := range e.groups {
		for _, box := range g.boxes {
			es.Boxes = append(es.Boxes, BoxSnapshot{
				Center:    box.GlobalCenter,
				Width:     box.WidthRadius * 2,
				Height:    box.HeightRadius * 2,
				Depth:     box.DepthRadius * 2,
				Colliding: len(box.CollidingBlockPositions) > 0,
			})
		}
	}
	return es
}
