package sim

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidBlockPos = errors.New("block position must have exactly 3 integer components")
	ErrDuplicateEntity = errors.New("duplicate entity id")
)

// Scenario describes the world and everything placed in it at start.
type Scenario struct {
	World    WorldDefinition    `yaml:"world"`
	Entities []EntityDefinition `yaml:"entities"`
	Tracks   []TrackDefinition  `yaml:"tracks"`
	Roads    []RoadDefinition   `yaml:"roads"`
}

type WorldDefinition struct {
	Blocks []BlockDefinition `yaml:"blocks"`
}

// BlockDefinition fills the cells from From to To (inclusive). Without To a
// single cell is placed. Height defaults to a full block.
type BlockDefinition struct {
	From   []int   `yaml:"from"`
	To     []int   `yaml:"to,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	Liquid bool    `yaml:"liquid,omitempty"`
}

// EntityDefinition places one vehicle. ID may be left empty to get a random
// one, but then saved variables cannot be found again after a restart.
type EntityDefinition struct {
	ID       string    `yaml:"id,omitempty"`
	Name     string    `yaml:"name"`
	Position []float64 `yaml:"position"`
	// Angles are pitch, yaw and roll in degrees.
	Angles   []float64 `yaml:"angles,omitempty"`
	Velocity []float64 `yaml:"velocity,omitempty"`
	Gravity  bool      `yaml:"gravity,omitempty"`
	// MaxSpeed is the ground speed, in blocks per tick, at full throttle.
	MaxSpeed        float64                             `yaml:"maxSpeed,omitempty"`
	CollisionGroups []*physics.CollisionGroupDefinition `yaml:"collisionGroups"`
	Variables       map[string]float64                  `yaml:"variables,omitempty"`
}

type FlagDefinition struct {
	Pos   []int   `yaml:"pos"`
	Angle float64 `yaml:"angle"`
}

// TrackDefinition links two survey flags and lays a track between them.
type TrackDefinition struct {
	From FlagDefinition `yaml:"from"`
	To   FlagDefinition `yaml:"to"`
}

// RoadDefinition is a curved road. Only its border geometry is computed; the
// road surface does not collide.
type RoadDefinition struct {
	Name          string    `yaml:"name"`
	Start         []float64 `yaml:"start"`
	End           []float64 `yaml:"end"`
	StartAngle    float64   `yaml:"startAngle"`
	EndAngle      float64   `yaml:"endAngle"`
	Width         float64   `yaml:"width"`
	SegmentLength float64   `yaml:"segmentLength,omitempty"`
}

// LoadScenario decodes and validates a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarioFile is LoadScenario on a file.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

func (sc *Scenario) Validate() error {
	for i, b := range sc.World.Blocks {
		if _, err := blockPosFromSlice(b.From); err != nil {
			return fmt.Errorf("world block %d: %w", i, err)
		}
		if len(b.To) > 0 {
			if _, err := blockPosFromSlice(b.To); err != nil {
				return fmt.Errorf("world block %d: %w", i, err)
			}
		}
	}

	ids := make(map[string]struct{}, len(sc.Entities))
	for i, e := range sc.Entities {
		for _, s := range [][]float64{e.Position, e.Angles, e.Velocity} {
			if _, err := physics.VectorFromSlice(s); err != nil {
				return fmt.Errorf("entity %d (%s): %w", i, e.Name, err)
			}
		}
		if e.ID == "" {
			continue
		}
		if _, ok := ids[e.ID]; ok {
			return fmt.Errorf("entity %d: %w: %s", i, ErrDuplicateEntity, e.ID)
		}
		ids[e.ID] = struct{}{}
	}

	for i, t := range sc.Tracks {
		for _, p := range [][]int{t.From.Pos, t.To.Pos} {
			if _, err := blockPosFromSlice(p); err != nil {
				return fmt.Errorf("track %d: %w", i, err)
			}
		}
	}

	for i, r := range sc.Roads {
		for _, s := range [][]float64{r.Start, r.End} {
			if _, err := physics.VectorFromSlice(s); err != nil {
				return fmt.Errorf("road %d (%s): %w", i, r.Name, err)
			}
		}
	}
	return nil
}

// Populate places the scenario blocks into world.
func (wd WorldDefinition) Populate(world *physics.GridWorld) {
	for _, b := range wd.Blocks {
		from, _ := blockPosFromSlice(b.From)
		to := from
		if len(b.To) > 0 {
			to, _ = blockPosFromSlice(b.To)
		}
		block := physics.Block{Height: b.Height, Liquid: b.Liquid}
		if block.Height <= 0 {
			block.Height = 1
		}
		for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
			for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
				for z := min(from.Z, to.Z); z <= max(from.Z, to.Z); z++ {
					world.SetBlock(physics.BlockPos{X: x, Y: y, Z: z}, block)
				}
			}
		}
	}
}

func blockPosFromSlice(s []int) (physics.BlockPos, error) {
	if len(s) != 3 {
		return physics.BlockPos{}, ErrInvalidBlockPos
	}
	return physics.BlockPos{X: s[0], Y: s[1], Z: s[2]}, nil
}

// vectorOf converts a list that Validate already accepted.
func vectorOf(s []float64) math3d.Vector3 {
	v, _ := physics.VectorFromSlice(s)
	return v
}
