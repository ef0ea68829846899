package physics

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeusync/vehicore/internal/core/math3d"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPosition   = errors.New("position must have exactly 3 components")
	ErrInvalidDimensions = errors.New("collision box width and height must be positive")
)

// CollisionGroupDefinition is a named list of collision boxes. Interior groups
// only collide with other entities, never with the world.
type CollisionGroupDefinition struct {
	Name       string                    `json:"name" yaml:"name"`
	IsInterior bool                      `json:"isInterior,omitempty" yaml:"isInterior,omitempty"`
	Collisions []*CollisionBoxDefinition `json:"collisions" yaml:"collisions"`
}

// CollisionBoxDefinition describes one box of an entity definition.
//
// Boxes that name a variable are interaction boxes: hitting them changes that
// variable on the owner. A zero VariableValue toggles the variable, anything
// else sets it.
type CollisionBoxDefinition struct {
	Pos                 math3d.Vector3 `json:"-" yaml:"-"`
	Width               float64        `json:"width" yaml:"width"`
	Height              float64        `json:"height" yaml:"height"`
	CollidesWithLiquids bool           `json:"collidesWithLiquids,omitempty" yaml:"collidesWithLiquids,omitempty"`
	VariableName        string         `json:"variableName,omitempty" yaml:"variableName,omitempty"`
	VariableValue       float64        `json:"variableValue,omitempty" yaml:"variableValue,omitempty"`
}

type rawCollisionBox struct {
	Pos                 []float64 `yaml:"pos"`
	Width               float64   `yaml:"width"`
	Height              float64   `yaml:"height"`
	CollidesWithLiquids bool      `yaml:"collidesWithLiquids"`
	VariableName        string    `yaml:"variableName"`
	VariableValue       float64   `yaml:"variableValue"`
}

// UnmarshalYAML accepts pos as a [x, y, z] list, the way definition files
// write it.
func (d *CollisionBoxDefinition) UnmarshalYAML(value *yaml.Node) error {
	var raw rawCollisionBox
	if err := value.Decode(&raw); err != nil {
		return err
	}
	pos, err := VectorFromSlice(raw.Pos)
	if err != nil {
		return fmt.Errorf("collision box at line %d: %w", value.Line, err)
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("collision box at line %d: %w", value.Line, ErrInvalidDimensions)
	}
	*d = CollisionBoxDefinition{
		Pos:                 pos,
		Width:               raw.Width,
		Height:              raw.Height,
		CollidesWithLiquids: raw.CollidesWithLiquids,
		VariableName:        raw.VariableName,
		VariableValue:       raw.VariableValue,
	}
	return nil
}

// VectorFromSlice converts a [x, y, z] list. An empty list is the origin.
func VectorFromSlice(s []float64) (math3d.Vector3, error) {
	switch len(s) {
	case 0:
		return math3d.Vector3{}, nil
	case 3:
		return math3d.Vector3{X: s[0], Y: s[1], Z: s[2]}, nil
	default:
		return math3d.Vector3{}, ErrInvalidPosition
	}
}

// LoadCollisionGroups decodes a YAML (or JSON) list of collision groups.
func LoadCollisionGroups(r io.Reader) ([]*CollisionGroupDefinition, error) {
	var groups []*CollisionGroupDefinition
	if err := yaml.NewDecoder(r).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decode collision groups: %w", err)
	}
	return groups, nil
}

// Boxes builds one bounding box per definition in the group.
func (g *CollisionGroupDefinition) Boxes() []*BoundingBox {
	boxes := make([]*BoundingBox, 0, len(g.Collisions))
	for _, def := range g.Collisions {
		boxes = append(boxes, NewBoundingBoxFromDefinition(def))
	}
	return boxes
}
