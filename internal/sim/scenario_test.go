package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
)

func TestLoadScenario_Empty(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sc.Entities)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "block with two components",
			yaml: "world:\n  blocks:\n    - from: [1, 2]\n",
			want: ErrInvalidBlockPos,
		},
		{
			name: "entity position with four components",
			yaml: "entities:\n  - name: a\n    position: [1, 2, 3, 4]\n",
			want: physics.ErrInvalidPosition,
		},
		{
			name: "duplicate ids",
			yaml: "entities:\n  - id: a\n  - id: a\n",
			want: ErrDuplicateEntity,
		},
		{
			name: "track without destination",
			yaml: "tracks:\n  - from: {pos: [0, 0, 0]}\n",
			want: ErrInvalidBlockPos,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadScenario_BadCollisionBox(t *testing.T) {
	_, err := LoadScenario(strings.NewReader(`
entities:
  - id: a
    collisionGroups:
      - name: hull
        collisions:
          - pos: [0, 0, 0]
            width: 0
            height: 1
`))
	assert.ErrorIs(t, err, physics.ErrInvalidDimensions)
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScenario), 0o644))

	sc, err := LoadScenarioFile(path)
	require.NoError(t, err)
	require.Len(t, sc.Entities, 1)
	assert.Equal(t, 0.25, sc.Entities[0].MaxSpeed)
	require.Len(t, sc.Entities[0].CollisionGroups, 2)
	assert.True(t, sc.Entities[0].CollisionGroups[1].IsInterior)

	_, err = LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWorldDefinition_Populate(t *testing.T) {
	world := physics.NewGridWorld()
	WorldDefinition{Blocks: []BlockDefinition{
		{From: []int{2, 0, 2}, To: []int{0, 0, 0}},
		{From: []int{5, 5, 5}, Height: 0.5},
		{From: []int{6, 0, 0}, Liquid: true},
	}}.Populate(world)

	assert.Equal(t, 9+1+1, world.Len())
	b, ok := world.BlockAt(physics.BlockPos{X: 1, Y: 0, Z: 1})
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Height)
	b, _ = world.BlockAt(physics.BlockPos{X: 5, Y: 5, Z: 5})
	assert.Equal(t, 0.5, b.Height)
	b, _ = world.BlockAt(physics.BlockPos{X: 6, Y: 0, Z: 0})
	assert.True(t, b.Liquid)
}
