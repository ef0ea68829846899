package sim

import (
	"math"

	"github.com/google/uuid"
	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
	"github.com/zeusync/vehicore/internal/core/variables"
)

const (
	// gravityPerTick is the downward acceleration, in blocks per tick squared.
	gravityPerTick = 0.04
	// coastFactor is how much ground speed is kept each tick with the engine off.
	coastFactor = 0.9
	// stopSpeed is the ground speed below which a coasting vehicle stops.
	stopSpeed = 1e-3
)

// Well-known variables. Scenarios may reference any other key as well.
const (
	VarEngineRunning = "engine_running"
	VarThrottle      = "throttle"
	VarSpeed         = "speed"
	VarCollided      = "collided"
	VarYaw           = "yaw"
)

type collisionGroup struct {
	def   *physics.CollisionGroupDefinition
	boxes []*physics.BoundingBox
}

// Entity is a simulated vehicle. It satisfies both physics.Owner and
// variables.Ticker, so its boxes and variables follow it directly. Like its
// variables it belongs to the tick goroutine.
type Entity struct {
	ID   string
	Name string

	position    math3d.Vector3
	angles      math3d.Vector3
	orientation *math3d.RotationMatrix

	Velocity math3d.Vector3
	gravity  bool
	maxSpeed float64

	groups   []collisionGroup
	Vars     *variables.Set
	ticks    int64
	collided bool
}

var (
	_ physics.Owner    = (*Entity)(nil)
	_ variables.Ticker = (*Entity)(nil)
)

// NewEntity builds an entity from its definition. Variables listed in the
// definition are set without broadcasting.
func NewEntity(def EntityDefinition, sink variables.Broadcaster, logger log.Log) *Entity {
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	e := &Entity{
		ID:          id,
		Name:        def.Name,
		position:    vectorOf(def.Position),
		orientation: math3d.NewRotationMatrix(),
		Velocity:    vectorOf(def.Velocity),
		gravity:     def.Gravity,
		maxSpeed:    def.MaxSpeed,
	}
	e.Vars = variables.NewSet(id, e, sink, logger)
	angles := vectorOf(def.Angles)
	e.SetAngles(angles.X, angles.Y, angles.Z)

	for _, g := range def.CollisionGroups {
		e.groups = append(e.groups, collisionGroup{def: g, boxes: g.Boxes()})
	}
	e.registerComputed()
	e.Vars.Load(def.Variables)
	e.updateBoxes()
	return e
}

func (e *Entity) registerComputed() {
	e.Vars.Register(VarSpeed, func(float64) float64 {
		return e.Velocity.Length()
	}, false)
	e.Vars.Register(VarCollided, func(float64) float64 {
		if e.collided {
			return 1
		}
		return 0
	}, false)
	e.Vars.Register(VarYaw, func(float64) float64 {
		return e.angles.Y
	}, false)
}

func (e *Entity) Position() math3d.Vector3 { return e.position }

func (e *Entity) Orientation() *math3d.RotationMatrix { return e.orientation }

// CurrentTick counts the ticks this entity has been simulated for.
func (e *Entity) CurrentTick() int64 { return e.ticks }

// Angles returns pitch, yaw and roll in degrees.
func (e *Entity) Angles() math3d.Vector3 { return e.angles }

// SetAngles changes the orientation. Boxes are stale until they are next used.
func (e *Entity) SetAngles(pitch, yaw, roll float64) {
	e.angles.Set(pitch, yaw, roll)
	e.orientation.SetToAngles(&e.angles)
	e.markStale()
}

// SetPosition teleports the entity. Boxes are stale until they are next used.
func (e *Entity) SetPosition(pos math3d.Vector3) {
	e.position = pos
	e.markStale()
}

// Boxes returns every collision box, interior ones included.
func (e *Entity) Boxes() []*physics.BoundingBox {
	var out []*physics.BoundingBox
	for _, g := range e.groups {
		out = append(out, g.boxes...)
	}
	return out
}

// Collided reports whether the last move hit the world.
func (e *Entity) Collided() bool { return e.collided }

// update advances the entity by one tick: drive, move against the world,
// then bring every box to the new pose.
func (e *Entity) update(world physics.World) {
	e.ticks++
	e.refreshStale()
	e.drive()

	motion := e.Velocity
	var depth math3d.Vector3
	e.collided = false
	for _, g := range e.groups {
		if g.def.IsInterior {
			continue
		}
		for _, box := range g.boxes {
			if box.UpdateMovingCollisions(world, motion) {
				e.collided = true
			}
			depth.X = math.Max(depth.X, box.CurrentCollisionDepth.X)
			depth.Y = math.Max(depth.Y, box.CurrentCollisionDepth.Y)
			depth.Z = math.Max(depth.Z, box.CurrentCollisionDepth.Z)
		}
	}
	motion.X = resolveAxis(motion.X, depth.X, &e.Velocity.X)
	motion.Y = resolveAxis(motion.Y, depth.Y, &e.Velocity.Y)
	motion.Z = resolveAxis(motion.Z, depth.Z, &e.Velocity.Z)

	e.markStale()
	e.position.AddVector(&motion)
	e.updateBoxes()
	for _, key := range []string{VarSpeed, VarCollided, VarYaw} {
		if v, ok := e.Vars.Lookup(key); ok {
			v.ComputeValue(0)
		}
	}
}

// drive turns the throttle into ground velocity along the current heading.
func (e *Entity) drive() {
	if e.gravity {
		e.Velocity.Y -= gravityPerTick
	}
	if e.maxSpeed <= 0 {
		return
	}
	if e.Vars.Get(VarEngineRunning).IsActive() {
		throttle := math.Max(-1, math.Min(1, e.Vars.Get(VarThrottle).Value()))
		sin, cos := math.Sincos(math3d.Radians(e.angles.Y))
		e.Velocity.X = sin * throttle * e.maxSpeed
		e.Velocity.Z = cos * throttle * e.maxSpeed
		return
	}
	e.Velocity.X *= coastFactor
	e.Velocity.Z *= coastFactor
	if math.Hypot(e.Velocity.X, e.Velocity.Z) < stopSpeed {
		e.Velocity.X, e.Velocity.Z = 0, 0
	}
}

// resolveAxis shortens motion on one axis by the collision depth and stops
// the velocity on that axis when anything was hit.
func resolveAxis(motion, depth float64, velocity *float64) float64 {
	if depth <= 0 || motion == 0 {
		return motion
	}
	*velocity = 0
	if depth >= math.Abs(motion) {
		return 0
	}
	return motion - math.Copysign(depth, motion)
}

func (e *Entity) markStale() {
	for _, g := range e.groups {
		for _, box := range g.boxes {
			box.MarkStale()
		}
	}
}

func (e *Entity) refreshStale() {
	for _, g := range e.groups {
		for _, box := range g.boxes {
			if box.IsStale() {
				box.UpdateToEntity(e, nil)
			}
		}
	}
}

func (e *Entity) updateBoxes() {
	for _, g := range e.groups {
		for _, box := range g.boxes {
			box.UpdateToEntity(e, nil)
		}
	}
}

// Interact traces the segment start→end against the entity's boxes. The
// closest hit box is returned; when it names a variable that variable is
// toggled (VariableValue 0) or set, and the change is broadcast.
func (e *Entity) Interact(start, end *math3d.Vector3) (*physics.BoundingBox, bool) {
	e.refreshStale()
	var (
		hit      *physics.BoundingBox
		bestDist float64
	)
	for _, g := range e.groups {
		for _, box := range g.boxes {
			p, ok := box.IntersectionPoint(start, end)
			if !ok {
				continue
			}
			if d := start.DistanceTo(&p); hit == nil || d < bestDist {
				hit, bestDist = box, d
			}
		}
	}
	if hit == nil {
		return nil, false
	}
	if def := hit.Definition; def != nil && def.VariableName != "" {
		v := e.Vars.Get(def.VariableName)
		if def.VariableValue == 0 {
			v.Toggle(true)
		} else {
			v.SetTo(def.VariableValue, true)
		}
	}
	return hit, true
}
