package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/path"
	"github.com/zeusync/vehicore/internal/core/storage"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
	"github.com/zeusync/vehicore/internal/core/variables"
)

const (
	defaultSegmentLength = 1.0
	commandQueueSize     = 64
)

var ErrSimulationClosed = errors.New("simulation is not running")

type Config struct {
	TickInterval time.Duration
	// SaveInterval is how often stateful variables go to the store. Zero only
	// saves on shutdown.
	SaveInterval time.Duration
}

type road struct {
	def      RoadDefinition
	curve    *path.BezierCurve
	segments []path.RoadSegment
}

func newRoad(def RoadDefinition) road {
	r := road{
		def:   def,
		curve: path.NewBezierCurve(vectorOf(def.Start), vectorOf(def.End), def.StartAngle, def.EndAngle),
	}
	segLen := def.SegmentLength
	if segLen <= 0 {
		segLen = defaultSegmentLength
	}
	half := def.Width / 2
	r.segments = r.curve.BorderSegments(segLen, []float64{-half, half})
	return r
}

// Simulation owns the world and its entities and advances them one tick at a
// time. Entities are only touched by the goroutine calling Tick (normally
// Run); other goroutines read Snapshot or hand work over with Submit.
type Simulation struct {
	config Config
	world  *physics.GridWorld
	store  storage.VariableStore
	sink   variables.Broadcaster
	logger log.Log

	entities []*Entity
	byID     map[string]*Entity
	roads    []road
	flags    []*path.SurveyFlag
	tick     int64

	commands chan func(*Simulation)
	done     chan struct{}

	mu       sync.RWMutex
	snapshot *Snapshot
}

// New creates an empty simulation. store and sink may be nil.
func New(config Config, world *physics.GridWorld, store storage.VariableStore, sink variables.Broadcaster, logger log.Log) *Simulation {
	if logger == nil {
		logger = log.NewNop()
	}
	if world == nil {
		world = physics.NewGridWorld()
	}
	s := &Simulation{
		config:   config,
		world:    world,
		store:    store,
		sink:     sink,
		logger:   logger.With(log.String("component", "simulation")),
		byID:     make(map[string]*Entity),
		commands: make(chan func(*Simulation), commandQueueSize),
		done:     make(chan struct{}),
	}
	s.publish()
	return s
}

// LoadScenario builds the world, lays tracks, computes roads and spawns every
// entity of sc. It must run before the tick loop starts.
func (s *Simulation) LoadScenario(ctx context.Context, sc *Scenario) error {
	sc.World.Populate(s.world)

	for i, t := range sc.Tracks {
		if err := s.layTrack(t); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	for _, r := range sc.Roads {
		s.roads = append(s.roads, newRoad(r))
	}
	for _, def := range sc.Entities {
		if _, err := s.Spawn(ctx, def); err != nil {
			return err
		}
	}
	s.publish()
	s.logger.Info("scenario loaded",
		log.Int("blocks", s.world.Len()),
		log.Int("entities", len(s.entities)),
		log.Int("tracks", len(sc.Tracks)),
		log.Int("roads", len(s.roads)),
	)
	return nil
}

// layTrack links the two flags and fills the planned cells with thin blocks
// following the curve height.
func (s *Simulation) layTrack(t TrackDefinition) error {
	fromPos, _ := blockPosFromSlice(t.From.Pos)
	toPos, _ := blockPosFromSlice(t.To.Pos)
	from := path.NewSurveyFlag(fromPos, t.From.Angle)
	to := path.NewSurveyFlag(toPos, t.To.Angle)
	from.LinkTo(to)

	cells, err := from.PlanTrack(s.world)
	if err != nil {
		return err
	}
	for _, c := range cells {
		s.world.SetBlock(c.Pos, physics.Block{Height: float64(max(c.Height, 1)) / 16})
	}
	s.flags = append(s.flags, from, to)
	s.logger.Debug("track laid", log.Int("cells", len(cells)), log.Float64("length", from.Curve.PathLength))
	return nil
}

// Spawn adds an entity. Values saved for its ID override the definition.
func (s *Simulation) Spawn(ctx context.Context, def EntityDefinition) (*Entity, error) {
	if def.ID != "" {
		if _, ok := s.byID[def.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, def.ID)
		}
	}
	e := NewEntity(def, s.sink, s.logger)
	if s.store != nil {
		saved, err := s.store.Load(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("load variables of %s: %w", e.ID, err)
		}
		e.Vars.Load(saved)
	}
	s.entities = append(s.entities, e)
	s.byID[e.ID] = e
	s.logger.Debug("entity spawned", log.String("entity", e.ID), log.String("name", e.Name))
	return e, nil
}

// Entity returns a live entity. Only the tick goroutine may use it.
func (s *Simulation) Entity(id string) (*Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Simulation) World() *physics.GridWorld { return s.world }

// Flags returns the survey flags of every laid track.
func (s *Simulation) Flags() []*path.SurveyFlag { return s.flags }

// Tick runs queued commands, moves every entity and publishes a snapshot.
func (s *Simulation) Tick() {
	s.tick++
	s.drainCommands()
	for _, e := range s.entities {
		e.update(s.world)
	}
	s.publish()
}

func (s *Simulation) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			cmd(s)
		default:
			return
		}
	}
}

// Submit queues fn to run on the tick goroutine at the start of the next
// tick. It blocks while the queue is full.
func (s *Simulation) Submit(ctx context.Context, fn func(*Simulation)) error {
	select {
	case <-s.done:
		return ErrSimulationClosed
	default:
	}
	select {
	case s.commands <- fn:
		return nil
	case <-s.done:
		return ErrSimulationClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply queues a change made on another copy of an entity.
func (s *Simulation) Apply(ctx context.Context, ev variables.ChangeEvent) error {
	return s.Submit(ctx, func(s *Simulation) {
		e, ok := s.byID[ev.EntityID]
		if !ok {
			s.logger.Warn("change for unknown entity", log.String("entity", ev.EntityID))
			return
		}
		e.Vars.Apply(ev)
	})
}

// Interact queues a hit-scan from start to end against one entity.
func (s *Simulation) Interact(ctx context.Context, entityID string, start, end math3d.Vector3) error {
	return s.Submit(ctx, func(s *Simulation) {
		e, ok := s.byID[entityID]
		if !ok {
			s.logger.Warn("interaction with unknown entity", log.String("entity", entityID))
			return
		}
		if box, hit := e.Interact(&start, &end); hit {
			s.logger.Debug("interaction", log.String("entity", entityID), log.String("box", box.String()))
		}
	})
}

func (s *Simulation) publish() {
	snap := &Snapshot{Tick: s.tick, Entities: make([]EntitySnapshot, 0, len(s.entities))}
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, snapshotEntity(e))
	}
	for _, r := range s.roads {
		snap.Roads = append(snap.Roads, RoadSnapshot{
			Name:     r.def.Name,
			Length:   r.curve.PathLength,
			Segments: r.segments,
		})
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// Snapshot returns the state after the last finished tick.
func (s *Simulation) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Save writes the stateful variables of every entity to the store. Errors
// are joined; one failing entity does not stop the others.
func (s *Simulation) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var errs []error
	for _, e := range s.entities {
		if err := s.store.Save(ctx, e.ID, e.Vars.Save()); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Run ticks until ctx is cancelled, saving periodically and once more on the
// way out. It may only be called once.
func (s *Simulation) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	var saves <-chan time.Time
	if s.store != nil && s.config.SaveInterval > 0 {
		saveTicker := time.NewTicker(s.config.SaveInterval)
		defer saveTicker.Stop()
		saves = saveTicker.C
	}

	s.logger.Info("simulation started", log.Duration("tick_interval", s.config.TickInterval))
	for {
		select {
		case <-ctx.Done():
			// The run context is gone; the final save gets its own deadline.
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.Save(saveCtx)
			cancel()
			if err != nil {
				s.logger.Error("final save failed", log.Error(err))
			}
			s.logger.Info("simulation stopped", log.Int64("tick", s.tick))
			return err
		case <-ticker.C:
			s.Tick()
		case <-saves:
			if err := s.Save(ctx); err != nil {
				s.logger.Warn("periodic save failed", log.Error(err))
			}
		}
	}
}
