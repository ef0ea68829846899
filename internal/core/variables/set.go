package variables

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/vehicore/internal/core/observability/log"
)

// Set holds the variables of one entity, creating them on first reference.
// Like Variable, it is owned by the ticking goroutine.
type Set struct {
	entityID string
	owner    Ticker
	sink     Broadcaster
	logger   log.Log
	vars     map[string]*Variable
}

// NewSet creates the variable set of an entity. Broadcasts from its variables
// go to sink, which may be nil.
func NewSet(entityID string, owner Ticker, sink Broadcaster, logger log.Log) *Set {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Set{
		entityID: entityID,
		owner:    owner,
		sink:     sink,
		logger:   logger.With(log.String("entity", entityID)),
		vars:     make(map[string]*Variable),
	}
}

func (s *Set) EntityID() string { return s.entityID }
func (s *Set) Len() int         { return len(s.vars) }

// Lookup returns an existing variable without creating it.
func (s *Set) Lookup(key string) (*Variable, bool) {
	v, ok := s.vars[key]
	return v, ok
}

// Get returns the variable for key, creating it when first referenced.
// "#<number>" keys become constants, "random..." keys draw a fresh value on
// every computation, "!x" becomes the mirror of x, anything else is stateful.
func (s *Set) Get(key string) *Variable {
	if v, ok := s.vars[key]; ok {
		return v
	}

	var v *Variable
	switch {
	case strings.HasPrefix(key, InvertedPrefix):
		primary := s.Get(key[len(InvertedPrefix):])
		v = s.attach(NewVariable(s.owner, key))
		// The mirror of a constant is the constant complement.
		v.constant = primary.constant
		if primary.twin == nil {
			pair(primary, v)
		}
	case strings.HasPrefix(key, ConstantPrefix):
		if _, err := strconv.ParseFloat(key[len(ConstantPrefix):], 64); err != nil {
			s.logger.Warn("invalid constant variable", log.String("key", key), log.Error(err))
		}
		v = s.attach(NewVariable(s.owner, key))
	case strings.HasPrefix(key, RandomPrefix):
		v = s.attach(NewComputedVariable(s.owner, key, func(float64) float64 { return rand.Float64() }, false))
	default:
		v = s.attach(NewVariable(s.owner, key))
	}
	return v
}

// Register installs a computed variable, replacing any variable of that key.
// When the key's "!" mirror already exists it follows the new variable.
func (s *Set) Register(key string, op Operator, changesOnPartialTicks bool) *Variable {
	v := s.attach(NewComputedVariable(s.owner, key, op, changesOnPartialTicks))
	if mirror, ok := s.vars[InvertedPrefix+key]; ok && !mirror.IsComputed() {
		pair(v, mirror)
	}
	return v
}

func (s *Set) attach(v *Variable) *Variable {
	v.entityID = s.entityID
	v.sink = s.sink
	s.vars[v.key] = v
	return v
}

// Keys returns every key in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values returns the cached value of every variable. Computed variables are
// not recomputed.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.vars))
	for k, v := range s.vars {
		out[k] = v.value
	}
	return out
}

// Save returns the values worth persisting: stateful variables only, mirrors
// excluded since they derive from their primary.
func (s *Set) Save() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range s.vars {
		if persisted(v) {
			out[k] = v.value
		}
	}
	return out
}

func persisted(v *Variable) bool {
	return v.IsStateful() && !(v.inverted && v.twin != nil)
}

// Load restores saved values without broadcasting them. Keys naming
// constants or computed variables are ignored.
func (s *Set) Load(values map[string]float64) {
	for k, value := range values {
		v := s.Get(k)
		if !v.IsStateful() {
			s.logger.Debug("skipping non-stateful saved variable", log.String("key", k))
			continue
		}
		v.setValue(value)
	}
}

// Apply replays a change that happened on another copy of the entity. The
// change is not broadcast again.
func (s *Set) Apply(ev ChangeEvent) {
	v := s.Get(ev.Key)
	switch ev.Kind {
	case ChangeSet:
		v.SetTo(ev.Value, false)
	case ChangeAdjust:
		v.AdjustBy(ev.Delta, false)
	case ChangeToggle:
		v.Toggle(false)
	case ChangeIncrement:
		v.Increment(ev.Delta, ev.Min, ev.Max, false)
	default:
		s.logger.Warn("unknown change kind", log.String("key", ev.Key), log.String("kind", ev.Kind.String()))
	}
}

// Checksum hashes the persisted state, sorted by key. Two copies of an entity
// that agree on every stateful value have the same checksum.
func (s *Set) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, k := range s.Keys() {
		v := s.vars[k]
		if !persisted(v) {
			continue
		}
		_, _ = d.WriteString(k)
		bits := math.Float64bits(v.value)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
