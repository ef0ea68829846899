package variables

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	ConstantPrefix = "#"
	InvertedPrefix = "!"
	RandomPrefix   = "random"
)

var numberedKey = regexp.MustCompile(`^.*_\d+$`)

// Ticker is the one capability a variable needs from its owner: the owner's
// tick counter, used to revalidate computed values once per tick.
type Ticker interface {
	CurrentTick() int64
}

// Operator produces the value of a computed variable. partialTicks is the
// fraction of the next tick being rendered or simulated, 0 on whole ticks.
type Operator func(partialTicks float64) float64

// Variable is a named, cached scalar driving entity behavior.
//
// A variable is fixed at construction into one of three states. Constant
// variables (key "#<number>") never change. Computed variables have an
// Operator and recalculate at most once per owner tick. Stateful variables
// have neither and are changed through SetTo, AdjustBy, Toggle and Increment;
// only they are persisted.
//
// A Variable is not safe for concurrent use. It belongs to the goroutine that
// ticks its owner.
type Variable struct {
	key      string
	op       Operator
	owner    Ticker
	constant bool
	random   bool
	inverted bool
	partial  bool

	value        float64
	active       bool
	lastTick     int64
	computedOnce bool
	resetPending bool

	// twin is the "!"-prefixed mirror of this variable (or, on the mirror,
	// its primary). Every value change on one side updates the other.
	twin *Variable

	entityID string
	sink     Broadcaster
}

// NewVariable builds a constant or stateful variable. A constant key that does
// not parse as a number yields a constant 0.
func NewVariable(owner Ticker, key string) *Variable {
	v := newVariable(owner, key, nil, false)
	if strings.HasPrefix(key, ConstantPrefix) {
		v.constant = true
		value, _ := strconv.ParseFloat(key[len(ConstantPrefix):], 64)
		v.setValue(value)
	}
	return v
}

// NewComputedVariable builds a variable whose value comes from op. A variable
// built with changesOnPartialTicks recalculates on every call made with a
// non-zero partialTicks.
func NewComputedVariable(owner Ticker, key string, op Operator, changesOnPartialTicks bool) *Variable {
	return newVariable(owner, key, op, changesOnPartialTicks)
}

func newVariable(owner Ticker, key string, op Operator, partial bool) *Variable {
	return &Variable{
		key:      key,
		op:       op,
		owner:    owner,
		random:   strings.HasPrefix(key, RandomPrefix),
		inverted: strings.HasPrefix(key, InvertedPrefix),
		partial:  partial,
	}
}

func (v *Variable) Key() string      { return v.key }
func (v *Variable) IsConstant() bool { return v.constant }
func (v *Variable) IsComputed() bool { return v.op != nil }
func (v *Variable) IsInverted() bool { return v.inverted }
func (v *Variable) IsVolatile() bool { return v.random }
func (v *Variable) IsStateful() bool { return !v.constant && v.op == nil }
func (v *Variable) Twin() *Variable  { return v.twin }
func (v *Variable) Value() float64   { return v.value }
func (v *Variable) IsActive() bool   { return v.active }

// ResetRequested reports whether Reset was called since the last ClearReset.
func (v *Variable) ResetRequested() bool {
	return v.resetPending
}

// ComputeValue returns the current value, first running the operator when the
// variable is computed and the cached value is out of date: on the first call,
// after the owner's tick advanced, on every call for random variables, and on
// partial-tick calls for variables that change on partial ticks.
func (v *Variable) ComputeValue(partialTicks float64) float64 {
	if v.op == nil {
		return v.value
	}
	tick := v.owner.CurrentTick()
	switch {
	case v.random || (v.partial && partialTicks != 0):
		// Interpolated values never satisfy the once-per-tick cache.
		v.store(v.op(partialTicks))
	case !v.computedOnce || tick != v.lastTick:
		v.computedOnce = true
		v.lastTick = tick
		v.store(v.op(partialTicks))
	}
	return v.value
}

func (v *Variable) store(result float64) {
	if v.inverted {
		result = complement(result)
	}
	v.setValue(result)
}

// SetTo sets the value.
func (v *Variable) SetTo(value float64, broadcast bool) {
	if v.constant {
		return
	}
	v.setValue(value)
	if broadcast {
		v.broadcast(ChangeEvent{Kind: ChangeSet, Value: value})
	}
}

// AdjustBy adds delta to the value.
func (v *Variable) AdjustBy(delta float64, broadcast bool) {
	if v.constant {
		return
	}
	v.setValue(v.value + delta)
	if broadcast {
		v.broadcast(ChangeEvent{Kind: ChangeAdjust, Delta: delta})
	}
}

// Toggle flips the value between 0 and 1. Any positive value counts as on.
func (v *Variable) Toggle(broadcast bool) {
	if v.constant {
		return
	}
	v.setValue(complement(v.value))
	if broadcast {
		v.broadcast(ChangeEvent{Kind: ChangeToggle})
	}
}

// Increment adds delta and clamps the result to [min, max]. Both bounds at 0
// means no clamping at all. It reports whether the value changed; an increment
// swallowed by the clamp is not a change and is not broadcast.
func (v *Variable) Increment(delta, min, max float64, broadcast bool) bool {
	if v.constant {
		return false
	}
	next := v.value + delta
	if min != 0 || max != 0 {
		if next < min {
			next = min
		} else if next > max {
			next = max
		}
	}
	if next == v.value {
		return false
	}
	v.setValue(next)
	if broadcast {
		v.broadcast(ChangeEvent{Kind: ChangeIncrement, Delta: delta, Min: min, Max: max})
	}
	return true
}

// Reset raises the sticky reset flag. The variable never clears it itself;
// whoever observes the reset calls ClearReset.
func (v *Variable) Reset() {
	v.resetPending = true
}

func (v *Variable) ClearReset() {
	v.resetPending = false
}

func (v *Variable) setValue(value float64) {
	v.value = value
	v.active = value > 0
	if v.twin != nil && !v.twin.constant {
		v.twin.value = complement(value)
		v.twin.active = v.twin.value > 0
	}
}

func (v *Variable) broadcast(ev ChangeEvent) {
	if v.sink == nil {
		return
	}
	ev.EntityID = v.entityID
	ev.Key = v.key
	ev.Value = v.value
	if v.owner != nil {
		ev.Tick = v.owner.CurrentTick()
	}
	v.sink.Broadcast(ev)
}

// pair links primary with its "!" mirror.
func pair(primary, mirror *Variable) {
	primary.twin = mirror
	mirror.twin = primary
	mirror.value = complement(primary.value)
	mirror.active = mirror.value > 0
}

func complement(value float64) float64 {
	if value > 0 {
		return 0
	}
	return 1
}

// IsNumberedVariable reports whether key ends in "_<n>", marking one element
// of an indexed family of variables.
func IsNumberedVariable(key string) bool {
	return numberedKey.MatchString(key)
}

// VariableNumber returns the 0-based index of a numbered key ("door_1" is 0),
// or -1 when the key carries no number.
func VariableNumber(key string) int {
	if !IsNumberedVariable(key) {
		return -1
	}
	n, err := strconv.Atoi(key[strings.LastIndexByte(key, '_')+1:])
	if err != nil {
		return -1
	}
	return n - 1
}
