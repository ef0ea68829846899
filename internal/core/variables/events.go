package variables

import "fmt"

type ChangeKind uint8

const (
	ChangeSet ChangeKind = iota + 1
	ChangeAdjust
	ChangeToggle
	ChangeIncrement
)

var changeKindNames = map[ChangeKind]string{
	ChangeSet:       "set",
	ChangeAdjust:    "adjust",
	ChangeToggle:    "toggle",
	ChangeIncrement: "increment",
}

func (k ChangeKind) String() string {
	if name, ok := changeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ChangeKind(%d)", uint8(k))
}

func (k ChangeKind) MarshalText() ([]byte, error) {
	if _, ok := changeKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown change kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ChangeKind) UnmarshalText(text []byte) error {
	for kind, name := range changeKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown change kind %q", text)
}

// ChangeEvent describes one mutation of a variable so remote copies can
// replay it. Value is the value after the change.
type ChangeEvent struct {
	EntityID string     `json:"entity"`
	Kind     ChangeKind `json:"kind"`
	Key      string     `json:"key"`
	Value    float64    `json:"value"`
	Delta    float64    `json:"delta,omitempty"`
	Min      float64    `json:"min,omitempty"`
	Max      float64    `json:"max,omitempty"`
	Tick     int64      `json:"tick"`
}

// Broadcaster receives change events. Delivery is fire-and-forget: a
// broadcaster must not block the caller and has no way to report failure.
type Broadcaster interface {
	Broadcast(ev ChangeEvent)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(ev ChangeEvent)

func (f BroadcasterFunc) Broadcast(ev ChangeEvent) { f(ev) }
