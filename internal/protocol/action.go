// Package protocol defines the wire frames exchanged between textsync
// clients and the Hub, and their translation to and from internal/ot
// operations.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/textsync/textsync/internal/ot"
)

// Action is the tagged-union JSON form of ot.Action: exactly one of
// Insert or Delete is present on the wire, e.g. {"Insert":"hi"} or
// {"Delete":3}.
type Action struct {
	Insert *string
	Delete *uint32
}

// ActionFromOT converts an ot.Action into its wire form.
func ActionFromOT(a ot.Action) Action {
	switch v := a.(type) {
	case ot.Insert:
		s := v.Text
		return Action{Insert: &s}
	case ot.Delete:
		n := v.Len
		return Action{Delete: &n}
	default:
		panic(fmt.Sprintf("protocol: unknown ot.Action type %T", a))
	}
}

// ToOT converts a wire Action back into an ot.Action. Exactly one of
// Insert or Delete must be set.
func (a Action) ToOT() (ot.Action, error) {
	switch {
	case a.Insert != nil && a.Delete == nil:
		return ot.Insert{Text: *a.Insert}, nil
	case a.Delete != nil && a.Insert == nil:
		return ot.Delete{Len: *a.Delete}, nil
	default:
		return nil, fmt.Errorf("protocol: action must set exactly one of Insert or Delete")
	}
}

// MarshalJSON emits whichever of Insert/Delete is set as a single-key
// object.
func (a Action) MarshalJSON() ([]byte, error) {
	switch {
	case a.Insert != nil:
		return json.Marshal(map[string]string{"Insert": *a.Insert})
	case a.Delete != nil:
		return json.Marshal(map[string]uint32{"Delete": *a.Delete})
	default:
		return nil, fmt.Errorf("protocol: action must set exactly one of Insert or Delete")
	}
}

// UnmarshalJSON reads a single-key {"Insert":...} or {"Delete":...}
// object.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if ins, ok := raw["Insert"]; ok {
		var s string
		if err := json.Unmarshal(ins, &s); err != nil {
			return err
		}
		a.Insert = &s
		return nil
	}

	if del, ok := raw["Delete"]; ok {
		var n uint32
		if err := json.Unmarshal(del, &n); err != nil {
			return err
		}
		a.Delete = &n
		return nil
	}

	return fmt.Errorf("protocol: action object has neither Insert nor Delete")
}
