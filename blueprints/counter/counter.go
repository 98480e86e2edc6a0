/*
Package counter implements the SimpleCounter blueprint: a component holding
single unsigned counter which can be incremented, read and reset.
*/
package counter

import (
	"fmt"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/engine"
	"github.com/alphabill-org/alphabill-blueprints/types"
	"github.com/alphabill-org/alphabill-blueprints/util"
)

var BlueprintID = types.BlueprintID{Package: "simple_counter", Blueprint: "SimpleCounter"}

const (
	FunctionInstantiate = "instantiate"

	MethodIncrement = "increment"
	MethodGetCount  = "get_count"
	MethodReset     = "reset"
)

type State struct {
	_       struct{}        `cbor:",toarray"`
	Version types.ABVersion `json:"version"`
	Count   uint64          `json:"count,string"`
}

// Blueprint returns the code of the SimpleCounter blueprint, to be registered
// with the engine.
func Blueprint() *engine.Blueprint {
	return &engine.Blueprint{
		ID: BlueprintID,
		Functions: map[string]engine.Method{
			FunctionInstantiate: instantiate,
		},
		Methods: map[string]engine.Method{
			MethodIncrement: increment,
			MethodGetCount:  getCount,
			MethodReset:     reset,
		},
	}
}

func instantiate(f *engine.Frame, _ ...any) (any, error) {
	return f.Globalize(&State{Count: 0}, nil)
}

func increment(f *engine.Frame, _ ...any) (any, error) {
	st, err := loadState(f)
	if err != nil {
		return nil, err
	}
	var ok bool
	if st.Count, ok = util.SafeInc(st.Count); !ok {
		return nil, fmt.Errorf("%w: counter is at max value", engine.ErrOverflow)
	}
	return nil, f.SaveState(st)
}

func getCount(f *engine.Frame, _ ...any) (any, error) {
	st, err := loadState(f)
	if err != nil {
		return nil, err
	}
	return st.Count, nil
}

func reset(f *engine.Frame, _ ...any) (any, error) {
	st, err := loadState(f)
	if err != nil {
		return nil, err
	}
	st.Count = 0
	return nil, f.SaveState(st)
}

// Instantiate creates new counter component with count set to zero.
func Instantiate(f *engine.Frame) (types.Address, error) {
	return engine.Returns[types.Address](f.CallFunction(BlueprintID, FunctionInstantiate))
}

// Increment adds one to the count, overflow aborts the transaction.
func Increment(f *engine.Frame, component types.Address) error {
	_, err := f.CallMethod(component, MethodIncrement)
	return err
}

func GetCount(f *engine.Frame, component types.Address) (uint64, error) {
	return engine.Returns[uint64](f.CallMethod(component, MethodGetCount))
}

// Reset sets the count back to zero.
func Reset(f *engine.Frame, component types.Address) error {
	_, err := f.CallMethod(component, MethodReset)
	return err
}

func loadState(f *engine.Frame) (*State, error) {
	st := &State{}
	if err := f.LoadState(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *State) GetVersion() types.ABVersion {
	if s != nil && s.Version != 0 {
		return s.Version
	}
	return 1
}

func (s *State) MarshalCBOR() ([]byte, error) {
	type alias State
	if s.Version == 0 {
		s.Version = s.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.ComponentStateTag, (*alias)(s))
}

func (s *State) UnmarshalCBOR(data []byte) error {
	type alias State
	if err := cbor.UnmarshalTaggedValue(types.ComponentStateTag, data, (*alias)(s)); err != nil {
		return err
	}
	return types.EnsureVersion(s, s.Version, 1)
}
