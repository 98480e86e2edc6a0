package engine

import (
	"errors"
	"fmt"

	"github.com/alphabill-org/alphabill-blueprints/types"
)

/*
Method is the code of a blueprint function or method. Functions run without
actor, methods run on behalf of the component they were called on.
*/
type Method func(f *Frame, args ...any) (any, error)

/*
Blueprint is the code components are instantiated from. The engine executes
only the code of blueprints registered with WithBlueprints, so the state of a
component can be changed by the methods of its own blueprint only.
*/
type Blueprint struct {
	ID        types.BlueprintID
	Functions map[string]Method
	Methods   map[string]Method
}

func (bp *Blueprint) Validate() error {
	if bp == nil {
		return errors.New("blueprint is nil")
	}
	if err := bp.ID.IsValid(); err != nil {
		return fmt.Errorf("invalid blueprint id: %w", err)
	}
	for name, fn := range bp.Functions {
		if name == "" || fn == nil {
			return fmt.Errorf("blueprint %s: function %q is not defined", bp.ID, name)
		}
	}
	for name, fn := range bp.Methods {
		if name == "" || fn == nil {
			return fmt.Errorf("blueprint %s: method %q is not defined", bp.ID, name)
		}
	}
	return nil
}

type registry map[types.BlueprintID]*Blueprint

func newRegistry(bps []*Blueprint) (registry, error) {
	r := make(registry, len(bps))
	for _, bp := range bps {
		if err := bp.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r[bp.ID]; ok {
			return nil, fmt.Errorf("blueprint %s is registered more than once", bp.ID)
		}
		r[bp.ID] = bp
	}
	return r, nil
}

func (r registry) get(id types.BlueprintID) (*Blueprint, error) {
	bp, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlueprintNotFound, id)
	}
	return bp, nil
}

/*
Arg returns the i-th call argument, it must be of type T.
*/
func Arg[T any](args []any, i int) (T, error) {
	var v T
	if i < 0 || i >= len(args) {
		return v, fmt.Errorf("%w: argument %d is missing", ErrInvalidArgument, i)
	}
	v, ok := args[i].(T)
	if !ok {
		return v, fmt.Errorf("%w: argument %d is %T, expected %T", ErrInvalidArgument, i, args[i], v)
	}
	return v, nil
}

/*
Returns converts the result of CallFunction or CallMethod to T.

	count, err := engine.Returns[uint64](f.CallMethod(c, "get_count"))
*/
func Returns[T any](v any, err error) (T, error) {
	var r T
	if err != nil {
		return r, err
	}
	r, ok := v.(T)
	if !ok {
		return r, fmt.Errorf("unexpected return value type %T, expected %T", v, r)
	}
	return r, nil
}
