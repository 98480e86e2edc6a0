package engine

import (
	"context"
	"crypto"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/hash"
	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

/*
Frame is a call frame of a transaction. The root frame (the one passed to
the Execute callback) executes no blueprint code and has no actor. Frames
created by CallFunction execute the code of the blueprint, frames created
by CallMethod additionally have the called component as actor.

Frame must not be used after the transaction callback has returned.
*/
type Frame struct {
	tx        *transaction
	ctx       context.Context
	actor     types.Address
	blueprint types.BlueprintID
	depth     int
}

/*
AddressReservation is a component address allocated in advance, so that
access rules referring to the component can be created before the
component itself. It can be used only once and only in the transaction
it was created in.
*/
type AddressReservation struct {
	addr      types.Address
	blueprint types.BlueprintID
	tx        *transaction
	used      bool
}

func (r *AddressReservation) Address() types.Address {
	return r.addr
}

func (f *Frame) Context() context.Context {
	return f.ctx
}

func (f *Frame) TxID() uuid.UUID {
	return f.tx.id
}

// Actor returns the component the frame executes on behalf of, nil for the root frame.
func (f *Frame) Actor() types.Address {
	return f.actor
}

// GlobalCaller implements templates.Environment, operations invoked in this
// frame are called by the actor of the frame.
func (f *Frame) GlobalCaller() types.Address {
	return f.actor
}

/*
CallFunction calls function "function" of the blueprint "bp". Functions
execute without actor, typically they instantiate new components.
*/
func (f *Frame) CallFunction(bp types.BlueprintID, function string, args ...any) (any, error) {
	blueprint, err := f.tx.engine.blueprints.get(bp)
	if err != nil {
		return nil, err
	}
	fn, ok := blueprint.Functions[function]
	if !ok {
		return nil, fmt.Errorf("%w: blueprint %s has no function %q", ErrMethodNotFound, bp, function)
	}
	return f.invoke(bp, function, nil, fn, args)
}

/*
CallMethod calls method "method" of the component. The method is looked up
from the blueprint the component was instantiated from and it runs in a new
frame on behalf of the component.
*/
func (f *Frame) CallMethod(component types.Address, method string, args ...any) (any, error) {
	if err := component.Validate(types.EntityTypeGlobalComponent); err != nil {
		return nil, fmt.Errorf("invalid component address: %w", err)
	}
	info, err := f.loadComponentInfo(component)
	if err != nil {
		return nil, err
	}
	blueprint, err := f.tx.engine.blueprints.get(info.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", component, err)
	}
	fn, ok := blueprint.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: blueprint %s has no method %q", ErrMethodNotFound, info.Blueprint, method)
	}
	return f.invoke(info.Blueprint, method, component, fn, args)
}

func (f *Frame) invoke(bp types.BlueprintID, name string, actor types.Address, fn Method, args []any) (any, error) {
	if f.depth+1 > f.tx.engine.cfg.MaxCallDepth {
		return nil, fmt.Errorf("%w: calling %s.%s at depth %d", ErrCallDepthExceeded, bp.Blueprint, name, f.depth+1)
	}
	if err := f.ctx.Err(); err != nil {
		return nil, err
	}

	f.tx.receipt.Calls++
	f.tx.engine.metrics.call(bp.String(), name)
	f.tx.log.Debug("calling blueprint code",
		zap.Stringer("component", actor),
		zap.String("blueprint", bp.String()),
		zap.String("method", name),
		zap.Int("depth", f.depth+1))

	child := &Frame{
		tx:        f.tx,
		ctx:       f.ctx,
		actor:     actor,
		blueprint: bp,
		depth:     f.depth + 1,
	}
	res, err := fn(child, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", bp.Blueprint, name, err)
	}
	return res, nil
}

/*
ComponentState decodes the state of any component into "v", the state can
be read by everyone but changed only by the component itself.
*/
func (f *Frame) ComponentState(component types.Address, v any) error {
	if err := component.Validate(types.EntityTypeGlobalComponent); err != nil {
		return fmt.Errorf("invalid component address: %w", err)
	}
	if _, err := f.loadComponentInfo(component); err != nil {
		return err
	}
	return f.readState(component, v)
}

// ComponentBlueprint returns the blueprint the component was instantiated from.
func (f *Frame) ComponentBlueprint(component types.Address) (types.BlueprintID, error) {
	info, err := f.loadComponentInfo(component)
	if err != nil {
		return types.BlueprintID{}, err
	}
	return info.Blueprint, nil
}

/*
LoadState decodes the state of the frame's actor into "v".
*/
func (f *Frame) LoadState(v any) error {
	if f.actor == nil {
		return ErrNoActor
	}
	return f.readState(f.actor, v)
}

/*
SaveState replaces the state of the frame's actor with "v".
*/
func (f *Frame) SaveState(v any) error {
	if f.actor == nil {
		return ErrNoActor
	}
	return f.writeState(f.actor, v)
}

/*
AllocateComponentAddress reserves new global component address for the
blueprint the frame executes. The reservation must be consumed by Globalize
in the same transaction, otherwise the transaction fails.
*/
func (f *Frame) AllocateComponentAddress() (*AddressReservation, types.Address, error) {
	if err := f.blueprint.IsValid(); err != nil {
		return nil, nil, ErrNoBlueprint
	}
	addr, err := f.allocateAddress(types.EntityTypeGlobalComponent)
	if err != nil {
		return nil, nil, err
	}
	r := &AddressReservation{addr: addr, blueprint: f.blueprint, tx: f.tx}
	f.tx.reservations = append(f.tx.reservations, r)
	return r, addr, nil
}

/*
Globalize stores new component of the blueprint the frame executes with
initial state "st". When "reservation" is nil new address is allocated for
the component.
*/
func (f *Frame) Globalize(st any, reservation *AddressReservation) (types.Address, error) {
	bp := f.blueprint
	if err := bp.IsValid(); err != nil {
		return nil, ErrNoBlueprint
	}

	var addr types.Address
	if reservation == nil {
		var err error
		if addr, err = f.allocateAddress(types.EntityTypeGlobalComponent); err != nil {
			return nil, err
		}
	} else {
		switch {
		case reservation.tx != f.tx:
			return nil, ErrReservationInvalid
		case reservation.used:
			return nil, fmt.Errorf("%w: %s", ErrReservationUsed, reservation.addr)
		case reservation.blueprint != bp:
			return nil, fmt.Errorf("%w: address was reserved for %s, not %s", ErrBlueprintMismatch, reservation.blueprint, bp)
		}
		reservation.used = true
		addr = reservation.addr
	}

	if err := f.putRecord(storeKey(prefixComponentInfo, addr), &componentInfo{Blueprint: bp}); err != nil {
		return nil, err
	}
	if err := f.writeState(addr, st); err != nil {
		return nil, err
	}

	f.tx.receipt.NewComponents = append(f.tx.receipt.NewComponents, addr)
	f.tx.log.Debug("component globalized", zap.Stringer("component", addr), zap.String("blueprint", bp.String()))
	return addr, nil
}

func (f *Frame) readState(addr types.Address, v any) error {
	data, err := f.tx.txn.Get(storeKey(prefixComponentState, addr))
	if err != nil {
		return fmt.Errorf("reading state of component %s: %w", addr, err)
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding state of component %s: %w", addr, err)
	}
	return nil
}

func (f *Frame) writeState(addr types.Address, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding state of component %s: %w", addr, err)
	}
	return f.tx.txn.Put(storeKey(prefixComponentState, addr), data)
}

func (f *Frame) loadComponentInfo(addr types.Address) (*componentInfo, error) {
	info := &componentInfo{}
	if err := f.getRecord(storeKey(prefixComponentInfo, addr), info); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, addr)
		}
		return nil, fmt.Errorf("loading component %s: %w", addr, err)
	}
	return info, nil
}

/*
allocateAddress derives new address from the transaction intent hash and
the count of addresses allocated in the transaction so far.
*/
func (f *Frame) allocateAddress(et types.EntityType) (types.Address, error) {
	h, err := hash.HashValues(crypto.SHA256, f.tx.intent, f.tx.allocations)
	if err != nil {
		return nil, fmt.Errorf("deriving address: %w", err)
	}
	f.tx.allocations++

	addr, err := types.NewAddress(et, h)
	if err != nil {
		return nil, err
	}
	key := storeKey(prefixAddress, addr)
	used, err := f.tx.txn.Has(key)
	if err != nil {
		return nil, fmt.Errorf("checking address: %w", err)
	}
	if used {
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, addr)
	}
	if err := f.tx.txn.Put(key, []byte{byte(et)}); err != nil {
		return nil, err
	}
	return addr, nil
}

func (f *Frame) getRecord(key []byte, v any) error {
	data, err := f.tx.txn.Get(key)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(data, v)
}

func (f *Frame) putRecord(key []byte, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	return f.tx.txn.Put(key, data)
}
