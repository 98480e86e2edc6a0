package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/predicates/templates"
	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

const MaxDivisibility = 18

type (
	FungibleResourceParams struct {
		Divisibility   uint8     // number of decimal places, 0 means the resource is not divisible
		Metadata       Metadata  // initial metadata
		Minter         RoleRules // who may mint more units after creation
		MetadataSetter RoleRules // who may change unlocked metadata entries
	}

	NonFungibleResourceParams struct {
		Metadata       Metadata
		Minter         RoleRules
		MetadataSetter RoleRules
		MutableFields  []string // names of the non-fungible data fields which are mutable
	}
)

/*
NewFungibleResource creates new fungible resource and mints "initialSupply"
units of it into the returned bucket.
*/
func (f *Frame) NewFungibleResource(params FungibleResourceParams, initialSupply types.Amount) (types.Address, *Bucket, error) {
	if params.Divisibility > MaxDivisibility {
		return nil, nil, fmt.Errorf("%w: %d, must be in range 0..%d", ErrInvalidDivisibility, params.Divisibility, MaxDivisibility)
	}
	addr, err := f.allocateAddress(types.EntityTypeGlobalFungibleResource)
	if err != nil {
		return nil, nil, err
	}

	rec := &resourceRecord{
		Divisibility:   params.Divisibility,
		Metadata:       params.Metadata.Copy(),
		TotalSupply:    initialSupply,
		Minter:         params.Minter.withDefaults(),
		MetadataSetter: params.MetadataSetter.withDefaults(),
	}
	if err := f.putRecord(storeKey(prefixResource, addr), rec); err != nil {
		return nil, nil, err
	}

	f.tx.receipt.NewResources = append(f.tx.receipt.NewResources, addr)
	f.tx.log.Debug("fungible resource created", zap.Stringer("resource", addr), zap.Stringer("supply", initialSupply))
	return addr, f.tx.newBucket(addr, initialSupply), nil
}

/*
NewNonFungibleResource creates new non-fungible resource with zero supply.
*/
func (f *Frame) NewNonFungibleResource(params NonFungibleResourceParams) (types.Address, error) {
	addr, err := f.allocateAddress(types.EntityTypeGlobalNonFungibleResource)
	if err != nil {
		return nil, err
	}

	rec := &resourceRecord{
		Metadata:       params.Metadata.Copy(),
		Minter:         params.Minter.withDefaults(),
		MetadataSetter: params.MetadataSetter.withDefaults(),
		MutableFields:  params.MutableFields,
	}
	if err := f.putRecord(storeKey(prefixResource, addr), rec); err != nil {
		return nil, err
	}

	f.tx.receipt.NewResources = append(f.tx.receipt.NewResources, addr)
	f.tx.log.Debug("non-fungible resource created", zap.Stringer("resource", addr))
	return addr, nil
}

/*
MintFungible mints more units of fungible resource, allowed only when the
minter rule of the resource is satisfied.
*/
func (f *Frame) MintFungible(resource types.Address, amount types.Amount) (*Bucket, error) {
	if err := resource.Validate(types.EntityTypeGlobalFungibleResource); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongResourceKind, err)
	}
	rec, err := f.loadResource(resource)
	if err != nil {
		return nil, err
	}
	if err := f.checkRule(rec.Minter.Rule, "mint"); err != nil {
		return nil, err
	}

	var ok bool
	if rec.TotalSupply, ok = rec.TotalSupply.Add(amount); !ok {
		return nil, fmt.Errorf("%w: total supply of %s", ErrOverflow, resource)
	}
	if err := f.putRecord(storeKey(prefixResource, resource), rec); err != nil {
		return nil, err
	}
	return f.tx.newBucket(resource, amount), nil
}

/*
MintNonFungible mints non-fungible unit with local id "id" and data "data",
allowed only when the minter rule of the resource is satisfied.
*/
func (f *Frame) MintNonFungible(resource types.Address, id types.NonFungibleLocalID, data any) (*Bucket, error) {
	if err := resource.Validate(types.EntityTypeGlobalNonFungibleResource); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongResourceKind, err)
	}
	rec, err := f.loadResource(resource)
	if err != nil {
		return nil, err
	}
	if err := f.checkRule(rec.Minter.Rule, "mint"); err != nil {
		return nil, err
	}

	key := storeKey(prefixNonFungible, resource, id.Bytes())
	exists, err := f.tx.txn.Has(key)
	if err != nil {
		return nil, fmt.Errorf("checking non-fungible %s: %w", id, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrNonFungibleExists, id)
	}

	raw, err := cbor.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding non-fungible data: %w", err)
	}
	if err := f.putRecord(key, &nonFungibleRecord{Data: raw}); err != nil {
		return nil, err
	}

	one := types.NewAmount(1)
	var ok bool
	if rec.TotalSupply, ok = rec.TotalSupply.Add(one); !ok {
		return nil, fmt.Errorf("%w: total supply of %s", ErrOverflow, resource)
	}
	if err := f.putRecord(storeKey(prefixResource, resource), rec); err != nil {
		return nil, err
	}

	f.tx.log.Debug("non-fungible minted", zap.Stringer("resource", resource), zap.Stringer("id", id))
	return f.tx.newBucket(resource, one, id), nil
}

// TotalSupply returns the number of units of the resource in existence.
func (f *Frame) TotalSupply(resource types.Address) (types.Amount, error) {
	rec, err := f.loadResource(resource)
	if err != nil {
		return types.Amount{}, err
	}
	return rec.TotalSupply, nil
}

/*
NonFungibleData decodes the data of the non-fungible "id" into "v".
*/
func (f *Frame) NonFungibleData(resource types.Address, id types.NonFungibleLocalID, v any) error {
	if err := resource.Validate(types.EntityTypeGlobalNonFungibleResource); err != nil {
		return fmt.Errorf("%w: %w", ErrWrongResourceKind, err)
	}
	rec := &nonFungibleRecord{}
	if err := f.getRecord(storeKey(prefixNonFungible, resource, id.Bytes()), rec); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("%w: %s%s", ErrNonFungibleNotFound, resource, id)
		}
		return fmt.Errorf("loading non-fungible %s: %w", id, err)
	}
	return cbor.Unmarshal(rec.Data, v)
}

// MutableFields returns names of the mutable non-fungible data fields of the resource.
func (f *Frame) MutableFields(resource types.Address) ([]string, error) {
	rec, err := f.loadResource(resource)
	if err != nil {
		return nil, err
	}
	return rec.MutableFields, nil
}

// MinterRule returns the minter role rules of the resource.
func (f *Frame) MinterRule(resource types.Address) (RoleRules, error) {
	rec, err := f.loadResource(resource)
	if err != nil {
		return RoleRules{}, err
	}
	return rec.Minter, nil
}

/*
SetMinterRule replaces the minter rule of the resource, allowed only when
the minter updater rule is satisfied.
*/
func (f *Frame) SetMinterRule(resource types.Address, rule []byte) error {
	rec, err := f.loadResource(resource)
	if err != nil {
		return err
	}
	if err := f.checkRule(rec.Minter.Updater, "update minter rule"); err != nil {
		return err
	}
	rec.Minter.Rule = rule
	return f.putRecord(storeKey(prefixResource, resource), rec)
}

func (f *Frame) ResourceMetadata(resource types.Address) (Metadata, error) {
	rec, err := f.loadResource(resource)
	if err != nil {
		return nil, err
	}
	return rec.Metadata, nil
}

/*
SetMetadata sets metadata entry "key" of the resource. Locked entries can't
be changed at all, others only when the metadata setter rule is satisfied.
*/
func (f *Frame) SetMetadata(resource types.Address, key, value string) error {
	rec, err := f.loadResource(resource)
	if err != nil {
		return err
	}
	if e, ok := rec.Metadata[key]; ok && e.Locked {
		return fmt.Errorf("%w: %q", ErrMetadataLocked, key)
	}
	if err := f.checkRule(rec.MetadataSetter.Rule, "set metadata"); err != nil {
		return err
	}
	if rec.Metadata == nil {
		rec.Metadata = make(Metadata)
	}
	rec.Metadata[key] = MetadataEntry{Value: value}
	return f.putRecord(storeKey(prefixResource, resource), rec)
}

func (f *Frame) loadResource(addr types.Address) (*resourceRecord, error) {
	if !addr.EntityType().IsResource() {
		return nil, fmt.Errorf("%w: %s is not a resource address", ErrWrongResourceKind, addr)
	}
	rec := &resourceRecord{}
	if err := f.getRecord(storeKey(prefixResource, addr), rec); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, addr)
		}
		return nil, fmt.Errorf("loading resource %s: %w", addr, err)
	}
	return rec, nil
}

func (f *Frame) checkRule(rule []byte, op string) error {
	ok, err := templates.Evaluate(rule, f)
	if err != nil {
		return fmt.Errorf("evaluating %s rule: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not allowed for caller %s", ErrUnauthorized, op, f.callerName())
	}
	return nil
}

func (f *Frame) callerName() string {
	if f.actor == nil {
		return "<transaction>"
	}
	return f.actor.String()
}

func (rr RoleRules) withDefaults() RoleRules {
	if rr.Rule == nil {
		rr.Rule = templates.AlwaysFalseBytes()
	}
	if rr.Updater == nil {
		rr.Updater = templates.AlwaysFalseBytes()
	}
	return rr
}
