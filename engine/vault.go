package engine

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

/*
NewVault creates new vault and moves the content of the bucket into it.
*/
func (f *Frame) NewVault(b *Bucket) (types.Address, error) {
	if b == nil {
		return nil, errors.New("bucket is nil")
	}
	if b.tx != f.tx {
		return nil, ErrBucketInvalid
	}
	if _, err := f.loadResource(b.resource); err != nil {
		return nil, err
	}
	amount, ids, err := b.take()
	if err != nil {
		return nil, err
	}
	return f.newVault(&vaultRecord{Resource: b.resource, Amount: amount, IDs: ids})
}

// NewEmptyVault creates new vault which may hold units of "resource".
func (f *Frame) NewEmptyVault(resource types.Address) (types.Address, error) {
	if _, err := f.loadResource(resource); err != nil {
		return nil, err
	}
	return f.newVault(&vaultRecord{Resource: resource})
}

/*
Deposit moves the content of the bucket into the vault, bucket and vault
must be of the same resource.
*/
func (f *Frame) Deposit(vault types.Address, b *Bucket) error {
	if b == nil {
		return errors.New("bucket is nil")
	}
	if b.tx != f.tx {
		return ErrBucketInvalid
	}
	rec, err := f.loadVault(vault)
	if err != nil {
		return err
	}
	if !rec.Resource.Eq(b.resource) {
		return fmt.Errorf("%w: vault holds %s, bucket has %s", ErrWrongResourceKind, rec.Resource, b.resource)
	}
	amount, ids, err := b.take()
	if err != nil {
		return err
	}
	var ok bool
	if rec.Amount, ok = rec.Amount.Add(amount); !ok {
		return fmt.Errorf("%w: balance of vault %s", ErrOverflow, vault)
	}
	rec.IDs = append(rec.IDs, ids...)
	return f.putRecord(storeKey(prefixVault, vault), rec)
}

func (f *Frame) VaultAmount(vault types.Address) (types.Amount, error) {
	rec, err := f.loadVault(vault)
	if err != nil {
		return types.Amount{}, err
	}
	return rec.Amount, nil
}

func (f *Frame) VaultResource(vault types.Address) (types.Address, error) {
	rec, err := f.loadVault(vault)
	if err != nil {
		return nil, err
	}
	return rec.Resource, nil
}

func (f *Frame) VaultNonFungibleIDs(vault types.Address) ([]types.NonFungibleLocalID, error) {
	rec, err := f.loadVault(vault)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rec.IDs), nil
}

func (f *Frame) newVault(rec *vaultRecord) (types.Address, error) {
	addr, err := f.allocateAddress(types.EntityTypeInternalVault)
	if err != nil {
		return nil, err
	}
	if err := f.putRecord(storeKey(prefixVault, addr), rec); err != nil {
		return nil, err
	}
	f.tx.receipt.NewVaults = append(f.tx.receipt.NewVaults, addr)
	f.tx.log.Debug("vault created", zap.Stringer("vault", addr), zap.Stringer("resource", rec.Resource))
	return addr, nil
}

func (f *Frame) loadVault(addr types.Address) (*vaultRecord, error) {
	if err := addr.Validate(types.EntityTypeInternalVault); err != nil {
		return nil, fmt.Errorf("invalid vault address: %w", err)
	}
	rec := &vaultRecord{}
	if err := f.getRecord(storeKey(prefixVault, addr), rec); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, addr)
		}
		return nil, fmt.Errorf("loading vault %s: %w", addr, err)
	}
	return rec, nil
}
