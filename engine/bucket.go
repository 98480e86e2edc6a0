package engine

import (
	"slices"

	"github.com/alphabill-org/alphabill-blueprints/types"
)

/*
Bucket is a transient container of resource units returned by the minting
operations. Once its content has been put into a vault the bucket is
consumed. Every non-empty bucket must be consumed before the end of the
transaction which created it.
*/
type Bucket struct {
	tx       *transaction
	resource types.Address
	amount   types.Amount
	ids      []types.NonFungibleLocalID
	consumed bool
}

func (b *Bucket) Resource() types.Address {
	return b.resource
}

// Amount returns the number of units in the bucket, for non-fungible
// resources it's the number of local ids.
func (b *Bucket) Amount() types.Amount {
	if b.consumed {
		return types.Amount{}
	}
	return b.amount
}

func (b *Bucket) NonFungibleIDs() []types.NonFungibleLocalID {
	if b.consumed {
		return nil
	}
	return slices.Clone(b.ids)
}

func (b *Bucket) IsEmpty() bool {
	return b.consumed || b.amount.IsZero()
}

func (b *Bucket) take() (types.Amount, []types.NonFungibleLocalID, error) {
	if b.consumed {
		return types.Amount{}, nil, ErrBucketConsumed
	}
	b.consumed = true
	return b.amount, b.ids, nil
}
