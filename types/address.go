package types

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// AddressLength is the length of the address in bytes, including the entity type byte.
	AddressLength = 30
	// AddressHashLength is the number of the hash bytes used in the address.
	AddressHashLength = AddressLength - 1
)

// EntityType is the first byte of an Address and describes what kind of
// object lives at the address.
type EntityType byte

const (
	EntityTypeGlobalComponent           EntityType = 0xC0
	EntityTypeGlobalFungibleResource    EntityType = 0x5D
	EntityTypeGlobalNonFungibleResource EntityType = 0x9A
	EntityTypeInternalVault             EntityType = 0x58
)

func (et EntityType) String() string {
	switch et {
	case EntityTypeGlobalComponent:
		return "component"
	case EntityTypeGlobalFungibleResource:
		return "fungible resource"
	case EntityTypeGlobalNonFungibleResource:
		return "non-fungible resource"
	case EntityTypeInternalVault:
		return "vault"
	default:
		return fmt.Sprintf("entity(%#02x)", byte(et))
	}
}

func (et EntityType) IsGlobal() bool {
	switch et {
	case EntityTypeGlobalComponent, EntityTypeGlobalFungibleResource, EntityTypeGlobalNonFungibleResource:
		return true
	default:
		return false
	}
}

func (et EntityType) IsResource() bool {
	return et == EntityTypeGlobalFungibleResource || et == EntityTypeGlobalNonFungibleResource
}

// Address identifies an object (component, resource, vault) in the ledger state.
type Address []byte

/*
NewAddress composes address of given entity type, the first AddressHashLength
bytes of "hash" are used as the address body.
*/
func NewAddress(et EntityType, hash []byte) (Address, error) {
	if len(hash) < AddressHashLength {
		return nil, fmt.Errorf("address hash must be at least %d bytes, got %d bytes", AddressHashLength, len(hash))
	}
	addr := make(Address, AddressLength)
	addr[0] = byte(et)
	copy(addr[1:], hash[:AddressHashLength])
	return addr, nil
}

func (a Address) EntityType() EntityType {
	if len(a) == 0 {
		return 0
	}
	return EntityType(a[0])
}

func (a Address) IsGlobal() bool {
	return a.EntityType().IsGlobal()
}

func (a Address) Eq(b Address) bool {
	return bytes.Equal(a, b)
}

/*
Validate checks that the address has correct length and expected entity type.
*/
func (a Address) Validate(et EntityType) error {
	if len(a) != AddressLength {
		return fmt.Errorf("address length must be %d bytes, got %d bytes", AddressLength, len(a))
	}
	if a.EntityType() != et {
		return fmt.Errorf("expected %s address, got %s", et, a.EntityType())
	}
	return nil
}

func (a Address) String() string {
	return hexutil.Encode(a)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(hexutil.Encode(a)), nil
}

func (a *Address) UnmarshalText(src []byte) error {
	res, err := hexutil.Decode(string(src))
	if err != nil {
		return err
	}
	if len(res) != AddressLength {
		return fmt.Errorf("address length must be %d bytes, got %d bytes", AddressLength, len(res))
	}
	*a = res
	return nil
}
