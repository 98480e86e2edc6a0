package types

import (
	"fmt"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
)

type ABVersion uint64

type Versioned interface {
	GetVersion() ABVersion
}

// CBOR tags of the records persisted by the engine.
const (
	_ = iota + cbor.Tag(1100)
	ComponentInfoTag
	ComponentStateTag
	ResourceTag
	NonFungibleTag
	VaultTag
)

/*
EnsureVersion returns error when the version of the "data" is not "expected".
*/
func EnsureVersion(data Versioned, actual, expected ABVersion) error {
	if actual != expected {
		return fmt.Errorf("invalid version (type %T), expected %d, got %d", data, expected, actual)
	}
	return nil
}
