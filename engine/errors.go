package engine

import "errors"

var (
	ErrStoreIsNil          = errors.New("store is nil")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNoActor             = errors.New("frame has no actor")
	ErrComponentNotFound   = errors.New("component not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrVaultNotFound       = errors.New("vault not found")
	ErrNonFungibleNotFound = errors.New("non-fungible not found")
	ErrNonFungibleExists   = errors.New("non-fungible with the same local id already exists")
	ErrWrongResourceKind   = errors.New("wrong resource kind")
	ErrBlueprintMismatch   = errors.New("blueprint mismatch")
	ErrCallDepthExceeded   = errors.New("call depth exceeded")
	ErrAddressInUse        = errors.New("address is already in use")
	ErrReservationUsed     = errors.New("address reservation has already been used")
	ErrReservationInvalid  = errors.New("address reservation does not belong to the transaction")
	ErrDanglingReservation = errors.New("address reservation was not used")
	ErrMetadataLocked      = errors.New("metadata entry is locked")
	ErrInvalidDivisibility = errors.New("invalid divisibility")
	ErrBucketConsumed      = errors.New("bucket has already been consumed")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrPanic               = errors.New("transaction panicked")
	ErrBlueprintNotFound   = errors.New("blueprint not found")
	ErrMethodNotFound      = errors.New("method not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoBlueprint         = errors.New("frame doesn't execute blueprint code")
	ErrDanglingBucket      = errors.New("bucket was not deposited")
	ErrBucketInvalid       = errors.New("bucket does not belong to the transaction")
)
