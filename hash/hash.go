package hash

import (
	"crypto"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var encoderMode cbor.EncMode

func init() {
	var err error
	if encoderMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Errorf("initializing CBOR encoder mode: %w", err))
	}
}

/*
HashValues returns hash of the values, each value is CBOR encoded (using
deterministic encoding) before adding it to the hash.
*/
func HashValues(hashAlgorithm crypto.Hash, values ...any) ([]byte, error) {
	h := hashAlgorithm.New()
	enc := encoderMode.NewEncoder(h)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("hashing values: %w", err)
		}
	}
	return h.Sum(nil), nil
}
