package types

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
)

/*
Amount is the quantity of a resource (total supply, vault balance etc).
In CBOR it's encoded as big-endian byte string without leading zeroes.
*/
type Amount struct {
	v uint256.Int
}

func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

/*
Add returns a+b, second return value is false when the sum overflows.
*/
func (a Amount) Add(b Amount) (Amount, bool) {
	var r Amount
	_, overflow := r.v.AddOverflow(&a.v, &b.v)
	return r, !overflow
}

/*
Sub returns a-b, second return value is false when b > a.
*/
func (a Amount) Sub(b Amount) (Amount, bool) {
	var r Amount
	_, underflow := r.v.SubOverflow(&a.v, &b.v)
	return r, !underflow
}

func (a Amount) String() string {
	return a.v.Dec()
}

func (a Amount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.v.Bytes())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	if a == nil {
		return errors.New("UnmarshalCBOR on nil pointer")
	}
	var buf []byte
	if err := cbor.Unmarshal(data, &buf); err != nil {
		return err
	}
	if len(buf) > 32 {
		return errors.New("amount is longer than 32 bytes")
	}
	if len(buf) > 0 && buf[0] == 0 {
		return errors.New("amount must not have leading zero bytes")
	}
	a.v.SetBytes(buf)
	return nil
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

func (a *Amount) UnmarshalText(src []byte) error {
	return a.v.SetFromDecimal(string(src))
}
