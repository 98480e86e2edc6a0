package types

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// NonFungibleLocalID is the integer identifier of a non-fungible unit
// within its resource.
type NonFungibleLocalID uint64

func (id NonFungibleLocalID) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

func (id NonFungibleLocalID) String() string {
	return fmt.Sprintf("#%d#", uint64(id))
}

// BlueprintID names the blueprint a component has been instantiated from.
type BlueprintID struct {
	_         struct{} `cbor:",toarray"`
	Package   string   `json:"package"`
	Blueprint string   `json:"blueprint"`
}

func (b BlueprintID) String() string {
	return b.Package + "::" + b.Blueprint
}

func (b BlueprintID) IsValid() error {
	if b.Package == "" {
		return errors.New("blueprint package name must be assigned")
	}
	if b.Blueprint == "" {
		return errors.New("blueprint name must be assigned")
	}
	return nil
}

const (
	NetworkMainNet NetworkID = 1
	NetworkTestNet NetworkID = 2
	NetworkLocal   NetworkID = 3
)

type NetworkID uint16
