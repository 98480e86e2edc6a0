package engine

import (
	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

// storage key prefixes, key is prefix + address (+ local id for non-fungibles)
const (
	prefixAddress        = "ADDRESS:"
	prefixComponentInfo  = "COMPONENT:INFO:"
	prefixComponentState = "COMPONENT:STATE:"
	prefixResource       = "RESOURCE:DEF:"
	prefixNonFungible    = "RESOURCE:NF:"
	prefixVault          = "VAULT:"
)

func storeKey(prefix string, addr types.Address, suffix ...[]byte) []byte {
	key := append([]byte(prefix), addr...)
	for _, s := range suffix {
		key = append(key, s...)
	}
	return key
}

type (
	// MetadataEntry is a single metadata value of a resource, locked
	// entries can't be changed.
	MetadataEntry struct {
		_      struct{} `cbor:",toarray"`
		Value  string   `json:"value"`
		Locked bool     `json:"locked"`
	}

	Metadata map[string]MetadataEntry

	/*
		RoleRules is a pair of access rules: Rule guards the operation and
		Updater guards changing the Rule. Nil rule means "deny all".
	*/
	RoleRules struct {
		_       struct{} `cbor:",toarray"`
		Rule    []byte   `json:"rule"`
		Updater []byte   `json:"updater"`
	}
)

func (m Metadata) Copy() Metadata {
	if m == nil {
		return nil
	}
	r := make(Metadata, len(m))
	for k, v := range m {
		r[k] = v
	}
	return r
}

type componentInfo struct {
	_         struct{}          `cbor:",toarray"`
	Version   types.ABVersion   `json:"version"`
	Blueprint types.BlueprintID `json:"blueprint"`
}

func (ci *componentInfo) GetVersion() types.ABVersion {
	if ci != nil && ci.Version != 0 {
		return ci.Version
	}
	return 1
}

func (ci *componentInfo) MarshalCBOR() ([]byte, error) {
	type alias componentInfo
	if ci.Version == 0 {
		ci.Version = ci.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.ComponentInfoTag, (*alias)(ci))
}

func (ci *componentInfo) UnmarshalCBOR(data []byte) error {
	type alias componentInfo
	if err := cbor.UnmarshalTaggedValue(types.ComponentInfoTag, data, (*alias)(ci)); err != nil {
		return err
	}
	return types.EnsureVersion(ci, ci.Version, 1)
}

type resourceRecord struct {
	_              struct{}        `cbor:",toarray"`
	Version        types.ABVersion `json:"version"`
	Divisibility   uint8           `json:"divisibility"`
	Metadata       Metadata        `json:"metadata"`
	TotalSupply    types.Amount    `json:"totalSupply"`
	Minter         RoleRules       `json:"minter"`
	MetadataSetter RoleRules       `json:"metadataSetter"`
	MutableFields  []string        `json:"mutableFields"` // non-fungible data fields which may be updated
}

func (rr *resourceRecord) GetVersion() types.ABVersion {
	if rr != nil && rr.Version != 0 {
		return rr.Version
	}
	return 1
}

func (rr *resourceRecord) MarshalCBOR() ([]byte, error) {
	type alias resourceRecord
	if rr.Version == 0 {
		rr.Version = rr.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.ResourceTag, (*alias)(rr))
}

func (rr *resourceRecord) UnmarshalCBOR(data []byte) error {
	type alias resourceRecord
	if err := cbor.UnmarshalTaggedValue(types.ResourceTag, data, (*alias)(rr)); err != nil {
		return err
	}
	return types.EnsureVersion(rr, rr.Version, 1)
}

type nonFungibleRecord struct {
	_       struct{}        `cbor:",toarray"`
	Version types.ABVersion `json:"version"`
	Data    cbor.RawCBOR    `json:"data"`
}

func (nf *nonFungibleRecord) GetVersion() types.ABVersion {
	if nf != nil && nf.Version != 0 {
		return nf.Version
	}
	return 1
}

func (nf *nonFungibleRecord) MarshalCBOR() ([]byte, error) {
	type alias nonFungibleRecord
	if nf.Version == 0 {
		nf.Version = nf.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.NonFungibleTag, (*alias)(nf))
}

func (nf *nonFungibleRecord) UnmarshalCBOR(data []byte) error {
	type alias nonFungibleRecord
	if err := cbor.UnmarshalTaggedValue(types.NonFungibleTag, data, (*alias)(nf)); err != nil {
		return err
	}
	return types.EnsureVersion(nf, nf.Version, 1)
}

type vaultRecord struct {
	_        struct{}                   `cbor:",toarray"`
	Version  types.ABVersion            `json:"version"`
	Resource types.Address              `json:"resource"`
	Amount   types.Amount               `json:"amount"`
	IDs      []types.NonFungibleLocalID `json:"ids"`
}

func (vr *vaultRecord) GetVersion() types.ABVersion {
	if vr != nil && vr.Version != 0 {
		return vr.Version
	}
	return 1
}

func (vr *vaultRecord) MarshalCBOR() ([]byte, error) {
	type alias vaultRecord
	if vr.Version == 0 {
		vr.Version = vr.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.VaultTag, (*alias)(vr))
}

func (vr *vaultRecord) UnmarshalCBOR(data []byte) error {
	type alias vaultRecord
	if err := cbor.UnmarshalTaggedValue(types.VaultTag, data, (*alias)(vr)); err != nil {
		return err
	}
	return types.EnsureVersion(vr, vr.Version, 1)
}
