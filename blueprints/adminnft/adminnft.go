/*
Package adminnft implements the AdminNft blueprint: a component which
mints sequentially numbered non-fungibles. Only the component itself may
mint them, the minting rule is set when the resource is created and can
never be changed.
*/
package adminnft

import (
	"fmt"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/engine"
	"github.com/alphabill-org/alphabill-blueprints/predicates/templates"
	"github.com/alphabill-org/alphabill-blueprints/types"
	"github.com/alphabill-org/alphabill-blueprints/util"
)

var BlueprintID = types.BlueprintID{Package: "admin_nft", Blueprint: "AdminNft"}

const (
	FunctionInstantiate = "instantiate"

	MethodMintNFT        = "mint_nft"
	MethodGetTotalSupply = "get_total_supply"

	BadgeName      = "Admin Badge"
	CollectionName = "Admin NFT Collection"

	// level of newly minted NFTs
	InitialLevel uint8 = 1
)

type (
	State struct {
		_           struct{}        `cbor:",toarray"`
		Version     types.ABVersion `json:"version"`
		AdminBadge  types.Address   `json:"adminBadge"`  // vault of the admin badge resource
		NFTResource types.Address   `json:"nftResource"` // the non-fungible resource minted by the component
		IDCounter   uint64          `json:"idCounter,string"`
	}

	// NFTData is the data of the minted non-fungibles, Level is mutable.
	NFTData struct {
		_     struct{} `cbor:",toarray"`
		Name  string   `json:"name"`
		Level uint8    `json:"level"`
	}
)

// Blueprint returns the code of the AdminNft blueprint, to be registered
// with the engine.
func Blueprint() *engine.Blueprint {
	return &engine.Blueprint{
		ID: BlueprintID,
		Functions: map[string]engine.Method{
			FunctionInstantiate: instantiate,
		},
		Methods: map[string]engine.Method{
			MethodMintNFT:        mintNFT,
			MethodGetTotalSupply: getTotalSupply,
		},
	}
}

type instantiated struct {
	component types.Address
	badge     *engine.Bucket
}

func instantiate(f *engine.Frame, _ ...any) (any, error) {
	badgeRes, badge, err := f.NewFungibleResource(
		engine.FungibleResourceParams{
			Divisibility: 0,
			Metadata:     engine.Metadata{"name": {Value: BadgeName, Locked: true}},
		},
		types.NewAmount(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating admin badge: %w", err)
	}

	reservation, addr, err := f.AllocateComponentAddress()
	if err != nil {
		return nil, fmt.Errorf("reserving component address: %w", err)
	}

	nftRes, err := f.NewNonFungibleResource(engine.NonFungibleResourceParams{
		Metadata: engine.Metadata{"name": {Value: CollectionName, Locked: true}},
		Minter: engine.RoleRules{
			Rule:    templates.NewGlobalCallerBytes(addr),
			Updater: templates.AlwaysFalseBytes(),
		},
		MutableFields: []string{"level"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating nft resource: %w", err)
	}

	// the badge itself is handed out to the caller, the component keeps
	// a vault for the badge resource
	badgeVault, err := f.NewEmptyVault(badgeRes)
	if err != nil {
		return nil, fmt.Errorf("creating badge vault: %w", err)
	}

	st := &State{
		AdminBadge:  badgeVault,
		NFTResource: nftRes,
		IDCounter:   1,
	}
	if _, err := f.Globalize(st, reservation); err != nil {
		return nil, fmt.Errorf("globalizing component: %w", err)
	}
	return &instantiated{component: addr, badge: badge}, nil
}

func mintNFT(f *engine.Frame, args ...any) (any, error) {
	name, err := engine.Arg[string](args, 0)
	if err != nil {
		return nil, err
	}
	st, err := loadState(f)
	if err != nil {
		return nil, err
	}
	id := types.NonFungibleLocalID(st.IDCounter)
	nft, err := f.MintNonFungible(st.NFTResource, id, &NFTData{Name: name, Level: InitialLevel})
	if err != nil {
		return nil, err
	}
	var ok bool
	if st.IDCounter, ok = util.SafeInc(st.IDCounter); !ok {
		return nil, fmt.Errorf("%w: id counter is at max value", engine.ErrOverflow)
	}
	if err := f.SaveState(st); err != nil {
		return nil, err
	}
	return nft, nil
}

func getTotalSupply(f *engine.Frame, _ ...any) (any, error) {
	st, err := loadState(f)
	if err != nil {
		return nil, err
	}
	return f.TotalSupply(st.NFTResource)
}

/*
Instantiate creates new AdminNft component. Returns the address of the
component and bucket with the single admin badge, the bucket must be
deposited before the transaction ends.
*/
func Instantiate(f *engine.Frame) (types.Address, *engine.Bucket, error) {
	res, err := engine.Returns[*instantiated](f.CallFunction(BlueprintID, FunctionInstantiate))
	if err != nil {
		return nil, nil, err
	}
	return res.component, res.badge, nil
}

/*
MintNFT mints new NFT named "name" with the next local id and returns
bucket containing it.
*/
func MintNFT(f *engine.Frame, component types.Address, name string) (*engine.Bucket, error) {
	return engine.Returns[*engine.Bucket](f.CallMethod(component, MethodMintNFT, name))
}

// GetTotalSupply returns the number of NFTs minted by the component.
func GetTotalSupply(f *engine.Frame, component types.Address) (types.Amount, error) {
	return engine.Returns[types.Amount](f.CallMethod(component, MethodGetTotalSupply))
}

// LoadState returns the state of the component, meant for inspection.
func LoadState(f *engine.Frame, component types.Address) (*State, error) {
	bp, err := f.ComponentBlueprint(component)
	if err != nil {
		return nil, err
	}
	if bp != BlueprintID {
		return nil, fmt.Errorf("%w: component %s is %s, not %s", engine.ErrBlueprintMismatch, component, bp, BlueprintID)
	}
	st := &State{}
	if err := f.ComponentState(component, st); err != nil {
		return nil, err
	}
	return st, nil
}

func loadState(f *engine.Frame) (*State, error) {
	st := &State{}
	if err := f.LoadState(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *State) GetVersion() types.ABVersion {
	if s != nil && s.Version != 0 {
		return s.Version
	}
	return 1
}

func (s *State) MarshalCBOR() ([]byte, error) {
	type alias State
	if s.Version == 0 {
		s.Version = s.GetVersion()
	}
	return cbor.MarshalTaggedValue(types.ComponentStateTag, (*alias)(s))
}

func (s *State) UnmarshalCBOR(data []byte) error {
	type alias State
	if err := cbor.UnmarshalTaggedValue(types.ComponentStateTag, data, (*alias)(s)); err != nil {
		return err
	}
	return types.EnsureVersion(s, s.Version, 1)
}
