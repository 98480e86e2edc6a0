package adminnft

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/alphabill-blueprints/engine"
	"github.com/alphabill-org/alphabill-blueprints/predicates/templates"
	"github.com/alphabill-org/alphabill-blueprints/testutils"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

// forgerID is a blueprint whose components try to mint on resources they
// have no rights to.
var forgerID = types.BlueprintID{Package: "forger", Blueprint: "Forger"}

func forgerBlueprint() *engine.Blueprint {
	return &engine.Blueprint{
		ID: forgerID,
		Functions: map[string]engine.Method{
			"new": func(f *engine.Frame, _ ...any) (any, error) { return f.Globalize(uint64(0), nil) },
			"mint": func(f *engine.Frame, args ...any) (any, error) {
				return mintAs(f, args)
			},
		},
		Methods: map[string]engine.Method{
			"mint": func(f *engine.Frame, args ...any) (any, error) {
				return mintAs(f, args)
			},
			"set_minter": func(f *engine.Frame, args ...any) (any, error) {
				res, err := engine.Arg[types.Address](args, 0)
				if err != nil {
					return nil, err
				}
				return nil, f.SetMinterRule(res, templates.AlwaysTrueBytes())
			},
		},
	}
}

func mintAs(f *engine.Frame, args []any) (any, error) {
	res, err := engine.Arg[types.Address](args, 0)
	if err != nil {
		return nil, err
	}
	id, err := engine.Arg[types.NonFungibleLocalID](args, 1)
	if err != nil {
		return nil, err
	}
	return f.MintNonFungible(res, id, &NFTData{Name: "forged", Level: 99})
}

func newEngine(t *testing.T, bps ...*engine.Blueprint) *engine.Engine {
	t.Helper()
	return testutils.NewEngine(t, engine.WithBlueprints(append([]*engine.Blueprint{Blueprint(), forgerBlueprint()}, bps...)...))
}

// instantiate creates new component and deposits the admin badge into new vault.
func instantiateComponent(t *testing.T, e *engine.Engine) (component, badgeVault types.Address) {
	t.Helper()
	testutils.Execute(t, e, func(f *engine.Frame) error {
		var badge *engine.Bucket
		var err error
		if component, badge, err = Instantiate(f); err != nil {
			return err
		}
		badgeVault, err = f.NewVault(badge)
		return err
	})
	return component, badgeVault
}

func newForger(t *testing.T, e *engine.Engine) types.Address {
	t.Helper()
	var addr types.Address
	testutils.Execute(t, e, func(f *engine.Frame) (err error) {
		addr, err = engine.Returns[types.Address](f.CallFunction(forgerID, "new"))
		return err
	})
	return addr
}

// keep mints NFT and deposits it into new vault, returns local id of the NFT.
func keep(f *engine.Frame, component types.Address, name string) (types.NonFungibleLocalID, error) {
	nft, err := MintNFT(f, component, name)
	if err != nil {
		return 0, err
	}
	ids := nft.NonFungibleIDs()
	if _, err := f.NewVault(nft); err != nil {
		return 0, err
	}
	return ids[0], nil
}

func mint(t *testing.T, e *engine.Engine, component types.Address, name string) types.NonFungibleLocalID {
	t.Helper()
	var id types.NonFungibleLocalID
	testutils.Execute(t, e, func(f *engine.Frame) (err error) {
		id, err = keep(f, component, name)
		return err
	})
	return id
}

func totalSupply(t *testing.T, e *engine.Engine, component types.Address) uint64 {
	t.Helper()
	var supply types.Amount
	testutils.Query(t, e, func(f *engine.Frame) (err error) {
		supply, err = GetTotalSupply(f, component)
		return err
	})
	n, ok := supply.Uint64()
	require.True(t, ok)
	return n
}

func componentState(t *testing.T, e *engine.Engine, component types.Address) *State {
	t.Helper()
	var st *State
	testutils.Query(t, e, func(f *engine.Frame) (err error) {
		st, err = LoadState(f, component)
		return err
	})
	return st
}

func Test_Instantiate(t *testing.T) {
	e := newEngine(t)

	var addr, badgeVault types.Address
	rcpt := testutils.Execute(t, e, func(f *engine.Frame) error {
		var badge *engine.Bucket
		var err error
		if addr, badge, err = Instantiate(f); err != nil {
			return err
		}
		require.False(t, badge.IsEmpty())
		require.Zero(t, badge.Amount().Cmp(types.NewAmount(1)))
		require.Equal(t, types.EntityTypeGlobalFungibleResource, badge.Resource().EntityType())
		require.Empty(t, badge.NonFungibleIDs())
		badgeVault, err = f.NewVault(badge)
		return err
	})
	require.Equal(t, []types.Address{addr}, rcpt.NewComponents)
	require.Len(t, rcpt.NewResources, 2)
	require.Equal(t, []types.Address{rcpt.NewVaults[0], badgeVault}, rcpt.NewVaults)
	require.Equal(t, 1, rcpt.Calls)

	var badgeRes types.Address
	testutils.Query(t, e, func(f *engine.Frame) (err error) {
		badgeRes, err = f.VaultResource(badgeVault)
		return err
	})

	t.Run("exactly one badge exists", func(t *testing.T) {
		testutils.Query(t, e, func(f *engine.Frame) error {
			amount, err := f.VaultAmount(badgeVault)
			require.NoError(t, err)
			require.Zero(t, amount.Cmp(types.NewAmount(1)))

			supply, err := f.TotalSupply(badgeRes)
			require.NoError(t, err)
			require.Zero(t, supply.Cmp(types.NewAmount(1)))

			md, err := f.ResourceMetadata(badgeRes)
			require.NoError(t, err)
			require.Equal(t, engine.Metadata{"name": {Value: BadgeName, Locked: true}}, md)
			return nil
		})
	})

	t.Run("badge supply can't be increased", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.MintFungible(badgeRes, types.NewAmount(1))
			return err
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)
	})

	t.Run("badge must be deposited", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, _, err := Instantiate(f)
			return err
		})
		require.ErrorIs(t, err, engine.ErrDanglingBucket)
	})

	t.Run("initial state", func(t *testing.T) {
		st := componentState(t, e, addr)
		require.EqualValues(t, 1, st.IDCounter)
		require.Equal(t, rcpt.NewResources[1], st.NFTResource)
		require.Equal(t, rcpt.NewVaults[0], st.AdminBadge)
		require.Zero(t, totalSupply(t, e, addr))

		testutils.Query(t, e, func(f *engine.Frame) error {
			res, err := f.VaultResource(st.AdminBadge)
			require.NoError(t, err)
			require.Equal(t, badgeRes, res)
			amount, err := f.VaultAmount(st.AdminBadge)
			require.NoError(t, err)
			require.True(t, amount.IsZero())

			md, err := f.ResourceMetadata(st.NFTResource)
			require.NoError(t, err)
			require.Equal(t, engine.Metadata{"name": {Value: CollectionName, Locked: true}}, md)

			fields, err := f.MutableFields(st.NFTResource)
			require.NoError(t, err)
			require.Equal(t, []string{"level"}, fields)
			return nil
		})
	})

	t.Run("minter rule requires the component as global caller", func(t *testing.T) {
		st := componentState(t, e, addr)
		testutils.Query(t, e, func(f *engine.Frame) error {
			rules, err := f.MinterRule(st.NFTResource)
			require.NoError(t, err)
			caller, err := templates.ExtractGlobalCaller(rules.Rule)
			require.NoError(t, err)
			require.Equal(t, addr, caller)
			require.True(t, templates.IsAlwaysFalse(rules.Updater))
			return nil
		})
	})

	t.Run("state of other blueprint", func(t *testing.T) {
		forger := newForger(t, e)
		err := e.Query(context.Background(), func(f *engine.Frame) error {
			_, err := LoadState(f, forger)
			return err
		})
		require.ErrorIs(t, err, engine.ErrBlueprintMismatch)
	})
}

func Test_MintNFT(t *testing.T) {
	t.Run("mint two NFTs", func(t *testing.T) {
		e := newEngine(t)
		c, _ := instantiateComponent(t, e)

		var alpha, beta *engine.Bucket
		testutils.Execute(t, e, func(f *engine.Frame) (err error) {
			if alpha, err = MintNFT(f, c, "Alpha"); err != nil {
				return err
			}
			if beta, err = MintNFT(f, c, "Beta"); err != nil {
				return err
			}
			require.Equal(t, []types.NonFungibleLocalID{1}, alpha.NonFungibleIDs())
			require.Equal(t, []types.NonFungibleLocalID{2}, beta.NonFungibleIDs())
			require.Equal(t, alpha.Resource(), beta.Resource())

			vault, err := f.NewVault(alpha)
			if err != nil {
				return err
			}
			return f.Deposit(vault, beta)
		})
		require.EqualValues(t, 2, totalSupply(t, e, c))

		testutils.Query(t, e, func(f *engine.Frame) error {
			var data NFTData
			require.NoError(t, f.NonFungibleData(alpha.Resource(), 1, &data))
			require.Equal(t, NFTData{Name: "Alpha", Level: 1}, data)
			require.NoError(t, f.NonFungibleData(alpha.Resource(), 2, &data))
			require.Equal(t, NFTData{Name: "Beta", Level: 1}, data)
			require.ErrorIs(t, f.NonFungibleData(alpha.Resource(), 3, &data), engine.ErrNonFungibleNotFound)
			return nil
		})
		require.EqualValues(t, 3, componentState(t, e, c).IDCounter)
	})

	t.Run("ids are sequential without gaps", func(t *testing.T) {
		e := newEngine(t)
		c, _ := instantiateComponent(t, e)

		const k = 20
		var ids []types.NonFungibleLocalID
		testutils.Execute(t, e, func(f *engine.Frame) error {
			for range k {
				id, err := keep(f, c, "")
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return nil
		})
		require.Len(t, ids, k)
		for i, id := range ids {
			require.EqualValues(t, i+1, id)
		}
		require.EqualValues(t, k, totalSupply(t, e, c))
	})

	t.Run("components have independent id counters", func(t *testing.T) {
		e := newEngine(t)
		c1, badge1 := instantiateComponent(t, e)
		c2, badge2 := instantiateComponent(t, e)
		require.NotEqual(t, c1, c2)
		require.NotEqual(t, badge1, badge2)
		require.NotEqual(t, componentState(t, e, c1).NFTResource, componentState(t, e, c2).NFTResource)

		require.EqualValues(t, 1, mint(t, e, c1, "a"))
		require.EqualValues(t, 2, mint(t, e, c1, "b"))
		require.EqualValues(t, 1, mint(t, e, c2, "c"))
		require.EqualValues(t, 2, totalSupply(t, e, c1))
		require.EqualValues(t, 1, totalSupply(t, e, c2))
	})

	t.Run("failed mint doesn't consume id", func(t *testing.T) {
		e := newEngine(t)
		c, _ := instantiateComponent(t, e)
		mint(t, e, c, "first")

		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			if _, err := keep(f, c, "lost"); err != nil {
				return err
			}
			return engine.ErrUnauthorized
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)
		require.EqualValues(t, 1, totalSupply(t, e, c))
		require.EqualValues(t, 2, mint(t, e, c, "second"))
	})

	t.Run("minted NFT must be deposited", func(t *testing.T) {
		e := newEngine(t)
		c, _ := instantiateComponent(t, e)
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := MintNFT(f, c, "dropped")
			return err
		})
		require.ErrorIs(t, err, engine.ErrDanglingBucket)
		require.Zero(t, totalSupply(t, e, c))
	})

	t.Run("name argument is required", func(t *testing.T) {
		e := newEngine(t)
		c, _ := instantiateComponent(t, e)
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallMethod(c, MethodMintNFT)
			return err
		})
		require.ErrorIs(t, err, engine.ErrInvalidArgument)
		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallMethod(c, MethodMintNFT, 42)
			return err
		})
		require.ErrorIs(t, err, engine.ErrInvalidArgument)
	})

	t.Run("id counter overflow", func(t *testing.T) {
		// the same blueprint with extra method moving the id counter
		bp := Blueprint()
		bp.Methods["set_id_counter"] = func(f *engine.Frame, args ...any) (any, error) {
			n, err := engine.Arg[uint64](args, 0)
			if err != nil {
				return nil, err
			}
			st, err := loadState(f)
			if err != nil {
				return nil, err
			}
			st.IDCounter = n
			return nil, f.SaveState(st)
		}
		e := testutils.NewEngine(t, engine.WithBlueprints(bp))
		c, _ := instantiateComponent(t, e)
		testutils.Execute(t, e, func(f *engine.Frame) error {
			_, err := f.CallMethod(c, "set_id_counter", uint64(math.MaxUint64))
			return err
		})

		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := keep(f, c, "last")
			return err
		})
		require.ErrorIs(t, err, engine.ErrOverflow)
		require.Zero(t, totalSupply(t, e, c))
	})
}

func Test_MintAuthorization(t *testing.T) {
	e := newEngine(t)
	c, badgeVault := instantiateComponent(t, e)
	nftRes := componentState(t, e, c).NFTResource

	t.Run("direct mint from transaction is rejected", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.MintNonFungible(nftRes, 100, &NFTData{Name: "forged", Level: 1})
			return err
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)
	})

	t.Run("mint from other component is rejected", func(t *testing.T) {
		forger := newForger(t, e)
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallMethod(forger, "mint", nftRes, types.NonFungibleLocalID(2))
			return err
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)

		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallFunction(forgerID, "mint", nftRes, types.NonFungibleLocalID(2))
			return err
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)
	})

	t.Run("transaction can't act on behalf of the component", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallMethod(c, "anything", nftRes, types.NonFungibleLocalID(2))
			return err
		})
		require.ErrorIs(t, err, engine.ErrMethodNotFound)

		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			return f.SaveState(&State{NFTResource: nftRes, IDCounter: 2})
		})
		require.ErrorIs(t, err, engine.ErrNoActor)

		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallFunction(BlueprintID, MethodMintNFT, "forged")
			return err
		})
		require.ErrorIs(t, err, engine.ErrMethodNotFound)

		// nothing was minted, the component keeps minting in sequence
		require.Zero(t, totalSupply(t, e, c))
		require.EqualValues(t, 1, mint(t, e, c, "first"))
		require.EqualValues(t, 2, mint(t, e, c, "second"))
		require.EqualValues(t, 2, totalSupply(t, e, c))
		require.EqualValues(t, 3, componentState(t, e, c).IDCounter)
	})

	t.Run("holding the badge is not required", func(t *testing.T) {
		// the badge stays in its vault, the caller identity rule is the only check
		id := mint(t, e, c, "no badge")
		require.EqualValues(t, 3, id)
		testutils.Query(t, e, func(f *engine.Frame) error {
			amount, err := f.VaultAmount(badgeVault)
			require.NoError(t, err)
			require.Zero(t, amount.Cmp(types.NewAmount(1)))
			return nil
		})
	})

	t.Run("minter rule can't be changed", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			return f.SetMinterRule(nftRes, templates.AlwaysTrueBytes())
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)

		forger := newForger(t, e)
		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			_, err := f.CallMethod(forger, "set_minter", nftRes)
			return err
		})
		require.ErrorIs(t, err, engine.ErrUnauthorized)

		testutils.Query(t, e, func(f *engine.Frame) error {
			rules, err := f.MinterRule(nftRes)
			require.NoError(t, err)
			caller, err := templates.ExtractGlobalCaller(rules.Rule)
			require.NoError(t, err)
			require.Equal(t, c, caller)
			return nil
		})
	})

	t.Run("locked metadata can't be changed", func(t *testing.T) {
		_, err := e.Execute(context.Background(), func(f *engine.Frame) error {
			return f.SetMetadata(nftRes, "name", "renamed")
		})
		require.ErrorIs(t, err, engine.ErrMetadataLocked)

		_, err = e.Execute(context.Background(), func(f *engine.Frame) error {
			res, err := f.VaultResource(badgeVault)
			if err != nil {
				return err
			}
			return f.SetMetadata(res, "name", "renamed")
		})
		require.ErrorIs(t, err, engine.ErrMetadataLocked)
	})
}
