package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NonFungibleLocalID(t *testing.T) {
	require.Equal(t, "#1#", NonFungibleLocalID(1).String())
	require.Equal(t, "#18446744073709551615#", NonFungibleLocalID(1<<64-1).String())
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02}, NonFungibleLocalID(0x0102).Bytes())
}

func Test_BlueprintID(t *testing.T) {
	bp := BlueprintID{Package: "simple_counter", Blueprint: "SimpleCounter"}
	require.NoError(t, bp.IsValid())
	require.Equal(t, "simple_counter::SimpleCounter", bp.String())

	require.EqualError(t, BlueprintID{Blueprint: "X"}.IsValid(), `blueprint package name must be assigned`)
	require.EqualError(t, BlueprintID{Package: "x"}.IsValid(), `blueprint name must be assigned`)
}

func Test_NetworkID(t *testing.T) {
	require.EqualValues(t, 1, NetworkMainNet)
	require.EqualValues(t, 2, NetworkTestNet)
	require.EqualValues(t, 3, NetworkLocal)
}
