package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

func Test_Metrics(t *testing.T) {
	t.Run("nil metrics", func(t *testing.T) {
		var m *Metrics
		require.NotPanics(t, func() {
			m.txDone(outcomeCommitted, 0)
			m.call("a", "b")
		})
	})

	t.Run("duplicate registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewMetrics(reg)
		require.NoError(t, err)
		_, err = NewMetrics(reg)
		require.ErrorContains(t, err, `registering metrics:`)
	})

	t.Run("transactions and calls", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m, err := NewMetrics(reg)
		require.NoError(t, err)

		store, err := state.NewMemoryLevelDB()
		require.NoError(t, err)
		defer store.Close()
		bp := &Blueprint{
			ID: types.BlueprintID{Package: "test", Blueprint: "Test"},
			Functions: map[string]Method{
				"new": func(f *Frame, _ ...any) (any, error) { return f.Globalize(uint64(0), nil) },
			},
			Methods: map[string]Method{
				"get": func(f *Frame, _ ...any) (any, error) { return nil, nil },
			},
		}
		e, err := New(store, nil, WithMetrics(m), WithBlueprints(bp))
		require.NoError(t, err)

		var c types.Address
		_, err = e.Execute(context.Background(), func(f *Frame) (err error) {
			c, err = Returns[types.Address](f.CallFunction(bp.ID, "new"))
			return err
		})
		require.NoError(t, err)

		call := func(f *Frame) error {
			_, err := f.CallMethod(c, "get")
			return err
		}
		require.NoError(t, e.Query(context.Background(), call))
		require.NoError(t, e.Query(context.Background(), call))
		_, err = e.Execute(context.Background(), func(f *Frame) error {
			if err := call(f); err != nil {
				return err
			}
			return errors.New("nope")
		})
		require.Error(t, err)

		// names which are not registered are never used as label values
		for _, name := range []string{"get_count", "x", "\x00"} {
			err := e.Query(context.Background(), func(f *Frame) error {
				_, err := f.CallMethod(c, name)
				return err
			})
			require.ErrorIs(t, err, ErrMethodNotFound)
		}

		require.EqualValues(t, 1, testutil.ToFloat64(m.transactions.WithLabelValues(outcomeCommitted)))
		require.EqualValues(t, 2, testutil.ToFloat64(m.transactions.WithLabelValues(outcomeQuery)))
		require.EqualValues(t, 4, testutil.ToFloat64(m.transactions.WithLabelValues(outcomeAborted)))
		require.EqualValues(t, 1, testutil.ToFloat64(m.calls.WithLabelValues("test::Test", "new")))
		require.EqualValues(t, 3, testutil.ToFloat64(m.calls.WithLabelValues("test::Test", "get")))
		require.Equal(t, 2, testutil.CollectAndCount(m.calls))
		require.Equal(t, 1, testutil.CollectAndCount(m.duration))
	})
}
