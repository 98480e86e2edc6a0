package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alphabill-org/alphabill-blueprints/engine"
	"github.com/alphabill-org/alphabill-blueprints/state"
)

/*
NewEngine returns engine backed by in-memory store, logging into the test log.
*/
func NewEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	store, err := state.NewMemoryLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	opts = append([]engine.Option{engine.WithLogger(zaptest.NewLogger(t))}, opts...)
	e, err := engine.New(store, engine.DefaultConfig(), opts...)
	require.NoError(t, err)
	return e
}

// Execute runs "fn" as a transaction and fails the test when it returns an error.
func Execute(t *testing.T, e *engine.Engine, fn func(*engine.Frame) error) *engine.Receipt {
	t.Helper()
	rcpt, err := e.Execute(context.Background(), fn)
	require.NoError(t, err)
	require.NotNil(t, rcpt)
	return rcpt
}

// Query runs "fn" as a read-only transaction and fails the test when it returns an error.
func Query(t *testing.T, e *engine.Engine, fn func(*engine.Frame) error) {
	t.Helper()
	require.NoError(t, e.Query(context.Background(), fn))
}
