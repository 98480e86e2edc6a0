/*
Package engine implements the host runtime blueprints are executed in.

Every state change happens inside a transaction started with
Engine.Execute. Transactions are executed one at a time and are atomic:
when the transaction function returns an error (or panics) none of its
writes are persisted. Only the code of registered blueprints can act on
behalf of a component, a transaction interacts with components by calling
their functions and methods.
*/
package engine

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alphabill-org/alphabill-blueprints/hash"
	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

type (
	Engine struct {
		store   state.Store
		cfg     Config
		log     *zap.Logger
		metrics *Metrics
		newTxID func() uuid.UUID

		registered []*Blueprint
		blueprints registry

		mu sync.Mutex // serializes transactions
	}

	Option func(*Engine)

	// Receipt describes the effects of a committed transaction.
	Receipt struct {
		TxID          uuid.UUID       `json:"txId"`
		IntentHash    []byte          `json:"intentHash"`
		NewComponents []types.Address `json:"newComponents"`
		NewResources  []types.Address `json:"newResources"`
		NewVaults     []types.Address `json:"newVaults"`
		Calls         int             `json:"calls"`
	}
)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithBlueprints registers the blueprints whose code the engine may execute.
func WithBlueprints(bps ...*Blueprint) Option {
	return func(e *Engine) {
		e.registered = append(e.registered, bps...)
	}
}

// WithTxIDGenerator replaces the default (random UUID) transaction id generator.
func WithTxIDGenerator(f func() uuid.UUID) Option {
	return func(e *Engine) {
		if f != nil {
			e.newTxID = f
		}
	}
}

func New(store state.Store, cfg *Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreIsNil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		store:   store,
		cfg:     *cfg,
		log:     zap.NewNop(),
		newTxID: uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	var err error
	if e.blueprints, err = newRegistry(e.registered); err != nil {
		return nil, fmt.Errorf("registering blueprints: %w", err)
	}
	return e, nil
}

/*
Execute runs "fn" as a single transaction. State changes made by "fn" are
committed when it returns nil, otherwise all of them are discarded and the
error is returned.
*/
func (e *Engine) Execute(ctx context.Context, fn func(*Frame) error) (*Receipt, error) {
	return e.run(ctx, fn, true)
}

/*
Query runs "fn" in a transaction which is always discarded, ie it can be
used to read the state.
*/
func (e *Engine) Query(ctx context.Context, fn func(*Frame) error) error {
	_, err := e.run(ctx, fn, false)
	return err
}

func (e *Engine) run(ctx context.Context, fn func(*Frame) error, commit bool) (*Receipt, error) {
	if fn == nil {
		return nil, errors.New("transaction function is nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	tx, err := e.newTransaction()
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.Stringer("tx", tx.id))

	err = tx.run(ctx, fn)
	if err == nil && commit {
		err = tx.commit(ctx)
	} else {
		tx.txn.Discard()
	}

	switch {
	case err != nil:
		e.metrics.txDone(outcomeAborted, time.Since(start))
		log.Warn("transaction aborted", zap.Error(err))
		return nil, fmt.Errorf("executing transaction %s: %w", tx.id, err)
	case !commit:
		e.metrics.txDone(outcomeQuery, time.Since(start))
		return nil, nil
	default:
		e.metrics.txDone(outcomeCommitted, time.Since(start))
		log.Debug("transaction committed",
			zap.Int("calls", tx.receipt.Calls),
			zap.Int("components", len(tx.receipt.NewComponents)),
			zap.Int("resources", len(tx.receipt.NewResources)))
		return tx.receipt, nil
	}
}

func (e *Engine) newTransaction() (*transaction, error) {
	id := e.newTxID()
	intent, err := hash.HashValues(crypto.SHA256, e.cfg.NetworkID, id[:])
	if err != nil {
		return nil, fmt.Errorf("calculating intent hash: %w", err)
	}
	return &transaction{
		id:      id,
		intent:  intent,
		txn:     e.store.NewTxn(),
		engine:  e,
		log:     e.log.With(zap.Stringer("tx", id)),
		receipt: &Receipt{TxID: id, IntentHash: intent},
	}, nil
}

type transaction struct {
	id           uuid.UUID
	intent       []byte
	txn          state.Txn
	engine       *Engine
	log          *zap.Logger
	receipt      *Receipt
	allocations  uint64
	reservations []*AddressReservation
	buckets      []*Bucket
}

func (tx *transaction) run(ctx context.Context, fn func(*Frame) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if err := fn(&Frame{tx: tx, ctx: ctx}); err != nil {
		return err
	}
	for _, r := range tx.reservations {
		if !r.used {
			return fmt.Errorf("%w: %s", ErrDanglingReservation, r.addr)
		}
	}
	for _, b := range tx.buckets {
		if !b.IsEmpty() {
			return fmt.Errorf("%w: %s units of %s", ErrDanglingBucket, b.amount, b.resource)
		}
	}
	return nil
}

func (tx *transaction) newBucket(resource types.Address, amount types.Amount, ids ...types.NonFungibleLocalID) *Bucket {
	b := &Bucket{tx: tx, resource: resource, amount: amount, ids: ids}
	tx.buckets = append(tx.buckets, b)
	return b
}

func (tx *transaction) commit(ctx context.Context) error {
	// the caller may have given up while the transaction was executing
	if err := ctx.Err(); err != nil {
		tx.txn.Discard()
		return err
	}
	if err := tx.txn.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}
