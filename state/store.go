/*
Package state implements the transactional key-value storage the engine
keeps ledger objects in.
*/
package state

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrTxnClosed = errors.New("transaction has been committed or discarded")
	ErrEmptyKey  = errors.New("key must not be empty")
)

type (
	Store interface {
		// NewTxn starts new transaction, writes made in the transaction
		// are not visible outside of it until Commit is called.
		NewTxn() Txn
		Close() error
	}

	Txn interface {
		// Get returns ErrNotFound when the key doesn't exist.
		Get(key []byte) ([]byte, error)
		Has(key []byte) (bool, error)
		Put(key, value []byte) error
		Delete(key []byte) error
		// Commit applies all writes of the transaction atomically.
		Commit() error
		// Discard drops the writes, calling Discard after Commit is a no-op.
		Discard()
	}
)
