package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type LevelDB struct {
	db *leveldb.DB
	wo *opt.WriteOptions
}

/*
OpenLevelDB opens (creates when it doesn't exist) LevelDB database in the
directory "path". When "sync" is true every commit is flushed to disk
before returning.
*/
func OpenLevelDB(path string, sync bool) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb %q: %w", path, err)
	}
	return &LevelDB{db: db, wo: &opt.WriteOptions{Sync: sync}}, nil
}

// NewMemoryLevelDB returns LevelDB store which keeps data in memory only.
func NewMemoryLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory leveldb: %w", err)
	}
	return &LevelDB{db: db, wo: &opt.WriteOptions{}}, nil
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}

func (s *LevelDB) NewTxn() Txn {
	return &levelTxn{s: s, writes: make(map[string]write)}
}

func (s *LevelDB) get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

type write struct {
	value   []byte
	deleted bool
}

/*
levelTxn buffers writes in memory and applies them as single leveldb batch
on commit. It does not detect conflicts with other transactions, the caller
must serialize transactions.
*/
type levelTxn struct {
	s      *LevelDB
	writes map[string]write
	closed bool
}

func (tx *levelTxn) Get(key []byte) ([]byte, error) {
	if tx.closed {
		return nil, ErrTxnClosed
	}
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if w, ok := tx.writes[string(key)]; ok {
		if w.deleted {
			return nil, ErrNotFound
		}
		return bytes.Clone(w.value), nil
	}
	return tx.s.get(key)
}

func (tx *levelTxn) Has(key []byte) (bool, error) {
	_, err := tx.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (tx *levelTxn) Put(key, value []byte) error {
	if tx.closed {
		return ErrTxnClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	tx.writes[string(key)] = write{value: bytes.Clone(value)}
	return nil
}

func (tx *levelTxn) Delete(key []byte) error {
	if tx.closed {
		return ErrTxnClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	tx.writes[string(key)] = write{deleted: true}
	return nil
}

func (tx *levelTxn) Commit() error {
	if tx.closed {
		return ErrTxnClosed
	}
	tx.closed = true

	batch := new(leveldb.Batch)
	for k, w := range tx.writes {
		if w.deleted {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), w.value)
		}
	}
	tx.writes = nil
	if err := tx.s.db.Write(batch, tx.s.wo); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	return nil
}

func (tx *levelTxn) Discard() {
	tx.closed = true
	tx.writes = nil
}
