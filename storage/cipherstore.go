// Package storage persists key artifacts as files and ciphertexts in LevelDB.
package storage

import (
	"crypto/rand"
	"os"
	"strings"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// minCache is the minimum amount of memory in megabytes
	// to allocate to leveldb.
	minCache = 16

	// minHandles is the minimum number of files handles to
	// allocate to the open database files.
	minHandles = 32

	Prefix = "ct:"
)

var NotFound = leveldb.ErrNotFound

// CipherStore is the append-only ciphertext collection of the storage service.
type CipherStore struct {
	fn string
	db *leveldb.DB
	l  *sync.RWMutex
}

func NewCipherStore(fpath string, memory int, handles int) (*CipherStore, error) {
	_, err := os.Stat(fpath)
	if err != nil {
		err = os.MkdirAll(fpath, DirMode)
		if err != nil {
			return nil, err
		}
	}
	options := configureOptions(memory, handles)
	db, err := leveldb.OpenFile(fpath, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(fpath, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open ciphertext store %s", fpath)
	}
	return &CipherStore{
		fn: fpath,
		db: db,
		l:  new(sync.RWMutex),
	}, nil
}

func configureOptions(cache int, handles int) *opt.Options {
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	options.OpenFilesCacheCapacity = handles
	options.BlockCacheCapacity = cache / 2 * opt.MiB
	options.WriteBuffer = cache / 4 * opt.MiB
	return options
}

func (s *CipherStore) Close() error {
	s.l.Lock()
	defer s.l.Unlock()
	return s.db.Close()
}

func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}

// Put appends a serialized ciphertext and returns its id.
func (s *CipherStore) Put(ct []byte) (string, error) {
	id, err := newID()
	if err != nil {
		return "", errors.Wrap(err, "ciphertext id")
	}
	s.l.Lock()
	defer s.l.Unlock()
	if err := s.db.Put([]byte(Prefix+id), ct, nil); err != nil {
		return "", errors.Wrap(err, "put ciphertext")
	}
	return id, nil
}

func (s *CipherStore) Get(id string) ([]byte, error) {
	s.l.RLock()
	defer s.l.RUnlock()
	return s.db.Get([]byte(Prefix+id), nil)
}

// List returns every stored id.
func (s *CipherStore) List() ([]string, error) {
	var result = make([]string, 0)
	s.l.RLock()
	defer s.l.RUnlock()
	iter := s.db.NewIterator(util.BytesPrefix([]byte(Prefix)), nil)
	for iter.Next() {
		result = append(result, strings.TrimPrefix(string(iter.Key()), Prefix))
	}
	iter.Release()
	return result, iter.Error()
}

// Each calls fn on every stored ciphertext, stopping at the first error fn returns.
func (s *CipherStore) Each(fn func(id string, ct []byte) error) error {
	s.l.RLock()
	defer s.l.RUnlock()
	iter := s.db.NewIterator(util.BytesPrefix([]byte(Prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		// iterator buffers are reused
		ct := append([]byte(nil), iter.Value()...)
		if err := fn(strings.TrimPrefix(string(iter.Key()), Prefix), ct); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Items loads every stored ciphertext keyed by id.
func (s *CipherStore) Items() (map[string][]byte, error) {
	items := make(map[string][]byte)
	err := s.Each(func(id string, ct []byte) error {
		items[id] = ct
		return nil
	})
	return items, err
}

func (s *CipherStore) Len() (int, error) {
	n := 0
	err := s.Each(func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Clear deletes every stored ciphertext and returns how many were removed.
func (s *CipherStore) Clear() (int, error) {
	s.l.Lock()
	defer s.l.Unlock()
	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(Prefix)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return 0, err
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, errors.Wrap(err, "clear ciphertexts")
	}
	return batch.Len(), nil
}
