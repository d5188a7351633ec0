// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/fault"
)

// tag 0x00 is reserved for store metadata
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

// write options for the synchronous write path
var syncWrite = &ldb_opt.WriteOptions{
	Sync: true,
}

// Store - one physical ordered key-value store
type Store struct {
	log      *logger.L
	db       *leveldb.DB
	path     string
	nRead    uint64
	nWritten uint64
}

// Open - open or create a store
//
// the persisted format version is checked: an empty store is tagged
// with the current version; an older version is wiped and the second
// return value is true, telling the caller that the derived state
// must be rebuilt from the primary chain; a newer version is refused
func Open(name string, path string, version uint32) (*Store, bool, error) {
	log := logger.New(name)

	db, dbVersion, err := openDB(path)
	if nil != err {
		return nil, false, err
	}

	mustRebuild := false

	switch {
	case dbVersion > version:
		log.Criticalf("database version: %d > current version: %d", dbVersion, version)
		db.Close()
		return nil, false, fault.ErrDatabaseVersionTooNew

	case 0 == dbVersion:
		// database was empty so tag as current version
		err = putVersion(db, version)
		if nil != err {
			db.Close()
			return nil, false, err
		}

	case dbVersion < version:
		log.Criticalf("database version: %d < current version: %d  wiping: %s", dbVersion, version, path)
		mustRebuild = true

		db.Close()
		err = os.RemoveAll(path)
		if nil != err {
			return nil, false, err
		}

		db, _, err = openDB(path)
		if nil != err {
			return nil, false, err
		}
		err = putVersion(db, version)
		if nil != err {
			db.Close()
			return nil, false, err
		}
	}

	s := &Store{
		log:  log,
		db:   db,
		path: path,
	}
	return s, mustRebuild, nil
}

// Close - close the underlying database
func (s *Store) Close() {
	if nil == s.db {
		return
	}
	s.log.Infof("read: %d  written: %d", s.nRead, s.nWritten)
	s.db.Close()
	s.db = nil
}

// Get - read the value for a key
//
// returns false if the key is absent; absence is an ordinary result,
// not an error
func (s *Store) Get(key []byte) ([]byte, bool) {
	value, err := s.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, false
	}
	logger.PanicIfError("storage.Get", err)
	s.nRead += 1
	return value, true
}

// Has - check if a key exists
func (s *Store) Has(key []byte) bool {
	found, err := s.db.Has(key, nil)
	logger.PanicIfError("storage.Has", err)
	return found
}

// Put - store a single key/value pair, synchronously
func (s *Store) Put(key []byte, value []byte) {
	err := s.db.Put(key, value, syncWrite)
	logger.PanicIfError("storage.Put", err)
	s.nWritten += 1
}

// Delete - remove a single key, synchronously
func (s *Store) Delete(key []byte) {
	err := s.db.Delete(key, syncWrite)
	logger.PanicIfError("storage.Delete", err)
	s.nWritten += 1
}

// Batch - a set of put/delete operations applied all-or-nothing
type Batch struct {
	batch leveldb.Batch
	count int
}

// NewBatch - create an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// Put - stage a write
func (b *Batch) Put(key []byte, value []byte) {
	b.batch.Put(key, value)
	b.count += 1
}

// Delete - stage a delete
func (b *Batch) Delete(key []byte) {
	b.batch.Delete(key)
	b.count += 1
}

// Count - number of staged operations
func (b *Batch) Count() int {
	return b.count
}

// WriteBatch - apply a batch, synchronously
//
// either every operation becomes visible or, on a crash before the
// write completes, none of them do
func (s *Store) WriteBatch(b *Batch) {
	if 0 == b.count {
		return
	}
	err := s.db.Write(&b.batch, syncWrite)
	logger.PanicIfError("storage.WriteBatch", err)
	s.nWritten += uint64(b.count)
}

// Clear - delete every record, preserving only the version tag
//
// used when a full resync from the primary chain is forced
func (s *Store) Clear() {
	iter := s.db.NewIterator(nil, nil)
	batch := NewBatch()
	for iter.Next() {
		key := iter.Key()
		if 0 != len(key) && 0x00 == key[0] {
			continue
		}
		keyCopy := make([]byte, len(key))
		copy(keyCopy, key)
		batch.Delete(keyCopy)
	}
	iter.Release()
	logger.PanicIfError("storage.Clear", iter.Error())

	s.log.Warnf("clearing %d records", batch.Count())
	s.WriteBatch(batch)
}

// open a database and fetch its version record
func openDB(path string) (*leveldb.DB, uint32, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(path, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fault.ErrVersionRecordCorrupted
	}

	return db, binary.BigEndian.Uint32(versionValue), nil
}

func putVersion(db *leveldb.DB, version uint32) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, version)

	return db.Put(versionKey, currentVersion, syncWrite)
}
