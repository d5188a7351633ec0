// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package table

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
)

// undo modes stored in the index entry value
const (
	undoDelete  = 0x00 // record did not exist before the block
	undoRestore = 0x01 // record held the attached previous value
)

// BlockIndex - per-block mutation journal for one primary table
//
// key: tag, block height descending, primary record key
// value: undo mode, previous encoded value for restore entries
//
// forward scans see the most recently mutated block first.  Only the
// first mutation of a key within a block is journalled, so the entry
// always reflects the record's state at block entry.
type BlockIndex struct {
	tag   byte
	store *storage.Store
	log   *logger.L
}

// NewBlockIndex - create the journal for one primary table
//
// the journal must live in the same physical store as the primary
// table so that undo applies both in one atomic batch
func NewBlockIndex(store *storage.Store, tag byte, log *logger.L) *BlockIndex {
	return &BlockIndex{
		tag:   tag,
		store: store,
		log:   log,
	}
}

func (ix *BlockIndex) entryKey(block uint32, primaryKey []byte) []byte {
	return codec.NewKeyWriter(ix.tag).Uint32Desc(block).Tail(primaryKey).Bytes()
}

// RecordMutation - journal a mutation of a primary record
//
// previous is the record's encoded value before the mutation, or nil
// if the record did not exist.  Repeat mutations of the same key in
// the same block are ignored: the before image of the first call is
// the state the undo must restore.
func (ix *BlockIndex) RecordMutation(block uint32, primaryKey []byte, previous []byte) {
	entry := ix.entryKey(block, primaryKey)
	if ix.store.Has(entry) {
		return
	}

	if nil == previous {
		ix.store.Put(entry, []byte{undoDelete})
		return
	}
	ix.store.Put(entry, codec.NewWriter().Byte(undoRestore).Tail(previous).Bytes())
}

// UndoAbove - roll every journalled block above a height back
//
// applies in descending block order so that a value restored for a
// later block cannot clobber the earlier block's restoration.  The
// journal entries and the primary record changes of each block go
// into a single atomic batch.  Returns the number of records undone.
func (ix *BlockIndex) UndoAbove(height uint32) int {
	batch := storage.NewBatch()
	n := 0

	cursor := ix.store.NewCursor([]byte{ix.tag})
	defer cursor.Release()

	for ; cursor.Valid(); cursor.Next() {
		r := codec.NewKeyReader(ix.tag, cursor.Key())
		block := r.Uint32Desc()
		primaryKey := r.Tail()
		if nil != r.Done() {
			logger.Panicf("block index %q: corrupt journal key: %x", ix.tag, cursor.Key())
		}

		// descending order: first block at or below the target
		// height ends the undo range
		if block <= height {
			break
		}

		value := cursor.Value()
		if 0 == len(value) {
			logger.Panicf("block index %q: empty journal entry: %x", ix.tag, cursor.Key())
		}
		switch value[0] {
		case undoDelete:
			batch.Delete(primaryKey)
		case undoRestore:
			batch.Put(primaryKey, value[1:])
		default:
			logger.Panicf("block index %q: invalid undo mode: %d", ix.tag, value[0])
		}
		batch.Delete(cursor.Key())
		n += 1
	}

	ix.store.WriteBatch(batch)
	if n > 0 {
		ix.log.Infof("undo above %d: %d records", height, n)
	}
	return n
}
