// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

// table tags in the property database
const (
	entryTag   = 'p' // (property) -> entry
	byTxTag    = 't' // (creation txid) -> property
	counterTag = 'n' // () -> next property id
	journalTag = 'x' // before image log
)

// Entry - metadata of one property
//
// string fields are bounded at 255 bytes by the value encoding
type Entry struct {
	Name        string
	Category    string
	URL         string
	Data        string
	Issuer      string
	CreationTx  string
	TotalSupply int64
	NonFungible bool
	Created     uint32 // block that created the property
	Updated     uint32 // block of the latest change
}

var entrySchema = table.Schema[uint32, Entry]{
	Name: "property",
	Tag:  entryTag,
	EncodeKey: func(property uint32) []byte {
		return codec.NewKeyWriter(entryTag).Uint32(property).Bytes()
	},
	DecodeKey: func(data []byte) (uint32, error) {
		r := codec.NewKeyReader(entryTag, data)
		property := r.Uint32()
		return property, r.Done()
	},
	EncodeValue: func(e Entry) []byte {
		flags := byte(0)
		if e.NonFungible {
			flags = 0x01
		}
		return codec.NewWriter().
			String(e.Name).
			String(e.Category).
			String(e.URL).
			String(e.Data).
			String(e.Issuer).
			String(e.CreationTx).
			Amount(e.TotalSupply).
			Byte(flags).
			Uint32(e.Created).
			Uint32(e.Updated).
			Bytes()
	},
	DecodeValue: func(data []byte) (Entry, error) {
		r := codec.NewReader(data)
		e := Entry{
			Name:       r.String(),
			Category:   r.String(),
			URL:        r.String(),
			Data:       r.String(),
			Issuer:     r.String(),
			CreationTx: r.String(),
		}
		e.TotalSupply = r.Amount()
		e.NonFungible = 0 != r.Byte()&0x01
		e.Created = r.Uint32()
		e.Updated = r.Uint32()
		return e, r.Done()
	},
}

var byTxSchema = table.Schema[string, uint32]{
	Name: "property-by-tx",
	Tag:  byTxTag,
	EncodeKey: func(txid string) []byte {
		return codec.NewKeyWriter(byTxTag).Tail([]byte(txid)).Bytes()
	},
	DecodeKey: func(data []byte) (string, error) {
		r := codec.NewKeyReader(byTxTag, data)
		txid := string(r.Tail())
		return txid, r.Done()
	},
	EncodeValue: func(property uint32) []byte {
		return codec.NewWriter().Uint32(property).Bytes()
	},
	DecodeValue: func(data []byte) (uint32, error) {
		r := codec.NewReader(data)
		property := r.Uint32()
		return property, r.Done()
	},
}

// Registry - property metadata store
//
// callers serialise mutating access
type Registry struct {
	log     *logger.L
	store   *storage.Store
	entries *table.Table[uint32, Entry]
	byTx    *table.Table[string, uint32]
	journal *table.BlockIndex

	// notified when a property's total supply changes
	supplyChanged func(property uint32)
}

// New - bind the registry to its database
func New(store *storage.Store) *Registry {
	log := logger.New("property")
	return &Registry{
		log:     log,
		store:   store,
		entries: table.New(store, entrySchema),
		byTx:    table.New(store, byTxSchema),
		journal: table.NewBlockIndex(store, journalTag, log),
	}
}

// OnSupplyChange - register the supply change observer
func (r *Registry) OnSupplyChange(observer func(property uint32)) {
	r.supplyChanged = observer
}

func (r *Registry) notifySupplyChange(property uint32) {
	if nil != r.supplyChanged {
		r.supplyChanged(property)
	}
}

func (r *Registry) counterKey() []byte {
	return codec.NewKeyWriter(counterTag).Bytes()
}

// NextID - id the next created property will receive
func (r *Registry) NextID() uint32 {
	data, found := r.store.Get(r.counterKey())
	if !found {
		return 1
	}
	reader := codec.NewReader(data)
	next := reader.Uint32()
	if nil != reader.Done() {
		logger.Panicf("property: corrupt id counter: %x", data)
	}
	return next
}

// Create - register a new property at a block, returning its id
//
// the id counter is journalled alongside the entry, so a rewind
// releases the ids of undone creations
func (r *Registry) Create(block uint32, entry Entry) uint32 {
	id := r.NextID()
	entry.Created = block
	entry.Updated = block

	previousCounter, _ := r.store.Get(r.counterKey())
	r.journal.RecordMutation(block, r.counterKey(), previousCounter)
	r.journal.RecordMutation(block, r.entries.KeyBytes(id), nil)
	r.journal.RecordMutation(block, r.byTx.KeyBytes(entry.CreationTx), nil)

	batch := storage.NewBatch()
	r.entries.PutBatch(batch, id, entry)
	r.byTx.PutBatch(batch, entry.CreationTx, id)
	batch.Put(r.counterKey(), codec.NewWriter().Uint32(id+1).Bytes())
	r.store.WriteBatch(batch)

	r.log.Infof("created property %d (%q) at block %d", id, entry.Name, block)
	r.notifySupplyChange(id)
	return id
}

// Update - replace a property's entry at a block
//
// the previous encoded entry goes into the journal; returns false
// when the property does not exist
func (r *Registry) Update(block uint32, property uint32, entry Entry) bool {
	key := r.entries.KeyBytes(property)
	previous, exists := r.store.Get(key)
	if !exists {
		return false
	}

	old, err := entrySchema.DecodeValue(previous)
	if nil != err {
		logger.Panicf("property %d entry unreadable: %s", property, err)
	}
	entry.Created = old.Created
	entry.Updated = block

	r.journal.RecordMutation(block, key, previous)
	r.entries.Put(property, entry)

	if old.TotalSupply != entry.TotalSupply {
		r.notifySupplyChange(property)
	}
	return true
}

// Get - entry of one property
func (r *Registry) Get(property uint32) (Entry, bool) {
	entry, found, err := r.entries.Get(property)
	if nil != err {
		logger.Panicf("property %d entry unreadable: %s", property, err)
	}
	return entry, found
}

// ByCreationTx - property created by a transaction
func (r *Registry) ByCreationTx(txid string) (uint32, bool) {
	property, found, err := r.byTx.Get(txid)
	if nil != err {
		logger.Panicf("property tx lookup %q unreadable: %s", txid, err)
	}
	return property, found
}

// TotalSupply - supply of one property, zero if unknown
func (r *Registry) TotalSupply(property uint32) int64 {
	entry, found := r.Get(property)
	if !found {
		return 0
	}
	return entry.TotalSupply
}

// List - every registered property id in ascending order
func (r *Registry) List() []uint32 {
	scan := r.entries.ScanAll()
	defer scan.Release()

	ids := []uint32(nil)
	for ; scan.Valid(); scan.Next() {
		key, err := scan.KeyChecked()
		if nil != err {
			logger.Panicf("property: corrupt entry key: %x: %s", scan.RawKey(), err)
		}
		ids = append(ids, key)
	}
	return ids
}

// RollBackAbove - undo every registry change above a height
func (r *Registry) RollBackAbove(height uint32) int {
	return r.journal.UndoAbove(height)
}
