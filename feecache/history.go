// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feecache

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

// table tags in the fee history database
const (
	distributionTag = 'd' // (id desc, block desc, property) -> total, recipients
	byPropertyTag   = 'p' // (property, id) -> empty
)

// Distribution - one recorded fee payout
//
// an id is immutable once written; only a chain rewind may remove the
// most recent ids
type Distribution struct {
	ID         uint32
	Block      uint32
	Property   uint32
	Total      int64
	Recipients []Recipient
}

type distributionKey struct {
	id       uint32
	block    uint32
	property uint32
}

type distributionValue struct {
	total      int64
	recipients []Recipient
}

// descending id and block: the first record of a full scan is the
// latest distribution, which fixes the next id and bounds a rewind
var distributionSchema = table.Schema[distributionKey, distributionValue]{
	Name: "fee-distribution",
	Tag:  distributionTag,
	EncodeKey: func(k distributionKey) []byte {
		return codec.NewKeyWriter(distributionTag).
			Uint32Desc(k.id).
			Uint32Desc(k.block).
			Uint32(k.property).
			Bytes()
	},
	DecodeKey: func(data []byte) (distributionKey, error) {
		r := codec.NewKeyReader(distributionTag, data)
		k := distributionKey{
			id:       r.Uint32Desc(),
			block:    r.Uint32Desc(),
			property: r.Uint32(),
		}
		return k, r.Done()
	},
	EncodeValue: func(v distributionValue) []byte {
		w := codec.NewWriter().Amount(v.total)
		for _, recipient := range v.recipients {
			w.String(recipient.Address).Amount(recipient.Amount)
		}
		return w.Bytes()
	},
	DecodeValue: func(data []byte) (distributionValue, error) {
		r := codec.NewReader(data)
		v := distributionValue{
			total: r.Amount(),
		}
		for r.More() {
			v.recipients = append(v.recipients, Recipient{
				Address: r.String(),
				Amount:  r.Amount(),
			})
		}
		return v, r.Done()
	},
}

type byPropertyKey struct {
	property uint32
	id       uint32
}

var byPropertySchema = table.Schema[byPropertyKey, struct{}]{
	Name: "fee-distribution-by-property",
	Tag:  byPropertyTag,
	EncodeKey: func(k byPropertyKey) []byte {
		return codec.NewKeyWriter(byPropertyTag).Uint32(k.property).Uint32(k.id).Bytes()
	},
	DecodeKey: func(data []byte) (byPropertyKey, error) {
		r := codec.NewKeyReader(byPropertyTag, data)
		k := byPropertyKey{
			property: r.Uint32(),
			id:       r.Uint32(),
		}
		return k, r.Done()
	},
	EncodeValue: func(struct{}) []byte {
		return []byte{}
	},
	DecodeValue: func([]byte) (struct{}, error) {
		return struct{}{}, nil
	},
}

// History - append only record of fee distributions
type History struct {
	log           *logger.L
	store         *storage.Store
	distributions *table.Table[distributionKey, distributionValue]
	byProperty    *table.Table[byPropertyKey, struct{}]
}

// NewHistory - bind the history to its database
func NewHistory(store *storage.Store) *History {
	return &History{
		log:           logger.New("feehistory"),
		store:         store,
		distributions: table.New(store, distributionSchema),
		byProperty:    table.New(store, byPropertySchema),
	}
}

// RecordDistribution - append one distribution, returning its id
//
// ids are allocated from the latest stored record; both the record
// and its property index entry go into one atomic batch
func (h *History) RecordDistribution(property uint32, block uint32, total int64, recipients []Recipient) uint32 {
	id := uint32(1)

	scan := h.distributions.ScanAll()
	if scan.Valid() {
		id = scan.Key().id + 1
	}
	scan.Release()

	batch := storage.NewBatch()
	h.distributions.PutBatch(batch, distributionKey{
		id:       id,
		block:    block,
		property: property,
	}, distributionValue{
		total:      total,
		recipients: recipients,
	})
	h.byProperty.PutBatch(batch, byPropertyKey{property: property, id: id}, struct{}{})
	h.store.WriteBatch(batch)

	h.log.Debugf("recorded distribution %d: property: %d  block: %d  total: %d  recipients: %d",
		id, property, block, total, len(recipients))
	return id
}

// seek to the first record of one id; ids are unique so at most one
// record is under the prefix
func (h *History) find(id uint32) (Distribution, bool) {
	prefix := codec.NewKeyWriter(distributionTag).Uint32Desc(id).Bytes()

	scan := h.distributions.Scan(prefix)
	defer scan.Release()

	if !scan.Valid() {
		return Distribution{}, false
	}
	key := scan.Key()
	value, err := scan.ValueChecked()
	if nil != err {
		logger.Panicf("fee distribution %d unreadable: %s", id, err)
	}
	return Distribution{
		ID:         key.id,
		Block:      key.block,
		Property:   key.property,
		Total:      value.total,
		Recipients: value.recipients,
	}, true
}

// Distribution - full record of one distribution by id
func (h *History) Distribution(id uint32) (Distribution, bool) {
	return h.find(id)
}

// DistributionsForProperty - ids of a property's distributions, ascending
func (h *History) DistributionsForProperty(property uint32) []uint32 {
	prefix := codec.NewKeyWriter(byPropertyTag).Uint32(property).Bytes()

	scan := h.byProperty.Scan(prefix)
	defer scan.Release()

	ids := []uint32(nil)
	for ; scan.Valid(); scan.Next() {
		ids = append(ids, scan.Key().id)
	}
	return ids
}

// RollBackAbove - delete every distribution recorded above a height
//
// ids increase with block height, so a descending scan can stop at
// the first record at or below the target.  Property index entries
// are removed in the same batch.
func (h *History) RollBackAbove(height uint32) int {
	batch := storage.NewBatch()
	n := 0

	scan := h.distributions.ScanAll()
	for ; scan.Valid(); scan.Next() {
		key := scan.Key()
		if key.block <= height {
			break
		}
		batch.Delete(scan.RawKey())
		h.byProperty.DeleteBatch(batch, byPropertyKey{property: key.property, id: key.id})
		n += 1
	}
	scan.Release()

	h.store.WriteBatch(batch)
	if n > 0 {
		h.log.Infof("rolled back %d distributions above block %d", n, height)
	}
	return n
}
