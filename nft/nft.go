// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nft

import (
	"math"

	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

// table tags in the token database
const (
	rangeTag   = 'n' // (property, class, start, end) -> value
	journalTag = 'b' // before image log, one entry per key per block
)

// StorageClass - independent range spaces of one property
type StorageClass byte

const (
	RangeIndex StorageClass = 0x01 // value is the owning address
	GrantData  StorageClass = 0x02 // value is grant provenance
	IssuerData StorageClass = 0x03 // value is issuer attached data
	HolderData StorageClass = 0x04 // value is holder attached data
)

// Range - one contiguous span of token ids
type Range struct {
	Start int64
	End   int64
}

// RangeValue - a stored range and its value
type RangeValue struct {
	Start int64
	End   int64
	Value string
}

type rangeKey struct {
	property uint32
	class    StorageClass
	start    int64
	end      int64
}

// token ids are positive, so the ascending non-negative encoding
// orders ranges by start within one (property, class)
var rangeSchema = table.Schema[rangeKey, string]{
	Name: "nft-range",
	Tag:  rangeTag,
	EncodeKey: func(k rangeKey) []byte {
		return codec.NewKeyWriter(rangeTag).
			Uint32(k.property).
			Byte(byte(k.class)).
			Int64(k.start).
			Int64(k.end).
			Bytes()
	},
	DecodeKey: func(data []byte) (rangeKey, error) {
		r := codec.NewKeyReader(rangeTag, data)
		k := rangeKey{
			property: r.Uint32(),
			class:    StorageClass(r.Byte()),
			start:    r.Int64(),
			end:      r.Int64(),
		}
		return k, r.Done()
	},
	EncodeValue: func(v string) []byte {
		return []byte(v)
	},
	DecodeValue: func(data []byte) (string, error) {
		return string(data), nil
	},
}

// DB - range allocator for all non-fungible properties of one chain
//
// callers serialise mutating access; the allocator holds no lock
type DB struct {
	log     *logger.L
	store   *storage.Store
	ranges  *table.Table[rangeKey, string]
	journal *table.BlockIndex
	supply  func(property uint32) int64
	block   uint32
}

// New - bind the allocator to its database and supply source
//
// supply reports the externally tracked total token count of a
// property, checked against the stored ranges after every block
func New(store *storage.Store, supply func(property uint32) int64) *DB {
	log := logger.New("nft")
	return &DB{
		log:     log,
		store:   store,
		ranges:  table.New(store, rangeSchema),
		journal: table.NewBlockIndex(store, journalTag, log),
		supply:  supply,
	}
}

// BeginBlock - route subsequent before images to a block height
func (db *DB) BeginBlock(height uint32) {
	db.block = height
}

// EndBlock - finish a block, optionally verifying range integrity
func (db *DB) EndBlock(sanityCheck bool) {
	if sanityCheck {
		db.SanityCheck()
	}
}

func (db *DB) classPrefix(property uint32, class StorageClass) []byte {
	return codec.NewKeyWriter(rangeTag).Uint32(property).Byte(byte(class)).Bytes()
}

// a corrupt range key cannot be skipped: a missed range silently
// breaks the disjointness reasoning of every mutation
func (db *DB) scanKey(scan *table.Scan[rangeKey, string]) rangeKey {
	key, err := scan.KeyChecked()
	if nil != err {
		logger.Panicf("nft: corrupt range key: %x: %s", scan.RawKey(), err)
	}
	return key
}

// addRange - store one range, journalling the key's before image
func (db *DB) addRange(property uint32, start int64, end int64, value string, class StorageClass) {
	key := rangeKey{property: property, class: class, start: start, end: end}
	encoded := db.ranges.KeyBytes(key)

	previous, exists := db.store.Get(encoded)
	if !exists {
		previous = nil
	}
	db.journal.RecordMutation(db.block, encoded, previous)
	db.ranges.Put(key, value)
}

// deleteRange - remove one range, journalling the key's before image
func (db *DB) deleteRange(property uint32, start int64, end int64, class StorageClass) {
	key := rangeKey{property: property, class: class, start: start, end: end}
	encoded := db.ranges.KeyBytes(key)

	previous, exists := db.store.Get(encoded)
	if !exists {
		return
	}
	db.journal.RecordMutation(db.block, encoded, previous)
	db.ranges.Delete(key)
}

// GetRange - the stored range containing a token id
func (db *DB) GetRange(property uint32, class StorageClass, tokenId int64) (Range, bool) {
	scan := db.ranges.Scan(db.classPrefix(property, class))
	defer scan.Release()

	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if key.start > tokenId {
			break // ranges are start ordered, no later range can contain it
		}
		if tokenId <= key.end {
			return Range{Start: key.start, End: key.end}, true
		}
	}
	return Range{}, false
}

// TokenValue - the value stored for a single token id
func (db *DB) TokenValue(property uint32, class StorageClass, tokenId int64) (string, bool) {
	scan := db.ranges.Scan(db.classPrefix(property, class))
	defer scan.Release()

	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if key.start > tokenId {
			break
		}
		if tokenId <= key.end {
			return scan.Value(), true
		}
	}
	return "", false
}

// OwnerOfRange - single owner of a whole span, if contiguously owned
//
// the span qualifies only if one stored ownership range covers all of
// it, which is the contiguity requirement for moves
func (db *DB) OwnerOfRange(property uint32, start int64, end int64) (string, bool) {
	scan := db.ranges.Scan(db.classPrefix(property, RangeIndex))
	defer scan.Release()

	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if key.start > start {
			break
		}
		if start >= key.start && end <= key.end {
			return scan.Value(), true
		}
	}
	return "", false
}

// HighestRangeEnd - the largest allocated token id of a property
//
// equals the total number of tokens ever created, since ids are
// allocated consecutively and never reused
func (db *DB) HighestRangeEnd(property uint32) int64 {
	highest := int64(0)

	scan := db.ranges.Scan(db.classPrefix(property, RangeIndex))
	defer scan.Release()

	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if key.end > highest {
			highest = key.end
		}
	}
	return highest
}

// Create - allocate amount new tokens to an owner
//
// ids continue from the property's highest existing range end,
// clamped at the integer maximum.  The grant record keeps the
// provenance of the new span; the ownership range merges backward
// when the owner already holds the immediately preceding range.
// Returns the newly created span.
func (db *DB) Create(property uint32, amount int64, owner string, grantInfo string) (Range, bool) {
	if amount <= 0 {
		return Range{}, false
	}

	highest := db.HighestRangeEnd(property)
	start := highest + 1
	end := int64(math.MaxInt64)
	if highest <= math.MaxInt64-amount {
		end = highest + amount
	}

	db.addRange(property, start, end, grantInfo, GrantData)

	ownedStart := start
	if previousOwner, ok := db.TokenValue(property, RangeIndex, highest); ok && previousOwner == owner {
		previous, _ := db.GetRange(property, RangeIndex, highest)
		db.deleteRange(property, previous.Start, previous.End, RangeIndex)
		ownedStart = previous.Start
	}
	db.addRange(property, ownedStart, end, owner, RangeIndex)

	db.log.Debugf("create: property: %d  tokens: [%d, %d]  owner: %s", property, start, end, owner)
	return Range{Start: start, End: end}, true
}

// Move - transfer a span of tokens between owners
//
// the whole [start, end] span must be contiguously owned by from;
// returns false otherwise.  The enclosing range is split at the
// uncovered boundaries and the moved span merges with any adjacent
// ranges already owned by to.
func (db *DB) Move(property uint32, start int64, end int64, from string, to string) bool {
	owner, ok := db.OwnerOfRange(property, start, end)
	if !ok || owner != from {
		return false
	}

	enclosing, _ := db.GetRange(property, RangeIndex, start)

	mergeBefore := false
	mergeAfter := false
	if before, ok := db.TokenValue(property, RangeIndex, start-1); ok && before == to {
		mergeBefore = true
	}
	if after, ok := db.TokenValue(property, RangeIndex, end+1); ok && after == to {
		mergeAfter = true
	}

	// split the sender's enclosing range at the uncovered boundaries
	db.deleteRange(property, enclosing.Start, enclosing.End, RangeIndex)
	if enclosing.Start < start {
		db.addRange(property, enclosing.Start, start-1, from, RangeIndex)
	}
	if enclosing.End > end {
		db.addRange(property, end+1, enclosing.End, from, RangeIndex)
	}

	// absorb the receiver's adjacent ranges
	newStart := start
	newEnd := end
	if mergeBefore {
		adjacent, _ := db.GetRange(property, RangeIndex, start-1)
		db.deleteRange(property, adjacent.Start, adjacent.End, RangeIndex)
		newStart = adjacent.Start
	}
	if mergeAfter {
		adjacent, _ := db.GetRange(property, RangeIndex, end+1)
		db.deleteRange(property, adjacent.Start, adjacent.End, RangeIndex)
		newEnd = adjacent.End
	}
	db.addRange(property, newStart, newEnd, to, RangeIndex)

	db.log.Debugf("move: property: %d  tokens: [%d, %d]  %s -> %s", property, start, end, from, to)
	return true
}

// SetData - attach data to a span of tokens in a metadata class
//
// partially overlapped existing ranges keep their data outside the
// span; adjacent ranges carrying the same data are absorbed so that
// equal valued neighbours never remain split
func (db *DB) SetData(property uint32, start int64, end int64, data string, class StorageClass) {
	// collect every stored range overlapping the span
	overlapped := []rangeKey(nil)
	scan := db.ranges.Scan(db.classPrefix(property, class))
	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if key.start > end {
			break
		}
		if key.end >= start {
			overlapped = append(overlapped, key)
		}
	}
	scan.Release()

	if len(overlapped) > 0 {
		first := overlapped[0]
		last := overlapped[len(overlapped)-1]
		beforeData, _ := db.TokenValue(property, class, first.start)
		afterData, _ := db.TokenValue(property, class, last.start)

		for _, key := range overlapped {
			db.deleteRange(property, key.start, key.end, class)
		}
		if first.start < start {
			db.addRange(property, first.start, start-1, beforeData, class)
		}
		if last.end > end {
			db.addRange(property, end+1, last.end, afterData, class)
		}
	}

	// merge with equal valued neighbours
	newStart := start
	newEnd := end
	if before, ok := db.TokenValue(property, class, start-1); ok && before == data {
		adjacent, _ := db.GetRange(property, class, start-1)
		db.deleteRange(property, adjacent.Start, adjacent.End, class)
		newStart = adjacent.Start
	}
	if after, ok := db.TokenValue(property, class, end+1); ok && after == data {
		adjacent, _ := db.GetRange(property, class, end+1)
		db.deleteRange(property, adjacent.Start, adjacent.End, class)
		newEnd = adjacent.End
	}
	db.addRange(property, newStart, newEnd, data, class)
}

// AddressRanges - ownership ranges of one address
//
// property 0 selects all properties; the result maps property id to
// the address's spans in ascending order
func (db *DB) AddressRanges(property uint32, address string) map[uint32][]Range {
	prefix := []byte{rangeTag}
	if 0 != property {
		prefix = db.classPrefix(property, RangeIndex)
	}

	scan := db.ranges.Scan(prefix)
	defer scan.Release()

	result := make(map[uint32][]Range)
	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if RangeIndex != key.class {
			continue
		}
		if scan.Value() != address {
			continue
		}
		result[key.property] = append(result[key.property], Range{Start: key.start, End: key.end})
	}
	return result
}

// PropertyRanges - all ownership ranges of a property, ascending
func (db *DB) PropertyRanges(property uint32) []RangeValue {
	scan := db.ranges.Scan(db.classPrefix(property, RangeIndex))
	defer scan.Release()

	result := []RangeValue(nil)
	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		result = append(result, RangeValue{
			Start: key.start,
			End:   key.end,
			Value: scan.Value(),
		})
	}
	return result
}

// RollBackAbove - restore every before image logged above a height
func (db *DB) RollBackAbove(height uint32) int {
	return db.journal.UndoAbove(height)
}

// SanityCheck - verify stored ranges against total token supplies
//
// the highest ownership range end of every property must equal the
// externally tracked supply; divergence means ranges were silently
// corrupted and must not leak into further blocks
func (db *DB) SanityCheck() {
	totals := make(map[uint32]int64)

	scan := db.ranges.ScanAll()
	for ; scan.Valid(); scan.Next() {
		key := db.scanKey(scan)
		if RangeIndex != key.class {
			continue
		}
		if key.end > totals[key.property] {
			totals[key.property] = key.end
		}
	}
	scan.Release()

	for property, highest := range totals {
		expected := db.supply(property)
		if expected != highest {
			logger.Panicf("nft sanity check failed: property: %d  supply: %d  highest range end: %d",
				property, expected, highest)
		}
	}
}
