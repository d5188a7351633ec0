// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feecache

import (
	"math"

	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

// table tags in the fee cache database
const (
	cacheTag     = 'c' // (property, block desc) -> cached amount
	thresholdTag = 'd' // (property) -> distribution threshold
)

// one distribution threshold unit per this many tokens of supply
const distributionDivisor = 100000

// DistributionPurpose - receiver selection purpose passed to the tally
const DistributionPurpose = "fee-distribution"

// Recipient - one pro rata share of a distribution
type Recipient struct {
	Address string
	Amount  int64
}

// Tally - balance book collaborator
//
// the engine decides when and how much to distribute, the tally
// supplies the holder shares and applies the credits
type Tally interface {
	Credit(address string, property uint32, amount int64)
	TotalSupply(property uint32) int64
	Receivers(purpose string, property uint32, amount int64) []Recipient
}

// CacheEntry - one stored fee cache snapshot
type CacheEntry struct {
	Block  uint32
	Amount int64
}

type cacheKey struct {
	property uint32
	block    uint32
}

// descending block: a forward scan of one property sees the most
// recent snapshot first
var cacheSchema = table.Schema[cacheKey, int64]{
	Name: "fee-cache",
	Tag:  cacheTag,
	EncodeKey: func(k cacheKey) []byte {
		return codec.NewKeyWriter(cacheTag).Uint32(k.property).Uint32Desc(k.block).Bytes()
	},
	DecodeKey: func(data []byte) (cacheKey, error) {
		r := codec.NewKeyReader(cacheTag, data)
		k := cacheKey{
			property: r.Uint32(),
			block:    r.Uint32Desc(),
		}
		return k, r.Done()
	},
	EncodeValue: func(amount int64) []byte {
		return codec.NewWriter().Amount(amount).Bytes()
	},
	DecodeValue: func(data []byte) (int64, error) {
		r := codec.NewReader(data)
		amount := r.Amount()
		return amount, r.Done()
	},
}

var thresholdSchema = table.Schema[uint32, int64]{
	Name: "fee-threshold",
	Tag:  thresholdTag,
	EncodeKey: func(property uint32) []byte {
		return codec.NewKeyWriter(thresholdTag).Uint32(property).Bytes()
	},
	DecodeKey: func(data []byte) (uint32, error) {
		r := codec.NewKeyReader(thresholdTag, data)
		property := r.Uint32()
		return property, r.Done()
	},
	EncodeValue: func(threshold int64) []byte {
		return codec.NewWriter().Amount(threshold).Bytes()
	},
	DecodeValue: func(data []byte) (int64, error) {
		r := codec.NewReader(data)
		threshold := r.Amount()
		return threshold, r.Done()
	},
}

// Cache - threshold triggered fee accumulator for one chain
type Cache struct {
	log        *logger.L
	store      *storage.Store
	amounts    *table.Table[cacheKey, int64]
	thresholds *table.Table[uint32, int64]
	history    *History
	tally      Tally
}

// NewCache - bind the engine to its database, history and tally
//
// callers serialise mutating access; the engine itself holds no lock
func NewCache(store *storage.Store, history *History, tally Tally) *Cache {
	return &Cache{
		log:        logger.New("feecache"),
		store:      store,
		amounts:    table.New(store, cacheSchema),
		thresholds: table.New(store, thresholdSchema),
		history:    history,
		tally:      tally,
	}
}

func (c *Cache) propertyPrefix(property uint32) []byte {
	return codec.NewKeyWriter(cacheTag).Uint32(property).Bytes()
}

// CachedAmount - current accumulated fees for a property
//
// the first record under the property prefix is the latest snapshot
func (c *Cache) CachedAmount(property uint32) int64 {
	scan := c.amounts.Scan(c.propertyPrefix(property))
	defer scan.Release()

	if !scan.Valid() {
		return 0
	}
	return scan.Value()
}

// AddFee - accumulate a collected fee
//
// writes a fresh snapshot at (property, block), prunes the older
// snapshots and evaluates the distribution threshold.  A sum beyond
// the maximum possible token supply cannot be a valid chain state, so
// overflow aborts the process rather than returning an error.
func (c *Cache) AddFee(property uint32, block uint32, amount int64) {
	current := c.CachedAmount(property)
	if current > 0 && amount > math.MaxInt64-current {
		logger.Panicf("fee cache overflow: property: %d  block: %d  current: %d  amount: %d",
			property, block, current, amount)
	}

	updated := current + amount
	c.log.Debugf("add fee: property: %d  block: %d  cached: %d -> %d", property, block, current, updated)
	c.amounts.Put(cacheKey{property: property, block: block}, updated)

	c.prune(property, block)
	c.Evaluate(property, block)
}

// prune - drop every snapshot of a property except the one at keep
func (c *Cache) prune(property uint32, keep uint32) {
	batch := storage.NewBatch()

	scan := c.amounts.Scan(c.propertyPrefix(property))
	for ; scan.Valid(); scan.Next() {
		if keep != scan.Key().block {
			batch.Delete(scan.RawKey())
		}
	}
	scan.Release()

	c.store.WriteBatch(batch)
}

// Evaluate - distribute a property's cache if it reached the threshold
func (c *Cache) Evaluate(property uint32, block uint32) {
	if c.CachedAmount(property) >= c.DistributionThreshold(property) {
		c.distribute(property, block)
	}
}

// distribute - pay the whole cached amount out to holders
//
// every unit must land in a recipient share: a mismatch between the
// cached amount and the sum of shares means fees were created or
// destroyed, which is unrecoverable
func (c *Cache) distribute(property uint32, block uint32) {
	cached := c.CachedAmount(property)
	if 0 == cached {
		c.log.Warnf("skipping distribution for property %d: fee cache is empty", property)
		return
	}

	recipients := c.tally.Receivers(DistributionPurpose, property, cached)
	c.log.Infof("distributing %d of property %d to %d recipients", cached, property, len(recipients))

	sent := int64(0)
	for _, recipient := range recipients {
		c.tally.Credit(recipient.Address, property, recipient.Amount)
		sent += recipient.Amount
	}
	if sent != cached {
		logger.Panicf("fee distribution conservation failure: property: %d  cached: %d  distributed: %d",
			property, cached, sent)
	}

	id := c.history.RecordDistribution(property, block, sent, recipients)
	c.log.Infof("distribution %d recorded: property: %d  block: %d  total: %d", id, property, block, sent)

	c.ClearCache(property)
}

// ClearCache - remove every cache snapshot of a property
func (c *Cache) ClearCache(property uint32) {
	batch := storage.NewBatch()

	scan := c.amounts.Scan(c.propertyPrefix(property))
	for ; scan.Valid(); scan.Next() {
		batch.Delete(scan.RawKey())
	}
	scan.Release()

	c.store.WriteBatch(batch)
}

// DistributionThreshold - cached fee level that triggers a payout
func (c *Cache) DistributionThreshold(property uint32) int64 {
	threshold, found, err := c.thresholds.Get(property)
	if nil != err {
		logger.Panicf("fee threshold for property %d unreadable: %s", property, err)
	}
	if !found {
		return 0
	}
	return threshold
}

// UpdateDistributionThreshold - recompute a property's threshold
//
// called whenever the property's total supply changes
func (c *Cache) UpdateDistributionThreshold(property uint32) {
	threshold := c.tally.TotalSupply(property) / distributionDivisor
	if threshold <= 0 {
		threshold = 1
	}
	c.thresholds.Put(property, threshold)
	c.log.Debugf("distribution threshold for property %d set to %d", property, threshold)
}

// CacheHistory - stored snapshots of a property, most recent first
//
// pruning keeps at most one snapshot per property, so normally this
// returns zero or one entries
func (c *Cache) CacheHistory(property uint32) []CacheEntry {
	entries := []CacheEntry(nil)

	scan := c.amounts.Scan(c.propertyPrefix(property))
	defer scan.Release()

	for ; scan.Valid(); scan.Next() {
		entries = append(entries, CacheEntry{
			Block:  scan.Key().block,
			Amount: scan.Value(),
		})
	}
	return entries
}

// RollBackAbove - delete every snapshot written above a height
//
// part of chain rewind; returns the number of snapshots removed
func (c *Cache) RollBackAbove(height uint32) int {
	batch := storage.NewBatch()
	n := 0

	scan := c.amounts.ScanAll()
	for ; scan.Valid(); scan.Next() {
		if scan.Key().block > height {
			batch.Delete(scan.RawKey())
			n += 1
		}
	}
	scan.Release()

	c.store.WriteBatch(batch)
	if n > 0 {
		c.log.Infof("rolled back %d fee cache snapshots above block %d", n, height)
	}
	return n
}
