// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pending - records of not yet confirmed transactions
//
// In-flight transactions contribute provisional records that callers
// may want to display before confirmation.  The table is ephemeral:
// it carries its own lock, is disjoint from the durable databases,
// takes no part in the rollback protocol and is rebuilt from scratch
// on restart.  Entries expire on their own in case a transaction is
// evicted without a removal notification.
package pending

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/logger"
)

const (
	defaultExpiration = 24 * time.Hour
	cleanupInterval   = 1 * time.Hour
)

// Record - one unconfirmed transaction's provisional effect
type Record struct {
	Txid     string
	Sender   string
	Property uint32
	Amount   int64
}

// Table - ephemeral unconfirmed record table
type Table struct {
	log   *logger.L
	cache *cache.Cache
}

// New - create an empty table
func New() *Table {
	return &Table{
		log:   logger.New("pending"),
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

// Add - track one unconfirmed transaction
func (t *Table) Add(record Record) {
	t.cache.Set(record.Txid, record, cache.DefaultExpiration)
	t.log.Debugf("pending: added %s", record.Txid)
}

// Remove - drop a transaction, on confirmation or eviction
func (t *Table) Remove(txid string) {
	t.cache.Delete(txid)
}

// Get - look one transaction up
func (t *Table) Get(txid string) (Record, bool) {
	obj, found := t.cache.Get(txid)
	if !found {
		return Record{}, false
	}
	return obj.(Record), true
}

// Count - number of tracked transactions
func (t *Table) Count() int {
	return t.cache.ItemCount()
}

// Clear - drop everything
func (t *Table) Clear() {
	t.cache.Flush()
}
