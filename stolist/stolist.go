// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stolist - per-recipient receipts of owner distributions
//
// Every amount sent to a holder during a distribution leaves a
// receipt keyed by the causing transaction, so reporting layers can
// answer "who received what from this send" and "what did this
// address receive in a block range".  Receipts are write once; a
// chain rewind deletes those of undone blocks.
package stolist

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

// receipts: (txid, address, block, property) -> amount
const receiptTag = 'h'

// Receipt - one recipient's share of one distribution
type Receipt struct {
	Txid     string
	Address  string
	Block    uint32
	Property uint32
	Amount   int64
}

type receiptKey struct {
	txid     string
	address  string
	block    uint32
	property uint32
}

var receiptSchema = table.Schema[receiptKey, int64]{
	Name: "sto-receipt",
	Tag:  receiptTag,
	EncodeKey: func(k receiptKey) []byte {
		return codec.NewKeyWriter(receiptTag).
			String(k.txid).
			String(k.address).
			Uint32(k.block).
			Uint32(k.property).
			Bytes()
	},
	DecodeKey: func(data []byte) (receiptKey, error) {
		r := codec.NewKeyReader(receiptTag, data)
		k := receiptKey{
			txid:     r.String(),
			address:  r.String(),
			block:    r.Uint32(),
			property: r.Uint32(),
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

// List - receipt database
type List struct {
	log      *logger.L
	store    *storage.Store
	receipts *table.Table[receiptKey, int64]
}

// New - bind the list to its database
func New(store *storage.Store) *List {
	return &List{
		log:      logger.New("stolist"),
		store:    store,
		receipts: table.New(store, receiptSchema),
	}
}

// RecordReceipt - store one recipient's share
func (l *List) RecordReceipt(txid string, address string, block uint32, property uint32, amount int64) {
	l.receipts.Put(receiptKey{
		txid:     txid,
		address:  address,
		block:    block,
		property: property,
	}, amount)
	l.log.Debugf("receipt: tx: %s  address: %s  block: %d  property: %d  amount: %d",
		txid, address, block, property, amount)
}

func (l *List) receipt(key receiptKey, amount int64) Receipt {
	return Receipt{
		Txid:     key.txid,
		Address:  key.address,
		Block:    key.block,
		Property: key.property,
		Amount:   amount,
	}
}

// Recipients - receipts of one transaction
//
// a non-empty filterAddress restricts the result to that recipient
func (l *List) Recipients(txid string, filterAddress string) []Receipt {
	prefix := codec.NewKeyWriter(receiptTag).String(txid).Bytes()

	scan := l.receipts.Scan(prefix)
	defer scan.Release()

	result := []Receipt(nil)
	for ; scan.Valid(); scan.Next() {
		key, err := scan.KeyChecked()
		if nil != err {
			l.log.Errorf("skipping corrupt receipt key: %x: %s", scan.RawKey(), err)
			continue
		}
		if "" != filterAddress && key.address != filterAddress {
			continue
		}
		result = append(result, l.receipt(key, scan.Value()))
	}
	return result
}

// ReceiptsInRange - receipts in [fromBlock, toBlock]
//
// a non-empty address restricts the result to that recipient; the
// whole table is scanned, receipts are keyed by transaction
func (l *List) ReceiptsInRange(fromBlock uint32, toBlock uint32, address string) []Receipt {
	scan := l.receipts.ScanAll()
	defer scan.Release()

	result := []Receipt(nil)
	for ; scan.Valid(); scan.Next() {
		key, err := scan.KeyChecked()
		if nil != err {
			l.log.Errorf("skipping corrupt receipt key: %x: %s", scan.RawKey(), err)
			continue
		}
		if key.block < fromBlock || key.block > toBlock {
			continue
		}
		if "" != address && key.address != address {
			continue
		}
		result = append(result, l.receipt(key, scan.Value()))
	}
	return result
}

// RollBackAbove - delete every receipt recorded above a height
func (l *List) RollBackAbove(height uint32) int {
	batch := storage.NewBatch()
	n := 0

	scan := l.receipts.ScanAll()
	for ; scan.Valid(); scan.Next() {
		key, err := scan.KeyChecked()
		if nil != err {
			l.log.Errorf("skipping corrupt receipt key: %x: %s", scan.RawKey(), err)
			continue
		}
		if key.block > height {
			batch.Delete(scan.RawKey())
			n += 1
		}
	}
	scan.Release()

	l.store.WriteBatch(batch)
	if n > 0 {
		l.log.Infof("rolled back %d receipts above block %d", n, height)
	}
	return n
}
