// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerdata

import (
	"path/filepath"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/chainsync"
	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/configuration"
	"github.com/overlay-ledger/overlayd/feecache"
	"github.com/overlay-ledger/overlayd/nft"
	"github.com/overlay-ledger/overlayd/pending"
	"github.com/overlay-ledger/overlayd/property"
	"github.com/overlay-ledger/overlayd/stolist"
	"github.com/overlay-ledger/overlayd/storage"
)

// bump when any table's key or value encoding changes; a mismatch at
// open wipes the derived databases and forces a replay
const databaseVersion = 0x201

// control store records
const tipTag = 'H' // () -> last committed block height

// Ledger - external balance book collaborator
//
// total supply comes from the property registry; credits and receiver
// selection stay with the balance book
type Ledger interface {
	Credit(address string, property uint32, amount int64)
	Receivers(purpose string, property uint32, amount int64) []feecache.Recipient
}

// feecache.Tally built from the balance book and the registry
type tally struct {
	ledger     Ledger
	properties *property.Registry
}

func (t *tally) Credit(address string, property uint32, amount int64) {
	t.ledger.Credit(address, property, amount)
}

func (t *tally) TotalSupply(property uint32) int64 {
	return t.properties.TotalSupply(property)
}

func (t *tally) Receivers(purpose string, property uint32, amount int64) []feecache.Recipient {
	return t.ledger.Receivers(purpose, property, amount)
}

// binds a name and a rollback entry point into a coordinator engine
type engine struct {
	name     string
	rollback func(height uint32) int
}

func (e engine) Name() string                  { return e.name }
func (e engine) RollBackAbove(height uint32) int { return e.rollback(height) }

// Data - all derived state of one chain
type Data struct {
	sync.Mutex

	log       *logger.L
	retention uint32

	control      *storage.Store
	feeStore     *storage.Store
	historyStore *storage.Store
	nftStore     *storage.Store
	propStore    *storage.Store
	stoStore     *storage.Store

	FeeCache    *feecache.Cache
	FeeHistory  *feecache.History
	NFT         *nft.DB
	Properties  *property.Registry
	StoList     *stolist.List
	Pending     *pending.Table
	Coordinator *chainsync.Coordinator
}

// Initialise - open every database and wire the engines together
//
// resync wipes all derived state first; a version mismatch in any
// database forces the same.  The second result is true when derived
// state was wiped and a full replay from the chain is needed.
func Initialise(cfg *configuration.Configuration, ledger Ledger, resync bool) (*Data, bool, error) {
	d := &Data{
		log:       logger.New("ledgerdata"),
		retention: uint32(cfg.SnapshotRetention),
	}

	mustReplay := resync
	open := func(name string) (*storage.Store, error) {
		store, rebuild, err := storage.Open(name, filepath.Join(cfg.Database.Directory, name+".leveldb"), databaseVersion)
		if nil != err {
			return nil, err
		}
		mustReplay = mustReplay || rebuild
		return store, nil
	}

	var err error
	if d.control, err = open("control"); nil != err {
		return nil, false, err
	}
	if d.feeStore, err = open("feecache"); nil != err {
		d.Finalise()
		return nil, false, err
	}
	if d.historyStore, err = open("feehistory"); nil != err {
		d.Finalise()
		return nil, false, err
	}
	if d.nftStore, err = open("nft"); nil != err {
		d.Finalise()
		return nil, false, err
	}
	if d.propStore, err = open("property"); nil != err {
		d.Finalise()
		return nil, false, err
	}
	if d.stoStore, err = open("stolist"); nil != err {
		d.Finalise()
		return nil, false, err
	}

	d.Properties = property.New(d.propStore)
	d.FeeHistory = feecache.NewHistory(d.historyStore)
	d.FeeCache = feecache.NewCache(d.feeStore, d.FeeHistory, &tally{
		ledger:     ledger,
		properties: d.Properties,
	})
	d.NFT = nft.New(d.nftStore, d.Properties.TotalSupply)
	d.StoList = stolist.New(d.stoStore)
	d.Pending = pending.New()

	// a supply change moves the payout threshold immediately
	d.Properties.OnSupplyChange(d.FeeCache.UpdateDistributionThreshold)

	d.Coordinator = chainsync.NewCoordinator(d.oldestSnapshot,
		engine{name: "property", rollback: d.Properties.RollBackAbove},
		engine{name: "feecache", rollback: d.FeeCache.RollBackAbove},
		engine{name: "feehistory", rollback: d.FeeHistory.RollBackAbove},
		engine{name: "nft", rollback: d.NFT.RollBackAbove},
		engine{name: "stolist", rollback: d.StoList.RollBackAbove},
	)

	// totals are only valid once the whole rewind finished
	d.Coordinator.AfterRewind(func() {
		d.NFT.SanityCheck()
		for _, id := range d.Properties.List() {
			d.FeeCache.UpdateDistributionThreshold(id)
		}
	})
	d.Coordinator.OnRewound(func(target uint32, txs []string) {
		for _, txid := range txs {
			d.Pending.Remove(txid)
		}
		d.saveTip(target)
	})

	if mustReplay {
		d.wipe()
		d.Coordinator.StartReplay(0)
		return d, true, nil
	}

	d.Coordinator.SetTip(d.loadTip())
	return d, false, nil
}

// Finalise - close every database
func (d *Data) Finalise() {
	for _, store := range []*storage.Store{
		d.control, d.feeStore, d.historyStore, d.nftStore, d.propStore, d.stoStore,
	} {
		if nil != store {
			store.Close()
		}
	}
}

// wipe - clear all derived state, keeping version records
func (d *Data) wipe() {
	d.log.Warn("wiping derived state")
	for _, store := range []*storage.Store{
		d.control, d.feeStore, d.historyStore, d.nftStore, d.propStore, d.stoStore,
	} {
		store.Clear()
	}
	d.Pending.Clear()
}

func (d *Data) tipKey() []byte {
	return codec.NewKeyWriter(tipTag).Bytes()
}

func (d *Data) saveTip(height uint32) {
	d.control.Put(d.tipKey(), codec.NewWriter().Uint32(height).Bytes())
}

func (d *Data) loadTip() uint32 {
	data, found := d.control.Get(d.tipKey())
	if !found {
		return 0
	}
	r := codec.NewReader(data)
	height := r.Uint32()
	if nil != r.Done() {
		logger.Panicf("ledgerdata: corrupt tip record: %x", data)
	}
	return height
}

// oldestSnapshot - lowest height reachable by table level undo
//
// the retention window is the external snapshot policy: rewinds
// deeper than it require a full resync
func (d *Data) oldestSnapshot() (uint32, bool) {
	tip := d.Coordinator.Tip()
	if tip <= d.retention {
		return 0, true
	}
	return tip - d.retention, true
}

// BlockConnected - apply one block under the mutation lock
//
// apply receives the height and performs the block's mutations
// through the engines; the token range integrity check runs at block
// end.  Returns fault.ErrResyncRequired when a pending rewind cannot
// be served by table level undo.
func (d *Data) BlockConnected(height uint32, apply func(height uint32)) error {
	d.Lock()
	defer d.Unlock()

	return d.Coordinator.BlockConnected(height, func(h uint32) {
		d.NFT.BeginBlock(h)
		apply(h)
		d.NFT.EndBlock(true)
		d.saveTip(h)
	})
}

// BlockDisconnected - note a discarded block under the mutation lock
func (d *Data) BlockDisconnected(height uint32, txs []string) {
	d.Lock()
	defer d.Unlock()

	d.Coordinator.BlockDisconnected(height, txs)
}

// Resync - wipe derived state and restart the replay from genesis
func (d *Data) Resync() {
	d.Lock()
	defer d.Unlock()

	d.wipe()
	d.Coordinator.StartReplay(0)
}
