// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feecache_test

import (
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/overlay-ledger/overlayd/feecache"
	"github.com/overlay-ledger/overlayd/feecache/mocks"
	"github.com/overlay-ledger/overlayd/fixtures"
	"github.com/overlay-ledger/overlayd/storage"
)

const (
	cacheDirectory   = "feecache-test.leveldb"
	historyDirectory = "feehistory-test.leveldb"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func setup(t *testing.T, tally feecache.Tally) (*feecache.Cache, *feecache.History, func()) {
	os.RemoveAll(cacheDirectory)
	os.RemoveAll(historyDirectory)

	cacheStore, _, err := storage.Open("feecache-test", cacheDirectory, 0x100)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	historyStore, _, err := storage.Open("feehistory-test", historyDirectory, 0x100)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}

	history := feecache.NewHistory(historyStore)
	cache := feecache.NewCache(cacheStore, history, tally)

	return cache, history, func() {
		cacheStore.Close()
		historyStore.Close()
		os.RemoveAll(cacheDirectory)
		os.RemoveAll(historyDirectory)
	}
}

func TestAddFeeAccumulates(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	tally := mocks.NewMockTally(ctl)
	tally.EXPECT().TotalSupply(uint32(1)).Return(int64(100000 * 1000000)).Times(1)

	cache, _, teardown := setup(t, tally)
	defer teardown()

	cache.UpdateDistributionThreshold(1)

	cache.AddFee(1, 100, 40)
	cache.AddFee(1, 101, 65)

	assert.Equal(t, int64(105), cache.CachedAmount(1), "wrong cached amount")

	// pruning keeps only the latest snapshot
	history := cache.CacheHistory(1)
	assert.Equal(t, 1, len(history), "wrong snapshot count")
	assert.Equal(t, uint32(101), history[0].Block, "wrong snapshot block")
	assert.Equal(t, int64(105), history[0].Amount, "wrong snapshot amount")
}

// fees of 40 and 65 against a threshold of 100: the second fee pushes
// the cache to 105 and triggers a full payout at block 101
func TestDistributionAtThreshold(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	tally := mocks.NewMockTally(ctl)

	// supply of 10,000,000 over divisor 100,000 gives threshold 100
	tally.EXPECT().TotalSupply(uint32(1)).Return(int64(10000000)).Times(1)
	tally.EXPECT().Receivers(feecache.DistributionPurpose, uint32(1), int64(105)).Return([]feecache.Recipient{
		{Address: "holder-one", Amount: 60},
		{Address: "holder-two", Amount: 45},
	}).Times(1)
	tally.EXPECT().Credit("holder-one", uint32(1), int64(60)).Times(1)
	tally.EXPECT().Credit("holder-two", uint32(1), int64(45)).Times(1)

	cache, history, teardown := setup(t, tally)
	defer teardown()

	cache.UpdateDistributionThreshold(1)
	assert.Equal(t, int64(100), cache.DistributionThreshold(1), "wrong threshold")

	cache.AddFee(1, 100, 40)
	assert.Equal(t, int64(40), cache.CachedAmount(1), "distribution fired early")

	cache.AddFee(1, 101, 65)
	assert.Equal(t, int64(0), cache.CachedAmount(1), "cache not emptied by distribution")

	d, found := history.Distribution(1)
	assert.True(t, found, "missing distribution record")
	assert.Equal(t, uint32(1), d.ID, "wrong distribution id")
	assert.Equal(t, uint32(101), d.Block, "wrong distribution block")
	assert.Equal(t, uint32(1), d.Property, "wrong distribution property")
	assert.Equal(t, int64(105), d.Total, "wrong distribution total")
	assert.Equal(t, 2, len(d.Recipients), "wrong recipient count")

	assert.Equal(t, []uint32{1}, history.DistributionsForProperty(1), "wrong property index")
}

func TestThresholdMinimum(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	tally := mocks.NewMockTally(ctl)
	tally.EXPECT().TotalSupply(uint32(7)).Return(int64(50)).Times(1)

	cache, _, teardown := setup(t, tally)
	defer teardown()

	cache.UpdateDistributionThreshold(7)
	assert.Equal(t, int64(1), cache.DistributionThreshold(7), "low supply threshold not clamped to 1")
}

func TestCacheRollBack(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	tally := mocks.NewMockTally(ctl)
	tally.EXPECT().TotalSupply(gomock.Any()).Return(int64(100000 * 1000000)).Times(2)

	cache, _, teardown := setup(t, tally)
	defer teardown()

	cache.UpdateDistributionThreshold(1)
	cache.UpdateDistributionThreshold(2)

	cache.AddFee(1, 100, 40)
	cache.AddFee(2, 105, 9)

	n := cache.RollBackAbove(100)
	assert.Equal(t, 1, n, "wrong rollback count")
	assert.Equal(t, int64(40), cache.CachedAmount(1), "snapshot at height lost")
	assert.Equal(t, int64(0), cache.CachedAmount(2), "snapshot above height survived")
}

func TestHistoryRollBack(t *testing.T) {
	_, history, teardown := setup(t, nil)
	defer teardown()

	recipients := []feecache.Recipient{{Address: "holder-one", Amount: 10}}

	id1 := history.RecordDistribution(1, 100, 10, recipients)
	id2 := history.RecordDistribution(2, 101, 10, recipients)
	id3 := history.RecordDistribution(1, 102, 10, recipients)

	assert.Equal(t, uint32(1), id1, "wrong first id")
	assert.Equal(t, uint32(2), id2, "wrong second id")
	assert.Equal(t, uint32(3), id3, "wrong third id")

	n := history.RollBackAbove(100)
	assert.Equal(t, 2, n, "wrong rollback count")

	_, found := history.Distribution(id3)
	assert.False(t, found, "distribution above height survived")
	_, found = history.Distribution(id2)
	assert.False(t, found, "distribution above height survived")

	d, found := history.Distribution(id1)
	assert.True(t, found, "distribution at height lost")
	assert.Equal(t, int64(10), d.Total, "wrong surviving total")

	// secondary index entries of the deleted records are gone too
	assert.Equal(t, []uint32{1}, history.DistributionsForProperty(1), "stale property index for 1")
	assert.Nil(t, history.DistributionsForProperty(2), "stale property index for 2")

	// id allocation resumes below the rewound ids
	id := history.RecordDistribution(3, 101, 10, recipients)
	assert.Equal(t, uint32(2), id, "id not reallocated after rollback")
}
