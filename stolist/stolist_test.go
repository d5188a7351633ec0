// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stolist_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/overlay-ledger/overlayd/fixtures"
	"github.com/overlay-ledger/overlayd/stolist"
	"github.com/overlay-ledger/overlayd/storage"
)

const databaseDirectory = "stolist-test.leveldb"

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func setup(t *testing.T) (*stolist.List, func()) {
	os.RemoveAll(databaseDirectory)
	store, _, err := storage.Open("stolist-test", databaseDirectory, 0x100)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return stolist.New(store), func() {
		store.Close()
		os.RemoveAll(databaseDirectory)
	}
}

func TestRecipients(t *testing.T) {
	l, teardown := setup(t)
	defer teardown()

	l.RecordReceipt("tx-1", "alice", 100, 7, 60)
	l.RecordReceipt("tx-1", "bob", 100, 7, 45)
	l.RecordReceipt("tx-2", "alice", 101, 7, 5)

	all := l.Recipients("tx-1", "")
	assert.Equal(t, 2, len(all), "wrong receipt count")

	total := int64(0)
	for _, receipt := range all {
		assert.Equal(t, "tx-1", receipt.Txid, "foreign receipt in result")
		total += receipt.Amount
	}
	assert.Equal(t, int64(105), total, "wrong receipt total")

	filtered := l.Recipients("tx-1", "bob")
	assert.Equal(t, 1, len(filtered), "wrong filtered count")
	assert.Equal(t, int64(45), filtered[0].Amount, "wrong filtered amount")

	assert.Nil(t, l.Recipients("tx-9", ""), "receipts for unknown tx")
}

func TestReceiptsInRange(t *testing.T) {
	l, teardown := setup(t)
	defer teardown()

	l.RecordReceipt("tx-1", "alice", 100, 7, 1)
	l.RecordReceipt("tx-2", "alice", 105, 7, 2)
	l.RecordReceipt("tx-3", "bob", 105, 7, 3)
	l.RecordReceipt("tx-4", "alice", 110, 7, 4)

	inRange := l.ReceiptsInRange(101, 109, "")
	assert.Equal(t, 2, len(inRange), "wrong range count")

	mine := l.ReceiptsInRange(100, 110, "alice")
	assert.Equal(t, 3, len(mine), "wrong filtered range count")
}

func TestRollBack(t *testing.T) {
	l, teardown := setup(t)
	defer teardown()

	l.RecordReceipt("tx-1", "alice", 100, 7, 1)
	l.RecordReceipt("tx-2", "bob", 101, 7, 2)
	l.RecordReceipt("tx-3", "carol", 102, 7, 3)

	n := l.RollBackAbove(100)
	assert.Equal(t, 2, n, "wrong rollback count")

	assert.Equal(t, 1, len(l.Recipients("tx-1", "")), "receipt at height lost")
	assert.Nil(t, l.Recipients("tx-2", ""), "receipt above height survived")
	assert.Nil(t, l.Recipients("tx-3", ""), "receipt above height survived")
}
