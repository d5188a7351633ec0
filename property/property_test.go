// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/overlay-ledger/overlayd/fixtures"
	"github.com/overlay-ledger/overlayd/property"
	"github.com/overlay-ledger/overlayd/storage"
)

const databaseDirectory = "property-test.leveldb"

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func setup(t *testing.T) (*property.Registry, func()) {
	os.RemoveAll(databaseDirectory)
	store, _, err := storage.Open("property-test", databaseDirectory, 0x100)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return property.New(store), func() {
		store.Close()
		os.RemoveAll(databaseDirectory)
	}
}

func TestCreateAndGet(t *testing.T) {
	r, teardown := setup(t)
	defer teardown()

	id := r.Create(100, property.Entry{
		Name:        "Test Tokens",
		Category:    "testing",
		Issuer:      "issuer-address",
		CreationTx:  "tx-1",
		TotalSupply: 1000,
	})
	assert.Equal(t, uint32(1), id, "wrong first id")

	entry, found := r.Get(id)
	assert.True(t, found, "entry not found")
	assert.Equal(t, "Test Tokens", entry.Name, "wrong name")
	assert.Equal(t, int64(1000), entry.TotalSupply, "wrong supply")
	assert.Equal(t, uint32(100), entry.Created, "wrong creation block")
	assert.Equal(t, uint32(100), entry.Updated, "wrong update block")

	found2, ok := r.ByCreationTx("tx-1")
	assert.True(t, ok, "tx lookup failed")
	assert.Equal(t, id, found2, "wrong tx lookup result")

	assert.Equal(t, uint32(2), r.NextID(), "counter not advanced")
	assert.Equal(t, []uint32{1}, r.List(), "wrong property list")
}

func TestUpdate(t *testing.T) {
	r, teardown := setup(t)
	defer teardown()

	id := r.Create(100, property.Entry{Name: "before", CreationTx: "tx-1", TotalSupply: 10})

	ok := r.Update(101, id, property.Entry{Name: "after", CreationTx: "tx-1", TotalSupply: 25})
	assert.True(t, ok, "update failed")

	entry, _ := r.Get(id)
	assert.Equal(t, "after", entry.Name, "wrong name after update")
	assert.Equal(t, uint32(100), entry.Created, "creation block not preserved")
	assert.Equal(t, uint32(101), entry.Updated, "update block not recorded")

	assert.False(t, r.Update(101, 99, property.Entry{}), "update of missing property accepted")
}

func TestSupplyChangeObserver(t *testing.T) {
	r, teardown := setup(t)
	defer teardown()

	notified := []uint32(nil)
	r.OnSupplyChange(func(p uint32) { notified = append(notified, p) })

	id := r.Create(100, property.Entry{Name: "x", CreationTx: "tx-1", TotalSupply: 10})
	r.Update(101, id, property.Entry{Name: "x", CreationTx: "tx-1", TotalSupply: 25})

	// same supply: no notification
	r.Update(102, id, property.Entry{Name: "renamed", CreationTx: "tx-1", TotalSupply: 25})

	assert.Equal(t, []uint32{id, id}, notified, "wrong supply notifications")
}

func TestRollBack(t *testing.T) {
	r, teardown := setup(t)
	defer teardown()

	id := r.Create(100, property.Entry{Name: "original", CreationTx: "tx-1", TotalSupply: 10})
	r.Update(101, id, property.Entry{Name: "changed", CreationTx: "tx-1", TotalSupply: 99})
	id2 := r.Create(101, property.Entry{Name: "newcomer", CreationTx: "tx-2", TotalSupply: 5})

	n := r.RollBackAbove(100)
	assert.True(t, n > 0, "nothing rolled back")

	// the update is restored to the block 100 entry
	entry, found := r.Get(id)
	assert.True(t, found, "property lost by rollback")
	assert.Equal(t, "original", entry.Name, "entry not restored")
	assert.Equal(t, int64(10), entry.TotalSupply, "supply not restored")

	// the block 101 creation vanishes entirely, id included
	_, found = r.Get(id2)
	assert.False(t, found, "undone property still present")
	_, found = r.ByCreationTx("tx-2")
	assert.False(t, found, "undone tx lookup still present")
	assert.Equal(t, id2, r.NextID(), "id not released by rollback")

	// full rewind leaves an empty registry
	r.RollBackAbove(0)
	assert.Nil(t, r.List(), "registry not empty after full rollback")
	assert.Equal(t, uint32(1), r.NextID(), "counter not reset by full rollback")
}
