// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package table_test

import (
	"os"
	"testing"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/fixtures"
	"github.com/overlay-ledger/overlayd/storage"
	"github.com/overlay-ledger/overlayd/table"
)

const databaseDirectory = "table-test.leveldb"

// a small two field record kind used by all tests in this package
type testKey struct {
	property uint32
	serial   uint64
}

var testSchema = table.Schema[testKey, string]{
	Name: "test",
	Tag:  'T',
	EncodeKey: func(k testKey) []byte {
		return codec.NewKeyWriter('T').Uint32(k.property).Uint64(k.serial).Bytes()
	},
	DecodeKey: func(data []byte) (testKey, error) {
		r := codec.NewKeyReader('T', data)
		k := testKey{
			property: r.Uint32(),
			serial:   r.Uint64(),
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

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func setup(t *testing.T) *storage.Store {
	os.RemoveAll(databaseDirectory)
	s, _, err := storage.Open("table-test", databaseDirectory, 0x100)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return s
}

func teardown(s *storage.Store) {
	s.Close()
	os.RemoveAll(databaseDirectory)
}

func TestCRUD(t *testing.T) {
	s := setup(t)
	defer teardown(s)

	tbl := table.New(s, testSchema)

	k := testKey{property: 3, serial: 17}
	tbl.Put(k, "hello")

	v, found, err := tbl.Get(k)
	if nil != err {
		t.Fatalf("get error: %s", err)
	}
	if !found {
		t.Fatalf("not found: %v", k)
	}
	if "hello" != v {
		t.Errorf("value mismatch, got: %q  expected: %q", v, "hello")
	}

	tbl.Delete(k)
	_, found, _ = tbl.Get(k)
	if found {
		t.Errorf("unexpectedly found deleted record")
	}
}

// prefix law: scanning tag+property yields exactly that property's
// records in serial order
func TestScanPrefix(t *testing.T) {
	s := setup(t)
	defer teardown(s)

	tbl := table.New(s, testSchema)

	tbl.Put(testKey{property: 1, serial: 5}, "a")
	tbl.Put(testKey{property: 2, serial: 1}, "b")
	tbl.Put(testKey{property: 2, serial: 3}, "c")
	tbl.Put(testKey{property: 2, serial: 2}, "d")
	tbl.Put(testKey{property: 3, serial: 0}, "e")

	prefix := codec.NewKeyWriter('T').Uint32(2).Bytes()
	scan := tbl.Scan(prefix)
	defer scan.Release()

	expected := []uint64{1, 2, 3}
	i := 0
	for ; scan.Valid(); scan.Next() {
		key := scan.Key()
		if 2 != key.property {
			t.Fatalf("scan escaped prefix: %v", key)
		}
		if i >= len(expected) || expected[i] != key.serial {
			t.Errorf("order mismatch at %d: got serial %d", i, key.serial)
		}
		i += 1
	}
	if len(expected) != i {
		t.Errorf("record count mismatch, got: %d  expected: %d", i, len(expected))
	}
}

func TestBlockIndexUndoDelete(t *testing.T) {
	s := setup(t)
	defer teardown(s)

	tbl := table.New(s, testSchema)
	ix := table.NewBlockIndex(s, 'X', newTestLog())

	// block 200: create two records
	for _, serial := range []uint64{1, 2} {
		k := testKey{property: 1, serial: serial}
		ix.RecordMutation(200, tbl.KeyBytes(k), nil)
		tbl.Put(k, "created-200")
	}

	// block 201: create one more
	k3 := testKey{property: 1, serial: 3}
	ix.RecordMutation(201, tbl.KeyBytes(k3), nil)
	tbl.Put(k3, "created-201")

	if n := ix.UndoAbove(200); 1 != n {
		t.Errorf("undo count mismatch, got: %d  expected: 1", n)
	}
	if tbl.Has(k3) {
		t.Errorf("block 201 record survived undo")
	}
	if !tbl.Has(testKey{property: 1, serial: 1}) {
		t.Errorf("block 200 record lost by undo of 201")
	}

	if n := ix.UndoAbove(199); 2 != n {
		t.Errorf("undo count mismatch, got: %d  expected: 2", n)
	}
	if tbl.Has(testKey{property: 1, serial: 1}) || tbl.Has(testKey{property: 1, serial: 2}) {
		t.Errorf("block 200 records survived undo")
	}
}

func TestBlockIndexUndoRestore(t *testing.T) {
	s := setup(t)
	defer teardown(s)

	tbl := table.New(s, testSchema)
	ix := table.NewBlockIndex(s, 'X', newTestLog())

	k := testKey{property: 9, serial: 1}

	// block 100 creates the snapshot
	ix.RecordMutation(100, tbl.KeyBytes(k), nil)
	tbl.Put(k, "v100")

	// block 101 overwrites it, journalling the before image
	prev, _, _ := tbl.Get(k)
	ix.RecordMutation(101, tbl.KeyBytes(k), []byte(prev))
	tbl.Put(k, "v101")

	// a second mutation in block 101 must not disturb the journal
	ix.RecordMutation(101, tbl.KeyBytes(k), []byte("v101"))
	tbl.Put(k, "v101b")

	ix.UndoAbove(100)
	v, found, _ := tbl.Get(k)
	if !found {
		t.Fatalf("snapshot lost by restore undo")
	}
	if "v100" != v {
		t.Errorf("restore mismatch, got: %q  expected: %q", v, "v100")
	}

	// rollback inverse law: undoing everything leaves no trace
	ix.UndoAbove(0)
	if tbl.Has(k) {
		t.Errorf("record survived full undo")
	}
}
