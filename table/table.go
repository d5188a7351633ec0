// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package table

import (
	"github.com/overlay-ledger/overlayd/storage"
)

// Schema - on-disk format of one record kind
//
// EncodeKey output must start with Tag; integer key fields must use
// the codec ascending or descending encoders so that byte order
// equals the declared logical order.  The choice of ordering is part
// of the schema: changing it changes the meaning of stored data and
// requires a format version bump.
type Schema[K any, V any] struct {
	Name        string
	Tag         byte
	EncodeKey   func(K) []byte
	DecodeKey   func([]byte) (K, error)
	EncodeValue func(V) []byte
	DecodeValue func([]byte) (V, error)
}

// Table - typed access to one record kind
type Table[K any, V any] struct {
	schema Schema[K, V]
	store  *storage.Store
}

// New - bind a schema to its physical store
func New[K any, V any](store *storage.Store, schema Schema[K, V]) *Table[K, V] {
	return &Table[K, V]{
		schema: schema,
		store:  store,
	}
}

// Name - schema name, for logging
func (t *Table[K, V]) Name() string {
	return t.schema.Name
}

// Prefix - scan prefix covering the whole table
func (t *Table[K, V]) Prefix() []byte {
	return []byte{t.schema.Tag}
}

// KeyBytes - encoded form of a key
func (t *Table[K, V]) KeyBytes(key K) []byte {
	return t.schema.EncodeKey(key)
}

// Get - point lookup
//
// absence is reported by the boolean; a record that is present but
// cannot be decoded returns the decode error and the caller's
// per-table policy decides between skip and abort
func (t *Table[K, V]) Get(key K) (V, bool, error) {
	var value V
	data, found := t.store.Get(t.schema.EncodeKey(key))
	if !found {
		return value, false, nil
	}
	value, err := t.schema.DecodeValue(data)
	if nil != err {
		return value, true, err
	}
	return value, true, nil
}

// Has - check whether a key exists
func (t *Table[K, V]) Has(key K) bool {
	return t.store.Has(t.schema.EncodeKey(key))
}

// Put - store one record, synchronously
func (t *Table[K, V]) Put(key K, value V) {
	t.store.Put(t.schema.EncodeKey(key), t.schema.EncodeValue(value))
}

// Delete - remove one record, synchronously
func (t *Table[K, V]) Delete(key K) {
	t.store.Delete(t.schema.EncodeKey(key))
}

// PutBatch - stage a write into a batch
func (t *Table[K, V]) PutBatch(batch *storage.Batch, key K, value V) {
	batch.Put(t.schema.EncodeKey(key), t.schema.EncodeValue(value))
}

// DeleteBatch - stage a delete into a batch
func (t *Table[K, V]) DeleteBatch(batch *storage.Batch, key K) {
	batch.Delete(t.schema.EncodeKey(key))
}

// Scan - typed cursor over a prefix of this table
//
// the prefix must itself be a prefix of the table's key space: the
// bare tag, or the tag followed by leading fixed width fields
func (t *Table[K, V]) Scan(prefix []byte) *Scan[K, V] {
	return &Scan[K, V]{
		cursor: t.store.NewCursor(prefix),
		schema: &t.schema,
	}
}

// ScanAll - typed cursor over the whole table
func (t *Table[K, V]) ScanAll() *Scan[K, V] {
	return t.Scan(t.Prefix())
}

// Scan - bounded typed iterator
type Scan[K any, V any] struct {
	cursor *storage.Cursor
	schema *Schema[K, V]
}

// Valid - cursor is positioned inside the prefix
func (s *Scan[K, V]) Valid() bool {
	return s.cursor.Valid()
}

// Next - advance one record
func (s *Scan[K, V]) Next() bool {
	return s.cursor.Next()
}

// Prev - retreat one record
func (s *Scan[K, V]) Prev() bool {
	return s.cursor.Prev()
}

// Seek - position at the first record not below an encoded key
func (s *Scan[K, V]) Seek(key K) bool {
	return s.cursor.Seek(s.schema.EncodeKey(key))
}

// Key - decoded key of the current record
//
// a malformed legacy key decodes to the zero value rather than
// aborting the scan; callers needing certainty use KeyChecked
func (s *Scan[K, V]) Key() K {
	key, err := s.schema.DecodeKey(s.cursor.Key())
	if nil != err {
		var zero K
		return zero
	}
	return key
}

// KeyChecked - decoded key with its decode error
func (s *Scan[K, V]) KeyChecked() (K, error) {
	return s.schema.DecodeKey(s.cursor.Key())
}

// Value - decoded value of the current record
func (s *Scan[K, V]) Value() V {
	value, err := s.schema.DecodeValue(s.cursor.Value())
	if nil != err {
		var zero V
		return zero
	}
	return value
}

// ValueChecked - decoded value with its decode error
func (s *Scan[K, V]) ValueChecked() (V, error) {
	return s.schema.DecodeValue(s.cursor.Value())
}

// RawKey - encoded key of the current record
func (s *Scan[K, V]) RawKey() []byte {
	return s.cursor.Key()
}

// RawValue - encoded value of the current record
func (s *Scan[K, V]) RawValue() []byte {
	return s.cursor.Value()
}

// Release - free the underlying cursor
func (s *Scan[K, V]) Release() {
	s.cursor.Release()
}
