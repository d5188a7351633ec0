// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"

	"github.com/syndtr/goleveldb/leveldb/iterator"

	"github.com/bitmark-inc/logger"
)

// Cursor - bounded iterator over one key prefix
//
// the cursor is valid while the underlying position exists and its
// key still starts with the bound prefix; stepping either direction
// past the prefix invalidates it.  Seek lands on the first key not
// below the target in byte order, so tables whose leading field is
// descending encoded see "first entry at or below the requested
// value" - the mechanism behind most-recent and highest-id lookups.
type Cursor struct {
	iter   iterator.Iterator
	prefix []byte
	valid  bool
}

// NewCursor - create a cursor bound to a key prefix
//
// initially positioned at the first key of the prefix range
func (s *Store) NewCursor(prefix []byte) *Cursor {
	c := &Cursor{
		iter:   s.db.NewIterator(nil, nil),
		prefix: prefix,
	}
	c.Seek(prefix)
	return c
}

func (c *Cursor) setValid() bool {
	c.valid = c.iter.Valid() && bytes.HasPrefix(c.iter.Key(), c.prefix)
	return c.valid
}

// Seek - position at the first key >= the target, in byte order
func (c *Cursor) Seek(key []byte) bool {
	c.iter.Seek(key)
	return c.setValid()
}

// Valid - position exists and is still inside the prefix
func (c *Cursor) Valid() bool {
	return c.valid
}

// Next - advance one position
func (c *Cursor) Next() bool {
	if !c.valid {
		return false
	}
	c.iter.Next()
	return c.setValid()
}

// Prev - retreat one position
func (c *Cursor) Prev() bool {
	if !c.valid {
		return false
	}
	c.iter.Prev()
	return c.setValid()
}

// Key - copy of the current key
func (c *Cursor) Key() []byte {
	key := c.iter.Key()
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return keyCopy
}

// Value - copy of the current value
func (c *Cursor) Value() []byte {
	value := c.iter.Value()
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy
}

// Release - free the iterator, detect any deferred read error
func (c *Cursor) Release() {
	c.iter.Release()
	logger.PanicIfError("storage.Cursor", c.iter.Error())
}
