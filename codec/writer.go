// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"

	"github.com/bitmark-inc/logger"
)

// maximum bytes of a length prefixed string field
const maxStringField = 255

// Writer - accumulates encoded fields of a key or value
type Writer struct {
	buf []byte
}

// NewKeyWriter - start a key with its table tag
//
// stopping after any leading group of fixed width fields yields a
// valid scan prefix for that table
func NewKeyWriter(tag byte) *Writer {
	return &Writer{
		buf: []byte{tag},
	}
}

// NewWriter - start a value, no tag byte
func NewWriter() *Writer {
	return &Writer{
		buf: make([]byte, 0, 16),
	}
}

// Uint32 - append a big-endian uint32, ascending byte order
func (w *Writer) Uint32(n uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Uint32Desc - append a bit inverted big-endian uint32
//
// inverting before encoding reverses the sort order, so a forward
// scan sees the highest value first
func (w *Writer) Uint32Desc(n uint32) *Writer {
	return w.Uint32(^n)
}

// Uint64 - append a big-endian uint64, ascending byte order
func (w *Writer) Uint64(n uint64) *Writer {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Uint64Desc - append a bit inverted big-endian uint64
func (w *Writer) Uint64Desc(n uint64) *Writer {
	return w.Uint64(^n)
}

// Int64 - append a non-negative int64 as big-endian
//
// only valid for non-negative values; token identifiers and range
// bounds are never negative
func (w *Writer) Int64(n int64) *Writer {
	if n < 0 {
		logger.Panicf("codec: negative int64 in ordered field: %d", n)
	}
	return w.Uint64(uint64(n))
}

// Amount - append a signed 64 bit quantity
//
// two's complement big-endian; only used in values where byte order
// is irrelevant
func (w *Writer) Amount(n int64) *Writer {
	return w.Uint64(uint64(n))
}

// Byte - append a single byte field
func (w *Writer) Byte(b byte) *Writer {
	w.buf = append(w.buf, b)
	return w
}

// String - append a length prefixed string
//
// one byte length, so the field is bounded and later fields remain
// prefix addressable
func (w *Writer) String(s string) *Writer {
	if len(s) > maxStringField {
		logger.Panicf("codec: string field too long: %d", len(s))
	}
	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// Tail - append raw bytes, must be the final field
func (w *Writer) Tail(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Bytes - the encoded result
func (w *Writer) Bytes() []byte {
	return w.buf
}
