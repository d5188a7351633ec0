// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"

	"github.com/overlay-ledger/overlayd/fault"
)

// Reader - decodes the fields of a key or value
//
// the first failure sticks; subsequent reads return zero values and
// Done reports the error.  A caller that must not act on malformed
// data checks Done, a scan that may skip bad records uses the zero
// values as-is.
type Reader struct {
	buf []byte
	err error
}

// NewKeyReader - decode a key, verifying its table tag
func NewKeyReader(tag byte, data []byte) *Reader {
	if 0 == len(data) {
		return &Reader{err: fault.ErrShortRecord}
	}
	if data[0] != tag {
		return &Reader{err: fault.ErrWrongTableTag}
	}
	return &Reader{buf: data[1:]}
}

// NewReader - decode a value, no tag byte
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

func (r *Reader) take(n int) []byte {
	if nil != r.err {
		return nil
	}
	if len(r.buf) < n {
		r.err = fault.ErrShortRecord
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

// Uint32 - read an ascending encoded uint32
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if nil == b {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint32Desc - read a bit inverted uint32
func (r *Reader) Uint32Desc() uint32 {
	return ^r.Uint32()
}

// Uint64 - read an ascending encoded uint64
func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if nil == b {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Uint64Desc - read a bit inverted uint64
func (r *Reader) Uint64Desc() uint64 {
	return ^r.Uint64()
}

// Int64 - read a non-negative ordered int64
func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

// Amount - read a signed 64 bit quantity
func (r *Reader) Amount() int64 {
	return int64(r.Uint64())
}

// Byte - read a single byte field
func (r *Reader) Byte() byte {
	b := r.take(1)
	if nil == b {
		return 0
	}
	return b[0]
}

// String - read a length prefixed string
func (r *Reader) String() string {
	n := r.Byte()
	b := r.take(int(n))
	if nil == b {
		return ""
	}
	return string(b)
}

// More - true while undecoded bytes remain and no error occurred
//
// for values ending in a repeated group of fields
func (r *Reader) More() bool {
	return nil == r.err && len(r.buf) > 0
}

// Tail - read all remaining bytes
func (r *Reader) Tail() []byte {
	if nil != r.err {
		return nil
	}
	b := r.buf
	r.buf = nil
	return b
}

// Done - finish decoding
//
// returns the first decode error, or ErrTrailingBytes if part of the
// record was left unconsumed; either condition means the record does
// not match the schema it was read with
func (r *Reader) Done() error {
	if nil != r.err {
		return r.err
	}
	if 0 != len(r.buf) {
		return fault.ErrTrailingBytes
	}
	return nil
}
