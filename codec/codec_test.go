// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec_test

import (
	"bytes"
	"testing"

	"github.com/overlay-ledger/overlayd/codec"
	"github.com/overlay-ledger/overlayd/fault"
)

// ordering law: logical order of the field values must equal byte
// order of the encodings
func TestAscendingOrder(t *testing.T) {
	samples := []uint32{0, 1, 2, 255, 256, 65535, 1 << 20, 1<<31 - 1, 1 << 31, ^uint32(0)}

	for i := 1; i < len(samples); i += 1 {
		a := codec.NewKeyWriter('T').Uint32(samples[i-1]).Bytes()
		b := codec.NewKeyWriter('T').Uint32(samples[i]).Bytes()
		if bytes.Compare(a, b) >= 0 {
			t.Errorf("ascending violated: encode(%d) >= encode(%d)", samples[i-1], samples[i])
		}
	}
}

func TestDescendingOrder(t *testing.T) {
	samples := []uint32{0, 1, 100, 1 << 16, 1 << 30, ^uint32(0)}

	for i := 1; i < len(samples); i += 1 {
		a := codec.NewKeyWriter('T').Uint32Desc(samples[i-1]).Bytes()
		b := codec.NewKeyWriter('T').Uint32Desc(samples[i]).Bytes()
		if bytes.Compare(a, b) <= 0 {
			t.Errorf("descending violated: encode(%d) <= encode(%d)", samples[i-1], samples[i])
		}
	}
}

func TestUint64Order(t *testing.T) {
	samples := []uint64{0, 1, 1 << 32, 1 << 40, 1<<63 - 1, 1 << 63, ^uint64(0)}

	for i := 1; i < len(samples); i += 1 {
		a := codec.NewWriter().Uint64(samples[i-1]).Bytes()
		b := codec.NewWriter().Uint64(samples[i]).Bytes()
		if bytes.Compare(a, b) >= 0 {
			t.Errorf("ascending violated: encode(%d) >= encode(%d)", samples[i-1], samples[i])
		}
		a = codec.NewWriter().Uint64Desc(samples[i-1]).Bytes()
		b = codec.NewWriter().Uint64Desc(samples[i]).Bytes()
		if bytes.Compare(a, b) <= 0 {
			t.Errorf("descending violated: encode(%d) <= encode(%d)", samples[i-1], samples[i])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	key := codec.NewKeyWriter('k').
		Uint32(7).
		Uint32Desc(12345).
		Byte(3).
		Int64(987654321).
		String("an-address").
		Bytes()

	r := codec.NewKeyReader('k', key)
	if p := r.Uint32(); 7 != p {
		t.Errorf("uint32 mismatch: got: %d  expected: 7", p)
	}
	if b := r.Uint32Desc(); 12345 != b {
		t.Errorf("uint32 desc mismatch: got: %d  expected: 12345", b)
	}
	if c := r.Byte(); 3 != c {
		t.Errorf("byte mismatch: got: %d  expected: 3", c)
	}
	if n := r.Int64(); 987654321 != n {
		t.Errorf("int64 mismatch: got: %d  expected: 987654321", n)
	}
	if s := r.String(); "an-address" != s {
		t.Errorf("string mismatch: got: %q", s)
	}
	if err := r.Done(); nil != err {
		t.Errorf("unexpected decode error: %s", err)
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 1<<62 + 1, -(1 << 40), 1<<63 - 1, -(1 << 63)} {
		v := codec.NewWriter().Amount(n).Bytes()
		r := codec.NewReader(v)
		if m := r.Amount(); n != m {
			t.Errorf("amount mismatch: got: %d  expected: %d", m, n)
		}
		if err := r.Done(); nil != err {
			t.Errorf("unexpected decode error: %s", err)
		}
	}
}

func TestWrongTag(t *testing.T) {
	key := codec.NewKeyWriter('a').Uint32(1).Bytes()
	r := codec.NewKeyReader('b', key)
	r.Uint32()
	if err := r.Done(); fault.ErrWrongTableTag != err {
		t.Errorf("got: %v  expected: %v", err, fault.ErrWrongTableTag)
	}
}

func TestTrailingBytes(t *testing.T) {
	key := codec.NewKeyWriter('a').Uint32(1).Uint32(2).Bytes()
	r := codec.NewKeyReader('a', key)
	r.Uint32()
	if err := r.Done(); fault.ErrTrailingBytes != err {
		t.Errorf("got: %v  expected: %v", err, fault.ErrTrailingBytes)
	}
}

func TestShortRecord(t *testing.T) {
	key := codec.NewKeyWriter('a').Byte(1).Bytes()
	r := codec.NewKeyReader('a', key)
	if n := r.Uint64(); 0 != n {
		t.Errorf("expected zero value on short read, got: %d", n)
	}
	if err := r.Done(); fault.ErrShortRecord != err {
		t.Errorf("got: %v  expected: %v", err, fault.ErrShortRecord)
	}
}

// a prefix of the encoded key must equal the encoding of the leading
// fields on their own
func TestPrefixProperty(t *testing.T) {
	full := codec.NewKeyWriter('p').Uint32(9).Byte(2).Int64(55).Bytes()
	prefix := codec.NewKeyWriter('p').Uint32(9).Byte(2).Bytes()

	if !bytes.HasPrefix(full, prefix) {
		t.Errorf("prefix law violated: %x not prefix of %x", prefix, full)
	}
}
