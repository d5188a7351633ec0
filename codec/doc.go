// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package codec - byte string encoding for ordered keys and values
//
// Keys are built from a one byte table tag followed by fixed width
// fields.  Integer fields are big-endian so that byte-wise comparison
// of two encoded keys matches the numeric comparison of their fields;
// for fields that must sort newest-first the integer is bit inverted
// before encoding.  Variable width fields are either length prefixed
// or placed last, so any leading group of fields forms a usable scan
// prefix.
package codec
