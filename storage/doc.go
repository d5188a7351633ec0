// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - durable sorted key-value stores
//
// Each logical database is one LevelDB directory.  Every record key
// starts with a one byte table tag, so a single physical store holds
// several logical tables and a bounded cursor over a tag (or a tag
// plus leading key fields) iterates exactly one logical subset.
//
// A format version is persisted in each store; opening a store whose
// version is older than the program's wipes it and reports that a
// rebuild from the primary chain is required.  Versions newer than
// the program are refused.
//
// Failure policy: an I/O error on any read or write is fatal - a
// store that cannot complete a write can no longer guarantee that
// its indexes match the primary chain.
package storage
