// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package property - registry of token properties
//
// Each property carries a metadata entry: descriptive fields, the
// issuer, the total supply and the blocks that created and last
// changed it.  Only the latest entry is stored; every change journals
// the previous encoded value keyed by block, so a chain rewind
// restores the entry exactly and deletes properties created in the
// undone blocks.  Supply changes notify a registered observer, which
// the daemon wires to the fee distribution threshold recomputation.
package property
