// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package nft - range based non-fungible token ownership
//
// Tokens of a property are identified by consecutive integer ids and
// stored as ranges: one record covers [start, end] and carries a
// value - the owning address for the range index class, or attached
// data for the metadata classes.  Ranges of one (property, class) are
// pairwise disjoint and adjacent ranges with the same value are
// merged on write, so lookups stay linear in the number of distinct
// spans rather than tokens.
//
// Every mutation first captures the affected key's before image into
// a per-block journal, allowing a chain rewind to restore exactly the
// state at any earlier height.  After each processed block the
// highest range end per touched property must equal that property's
// total token supply; a mismatch means silent range corruption and
// aborts the process.
package nft
