// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feecache - accumulated trading fees and their distribution
//
// Fees collected for a property accumulate in a cache keyed by
// (property, block).  Only the latest snapshot per property is
// retained; older snapshots are pruned on every write.  When the
// cached amount reaches the property's distribution threshold the
// whole cache for that property is paid out pro rata to holders and
// the payout is recorded in the fee history database, from which it
// can be rolled back during a chain reorganisation.
//
// Balance effects are delegated to a Tally collaborator: this package
// decides when and how much to distribute, the tally decides to whom
// and applies the credits.
package feecache
