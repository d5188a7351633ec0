// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainsync - keeping derived state aligned with the chain
//
// The coordinator tracks the primary chain's connect and disconnect
// notifications and drives every rollback capable engine through
// reorganisations.  Disconnects only accumulate: a reorganisation
// disconnects several blocks before connecting the replacement
// chain, so the rewind runs once, immediately before the first
// replacement block is applied.
//
// A rewind undoes whole blocks in descending height order.  When the
// rewind target lies below the oldest retained state snapshot the
// coordinator refuses table level undo and reports that a full
// resync from the primary chain is required instead.
package chainsync
