// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledgerdata - ownership of all derived state
//
// A single Data value owns every database, engine and the rollback
// coordinator; there are no package level instances.  It is built at
// startup from the configuration and handed to the chain feed and
// the query layers.
//
// One mutex serialises all mutation: blocks are processed strictly
// one at a time, and a block either commits completely or the
// process aborts.  The pending table is the only exception - it is
// independently locked and ephemeral.
package ledgerdata
