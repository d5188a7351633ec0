// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package table - typed logical tables over a storage.Store
//
// A Schema binds one record kind to its table tag and its key/value
// byte encodings.  All keys of a table share the tag, so a prefix
// scan over the tag (or tag plus leading key fields) yields exactly
// the records of that table, in the order the schema's field
// encodings define.
//
// Tables that take part in chain rollback mirror every mutation into
// a BlockIndex: a secondary table keyed by descending block height
// whose entries say how to undo the mutation - delete the record, or
// restore a previous value captured at update time.
package table
