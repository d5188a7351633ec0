// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type DataError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = InvalidError("already initialised")
	ErrBlockOutOfSequence     = InvalidError("block out of sequence")
	ErrDatabaseVersionTooNew  = ProcessError("database version newer than program")
	ErrInvalidCount           = InvalidError("count is invalid")
	ErrInvalidCursor          = InvalidError("cursor is invalid")
	ErrInvalidRange           = InvalidError("token range is invalid")
	ErrKeyNotFound            = NotFoundError("key not found")
	ErrNotInitialised         = InvalidError("not initialised")
	ErrResyncRequired         = ProcessError("full resync from primary chain required")
	ErrShortRecord            = DataError("record too short to decode")
	ErrTrailingBytes          = DataError("record has undecoded trailing bytes")
	ErrVersionRecordCorrupted = DataError("version record corrupted")
	ErrWrongTableTag          = DataError("record table tag mismatch")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e DataError) Error() string     { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrData(e error) bool     { _, ok := e.(DataError); return ok }
