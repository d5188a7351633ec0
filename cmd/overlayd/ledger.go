// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/feecache"
)

// balance book placeholder for standalone operation
//
// without an attached chain feed there is no balance data to select
// payout receivers from, so a crossed threshold stays cached until a
// feed supplies a real balance book
type standaloneLedger struct {
	log *logger.L
}

func (l *standaloneLedger) Credit(address string, property uint32, amount int64) {
	l.log.Infof("credit: %q property: %d amount: %d", address, property, amount)
}

func (l *standaloneLedger) Receivers(purpose string, property uint32, amount int64) []feecache.Recipient {
	l.log.Warnf("no balance book attached: %s of %d for property: %d stays cached", purpose, amount, property)
	return nil
}
