// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package table_test

import (
	"github.com/bitmark-inc/logger"
)

func newTestLog() *logger.L {
	return logger.New("table-test")
}
