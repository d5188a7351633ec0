// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainsync

import (
	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/fault"
)

// State - coordinator state machine
type State int

const (
	Idle              State = iota // tip matches the primary chain
	DisconnectPending              // disconnects seen, rewind owed before the next connect
	Replaying                      // rebuilding derived state block by block
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DisconnectPending:
		return "disconnect-pending"
	case Replaying:
		return "replaying"
	default:
		return "unknown"
	}
}

// Engine - one rollback capable subsystem
//
// RollBackAbove must undo in descending block order internally, so a
// value restored for a later block is not clobbered by an earlier
// undo; it reports the number of records undone
type Engine interface {
	Name() string
	RollBackAbove(height uint32) int
}

// Coordinator - drives engines through connects and reorganisations
//
// callers serialise all methods; block processing is strictly
// sequential, one block fully committed or fully rewound before the
// next starts
type Coordinator struct {
	log   *logger.L
	state State
	tip   uint32

	engines []Engine

	// oldest retained point-in-time snapshot; snapshot policy is
	// external, absence means no rewind target is safe
	oldestSnapshot func() (uint32, bool)

	// checks that depend on totals only valid after a finished
	// rewind, deferred instead of run per undone block
	postRewind []func()

	// transactions of disconnected blocks, pending deletion
	pendingTxs []string
	rewound    func(target uint32, txs []string)
}

// NewCoordinator - create an idle coordinator over a set of engines
func NewCoordinator(oldestSnapshot func() (uint32, bool), engines ...Engine) *Coordinator {
	return &Coordinator{
		log:            logger.New("chainsync"),
		state:          Idle,
		engines:        engines,
		oldestSnapshot: oldestSnapshot,
	}
}

// AfterRewind - register a deferred post-rewind check
func (c *Coordinator) AfterRewind(check func()) {
	c.postRewind = append(c.postRewind, check)
}

// OnRewound - register a handler for the pending transaction set
//
// called once per completed rewind with the transactions of all
// disconnected blocks, then the set is cleared
func (c *Coordinator) OnRewound(handler func(target uint32, txs []string)) {
	c.rewound = handler
}

// State - current state
func (c *Coordinator) State() State {
	return c.state
}

// Tip - height of the last committed block
func (c *Coordinator) Tip() uint32 {
	return c.tip
}

// SetTip - set the starting height after loading persisted state
func (c *Coordinator) SetTip(height uint32) {
	c.tip = height
}

// StartReplay - enter the replay state for a rebuild from a height
func (c *Coordinator) StartReplay(fromHeight uint32) {
	c.state = Replaying
	c.tip = fromHeight
	c.pendingTxs = nil
	c.log.Infof("replaying from block %d", fromHeight+1)
}

// FinishReplay - leave the replay state once caught up
func (c *Coordinator) FinishReplay() {
	c.state = Idle
	c.log.Infof("replay finished at block %d", c.tip)
}

// BlockDisconnected - the primary chain discarded its tip block
//
// no table is mutated here: consecutive disconnects accumulate into
// one pending set and the rewind runs on the next connect
func (c *Coordinator) BlockDisconnected(height uint32, txs []string) {
	c.pendingTxs = append(c.pendingTxs, txs...)
	c.state = DisconnectPending
	c.log.Infof("block %d disconnected, %d transactions pending deletion", height, len(c.pendingTxs))
}

// BlockConnected - apply one block's mutations
//
// a pending rewind runs first, to the new block's parent.  apply
// performs the block's table mutations; a failure inside it is the
// caller's fatal condition, not an error to recover from here.
func (c *Coordinator) BlockConnected(height uint32, apply func(height uint32)) error {
	if DisconnectPending == c.state {
		err := c.rewind(height - 1)
		if nil != err {
			return err
		}
	}

	if 0 != c.tip && height != c.tip+1 {
		c.log.Errorf("block %d connected at tip %d", height, c.tip)
		return fault.ErrBlockOutOfSequence
	}

	apply(height)
	c.tip = height
	if Replaying != c.state {
		c.state = Idle
	}
	return nil
}

// rewind - undo every block above the target on every engine
//
// a target below the oldest retained snapshot cannot be reached by
// table level undo; the caller must wipe and resync instead
func (c *Coordinator) rewind(target uint32) error {
	oldest, ok := c.oldestSnapshot()
	if !ok || target < oldest {
		c.log.Warnf("rewind to %d is past the oldest snapshot, full resync required", target)
		return fault.ErrResyncRequired
	}

	c.log.Warnf("rewinding from %d to %d", c.tip, target)

	for _, engine := range c.engines {
		n := engine.RollBackAbove(target)
		c.log.Infof("engine %s: %d records rolled back", engine.Name(), n)
	}

	for _, check := range c.postRewind {
		check()
	}

	if nil != c.rewound {
		c.rewound(target, c.pendingTxs)
	}
	c.pendingTxs = nil
	c.tip = target
	c.state = Idle
	return nil
}
