// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blinklabs-io/multisig/database"
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
)

type txState struct {
	ctx       context.Context
	txn       *database.Txn
	logs      []Log
	onCommit  []func()
	origin    common.Address
	block     uint64
	timestamp uint64
	readOnly  bool
}

// Context is the view a contract has of the transaction it runs in. Each call
// frame gets its own Context sharing the transaction state.
type Context struct {
	ledger *Ledger
	tx     *txState
	self   common.Address
	sender common.Address
	depth  int
}

// Context returns the context.Context of the transaction
func (c *Context) Context() context.Context {
	return c.tx.ctx
}

// Self returns the address of the contract whose code is running
func (c *Context) Self() common.Address {
	return c.self
}

// Sender returns the immediate caller of the current frame
func (c *Context) Sender() common.Address {
	return c.sender
}

// Origin returns the account that submitted the transaction
func (c *Context) Origin() common.Address {
	return c.tx.origin
}

// BlockNumber returns the number of the block the transaction lands in
func (c *Context) BlockNumber() uint64 {
	return c.tx.block
}

// Timestamp returns the timestamp in seconds of the block the transaction
// lands in
func (c *Context) Timestamp() uint64 {
	return c.tx.timestamp
}

func (c *Context) ChainID() uint64 {
	return c.ledger.config.ChainID
}

// ReadOnly reports whether the context belongs to a View. Contracts reject
// state-changing calls with ErrReadOnly when it is set.
func (c *Context) ReadOnly() bool {
	return c.tx.readOnly
}

func (c *Context) Txn() *database.Txn {
	return c.tx.txn
}

func (c *Context) DB() *database.Database {
	return c.ledger.db
}

func (c *Context) Logger() *slog.Logger {
	return c.ledger.config.Logger
}

// Emit records a log attributed to the running contract. Logs of frames that
// fail are discarded.
func (c *Context) Emit(eventType event.EventType, data any) {
	c.tx.logs = append(
		c.tx.logs,
		Log{
			Type:        eventType,
			Data:        data,
			Address:     c.self,
			BlockNumber: c.tx.block,
			TxSender:    c.tx.origin,
		},
	)
}

// OnCommit registers fn to run once the transaction is committed. Hooks of
// frames that fail are discarded, and hooks registered in a View never run.
func (c *Context) OnCommit(fn func()) {
	c.tx.onCommit = append(c.tx.onCommit, fn)
}

// ContractAt returns the contract deployed at an address
func (c *Context) ContractAt(addr common.Address) (Contract, bool) {
	return c.ledger.contractAt(addr)
}

// Call invokes the contract at an address with an encoded input, with the
// current contract as sender. Calling an address without code succeeds with
// empty output.
func (c *Context) Call(to common.Address, input []byte) ([]byte, error) {
	return c.CallFunc(to, func(frame *Context) ([]byte, error) {
		contract, ok := c.ledger.contractAt(to)
		if !ok {
			return nil, nil
		}
		return contract.Call(frame, input)
	})
}

// CallFunc runs fn in a new frame for the contract at an address, with the
// current contract as sender
func (c *Context) CallFunc(
	to common.Address,
	fn func(*Context) ([]byte, error),
) ([]byte, error) {
	return c.frame(
		&Context{
			ledger: c.ledger,
			tx:     c.tx,
			self:   to,
			sender: c.self,
			depth:  c.depth + 1,
		},
		fn,
	)
}

// DelegateCall runs fn in a new frame that keeps the current contract and
// sender. It is used to run the code of another contract against the state of
// the current one.
func (c *Context) DelegateCall(
	fn func(*Context) ([]byte, error),
) ([]byte, error) {
	return c.frame(
		&Context{
			ledger: c.ledger,
			tx:     c.tx,
			self:   c.self,
			sender: c.sender,
			depth:  c.depth + 1,
		},
		fn,
	)
}

// frame runs fn with its own rollback scope. A failing frame leaves no state
// changes and no logs behind, unless the failure was wrapped with KeepState.
func (c *Context) frame(
	frame *Context,
	fn func(*Context) ([]byte, error),
) ([]byte, error) {
	if frame.depth > MaxCallDepth {
		return nil, ErrCallDepthExceeded
	}
	sp, err := c.tx.txn.Savepoint()
	if err != nil {
		return nil, err
	}
	logCount := len(c.tx.logs)
	hookCount := len(c.tx.onCommit)
	ret, err := fn(frame)
	if err != nil {
		var keepErr *keepStateError
		if errors.As(err, &keepErr) {
			// The state is kept, but the caller only sees the failure
			return ret, keepErr.err
		}
		if rbErr := c.tx.txn.RollbackTo(sp); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		c.tx.logs = c.tx.logs[:logCount]
		c.tx.onCommit = c.tx.onCommit[:hookCount]
		return nil, err
	}
	return ret, nil
}
