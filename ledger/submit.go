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
	"fmt"
	"time"

	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type keepStateError struct {
	err error
}

func (e *keepStateError) Error() string {
	return e.err.Error()
}

func (e *keepStateError) Unwrap() error {
	return e.err
}

// KeepState marks a failure that must not discard the state changes made
// before it. A transaction failing with such an error is still committed and
// the error is reported to the submitter.
func KeepState(err error) error {
	if err == nil {
		return nil
	}
	return &keepStateError{err: err}
}

// Submit runs fn as a transaction sent by from to the contract at to. The
// transaction is committed if fn succeeds and rolled back otherwise, and the
// logs it emitted are published once it is committed.
func (l *Ledger) Submit(
	ctx context.Context,
	from common.Address,
	to common.Address,
	fn func(*Context) error,
) (*Receipt, error) {
	receipt, err := l.submit(ctx, from, to, fn)
	if receipt != nil {
		l.publish(receipt.Logs)
	}
	return receipt, err
}

// SubmitCall sends an encoded call to the contract at to
func (l *Ledger) SubmitCall(
	ctx context.Context,
	from common.Address,
	to common.Address,
	input []byte,
) (*Receipt, error) {
	var output []byte
	receipt, err := l.Submit(
		ctx,
		from,
		to,
		func(c *Context) error {
			contract, ok := c.ContractAt(to)
			if !ok {
				return nil
			}
			var err error
			output, err = contract.Call(c, input)
			return err
		},
	)
	if receipt != nil {
		receipt.Output = output
	}
	return receipt, err
}

func (l *Ledger) submit(
	ctx context.Context,
	from common.Address,
	to common.Address,
	fn func(*Context) error,
) (*Receipt, error) {
	l.Lock()
	defer l.Unlock()
	start := time.Now()
	blockNumber := l.head().Number + 1
	timestamp := l.pendingTimestamp()
	ctx, span := l.tracer.Start(
		ctx,
		"ledger.Submit",
		trace.WithAttributes(
			attribute.String("from", from.Hex()),
			attribute.String("to", to.Hex()),
			attribute.Int64("block", int64(blockNumber)), // #nosec G115
		),
	)
	defer span.End()
	tx := &txState{
		ctx:       ctx,
		txn:       l.db.Transaction(true),
		origin:    from,
		block:     blockNumber,
		timestamp: timestamp,
	}
	c := &Context{
		ledger: l,
		tx:     tx,
		self:   to,
		sender: from,
	}
	err := fn(c)
	var keepErr *keepStateError
	if err != nil && !errors.As(err, &keepErr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction reverted")
		if rbErr := tx.txn.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		l.metrics.txDone(time.Since(start).Seconds(), true)
		l.config.Logger.Debug(
			"transaction reverted",
			"component", "ledger",
			"from", from.Hex(),
			"to", to.Hex(),
			"block", blockNumber,
			"error", err,
		)
		return nil, err
	}
	if keepErr != nil {
		err = keepErr.err
		span.RecordError(err)
	}
	// Mine the transaction into its own block as part of the same commit
	var block *models.Block
	if !l.config.ManualMining {
		block = &models.Block{
			Number:    blockNumber,
			Timestamp: timestamp,
			TxCount:   1,
		}
		if dbErr := l.db.AddBlock(block, tx.txn); dbErr != nil {
			tx.txn.Release()
			return nil, errors.Join(err, dbErr)
		}
	}
	if cErr := tx.txn.Commit(); cErr != nil {
		span.RecordError(cErr)
		span.SetStatus(codes.Error, "commit failed")
		l.metrics.txDone(time.Since(start).Seconds(), true)
		return nil, errors.Join(err, fmt.Errorf("failed to commit transaction: %w", cErr))
	}
	for _, hook := range tx.onCommit {
		hook()
	}
	if block != nil {
		l.blockMined(*block)
	} else {
		l.pending.txCount++
		l.pending.timestamp = timestamp
		l.pending.timestampFixed = true
	}
	l.metrics.txDone(time.Since(start).Seconds(), err != nil)
	receipt := &Receipt{
		From:        from,
		To:          to,
		BlockNumber: blockNumber,
		Timestamp:   timestamp,
		Logs:        tx.logs,
		Err:         err,
	}
	return receipt, err
}

func (l *Ledger) publish(logs []Log) {
	if l.config.EventBus == nil {
		return
	}
	for _, log := range logs {
		l.config.EventBus.Publish(event.NewEvent(log.Type, log))
	}
}

// View runs fn against the state of the pending block without committing
// anything. Logs emitted by fn are discarded.
func (l *Ledger) View(
	ctx context.Context,
	from common.Address,
	to common.Address,
	fn func(*Context) error,
) error {
	l.RLock()
	defer l.RUnlock()
	ctx, span := l.tracer.Start(ctx, "ledger.View")
	defer span.End()
	tx := &txState{
		ctx:       ctx,
		txn:       l.db.Transaction(false),
		origin:    from,
		block:     l.head().Number + 1,
		timestamp: l.pendingTimestamp(),
		readOnly:  true,
	}
	defer tx.txn.Release()
	c := &Context{
		ledger: l,
		tx:     tx,
		self:   to,
		sender: from,
	}
	if err := fn(c); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ViewCall sends an encoded call to the contract at to without committing
// anything and returns its output
func (l *Ledger) ViewCall(
	ctx context.Context,
	from common.Address,
	to common.Address,
	input []byte,
) ([]byte, error) {
	var output []byte
	err := l.View(
		ctx,
		from,
		to,
		func(c *Context) error {
			contract, ok := c.ContractAt(to)
			if !ok {
				return nil
			}
			var err error
			output, err = contract.Call(c, input)
			return err
		},
	)
	return output, err
}
