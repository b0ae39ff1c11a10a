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

package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/multisig/database"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/blinklabs-io/multisig/event"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSender  = common.HexToAddress("0x5e4d")
	testCounter = common.HexToAddress("0xc0")
	testOther   = common.HexToAddress("0xc1")
	counterKey  = []byte("counter")
	errTest     = errors.New("test failure")
)

// counterContract increments a blob counter on any call. An input of "fail"
// makes it fail after incrementing.
type counterContract struct{}

func (counterContract) Call(ctx *ledger.Context, input []byte) ([]byte, error) {
	val, err := ctx.Txn().BlobGet(counterKey)
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		return nil, err
	}
	next := []byte{1}
	if len(val) == 1 {
		next[0] = val[0] + 1
	}
	if err := ctx.Txn().BlobSet(counterKey, next); err != nil {
		return nil, err
	}
	ctx.Emit("test.counter", next[0])
	if string(input) == "fail" {
		return nil, errTest
	}
	return next, nil
}

func newTestLedger(t *testing.T, cfg ledger.LedgerConfig) *ledger.Ledger {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	cfg.Database = db
	l, err := ledger.NewLedger(cfg)
	require.NoError(t, err)
	require.NoError(t, l.Deploy(testCounter, counterContract{}))
	return l
}

func readCounter(t *testing.T, l *ledger.Ledger) byte {
	t.Helper()
	var ret byte
	err := l.View(
		context.Background(),
		testSender,
		testCounter,
		func(c *ledger.Context) error {
			val, err := c.Txn().BlobGet(counterKey)
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			ret = val[0]
			return nil
		},
	)
	require.NoError(t, err)
	return ret
}

func TestSubmitCommitAndRevert(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	ctx := context.Background()
	receipt, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, receipt.Output)
	assert.Equal(t, uint64(1), receipt.BlockNumber)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, testCounter, receipt.Logs[0].Address)

	receipt, err = l.SubmitCall(ctx, testSender, testCounter, []byte("fail"))
	require.ErrorIs(t, err, errTest)
	assert.Nil(t, receipt)
	assert.Equal(t, byte(1), readCounter(t, l))
	// Reverted transactions are not mined
	assert.Equal(t, uint64(1), l.Head().Number)
}

func TestSubmitKeepState(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	receipt, err := l.Submit(
		context.Background(),
		testSender,
		testCounter,
		func(c *ledger.Context) error {
			contract, _ := c.ContractAt(testCounter)
			_, err := contract.Call(c, []byte("fail"))
			return ledger.KeepState(err)
		},
	)
	require.ErrorIs(t, err, errTest)
	require.NotNil(t, receipt)
	assert.ErrorIs(t, receipt.Err, errTest)
	assert.Len(t, receipt.Logs, 1)
	assert.Equal(t, byte(1), readCounter(t, l))
}

func TestCallFrameRollback(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	_, err := l.Submit(
		context.Background(),
		testSender,
		testOther,
		func(c *ledger.Context) error {
			out, err := c.Call(testCounter, nil)
			if err != nil {
				return err
			}
			assert.Equal(t, []byte{1}, out)
			// The failing call leaves no trace
			_, err = c.Call(testCounter, []byte("fail"))
			assert.ErrorIs(t, err, errTest)
			// Calls to addresses without code succeed
			out, err = c.Call(common.HexToAddress("0xdead"), []byte("x"))
			assert.NoError(t, err)
			assert.Empty(t, out)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, byte(1), readCounter(t, l))
}

func TestCallFrameAddresses(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	_, err := l.Submit(
		context.Background(),
		testSender,
		testOther,
		func(c *ledger.Context) error {
			assert.Equal(t, testOther, c.Self())
			assert.Equal(t, testSender, c.Sender())
			_, err := c.CallFunc(testCounter, func(frame *ledger.Context) ([]byte, error) {
				assert.Equal(t, testCounter, frame.Self())
				assert.Equal(t, testOther, frame.Sender())
				assert.Equal(t, testSender, frame.Origin())
				return nil, nil
			})
			if err != nil {
				return err
			}
			_, err = c.DelegateCall(func(frame *ledger.Context) ([]byte, error) {
				assert.Equal(t, testOther, frame.Self())
				assert.Equal(t, testSender, frame.Sender())
				return nil, nil
			})
			return err
		},
	)
	require.NoError(t, err)
}

func TestCallDepth(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	var recurse func(c *ledger.Context) ([]byte, error)
	recurse = func(c *ledger.Context) ([]byte, error) {
		return c.CallFunc(testOther, recurse)
	}
	_, err := l.Submit(
		context.Background(),
		testSender,
		testOther,
		func(c *ledger.Context) error {
			_, err := recurse(c)
			return err
		},
	)
	require.ErrorIs(t, err, ledger.ErrCallDepthExceeded)
}

func TestManualMining(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{ManualMining: true})
	ctx := context.Background()
	r1, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	r2, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	assert.Equal(t, r1.BlockNumber, r2.BlockNumber)
	assert.Equal(t, r1.Timestamp, r2.Timestamp)
	assert.Equal(t, uint64(0), l.Head().Number)
	require.NoError(t, l.Mine(ctx))
	head := l.Head()
	assert.Equal(t, uint64(1), head.Number)
	assert.Equal(t, uint32(2), head.TxCount)
	assert.Equal(t, r1.Timestamp, head.Timestamp)
	require.NoError(t, l.SetManualMining(false))
	r3, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r3.BlockNumber)
	assert.Len(t, l.Blocks(0, 2), 3)
}

func TestTimestamps(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newTestLedger(t, ledger.LedgerConfig{
		Clock: func() time.Time { return now },
	})
	ctx := context.Background()
	assert.Equal(t, uint64(now.Unix()), l.Head().Timestamp)
	// Blocks never share a timestamp
	r1, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(now.Unix())+1, r1.Timestamp)
	l.IncreaseTime(time.Hour)
	r2, err := l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(now.Add(time.Hour).Unix()), r2.Timestamp)
	require.ErrorIs(t, l.SetNextBlockTimestamp(r2.Timestamp), ledger.ErrInvalidTimestamp)
	require.NoError(t, l.SetNextBlockTimestamp(r2.Timestamp+100))
	number, timestamp := l.Pending()
	assert.Equal(t, uint64(3), number)
	assert.Equal(t, r2.Timestamp+100, timestamp)
	block, ok := l.BlockByNumber(2)
	require.True(t, ok)
	assert.Equal(t, r2.Timestamp, block.Timestamp)
}

func TestLedgerReload(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	l, err := ledger.NewLedger(ledger.LedgerConfig{Database: db})
	require.NoError(t, err)
	require.NoError(t, l.Mine(context.Background()))
	require.NoError(t, l.Mine(context.Background()))
	l2, err := ledger.NewLedger(ledger.LedgerConfig{Database: db})
	require.NoError(t, err)
	assert.Equal(t, l.Head(), l2.Head())
}

func TestDeployTwice(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	require.ErrorIs(t, l.Deploy(testCounter, counterContract{}), ledger.ErrContractExists)
}

func TestPublishAfterCommit(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, evtCh := eb.Subscribe("test.counter")
	l := newTestLedger(t, ledger.LedgerConfig{EventBus: eb})
	ctx := context.Background()
	_, err := l.SubmitCall(ctx, testSender, testCounter, []byte("fail"))
	require.Error(t, err)
	_, err = l.SubmitCall(ctx, testSender, testCounter, nil)
	require.NoError(t, err)
	select {
	case evt := <-evtCh:
		log, ok := evt.Data.(ledger.Log)
		require.True(t, ok)
		assert.Equal(t, byte(1), log.Data)
		assert.Equal(t, uint64(1), log.BlockNumber)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	select {
	case evt := <-evtCh:
		t.Fatalf("unexpected event: %v", evt)
	default:
	}
}

func TestOnCommitHooks(t *testing.T) {
	l := newTestLedger(t, ledger.LedgerConfig{})
	ctx := context.Background()
	var ran []string
	hook := func(name string) func() {
		return func() { ran = append(ran, name) }
	}
	_, err := l.Submit(ctx, testSender, testCounter, func(c *ledger.Context) error {
		c.OnCommit(hook("outer"))
		_, err := c.CallFunc(testOther, func(frame *ledger.Context) ([]byte, error) {
			frame.OnCommit(hook("failed frame"))
			return nil, errTest
		})
		require.ErrorIs(t, err, errTest)
		assert.Empty(t, ran)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, ran)

	_, err = l.Submit(ctx, testSender, testCounter, func(c *ledger.Context) error {
		c.OnCommit(hook("reverted"))
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	err = l.View(ctx, testSender, testCounter, func(c *ledger.Context) error {
		assert.True(t, c.ReadOnly())
		c.OnCommit(hook("view"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, ran)
}
