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

// Package ledger is a serialized host for contract-style modules. It keeps a
// chain of mined blocks with timestamps, runs every transaction inside a
// single database transaction, gives nested calls their own rollback scope
// and publishes emitted logs once a transaction commits.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/multisig/database"
	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultChainID = 1337

	// MaxCallDepth bounds nested call frames
	MaxCallDepth = 1024

	tracerName = "github.com/blinklabs-io/multisig/ledger"
)

var (
	ErrContractExists    = errors.New("contract already deployed at address")
	ErrCallDepthExceeded = errors.New("call depth exceeded")
	ErrInvalidTimestamp  = errors.New("timestamp must be after the latest block")
	ErrNotExecutor       = errors.New("contract does not support the requested call")
	ErrReadOnly          = errors.New("state change in a read-only call")
)

// Contract is code deployed at a ledger address
type Contract interface {
	Call(ctx *Context, input []byte) ([]byte, error)
}

type LedgerConfig struct {
	Logger         *slog.Logger
	Database       *database.Database
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	// Clock returns the wall clock time. It defaults to time.Now
	Clock   func() time.Time
	ChainID uint64
	// ManualMining keeps transactions in the pending block until Mine is
	// called. By default every transaction is mined into its own block.
	ManualMining bool
}

type pendingBlock struct {
	timestamp      uint64
	txCount        uint32
	timestampFixed bool
}

// Ledger serializes transactions against the database and tracks the chain
// of blocks they land in
type Ledger struct {
	sync.RWMutex
	config     LedgerConfig
	db         *database.Database
	tracer     trace.Tracer
	contracts  map[common.Address]Contract
	blocks     *btree.BTreeG[models.Block]
	pending    pendingBlock
	timeOffset time.Duration
	metrics    ledgerMetrics
}

func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, errors.New("database is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = DefaultChainID
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	l := &Ledger{
		config:    cfg,
		db:        cfg.Database,
		tracer:    cfg.TracerProvider.Tracer(tracerName),
		contracts: make(map[common.Address]Contract),
		blocks:    newBlockIndex(),
	}
	if cfg.PromRegistry != nil {
		l.metrics.init(cfg.PromRegistry)
	}
	if err := l.loadBlocks(); err != nil {
		return nil, err
	}
	head := l.head()
	l.metrics.setBlockNumber(head.Number)
	l.config.Logger.Debug(
		"ledger ready",
		"component", "ledger",
		"chain_id", cfg.ChainID,
		"block", head.Number,
		"timestamp", head.Timestamp,
	)
	return l, nil
}

func (l *Ledger) loadBlocks() error {
	blocks, err := l.db.GetBlocks(nil)
	if err != nil {
		return fmt.Errorf("failed to load blocks: %w", err)
	}
	for _, block := range blocks {
		l.blocks.ReplaceOrInsert(block)
	}
	if l.blocks.Len() > 0 {
		return nil
	}
	genesis := models.Block{
		Number:    0,
		Timestamp: uint64(l.config.Clock().Unix()), // #nosec G115
	}
	if err := l.db.AddBlock(&genesis, nil); err != nil {
		return fmt.Errorf("failed to create genesis block: %w", err)
	}
	l.blocks.ReplaceOrInsert(genesis)
	return nil
}

func (l *Ledger) Database() *database.Database {
	return l.db
}

func (l *Ledger) Logger() *slog.Logger {
	return l.config.Logger
}

func (l *Ledger) ChainID() uint64 {
	return l.config.ChainID
}

// Deploy installs a contract at an address
func (l *Ledger) Deploy(addr common.Address, contract Contract) error {
	l.Lock()
	defer l.Unlock()
	if _, ok := l.contracts[addr]; ok {
		return fmt.Errorf("%w: %s", ErrContractExists, addr)
	}
	l.contracts[addr] = contract
	l.config.Logger.Debug(
		"deployed contract",
		"component", "ledger",
		"address", addr.Hex(),
		"type", fmt.Sprintf("%T", contract),
	)
	return nil
}

// ContractAt returns the contract deployed at an address
func (l *Ledger) ContractAt(addr common.Address) (Contract, bool) {
	l.RLock()
	defer l.RUnlock()
	contract, ok := l.contracts[addr]
	return contract, ok
}

func (l *Ledger) contractAt(addr common.Address) (Contract, bool) {
	contract, ok := l.contracts[addr]
	return contract, ok
}

// SetManualMining switches between mining every transaction into its own
// block and accumulating transactions until Mine is called
func (l *Ledger) SetManualMining(manual bool) error {
	l.Lock()
	defer l.Unlock()
	if !manual && l.pending.txCount > 0 {
		if err := l.mine(context.Background()); err != nil {
			return err
		}
	}
	l.config.ManualMining = manual
	return nil
}

// IncreaseTime moves the ledger clock forward for blocks mined from now on
func (l *Ledger) IncreaseTime(d time.Duration) {
	l.Lock()
	defer l.Unlock()
	l.timeOffset += d
}

// SetNextBlockTimestamp fixes the timestamp of the pending block
func (l *Ledger) SetNextBlockTimestamp(timestamp uint64) error {
	l.Lock()
	defer l.Unlock()
	if timestamp <= l.head().Timestamp {
		return fmt.Errorf(
			"%w: %d <= %d",
			ErrInvalidTimestamp,
			timestamp,
			l.head().Timestamp,
		)
	}
	if l.pending.txCount > 0 {
		return errors.New("pending block already contains transactions")
	}
	l.pending.timestamp = timestamp
	l.pending.timestampFixed = true
	return nil
}

// pendingTimestamp returns the timestamp transactions in the pending block
// observe. It advances with the clock until the block holds a transaction.
func (l *Ledger) pendingTimestamp() uint64 {
	if l.pending.timestampFixed {
		return l.pending.timestamp
	}
	now := uint64(l.config.Clock().Add(l.timeOffset).Unix()) // #nosec G115
	return max(now, l.head().Timestamp+1)
}

// Head returns the latest mined block
func (l *Ledger) Head() models.Block {
	l.RLock()
	defer l.RUnlock()
	return l.head()
}

// Pending returns the number and current timestamp of the block the next
// transaction will land in
func (l *Ledger) Pending() (uint64, uint64) {
	l.RLock()
	defer l.RUnlock()
	return l.head().Number + 1, l.pendingTimestamp()
}

// Mine closes the pending block
func (l *Ledger) Mine(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()
	return l.mine(ctx)
}

func (l *Ledger) mine(ctx context.Context) error {
	_, span := l.tracer.Start(ctx, "ledger.Mine")
	defer span.End()
	block := models.Block{
		Number:    l.head().Number + 1,
		Timestamp: l.pendingTimestamp(),
		TxCount:   l.pending.txCount,
	}
	if err := l.db.AddBlock(&block, nil); err != nil {
		span.RecordError(err)
		return err
	}
	l.blockMined(block)
	return nil
}

func (l *Ledger) blockMined(block models.Block) {
	l.blocks.ReplaceOrInsert(block)
	l.pending = pendingBlock{}
	l.metrics.setBlockNumber(block.Number)
	l.config.Logger.Debug(
		"mined block",
		"component", "ledger",
		"block", block.Number,
		"timestamp", block.Timestamp,
		"tx_count", block.TxCount,
	)
	if l.config.EventBus != nil {
		l.config.EventBus.PublishAsync(
			event.NewEvent(BlockMinedEventType, BlockMinedEvent{Block: block}),
		)
	}
}

// Run mines a block every interval until ctx is done
func (l *Ledger) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Mine(ctx); err != nil {
				return fmt.Errorf("failed to mine block: %w", err)
			}
		}
	}
}
