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

package database

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/multisig/database/types"
	"gorm.io/gorm"
)

type blobWrite struct {
	key    []byte
	val    []byte
	delete bool
}

// Txn is a transaction spanning the blob and metadata stores. Blob writes are
// buffered until Commit so that they can be discarded along with the
// metadata changes when rolling back to a savepoint.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn *gorm.DB
	blobWrites  []blobWrite
	lock        sync.Mutex
	savepoints  int
	finished    bool
	readWrite   bool
}

// Savepoint marks a point inside a transaction that can be rolled back to
// without discarding the whole transaction
type Savepoint struct {
	name       string
	blobWrites int
}

func NewTxn(db *Database, readWrite bool) *Txn {
	return &Txn{
		db:          db,
		readWrite:   readWrite,
		blobTxn:     db.Blob().NewTransaction(readWrite),
		metadataTxn: db.Metadata().Transaction(),
	}
}

func (t *Txn) DB() *Database {
	return t.db
}

func (t *Txn) Metadata() *gorm.DB {
	return t.metadataTxn
}

func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

func (t *Txn) ReadWrite() bool {
	return t.readWrite
}

// Do runs fn and commits the transaction, or rolls it back if fn fails
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// BlobGet returns a blob value, including writes buffered in this transaction
func (t *Txn) BlobGet(key []byte) ([]byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	for i := len(t.blobWrites) - 1; i >= 0; i-- {
		w := t.blobWrites[i]
		if !bytes.Equal(w.key, key) {
			continue
		}
		if w.delete {
			return nil, types.ErrBlobKeyNotFound
		}
		return w.val, nil
	}
	return t.db.Blob().Get(t.blobTxn, key)
}

func (t *Txn) BlobSet(key, val []byte) error {
	return t.addBlobWrite(blobWrite{
		key: bytes.Clone(key),
		val: bytes.Clone(val),
	})
}

func (t *Txn) BlobDelete(key []byte) error {
	return t.addBlobWrite(blobWrite{key: bytes.Clone(key), delete: true})
}

func (t *Txn) addBlobWrite(w blobWrite) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return types.ErrTxnFinished
	}
	if !t.readWrite {
		return types.ErrTxnReadOnly
	}
	t.blobWrites = append(t.blobWrites, w)
	return nil
}

// Savepoint creates a new savepoint in the metadata transaction and records
// the current position in the blob write buffer
func (t *Txn) Savepoint() (Savepoint, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return Savepoint{}, types.ErrTxnFinished
	}
	t.savepoints++
	sp := Savepoint{
		name:       fmt.Sprintf("sp%d", t.savepoints),
		blobWrites: len(t.blobWrites),
	}
	if err := t.metadataTxn.SavePoint(sp.name).Error; err != nil {
		return Savepoint{}, fmt.Errorf("create savepoint: %w", err)
	}
	return sp, nil
}

// RollbackTo discards every change made after the savepoint was created
func (t *Txn) RollbackTo(sp Savepoint) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return types.ErrTxnFinished
	}
	if err := t.metadataTxn.RollbackTo(sp.name).Error; err != nil {
		return fmt.Errorf("rollback to savepoint: %w", err)
	}
	t.blobWrites = t.blobWrites[:sp.blobWrites]
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	// No need to commit for read-only, but we do want to free up resources
	if !t.readWrite {
		return t.rollback()
	}
	for _, w := range t.blobWrites {
		var err error
		if w.delete {
			err = t.db.Blob().Delete(t.blobTxn, w.key)
		} else {
			err = t.db.Blob().Set(t.blobTxn, w.key, w.val)
			add(t.db.metrics.blobWriteBytes, float64(len(w.val)))
		}
		if err != nil {
			_ = t.rollback()
			return fmt.Errorf("blob write failed: %w", err)
		}
	}
	if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
		_ = t.rollback()
		return fmt.Errorf("failed to update commit timestamp: %w", err)
	}
	// Commit blob transaction first (so if this fails, metadata never commits)
	if err := t.blobTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		t.finished = true
		return fmt.Errorf("blob commit failed: %w", err)
	}
	if err := t.metadataTxn.Commit().Error; err != nil {
		t.db.logger.Error(
			"partial commit: blob committed, metadata failed",
			"component", "database",
			"error", err,
		)
		t.finished = true
		return fmt.Errorf(
			"partial commit: metadata commit failed after blob commit: %w",
			err,
		)
	}
	t.finished = true
	inc(t.db.metrics.commits)
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.readWrite && !t.finished {
		inc(t.db.metrics.rollbacks)
	}
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	var errs []error
	if err := t.blobTxn.Rollback(); err != nil {
		errs = append(errs, fmt.Errorf("blob rollback: %w", err))
	}
	if err := t.metadataTxn.Rollback().Error; err != nil {
		errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
	}
	t.blobWrites = nil
	t.finished = true
	return errors.Join(errs...)
}

// Release rolls back the transaction if it has not been finished, logging
// instead of returning any error
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
