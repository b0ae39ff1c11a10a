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

// Package objtxn provides the write-buffering transaction shared by the
// object storage blob plugins. Object stores have no multi-key transactions,
// so writes are held in memory and flushed in order on Commit.
package objtxn

import (
	"context"

	"github.com/blinklabs-io/multisig/database/types"
)

type ObjectWriter interface {
	PutObject(ctx context.Context, key string, val []byte) error
	DeleteObject(ctx context.Context, key string) error
}

type write struct {
	key    string
	val    []byte
	delete bool
}

type Txn struct {
	owner     any
	writer    ObjectWriter
	ctxFunc   func() (context.Context, context.CancelFunc)
	writes    []write
	index     map[string]int
	readWrite bool
	finished  bool
}

func New(
	owner any,
	writer ObjectWriter,
	ctxFunc func() (context.Context, context.CancelFunc),
	readWrite bool,
) *Txn {
	return &Txn{
		owner:     owner,
		writer:    writer,
		ctxFunc:   ctxFunc,
		index:     make(map[string]int),
		readWrite: readWrite,
	}
}

// Validate checks that txn is a live transaction created by owner
func Validate(txn types.Txn, owner any) (*Txn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*Txn)
	if !ok || t.owner != owner {
		return nil, types.ErrTxnWrongType
	}
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	return t, nil
}

// Pending returns a buffered value for key. The second return value reports
// whether the key has a buffered write, the third whether that write is a
// delete.
func (t *Txn) Pending(key string) ([]byte, bool, bool) {
	idx, ok := t.index[key]
	if !ok {
		return nil, false, false
	}
	w := t.writes[idx]
	return w.val, true, w.delete
}

func (t *Txn) Set(key string, val []byte) error {
	return t.add(write{key: key, val: append([]byte(nil), val...)})
}

func (t *Txn) Delete(key string) error {
	return t.add(write{key: key, delete: true})
}

func (t *Txn) add(w write) error {
	if !t.readWrite {
		return types.ErrTxnReadOnly
	}
	if idx, ok := t.index[w.key]; ok {
		t.writes[idx] = w
		return nil
	}
	t.index[w.key] = len(t.writes)
	t.writes = append(t.writes, w)
	return nil
}

func (t *Txn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if !t.readWrite || len(t.writes) == 0 {
		return nil
	}
	ctx, cancel := t.ctxFunc()
	defer cancel()
	for _, w := range t.writes {
		var err error
		if w.delete {
			err = t.writer.DeleteObject(ctx, w.key)
		} else {
			err = t.writer.PutObject(ctx, w.key, w.val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.finished = true
	t.writes = nil
	return nil
}
