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

package badger_test

import (
	"testing"

	"github.com/blinklabs-io/multisig/database/plugin/blob/badger"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStoreInMemory(t *testing.T) {
	store, err := badger.New(badger.WithPromRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	_, err = store.Get(txn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.ErrorIs(t, store.Set(txn, []byte("k"), []byte("x")), types.ErrTxnReadOnly)
	require.NoError(t, txn.Rollback())

	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrTxnFinished)
}

func TestBlobStoreDiscard(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestCommitTimestamp(t *testing.T) {
	store, err := badger.New(badger.WithDataDir(t.TempDir()), badger.WithGc(false))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000000, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ts)
}
