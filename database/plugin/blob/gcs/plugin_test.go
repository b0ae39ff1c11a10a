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

package gcs_test

import (
	"testing"

	"github.com/blinklabs-io/multisig/database/plugin"
	"github.com/blinklabs-io/multisig/database/plugin/blob/gcs"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRequiresBucket(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "gcs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket not set")
}

func TestTransactionWithoutClient(t *testing.T) {
	store := gcs.NewWithOptions(gcs.WithBucket("test"))
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	// Buffered writes are readable before commit
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	_, err = store.Get(txn, []byte("other"))
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	require.NoError(t, txn.Rollback())
}
