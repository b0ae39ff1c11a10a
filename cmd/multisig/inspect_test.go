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

package main

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/internal/config"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProposalID(t *testing.T) {
	id := common.HexToHash("0x1234")
	ret, err := parseProposalID("0x1234")
	require.NoError(t, err)
	assert.Equal(t, id, ret)

	ret, err = parseProposalID(big.NewInt(0x1234).String())
	require.NoError(t, err)
	assert.Equal(t, id, ret)

	for _, value := range []string{"0xzz", "-1", "abc", "0x" + common.Bytes2Hex(make([]byte, 33))} {
		_, err := parseProposalID(value)
		require.Error(t, err, value)
	}
}

func TestListPlugins(t *testing.T) {
	listed, output := listPlugins("badger", "sqlite")
	assert.False(t, listed)
	assert.Empty(t, output)

	listed, output = listPlugins("list", "list")
	assert.True(t, listed)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "  badger: ")
	assert.Contains(t, output, "Available metadata plugins:")
	assert.Contains(t, output, "  sqlite: ")
}

func TestInspectEmptyDatabase(t *testing.T) {
	cfg := config.GetConfig()
	testCfg := *cfg
	testCfg.DatabasePath = ""
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ret, err := inspect(
		context.Background(),
		&testCfg,
		logger,
		func(c *ledger.Context, m *multisig.Multisig) (any, error) {
			return m.Members(c)
		},
	)
	require.NoError(t, err)
	assert.Empty(t, ret)
}
