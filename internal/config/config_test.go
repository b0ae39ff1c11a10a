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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/multisig"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig(t *testing.T) {
	t.Helper()
	globalConfig = defaultConfig()
	t.Cleanup(func() {
		globalConfig = defaultConfig()
	})
}

func writeConfigFile(t *testing.T, name string, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoadYAML(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, "multisig.yaml", `
databasePath: "/var/lib/multisig"
chainId: 31337
blockInterval: "500ms"
plugin:
  owner: "0x00000000000000000000000000000000000000aa"
  members:
    - "0x0000000000000000000000000000000000000a11"
    - "0x0000000000000000000000000000000000000b0b"
  minApprovals: 2
  metadata: "ipfs://plugin"
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/multisig", cfg.DatabasePath)
	assert.Equal(t, uint64(31337), cfg.ChainID)
	interval, err := cfg.BlockIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, interval)
	// Untouched keys keep their defaults
	assert.Equal(t, DefaultBlobPlugin, cfg.BlobPlugin)
	assert.Equal(t, DefaultDAOAddress, cfg.Plugin.DAOAddress)
	assert.True(t, cfg.Plugin.OnlyListed)
	assert.Equal(t, uint16(2), cfg.Plugin.MinApprovals)
	assert.Len(t, cfg.Plugin.Members, 2)
}

func TestLoadConfigSection(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, "multisig.yaml", `
config:
  metricsPort: 9100
  metadataPlugin: "postgres"
metadata:
  postgres:
    host: "db.internal"
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.MetricsPort)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoadTOML(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, "multisig.toml", `
chainId = 5
tracingExporter = "stdout"

[plugin]
onlyListed = false
minApprovals = 3
operation = "delegatecall"
target = "0x0000000000000000000000000000000000000e0e"
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cfg.ChainID)
	assert.Equal(t, "stdout", cfg.TracingExporter)
	assert.False(t, cfg.Plugin.OnlyListed)
	assert.Equal(t, uint16(3), cfg.Plugin.MinApprovals)
	assert.Equal(t, ".multisig", cfg.DatabasePath)

	deployCfg, err := cfg.Plugin.DeployConfig()
	require.NoError(t, err)
	assert.Equal(t, multisig.OperationDelegateCall, deployCfg.Init.TargetConfig.Operation)
	assert.Equal(
		t,
		common.HexToAddress("0x0000000000000000000000000000000000000e0e"),
		deployCfg.Init.TargetConfig.Target,
	)
}

func TestLoadEnvOverride(t *testing.T) {
	resetGlobalConfig(t)
	t.Setenv("MULTISIG_DATABASE_PATH", "/tmp/multisig-env")
	t.Setenv("MULTISIG_DATABASE_METADATA_PLUGIN", "mysql")
	t.Setenv("MULTISIG_CHAIN_ID", "42")
	t.Setenv("MULTISIG_PLUGIN_MIN_APPROVALS", "4")
	tmpFile := writeConfigFile(t, "multisig.yaml", "databasePath: \"/from/file\"\n")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/multisig-env", cfg.DatabasePath)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)
	assert.Equal(t, uint64(42), cfg.ChainID)
	assert.Equal(t, uint16(4), cfg.Plugin.MinApprovals)
}

func TestLoadInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "block interval", content: "blockInterval: \"soon\"\n"},
		{name: "zero block interval", content: "blockInterval: \"0s\"\n"},
		{name: "shutdown timeout", content: "shutdownTimeout: \"never\"\n"},
		{name: "tracing exporter", content: "tracingExporter: \"zipkin\"\n"},
		{name: "syntax", content: "chainId: [1\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			resetGlobalConfig(t)
			tmpFile := writeConfigFile(t, "multisig.yaml", testDef.content)
			_, err := LoadConfig(tmpFile)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	resetGlobalConfig(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "error reading config file")
}

func TestDeployConfig(t *testing.T) {
	pluginCfg := defaultConfig().Plugin
	pluginCfg.Owner = "0x00000000000000000000000000000000000000aa"
	pluginCfg.Members = []string{"0x0000000000000000000000000000000000000a11"}
	pluginCfg.Metadata = "ipfs://plugin"
	deployCfg, err := pluginCfg.DeployConfig()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(DefaultDAOAddress), deployCfg.DAOAddress)
	assert.Equal(t, common.HexToAddress(DefaultPluginAddress), deployCfg.PluginAddress)
	assert.Equal(
		t,
		[]common.Address{common.HexToAddress("0x0000000000000000000000000000000000000a11")},
		deployCfg.Init.Members,
	)
	assert.Equal(t, multisig.Settings{OnlyListed: true, MinApprovals: 1}, deployCfg.Init.Settings)
	assert.Equal(t, []byte("ipfs://plugin"), deployCfg.Init.Metadata)
	assert.Nil(t, deployCfg.DAOMetadata)

	pluginCfg.Members = []string{"not-an-address"}
	_, err = pluginCfg.DeployConfig()
	require.ErrorContains(t, err, "invalid member address")

	pluginCfg.Members = nil
	pluginCfg.Operation = "staticcall"
	_, err = pluginCfg.DeployConfig()
	require.ErrorContains(t, err, "invalid operation")

	pluginCfg.Operation = ""
	pluginCfg.PluginAddress = ""
	_, err = pluginCfg.DeployConfig()
	require.ErrorContains(t, err, "contract addresses are required")
}

func TestProposalDurationValue(t *testing.T) {
	pluginCfg := PluginConfig{}
	ret, err := pluginCfg.ProposalDurationValue()
	require.NoError(t, err)
	assert.Zero(t, ret)
	pluginCfg.ProposalDuration = "72h"
	ret, err = pluginCfg.ProposalDurationValue()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, ret)
	pluginCfg.ProposalDuration = "3 days"
	_, err = pluginCfg.ProposalDurationValue()
	require.Error(t, err)
}
