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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/multisig/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct {
	started bool
}

func (m *mockPlugin) Start() error {
	m.started = true
	return nil
}

func (m *mockPlugin) Stop() error { return nil }

type testOptions struct {
	dir   string
	size  uint64
	gc    bool
	level int
}

func registerTestPlugin(t *testing.T, opts *testOptions) string {
	t.Helper()
	name := "test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: ".multisig",
				Dest:         &opts.dir,
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(10),
				Dest:         &opts.size,
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: true,
				Dest:         &opts.gc,
			},
			{
				Name:         "level",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 1,
				Dest:         &opts.level,
			},
		},
	})
	return name
}

func TestRegisterAndGet(t *testing.T) {
	var opts testOptions
	name := registerTestPlugin(t, &opts)

	p := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)

	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if entry.Name == name {
			found = true
		}
	}
	assert.True(t, found, "plugin not in GetPlugins list")
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		assert.NotEqual(t, name, entry.Name)
	}

	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "non-existent-"+t.Name()))
}

func TestStartPlugin(t *testing.T) {
	var opts testOptions
	name := registerTestPlugin(t, &opts)

	p, err := plugin.StartPlugin(plugin.PluginTypeBlob, name)
	require.NoError(t, err)
	assert.True(t, p.(*mockPlugin).started)

	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, name)
	require.Error(t, err)

	errName := "error-" + t.Name()
	startErr := errors.New("boom")
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               errName,
		NewFromOptionsFunc: func() plugin.Plugin { return plugin.NewErrorPlugin(startErr) },
	})
	_, err = plugin.StartPlugin(plugin.PluginTypeBlob, errName)
	require.ErrorIs(t, err, startErr)
}

func TestSetPluginOption(t *testing.T) {
	var opts testOptions
	name := registerTestPlugin(t, &opts)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", ""))
	assert.Empty(t, opts.dir)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", 42))
	assert.Equal(t, uint64(42), opts.size)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "gc", true))
	assert.True(t, opts.gc)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", 123))
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", -1))
	// Unknown options are not fatal
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "does-not-exist", "x"))
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", "x"))
}

func TestProcessEnvVarsAndConfig(t *testing.T) {
	var opts testOptions
	name := registerTestPlugin(t, &opts)
	envName := (&plugin.PluginOption{Name: "cache-size"}).EnvVarName("blob", name)
	t.Setenv(envName, "1024")

	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, uint64(1024), opts.size)

	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			name: {
				"data-dir": "/tmp/blob",
				"gc":       false,
				"level":    3,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/blob", opts.dir)
	assert.False(t, opts.gc)
	assert.Equal(t, 3, opts.level)
}

func TestPopulateCmdlineOptions(t *testing.T) {
	var opts testOptions
	name := registerTestPlugin(t, &opts)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NoError(t, fs.Parse([]string{"--blob-" + name + "-data-dir", "/data"}))
	assert.Equal(t, "/data", opts.dir)
	assert.Equal(t, uint64(10), opts.size)
}
