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
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/database/plugin"
	"github.com/blinklabs-io/multisig/internal/sops"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "multisig.config"

const (
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultShutdownTimeout = "30s"
	DefaultBlockInterval   = "2s"
)

// Well-known addresses used when the config does not name any
const (
	DefaultDAOAddress       = "0x00000000000000000000000000000000000da001"
	DefaultPluginAddress    = "0x0000000000000000000000000000000000005151"
	DefaultConditionAddress = "0x0000000000000000000000000000000000005152"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// tempConfig splits a config file into the main section and the storage
// plugin sections
type tempConfig struct {
	Config   Config                    `yaml:"config"             toml:"config"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"     toml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// PluginConfig is the installation bundle of the multisig plugin
type PluginConfig struct {
	DAOAddress       string   `yaml:"daoAddress"       toml:"daoAddress"       split_words:"true"`
	PluginAddress    string   `yaml:"pluginAddress"    toml:"pluginAddress"    split_words:"true"`
	ConditionAddress string   `yaml:"conditionAddress" toml:"conditionAddress" split_words:"true"`
	Owner            string   `yaml:"owner"            toml:"owner"`
	DAOMetadata      string   `yaml:"daoMetadata"      toml:"daoMetadata"      split_words:"true"`
	Metadata         string   `yaml:"metadata"         toml:"metadata"`
	Target           string   `yaml:"target"           toml:"target"`
	Operation        string   `yaml:"operation"        toml:"operation"`
	ProposalDuration string   `yaml:"proposalDuration" toml:"proposalDuration" split_words:"true"`
	Members          []string `yaml:"members"          toml:"members"`
	MinApprovals     uint16   `yaml:"minApprovals"     toml:"minApprovals"     split_words:"true"`
	OnlyListed       bool     `yaml:"onlyListed"       toml:"onlyListed"       split_words:"true"`
	WithSetMetadata  bool     `yaml:"withSetMetadata"  toml:"withSetMetadata"  split_words:"true"`
}

type Config struct {
	Plugin           PluginConfig `yaml:"plugin"           toml:"plugin"`
	DatabasePath     string       `yaml:"databasePath"     toml:"databasePath"     split_words:"true"`
	BlobPlugin       string       `yaml:"blobPlugin"       toml:"blobPlugin"       envconfig:"MULTISIG_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin   string       `yaml:"metadataPlugin"   toml:"metadataPlugin"   envconfig:"MULTISIG_DATABASE_METADATA_PLUGIN"`
	BlockInterval    string       `yaml:"blockInterval"    toml:"blockInterval"    split_words:"true"`
	ShutdownTimeout  string       `yaml:"shutdownTimeout"  toml:"shutdownTimeout"  split_words:"true"`
	BindAddr         string       `yaml:"bindAddr"         toml:"bindAddr"         split_words:"true"`
	TracingExporter  string       `yaml:"tracingExporter"  toml:"tracingExporter"  split_words:"true"`
	TracingEndpoint  string       `yaml:"tracingEndpoint"  toml:"tracingEndpoint"  split_words:"true"`
	ChainID          uint64       `yaml:"chainId"          toml:"chainId"          envconfig:"MULTISIG_CHAIN_ID"`
	PayloadCacheSize int          `yaml:"payloadCacheSize" toml:"payloadCacheSize" split_words:"true"`
	MetricsPort      uint         `yaml:"metricsPort"      toml:"metricsPort"      split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:     ".multisig",
		BlobPlugin:       DefaultBlobPlugin,
		MetadataPlugin:   DefaultMetadataPlugin,
		BlockInterval:    DefaultBlockInterval,
		ShutdownTimeout:  DefaultShutdownTimeout,
		BindAddr:         "0.0.0.0",
		MetricsPort:      12799,
		PayloadCacheSize: 1024,
		Plugin: PluginConfig{
			DAOAddress:       DefaultDAOAddress,
			PluginAddress:    DefaultPluginAddress,
			ConditionAddress: DefaultConditionAddress,
			Operation:        multisig.OperationCall.String(),
			OnlyListed:       true,
			MinApprovals:     1,
		},
	}
}

var globalConfig = defaultConfig()

func GetConfig() *Config {
	return globalConfig
}

// LoadConfig reads a YAML or TOML config file, decrypting it first when it
// is SOPS-encrypted, and then applies MULTISIG_* environment overrides
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.multisig/multisig.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".multisig", "multisig.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/multisig/multisig.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process("multisig", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// Files ending in .enc hold a SOPS binary document around the real file
	name := configFile
	sopsFormat := ""
	if trimmed, ok := strings.CutSuffix(name, ".enc"); ok {
		name = trimmed
		sopsFormat = sops.FormatBinary
	} else if sops.IsEncrypted(buf) {
		sopsFormat = sops.FormatYAML
		if filepath.Ext(name) == ".json" {
			sopsFormat = sops.FormatJSON
		}
	}
	if sopsFormat != "" {
		buf, err = sops.Decrypt(buf, sopsFormat)
		if err != nil {
			return fmt.Errorf("error decrypting config file: %w", err)
		}
	}
	unmarshal := yaml.Unmarshal
	if filepath.Ext(name) == ".toml" {
		unmarshal = toml.Unmarshal
	}

	var probe map[string]any
	if err := unmarshal(buf, &probe); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	// The config section is decoded over a copy of the current values so
	// that keys missing from the file keep their defaults
	tempCfg := tempConfig{Config: *globalConfig}
	if err := unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if _, ok := probe["config"]; ok {
		*globalConfig = tempCfg.Config
	} else if err := unmarshal(buf, globalConfig); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = maps.Clone(tempCfg.Blob)
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = maps.Clone(tempCfg.Metadata)
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// Validate checks values that cannot be checked while decoding
func (c *Config) Validate() error {
	if _, err := c.BlockIntervalDuration(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	switch c.TracingExporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf(
			"invalid tracingExporter: %q (must be 'stdout' or 'otlp')",
			c.TracingExporter,
		)
	}
	return nil
}

func (c *Config) BlockIntervalDuration() (time.Duration, error) {
	ret, err := time.ParseDuration(c.BlockInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid blockInterval: %w", err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid blockInterval: %s", c.BlockInterval)
	}
	return ret, nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	return ret, nil
}

func parseAddress(name string, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseOperation(value string) (multisig.Operation, error) {
	switch strings.ToLower(value) {
	case "", multisig.OperationCall.String():
		return multisig.OperationCall, nil
	case multisig.OperationDelegateCall.String():
		return multisig.OperationDelegateCall, nil
	}
	return 0, fmt.Errorf("invalid operation: %q (must be 'call' or 'delegatecall')", value)
}

// ProposalDurationValue returns the configured default proposal duration, or
// zero to keep the library default
func (p *PluginConfig) ProposalDurationValue() (time.Duration, error) {
	if p.ProposalDuration == "" {
		return 0, nil
	}
	ret, err := time.ParseDuration(p.ProposalDuration)
	if err != nil {
		return 0, fmt.Errorf("invalid proposalDuration: %w", err)
	}
	return ret, nil
}

// DeployConfig builds the deployment of the configured installation bundle
func (p *PluginConfig) DeployConfig() (multisig.DeployConfig, error) {
	var ret multisig.DeployConfig
	var err error
	if ret.DAOAddress, err = parseAddress("dao", p.DAOAddress); err != nil {
		return ret, err
	}
	if ret.PluginAddress, err = parseAddress("plugin", p.PluginAddress); err != nil {
		return ret, err
	}
	if ret.ConditionAddress, err = parseAddress("condition", p.ConditionAddress); err != nil {
		return ret, err
	}
	if ret.Owner, err = parseAddress("owner", p.Owner); err != nil {
		return ret, err
	}
	if ret.Init.TargetConfig.Target, err = parseAddress("target", p.Target); err != nil {
		return ret, err
	}
	if ret.Init.TargetConfig.Operation, err = parseOperation(p.Operation); err != nil {
		return ret, err
	}
	if (ret.DAOAddress == common.Address{}) ||
		(ret.PluginAddress == common.Address{}) ||
		(ret.ConditionAddress == common.Address{}) {
		return ret, errors.New("contract addresses are required")
	}
	for _, member := range p.Members {
		addr, err := parseAddress("member", member)
		if err != nil {
			return ret, err
		}
		ret.Init.Members = append(ret.Init.Members, addr)
	}
	ret.Init.Settings = multisig.Settings{
		OnlyListed:   p.OnlyListed,
		MinApprovals: p.MinApprovals,
	}
	if p.Metadata != "" {
		ret.Init.Metadata = []byte(p.Metadata)
	}
	if p.DAOMetadata != "" {
		ret.DAOMetadata = []byte(p.DAOMetadata)
	}
	ret.WithSetMetadata = p.WithSetMetadata
	return ret, nil
}
