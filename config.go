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

package multisig

import (
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultProposalDuration is the voting window of a proposal created without
// an end date
const DefaultProposalDuration = 7 * 24 * time.Hour

type Config struct {
	promRegistry            prometheus.Registerer
	logger                  *slog.Logger
	authorizer              Authorizer
	address                 common.Address
	dao                     common.Address
	defaultProposalDuration time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the plugin config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new plugin config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:                  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		defaultProposalDuration: DefaultProposalDuration,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPromRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPromRegistry(
	promRegistry prometheus.Registerer,
) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = promRegistry
	}
}

// WithAddress specifies the ledger address the plugin is deployed at
func WithAddress(address common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.address = address
	}
}

// WithDAO specifies the DAO the plugin is installed on
func WithDAO(dao common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.dao = dao
	}
}

// WithAuthorizer specifies the permission checker. By default, the DAO
// contract the plugin is installed on is used.
func WithAuthorizer(authorizer Authorizer) ConfigOptionFunc {
	return func(c *Config) {
		c.authorizer = authorizer
	}
}

// WithDefaultProposalDuration specifies the voting window used when a proposal
// is created without an end date
func WithDefaultProposalDuration(duration time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.defaultProposalDuration = duration
	}
}
