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
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/multisig/database/plugin"
	"github.com/blinklabs-io/multisig/database/plugin/blob"
	"github.com/blinklabs-io/multisig/database/plugin/metadata"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/multisig/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/multisig/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/multisig/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/multisig/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/multisig/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/multisig/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin       = "badger"
	DefaultMetadataPlugin   = "sqlite"
	DefaultPayloadCacheSize = 1024
)

type Config struct {
	PromRegistry     prometheus.Registerer
	Logger           *slog.Logger
	BlobPlugin       string
	MetadataPlugin   string
	DataDir          string
	PayloadCacheSize int
}

// Database coordinates the blob and metadata stores
type Database struct {
	logger       *slog.Logger
	blob         blob.BlobStore
	metadata     metadata.MetadataStore
	payloadCache *lru.Cache
	metrics      databaseMetrics
	config       Config
}

// New opens the blob and metadata plugins named in the config. An empty
// DataDir keeps both stores in memory when the selected plugins support it.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	d := &Database{
		config: *cfg,
		logger: cfg.Logger,
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if d.config.BlobPlugin == "" {
		d.config.BlobPlugin = DefaultBlobPlugin
	}
	if d.config.MetadataPlugin == "" {
		d.config.MetadataPlugin = DefaultMetadataPlugin
	}
	if d.config.PayloadCacheSize <= 0 {
		d.config.PayloadCacheSize = DefaultPayloadCacheSize
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, d.config.MetadataPlugin, "data-dir", d.config.DataDir); err != nil {
		return nil, err
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, d.config.BlobPlugin, "data-dir", d.config.DataDir); err != nil {
		return nil, err
	}
	metadataDb, err := metadata.New(d.config.MetadataPlugin)
	if err != nil {
		return nil, err
	}
	d.metadata = metadataDb
	blobDb, err := blob.New(d.config.BlobPlugin)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	d.blob = blobDb
	if err := d.init(); err != nil {
		// Database is available for recovery, so return it with error
		return d, err
	}
	return d, nil
}

func (d *Database) init() error {
	cache, err := lru.New(d.config.PayloadCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create payload cache: %w", err)
	}
	d.payloadCache = cache
	if d.config.PromRegistry != nil {
		d.metrics.init(d.config.PromRegistry)
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	d.logger.Debug(
		"opened database",
		"component", "database",
		"blob", d.config.BlobPlugin,
		"metadata", d.config.MetadataPlugin,
		"data_dir", d.config.DataDir,
	)
	return nil
}

func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

func (d *Database) Logger() *slog.Logger {
	return d.logger
}

func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Transaction starts a new transaction spanning both stores
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}
