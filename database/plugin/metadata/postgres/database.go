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

package postgres

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/multisig/database/plugin/metadata/internal/gormstore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MetadataStorePostgres stores data in a Postgres database
type MetadataStorePostgres struct {
	db       *gorm.DB
	logger   *slog.Logger
	host     string
	user     string
	password string
	database string
	sslMode  string
	dsn      string
	port     uint
}

func NewWithOptions(opts ...PostgresOptionFunc) *MetadataStorePostgres {
	db := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(db)
	}
	if db.host == "" {
		db.host = "localhost"
	}
	if db.port == 0 {
		db.port = 5432
	}
	if db.user == "" {
		db.user = "postgres"
	}
	if db.database == "" {
		db.database = "multisig"
	}
	if db.sslMode == "" {
		db.sslMode = "disable"
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return db
}

// DSN returns the connection string used by Start()
func (d *MetadataStorePostgres) DSN() string {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + d.host,
		"user=" + d.user,
		"dbname=" + d.database,
		"port=" + strconv.FormatUint(uint64(d.port), 10),
		"sslmode=" + d.sslMode,
		"TimeZone=UTC",
	}
	if d.password != "" {
		parts = append(parts, "password="+d.password)
	}
	return strings.Join(parts, " ")
}

func (d *MetadataStorePostgres) Start() error {
	metadataDb, err := gorm.Open(postgres.Open(d.DSN()), gormstore.Config())
	if err != nil {
		return err
	}
	d.db = metadataDb
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	d.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", d.database,
	)
	return gormstore.Init(d.db, d.logger)
}

func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

func (d *MetadataStorePostgres) Close() error {
	if d.db == nil {
		return nil
	}
	db, err := d.DB().DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (d *MetadataStorePostgres) DB() *gorm.DB {
	return d.db
}

func (d *MetadataStorePostgres) Transaction() *gorm.DB {
	return d.DB().Begin()
}

func (d *MetadataStorePostgres) GetCommitTimestamp() (int64, error) {
	return gormstore.GetCommitTimestamp(d.DB())
}

func (d *MetadataStorePostgres) SetCommitTimestamp(
	txn *gorm.DB,
	timestamp int64,
) error {
	if txn == nil {
		txn = d.DB()
	}
	return gormstore.SetCommitTimestamp(txn, timestamp)
}
