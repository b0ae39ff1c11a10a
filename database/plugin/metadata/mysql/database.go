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

package mysql

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/multisig/database/plugin/metadata/internal/gormstore"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MetadataStoreMysql stores data in a MySQL database
type MetadataStoreMysql struct {
	db       *gorm.DB
	logger   *slog.Logger
	host     string
	user     string
	password string
	database string
	dsn      string
	port     uint
}

func NewWithOptions(opts ...MysqlOptionFunc) *MetadataStoreMysql {
	db := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(db)
	}
	if db.host == "" {
		db.host = "localhost"
	}
	if db.port == 0 {
		db.port = 3306
	}
	if db.user == "" {
		db.user = "root"
	}
	if db.database == "" {
		db.database = "multisig"
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return db
}

// DSN returns the connection string used by Start()
func (d *MetadataStoreMysql) DSN() string {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC",
		d.user,
		d.password,
		net.JoinHostPort(d.host, strconv.FormatUint(uint64(d.port), 10)),
		d.database,
	)
}

func (d *MetadataStoreMysql) Start() error {
	metadataDb, err := gorm.Open(gormmysql.Open(d.DSN()), gormstore.Config())
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
		"connected to mysql metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", d.database,
	)
	return gormstore.Init(d.db, d.logger)
}

func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

func (d *MetadataStoreMysql) Close() error {
	if d.db == nil {
		return nil
	}
	db, err := d.DB().DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (d *MetadataStoreMysql) DB() *gorm.DB {
	return d.db
}

func (d *MetadataStoreMysql) Transaction() *gorm.DB {
	return d.DB().Begin()
}

func (d *MetadataStoreMysql) GetCommitTimestamp() (int64, error) {
	return gormstore.GetCommitTimestamp(d.DB())
}

func (d *MetadataStoreMysql) SetCommitTimestamp(
	txn *gorm.DB,
	timestamp int64,
) error {
	if txn == nil {
		txn = d.DB()
	}
	return gormstore.SetCommitTimestamp(txn, timestamp)
}
