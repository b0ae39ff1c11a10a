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

package gcs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/multisig/database/plugin/blob/internal/objtxn"
	"github.com/blinklabs-io/multisig/database/types"
	"google.golang.org/api/option"
)

// BlobStoreGCS stores data in a Google Cloud Storage bucket
type BlobStoreGCS struct {
	logger          *slog.Logger
	client          *storage.Client
	bucket          *storage.BucketHandle
	bucketName      string
	prefix          string
	credentialsFile string
	timeout         time.Duration
}

func NewWithOptions(opts ...BlobStoreGCSOptionFunc) *BlobStoreGCS {
	db := &BlobStoreGCS{}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.timeout == 0 {
		db.timeout = 60 * time.Second
	}
	return db
}

func (d *BlobStoreGCS) Start() error {
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("gcs blob: failed creating storage client: %w", err)
	}
	d.client = client
	d.bucket = client.Bucket(d.bucketName)
	d.logger.Debug(
		"connected to GCS bucket",
		"component", "database",
		"bucket", d.bucketName,
	)
	return nil
}

func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *BlobStoreGCS) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

// objectName maps a binary key to a printable object name
func (d *BlobStoreGCS) objectName(key string) string {
	return d.prefix + hex.EncodeToString([]byte(key))
}

func (d *BlobStoreGCS) NewTransaction(readWrite bool) types.Txn {
	return objtxn.New(d, d, d.opContext, readWrite)
}

func (d *BlobStoreGCS) PutObject(ctx context.Context, key string, val []byte) error {
	w := d.bucket.Object(d.objectName(key)).NewWriter(ctx)
	if _, err := w.Write(val); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs blob: write %x: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs blob: write %x: %w", key, err)
	}
	return nil
}

func (d *BlobStoreGCS) DeleteObject(ctx context.Context, key string) error {
	err := d.bucket.Object(d.objectName(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs blob: delete %x: %w", key, err)
	}
	return nil
}

func (d *BlobStoreGCS) getObject(key string) ([]byte, error) {
	if d.bucket == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	ctx, cancel := d.opContext()
	defer cancel()
	r, err := d.bucket.Object(d.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (d *BlobStoreGCS) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := objtxn.Validate(txn, d)
	if err != nil {
		return nil, err
	}
	if val, ok, deleted := t.Pending(string(key)); ok {
		if deleted {
			return nil, types.ErrBlobKeyNotFound
		}
		return val, nil
	}
	return d.getObject(string(key))
}

func (d *BlobStoreGCS) Set(txn types.Txn, key, val []byte) error {
	t, err := objtxn.Validate(txn, d)
	if err != nil {
		return err
	}
	return t.Set(string(key), val)
}

func (d *BlobStoreGCS) Delete(txn types.Txn, key []byte) error {
	t, err := objtxn.Validate(txn, d)
	if err != nil {
		return err
	}
	return t.Delete(string(key))
}

func (d *BlobStoreGCS) GetCommitTimestamp() (int64, error) {
	val, err := d.getObject(types.CommitTimestampBlobKey)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return new(big.Int).SetBytes(val).Int64(), nil
}

func (d *BlobStoreGCS) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	return d.Set(
		txn,
		[]byte(types.CommitTimestampBlobKey),
		new(big.Int).SetInt64(timestamp).Bytes(),
	)
}
