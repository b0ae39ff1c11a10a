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

package aws

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/multisig/database/plugin/blob/internal/objtxn"
	"github.com/blinklabs-io/multisig/database/types"
)

// BlobStoreS3 stores data in an AWS S3 bucket
type BlobStoreS3 struct {
	logger  *slog.Logger
	client  *s3.Client
	bucket  string
	prefix  string
	region  string
	timeout time.Duration
}

func NewWithOptions(opts ...BlobStoreS3OptionFunc) *BlobStoreS3 {
	db := &BlobStoreS3{}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.timeout == 0 {
		db.timeout = 60 * time.Second
	}
	if db.prefix != "" && !strings.HasSuffix(db.prefix, "/") {
		db.prefix += "/"
	}
	return db
}

func (d *BlobStoreS3) Start() error {
	if d.bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	if d.region != "" {
		awsCfg.Region = d.region
	}
	d.client = s3.NewFromConfig(awsCfg)
	d.logger.Debug(
		"configured S3 bucket",
		"component", "database",
		"bucket", d.bucket,
		"region", awsCfg.Region,
	)
	return nil
}

func (d *BlobStoreS3) Stop() error {
	return d.Close()
}

// Close releases the client. The SDK client holds no resources that need
// closing.
func (d *BlobStoreS3) Close() error {
	d.client = nil
	return nil
}

func (d *BlobStoreS3) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

func (d *BlobStoreS3) fullKey(key string) string {
	return d.prefix + hex.EncodeToString([]byte(key))
}

func (d *BlobStoreS3) NewTransaction(readWrite bool) types.Txn {
	return objtxn.New(d, d, d.opContext, readWrite)
}

func (d *BlobStoreS3) PutObject(ctx context.Context, key string, val []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
		Body:   bytes.NewReader(val),
	})
	if err != nil {
		return fmt.Errorf("s3 blob: put %x: %w", key, err)
	}
	return nil
}

func (d *BlobStoreS3) DeleteObject(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("s3 blob: delete %x: %w", key, err)
	}
	return nil
}

func (d *BlobStoreS3) getObject(key string) ([]byte, error) {
	if d.client == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	ctx, cancel := d.opContext()
	defer cancel()
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func (d *BlobStoreS3) Get(txn types.Txn, key []byte) ([]byte, error) {
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

func (d *BlobStoreS3) Set(txn types.Txn, key, val []byte) error {
	t, err := objtxn.Validate(txn, d)
	if err != nil {
		return err
	}
	return t.Set(string(key), val)
}

func (d *BlobStoreS3) Delete(txn types.Txn, key []byte) error {
	t, err := objtxn.Validate(txn, d)
	if err != nil {
		return err
	}
	return t.Delete(string(key))
}

func (d *BlobStoreS3) GetCommitTimestamp() (int64, error) {
	val, err := d.getObject(types.CommitTimestampBlobKey)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return new(big.Int).SetBytes(val).Int64(), nil
}

func (d *BlobStoreS3) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	return d.Set(
		txn,
		[]byte(types.CommitTimestampBlobKey),
		new(big.Int).SetInt64(timestamp).Bytes(),
	)
}
