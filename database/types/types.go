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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Address is a ledger address stored as raw bytes
type Address common.Address

func (Address) GormDataType() string {
	return "bytes"
}

func (a Address) Value() (driver.Value, error) {
	return a[:], nil
}

func (a *Address) Scan(val any) error {
	v, ok := val.([]byte)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
	if len(v) != common.AddressLength {
		return fmt.Errorf("invalid address length: %d", len(v))
	}
	copy(a[:], v)
	return nil
}

func (a Address) Common() common.Address {
	return common.Address(a)
}

// Hash is a 32-byte identifier stored as raw bytes
type Hash common.Hash

func (Hash) GormDataType() string {
	return "bytes"
}

func (h Hash) Value() (driver.Value, error) {
	return h[:], nil
}

func (h *Hash) Scan(val any) error {
	v, ok := val.([]byte)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
	if len(v) != common.HashLength {
		return fmt.Errorf("invalid hash length: %d", len(v))
	}
	copy(h[:], v)
	return nil
}

func (h Hash) Common() common.Hash {
	return common.Hash(h)
}

// Uint256 stores a 256-bit word as its decimal string, which keeps it
// portable across the supported SQL dialects
type Uint256 struct {
	uint256.Int
}

func NewUint256(v *uint256.Int) Uint256 {
	var ret Uint256
	if v != nil {
		ret.Set(v)
	}
	return ret
}

func (Uint256) GormDataType() string {
	return "string"
}

func (u Uint256) Value() (driver.Value, error) {
	return u.Dec(), nil
}

func (u *Uint256) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if err := u.SetFromDecimal(s); err != nil {
		return fmt.Errorf("failed to set uint256 value from string %q: %w", s, err)
	}
	return nil
}

// Uint64 is stored as its decimal string, since database/sql rejects uint64
// values with the high bit set
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		*u = Uint64(v) //nolint:gosec
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}

var ErrBlobKeyNotFound = errors.New("blob key not found")

var ErrTxnWrongType = errors.New("invalid transaction type")

var ErrNilTxn = errors.New("nil transaction")

var ErrNoStoreAvailable = errors.New("no store available")

var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

var ErrTxnReadOnly = errors.New("transaction is read-only")

var ErrTxnFinished = errors.New("transaction already finished")

type Txn interface {
	Commit() error
	Rollback() error
}
