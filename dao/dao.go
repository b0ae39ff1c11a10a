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

// Package dao implements the host DAO a multisig plugin acts on: a permission
// manager keyed by (where, who, permission) and an executor that runs batches
// of actions.
package dao

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// AnyAddr is the wildcard for where or who in a grant
	AnyAddr = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	// AllowFlag is the condition stored for an unconditional grant
	AllowFlag = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

var (
	RootPermissionID        = PermissionID("ROOT_PERMISSION")
	ExecutePermissionID     = PermissionID("EXECUTE_PERMISSION")
	SetMetadataPermissionID = PermissionID("SET_METADATA_PERMISSION")
)

var ErrAlreadyInitialized = errors.New("DAO already initialized")

// PermissionID returns the identifier of a named permission
func PermissionID(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

type DAOOptionFunc func(*DAO)

func WithLogger(logger *slog.Logger) DAOOptionFunc {
	return func(d *DAO) {
		d.logger = logger
	}
}

// DAO is deployed on a ledger at a fixed address. Its state lives in the
// ledger database.
type DAO struct {
	logger    *slog.Logger
	address   common.Address
	executing atomic.Bool
}

func New(address common.Address, opts ...DAOOptionFunc) *DAO {
	d := &DAO{
		address: address,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d
}

func (d *DAO) Address() common.Address {
	return d.address
}

// Initialize stores the DAO metadata and grants ROOT_PERMISSION on the DAO to
// the initial owner. It can only run once.
func (d *DAO) Initialize(
	ctx *ledger.Context,
	metadata []byte,
	initialOwner common.Address,
) error {
	state, err := ctx.DB().GetDaoState(d.address, ctx.Txn())
	if err != nil {
		return err
	}
	if state.Initialized {
		return ErrAlreadyInitialized
	}
	state.Initialized = true
	state.Metadata = metadata
	if err := ctx.DB().SetDaoState(state, ctx.Txn()); err != nil {
		return err
	}
	if err := d.grant(ctx, d.address, initialOwner, RootPermissionID, AllowFlag); err != nil {
		return err
	}
	ctx.Emit(MetadataSetEventType, MetadataSetEvent{Metadata: metadata})
	d.logger.Debug(
		"initialized DAO",
		"component", "dao",
		"address", d.address.Hex(),
		"owner", initialOwner.Hex(),
	)
	return nil
}

// SetMetadata replaces the DAO metadata. The sender needs
// SET_METADATA_PERMISSION on the DAO.
func (d *DAO) SetMetadata(ctx *ledger.Context, metadata []byte) error {
	if err := d.auth(ctx, SetMetadataPermissionID); err != nil {
		return err
	}
	state, err := ctx.DB().GetDaoState(d.address, ctx.Txn())
	if err != nil {
		return err
	}
	state.Metadata = metadata
	if err := ctx.DB().SetDaoState(state, ctx.Txn()); err != nil {
		return err
	}
	ctx.Emit(MetadataSetEventType, MetadataSetEvent{Metadata: metadata})
	return nil
}

func (d *DAO) Metadata(ctx *ledger.Context) ([]byte, error) {
	state, err := ctx.DB().GetDaoState(d.address, ctx.Txn())
	if err != nil {
		return nil, err
	}
	return state.Metadata, nil
}
