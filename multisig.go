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

// Package multisig implements a multisig governance plugin: a bounded list of
// members approves proposals, and a proposal that reaches its approval
// quorum inside its voting window dispatches its actions through the DAO it
// is installed on.
package multisig

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// initializerVersion is the version written by Initialize and InitializeFrom
const initializerVersion = 2

var ErrWrongContract = errors.New("context does not belong to this plugin")

// Authorizer answers permission checks for the plugin
type Authorizer interface {
	HasPermission(
		ctx *ledger.Context,
		where common.Address,
		who common.Address,
		permissionID common.Hash,
		data []byte,
	) (bool, error)
}

// Executor runs the actions of an approved proposal
type Executor interface {
	Execute(
		ctx *ledger.Context,
		callID common.Hash,
		actions []dao.Action,
		allowFailureMap *uint256.Int,
	) ([][]byte, *uint256.Int, error)
}

// Settings control who may propose and how many approvals a proposal needs
type Settings struct {
	OnlyListed   bool
	MinApprovals uint16
}

// Operation selects how the target executor is invoked
type Operation uint8

const (
	OperationCall Operation = iota
	OperationDelegateCall
)

func (o Operation) Valid() bool {
	return o == OperationCall || o == OperationDelegateCall
}

func (o Operation) String() string {
	switch o {
	case OperationCall:
		return "call"
	case OperationDelegateCall:
		return "delegatecall"
	}
	return fmt.Sprintf("Operation(%d)", uint8(o))
}

// TargetConfig names the executor proposals are dispatched to
type TargetConfig struct {
	Target    common.Address
	Operation Operation
}

// InitConfig is the installation bundle of a plugin
type InitConfig struct {
	Members      []common.Address
	Metadata     []byte
	TargetConfig TargetConfig
	Settings     Settings
}

// Multisig is a plugin instance deployed at a ledger address. Its state lives
// in the ledger database, so every method takes the ledger.Context of the
// transaction or view it runs in.
type Multisig struct {
	config  Config
	metrics multisigMetrics
}

func New(opts ...ConfigOptionFunc) *Multisig {
	m := &Multisig{
		config: NewConfig(opts...),
	}
	if m.config.promRegistry != nil {
		m.metrics.init(m.config.promRegistry)
	}
	return m
}

func (m *Multisig) Address() common.Address {
	return m.config.address
}

func (m *Multisig) DAO() common.Address {
	return m.config.dao
}

func (m *Multisig) logger() *slog.Logger {
	return m.config.logger
}

func (m *Multisig) checkContext(ctx *ledger.Context) error {
	if ctx.Self() != m.config.address {
		return fmt.Errorf(
			"%w: running as %s, plugin is %s",
			ErrWrongContract,
			ctx.Self(),
			m.config.address,
		)
	}
	return nil
}

func (m *Multisig) state(ctx *ledger.Context) (*models.PluginState, error) {
	state, err := ctx.DB().GetOrNewPluginState(m.config.address, ctx.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin state: %w", err)
	}
	return state, nil
}

func (m *Multisig) saveState(ctx *ledger.Context, state *models.PluginState) error {
	if err := ctx.DB().SetPluginState(state, ctx.Txn()); err != nil {
		return fmt.Errorf("failed to save plugin state: %w", err)
	}
	return nil
}

func (m *Multisig) authorizer(ctx *ledger.Context) (Authorizer, error) {
	if m.config.authorizer != nil {
		return m.config.authorizer, nil
	}
	contract, ok := ctx.ContractAt(m.config.dao)
	if !ok {
		return nil, fmt.Errorf("no DAO deployed at %s", m.config.dao)
	}
	authorizer, ok := contract.(Authorizer)
	if !ok {
		return nil, fmt.Errorf("contract at %s cannot check permissions", m.config.dao)
	}
	return authorizer, nil
}

func (m *Multisig) hasPermission(
	ctx *ledger.Context,
	who common.Address,
	permissionID common.Hash,
) (bool, error) {
	authorizer, err := m.authorizer(ctx)
	if err != nil {
		return false, err
	}
	return authorizer.HasPermission(
		ctx,
		m.config.address,
		who,
		permissionID,
		nil,
	)
}

// auth fails with DaoUnauthorizedError unless the sender holds the
// permission on the plugin
func (m *Multisig) auth(ctx *ledger.Context, permissionID common.Hash) error {
	if err := m.checkContext(ctx); err != nil {
		return err
	}
	granted, err := m.hasPermission(ctx, ctx.Sender(), permissionID)
	if err != nil {
		return err
	}
	if !granted {
		return DaoUnauthorizedError{
			Dao:          m.config.dao,
			Where:        m.config.address,
			Who:          ctx.Sender(),
			PermissionID: permissionID,
		}
	}
	return nil
}

// Initialize sets up a fresh plugin from its installation bundle
func (m *Multisig) Initialize(ctx *ledger.Context, cfg InitConfig) error {
	if err := m.checkContext(ctx); err != nil {
		return err
	}
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	if state.InitializedVersion >= initializerVersion {
		return AlreadyInitializedError{Version: state.InitializedVersion}
	}
	if len(cfg.Members) > MaxAddresslistLength {
		return AddresslistLengthOutOfBoundsError{
			Limit:  MaxAddresslistLength,
			Actual: uint64(len(cfg.Members)),
		}
	}
	state.Dao = types.Address(m.config.dao)
	state.InitializedVersion = initializerVersion
	if err := m.saveState(ctx, state); err != nil {
		return err
	}
	if err := m.addAddresses(ctx, cfg.Members); err != nil {
		return err
	}
	ctx.Emit(MembersAddedEventType, MembersAddedEvent{Members: cfg.Members})
	if err := m.updateMultisigSettings(ctx, cfg.Settings); err != nil {
		return err
	}
	if err := m.setTargetConfig(ctx, cfg.TargetConfig); err != nil {
		return err
	}
	if err := m.setMetadata(ctx, cfg.Metadata); err != nil {
		return err
	}
	ctx.Emit(InitializedEventType, InitializedEvent{Version: initializerVersion})
	m.logger().Info(
		"initialized plugin",
		"component", "multisig",
		"address", m.config.address.Hex(),
		"dao", m.config.dao.Hex(),
		"members", len(cfg.Members),
		"min_approvals", cfg.Settings.MinApprovals,
	)
	return nil
}

// initializeFromArgs is the payload InitializeFrom expects when updating from
// a build before 3
var initializeFromArgs = abi.Arguments{
	{Name: "target", Type: mustNewType("address")},
	{Name: "operation", Type: mustNewType("uint8")},
	{Name: "metadata", Type: mustNewType("bytes")},
}

// InitializeFrom migrates a plugin installed from an earlier build. Updating
// from a build before 3 applies the target config and metadata encoded in
// payload.
func (m *Multisig) InitializeFrom(
	ctx *ledger.Context,
	fromBuild uint16,
	payload []byte,
) error {
	if err := m.checkContext(ctx); err != nil {
		return err
	}
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	if state.InitializedVersion >= initializerVersion {
		return AlreadyInitializedError{Version: state.InitializedVersion}
	}
	state.InitializedVersion = initializerVersion
	if err := m.saveState(ctx, state); err != nil {
		return err
	}
	if fromBuild < 3 {
		args, err := initializeFromArgs.Unpack(payload)
		if err != nil {
			return fmt.Errorf("failed to decode update payload: %w", err)
		}
		targetConfig := TargetConfig{
			Target:    args[0].(common.Address),
			Operation: Operation(args[1].(uint8)),
		}
		if err := m.setTargetConfig(ctx, targetConfig); err != nil {
			return err
		}
		if err := m.setMetadata(ctx, args[2].([]byte)); err != nil {
			return err
		}
	}
	ctx.Emit(InitializedEventType, InitializedEvent{Version: initializerVersion})
	return nil
}

// EncodeInitializeFromPayload builds the InitializeFrom payload for updates
// from a build before 3
func EncodeInitializeFromPayload(
	targetConfig TargetConfig,
	metadata []byte,
) ([]byte, error) {
	if metadata == nil {
		metadata = []byte{}
	}
	return initializeFromArgs.Pack(
		targetConfig.Target,
		uint8(targetConfig.Operation),
		metadata,
	)
}

func mustNewType(t string) abi.Type {
	ret, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ret
}
