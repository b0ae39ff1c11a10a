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
	"bytes"

	"github.com/blinklabs-io/multisig/database/types"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// UpdateMultisigSettings replaces the settings. The sender needs
// UPDATE_MULTISIG_SETTINGS_PERMISSION.
func (m *Multisig) UpdateMultisigSettings(
	ctx *ledger.Context,
	settings Settings,
) error {
	if err := m.auth(ctx, UpdateMultisigSettingsPermissionID); err != nil {
		return err
	}
	return m.updateMultisigSettings(ctx, settings)
}

func (m *Multisig) updateMultisigSettings(
	ctx *ledger.Context,
	settings Settings,
) error {
	length, err := m.AddresslistLength(ctx)
	if err != nil {
		return err
	}
	if settings.MinApprovals > length {
		return MinApprovalsOutOfBoundsError{
			Limit:  uint64(length),
			Actual: uint64(settings.MinApprovals),
		}
	}
	if settings.MinApprovals < 1 {
		return MinApprovalsOutOfBoundsError{
			Limit:  1,
			Actual: uint64(settings.MinApprovals),
		}
	}
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	state.OnlyListed = settings.OnlyListed
	state.MinApprovals = settings.MinApprovals
	state.LastSettingsChange = ctx.BlockNumber()
	if err := m.saveState(ctx, state); err != nil {
		return err
	}
	ctx.Emit(
		MultisigSettingsUpdatedEventType,
		MultisigSettingsUpdatedEvent{
			OnlyListed:   settings.OnlyListed,
			MinApprovals: settings.MinApprovals,
		},
	)
	m.logger().Debug(
		"updated settings",
		"component", "multisig",
		"address", m.config.address.Hex(),
		"only_listed", settings.OnlyListed,
		"min_approvals", settings.MinApprovals,
	)
	return nil
}

// MultisigSettings returns the current settings
func (m *Multisig) MultisigSettings(ctx *ledger.Context) (Settings, error) {
	state, err := m.state(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OnlyListed:   state.OnlyListed,
		MinApprovals: state.MinApprovals,
	}, nil
}

// SetTargetConfig replaces the executor proposals are dispatched to. The
// sender needs SET_TARGET_CONFIG_PERMISSION.
func (m *Multisig) SetTargetConfig(
	ctx *ledger.Context,
	targetConfig TargetConfig,
) error {
	if err := m.auth(ctx, SetTargetConfigPermissionID); err != nil {
		return err
	}
	return m.setTargetConfig(ctx, targetConfig)
}

func (m *Multisig) setTargetConfig(
	ctx *ledger.Context,
	targetConfig TargetConfig,
) error {
	if !targetConfig.Operation.Valid() {
		return InvalidOperationError{Operation: targetConfig.Operation}
	}
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	state.Target = types.Address(targetConfig.Target)
	state.Operation = uint8(targetConfig.Operation)
	if err := m.saveState(ctx, state); err != nil {
		return err
	}
	ctx.Emit(TargetSetEventType, TargetSetEvent{TargetConfig: targetConfig})
	return nil
}

// TargetConfig returns the executor proposals are dispatched to. An unset
// target resolves to a call into the DAO.
func (m *Multisig) TargetConfig(ctx *ledger.Context) (TargetConfig, error) {
	state, err := m.state(ctx)
	if err != nil {
		return TargetConfig{}, err
	}
	ret := TargetConfig{
		Target:    state.Target.Common(),
		Operation: Operation(state.Operation),
	}
	if ret.Target == (common.Address{}) {
		dao := state.Dao.Common()
		if dao == (common.Address{}) {
			dao = m.config.dao
		}
		return TargetConfig{Target: dao, Operation: OperationCall}, nil
	}
	return ret, nil
}

// SetMetadata replaces the plugin metadata. The sender needs
// SET_METADATA_PERMISSION.
func (m *Multisig) SetMetadata(ctx *ledger.Context, metadata []byte) error {
	if err := m.auth(ctx, SetMetadataPermissionID); err != nil {
		return err
	}
	return m.setMetadata(ctx, metadata)
}

func (m *Multisig) setMetadata(ctx *ledger.Context, metadata []byte) error {
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	state.Metadata = bytes.Clone(metadata)
	if err := m.saveState(ctx, state); err != nil {
		return err
	}
	ctx.Emit(MetadataSetEventType, MetadataSetEvent{Metadata: metadata})
	return nil
}

func (m *Multisig) Metadata(ctx *ledger.Context) ([]byte, error) {
	state, err := m.state(ctx)
	if err != nil {
		return nil, err
	}
	return state.Metadata, nil
}
