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
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	actionComponents   = `[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]`
	settingsComponents = `[{"name":"onlyListed","type":"bool"},{"name":"minApprovals","type":"uint16"}]`
	targetComponents   = `[{"name":"target","type":"address"},{"name":"operation","type":"uint8"}]`
	paramsComponents   = `[{"name":"minApprovals","type":"uint16"},{"name":"snapshotBlock","type":"uint64"},{"name":"startDate","type":"uint64"},{"name":"endDate","type":"uint64"}]`
)

var pluginABIJSON = strings.NewReplacer(
	"ACTIONS", actionComponents,
	"SETTINGS", settingsComponents,
	"TARGET", targetComponents,
	"PARAMS", paramsComponents,
).Replace(`[
{"type":"function","name":"addAddresses","stateMutability":"nonpayable","inputs":[{"name":"_members","type":"address[]"}],"outputs":[]},
{"type":"function","name":"removeAddresses","stateMutability":"nonpayable","inputs":[{"name":"_members","type":"address[]"}],"outputs":[]},
{"type":"function","name":"isListed","stateMutability":"view","inputs":[{"name":"_account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"isMember","stateMutability":"view","inputs":[{"name":"_account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"isListedAtBlock","stateMutability":"view","inputs":[{"name":"_account","type":"address"},{"name":"_blockNumber","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"addresslistLength","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"addresslistLengthAtBlock","stateMutability":"view","inputs":[{"name":"_blockNumber","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"updateMultisigSettings","stateMutability":"nonpayable","inputs":[{"name":"_multisigSettings","type":"tuple","components":SETTINGS}],"outputs":[]},
{"type":"function","name":"multisigSettings","stateMutability":"view","inputs":[],"outputs":[{"name":"onlyListed","type":"bool"},{"name":"minApprovals","type":"uint16"}]},
{"type":"function","name":"lastMultisigSettingsChange","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
{"type":"function","name":"setTargetConfig","stateMutability":"nonpayable","inputs":[{"name":"_targetConfig","type":"tuple","components":TARGET}],"outputs":[]},
{"type":"function","name":"getTargetConfig","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple","components":TARGET}]},
{"type":"function","name":"setMetadata","stateMutability":"nonpayable","inputs":[{"name":"_metadata","type":"bytes"}],"outputs":[]},
{"type":"function","name":"getMetadata","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes"}]},
{"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[{"name":"_metadata","type":"bytes"},{"name":"_actions","type":"tuple[]","components":ACTIONS},{"name":"_allowFailureMap","type":"uint256"},{"name":"_approveProposal","type":"bool"},{"name":"_tryExecution","type":"bool"},{"name":"_startDate","type":"uint64"},{"name":"_endDate","type":"uint64"}],"outputs":[{"name":"proposalId","type":"uint256"}]},
{"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[{"name":"_metadata","type":"bytes"},{"name":"_actions","type":"tuple[]","components":ACTIONS},{"name":"_startDate","type":"uint64"},{"name":"_endDate","type":"uint64"},{"name":"_data","type":"bytes"}],"outputs":[{"name":"proposalId","type":"uint256"}]},
{"type":"function","name":"customProposalParamsABI","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"proposalCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getProposal","stateMutability":"view","inputs":[{"name":"_proposalId","type":"uint256"}],"outputs":[{"name":"executed","type":"bool"},{"name":"approvals","type":"uint16"},{"name":"parameters","type":"tuple","components":PARAMS},{"name":"actions","type":"tuple[]","components":ACTIONS},{"name":"allowFailureMap","type":"uint256"},{"name":"targetConfig","type":"tuple","components":TARGET}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"_proposalId","type":"uint256"},{"name":"_tryExecution","type":"bool"}],"outputs":[]},
{"type":"function","name":"canApprove","stateMutability":"view","inputs":[{"name":"_proposalId","type":"uint256"},{"name":"_account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"hasApproved","stateMutability":"view","inputs":[{"name":"_proposalId","type":"uint256"},{"name":"_account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"canExecute","stateMutability":"view","inputs":[{"name":"_proposalId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"_proposalId","type":"uint256"}],"outputs":[]}
]`)

// ABI is the call interface of a deployed plugin
var ABI = mustParseABI(pluginABIJSON)

var ErrUnknownMethod = errors.New("unknown method")

var _ ledger.Contract = (*Multisig)(nil)

type settingsTuple struct {
	OnlyListed   bool
	MinApprovals uint16
}

type targetConfigTuple struct {
	Target    common.Address
	Operation uint8
}

type parametersTuple struct {
	MinApprovals  uint16
	SnapshotBlock uint64
	StartDate     uint64
	EndDate       uint64
}

func mustParseABI(data string) abi.ABI {
	ret, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		panic(err)
	}
	return ret
}

// convertArg converts an unpacked tuple into its Go form
func convertArg[T any](v any) (ret T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid argument value: %v", r)
		}
	}()
	ret = *abi.ConvertType(v, new(T)).(*T)
	return ret, nil
}

func proposalIDArg(v any) common.Hash {
	return common.BigToHash(v.(*big.Int))
}

func blockArg(v any) (uint64, error) {
	tmpBlock := v.(*big.Int)
	if !tmpBlock.IsUint64() {
		return 0, fmt.Errorf("block number out of range: %s", tmpBlock)
	}
	return tmpBlock.Uint64(), nil
}

// Call dispatches an ABI encoded call to the plugin
func (m *Multisig) Call(ctx *ledger.Context, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ErrUnknownMethod
	}
	method, err := ABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, input[:4])
	}
	if ctx.ReadOnly() && !method.IsConstant() {
		return nil, fmt.Errorf("%w: %s", ledger.ErrReadOnly, method.RawName)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s arguments: %w", method.RawName, err)
	}
	switch method.RawName {
	case "addAddresses":
		return nil, m.AddAddresses(ctx, args[0].([]common.Address))
	case "removeAddresses":
		return nil, m.RemoveAddresses(ctx, args[0].([]common.Address))
	case "isListed", "isMember":
		listed, err := m.IsListed(ctx, args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(listed)
	case "isListedAtBlock":
		block, err := blockArg(args[1])
		if err != nil {
			return nil, err
		}
		listed, err := m.IsListedAtBlock(ctx, args[0].(common.Address), block)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(listed)
	case "addresslistLength":
		length, err := m.AddresslistLength(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(big.NewInt(int64(length)))
	case "addresslistLengthAtBlock":
		block, err := blockArg(args[0])
		if err != nil {
			return nil, err
		}
		length, err := m.AddresslistLengthAtBlock(ctx, block)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(big.NewInt(int64(length)))
	case "updateMultisigSettings":
		settings, err := convertArg[settingsTuple](args[0])
		if err != nil {
			return nil, err
		}
		return nil, m.UpdateMultisigSettings(
			ctx,
			Settings{
				OnlyListed:   settings.OnlyListed,
				MinApprovals: settings.MinApprovals,
			},
		)
	case "multisigSettings":
		settings, err := m.MultisigSettings(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(settings.OnlyListed, settings.MinApprovals)
	case "lastMultisigSettingsChange":
		state, err := m.state(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(state.LastSettingsChange)
	case "setTargetConfig":
		targetConfig, err := convertArg[targetConfigTuple](args[0])
		if err != nil {
			return nil, err
		}
		return nil, m.SetTargetConfig(
			ctx,
			TargetConfig{
				Target:    targetConfig.Target,
				Operation: Operation(targetConfig.Operation),
			},
		)
	case "getTargetConfig":
		targetConfig, err := m.TargetConfig(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(
			targetConfigTuple{
				Target:    targetConfig.Target,
				Operation: uint8(targetConfig.Operation),
			},
		)
	case "setMetadata":
		return nil, m.SetMetadata(ctx, args[0].([]byte))
	case "getMetadata":
		metadata, err := m.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		if metadata == nil {
			metadata = []byte{}
		}
		return method.Outputs.Pack(metadata)
	case "createProposal":
		return m.callCreateProposal(ctx, method, args)
	case "customProposalParamsABI":
		return method.Outputs.Pack(CustomProposalParamsABI())
	case "proposalCount":
		count, err := m.ProposalCount(ctx)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(count))
	case "getProposal":
		return m.callGetProposal(ctx, method, proposalIDArg(args[0]))
	case "approve":
		return nil, m.Approve(ctx, proposalIDArg(args[0]), args[1].(bool))
	case "canApprove":
		ok, err := m.CanApprove(ctx, proposalIDArg(args[0]), args[1].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(ok)
	case "hasApproved":
		ok, err := m.HasApproved(ctx, proposalIDArg(args[0]), args[1].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(ok)
	case "canExecute":
		ok, err := m.CanExecute(ctx, proposalIDArg(args[0]))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(ok)
	case "execute":
		return nil, m.Execute(ctx, proposalIDArg(args[0]))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.RawName)
}

// callCreateProposal handles both createProposal overloads, which are told
// apart by their arity
func (m *Multisig) callCreateProposal(
	ctx *ledger.Context,
	method *abi.Method,
	args []any,
) ([]byte, error) {
	actions, err := dao.ActionsFromABI(args[1])
	if err != nil {
		return nil, err
	}
	var id common.Hash
	if len(args) == 5 {
		id, err = m.CreateProposalWithData(
			ctx,
			args[0].([]byte),
			actions,
			args[2].(uint64),
			args[3].(uint64),
			args[4].([]byte),
		)
	} else {
		allowFailureMap, overflow := uint256.FromBig(args[2].(*big.Int))
		if overflow {
			return nil, errors.New("allow failure map overflows 256 bits")
		}
		id, err = m.CreateProposal(
			ctx,
			CreateProposalParams{
				Metadata:        args[0].([]byte),
				Actions:         actions,
				AllowFailureMap: allowFailureMap,
				ApproveNow:      args[3].(bool),
				TryExecute:      args[4].(bool),
				StartDate:       args[5].(uint64),
				EndDate:         args[6].(uint64),
			},
		)
	}
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(id.Big())
}

func (m *Multisig) callGetProposal(
	ctx *ledger.Context,
	method *abi.Method,
	id common.Hash,
) ([]byte, error) {
	proposal, err := m.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	targetConfig, err := m.TargetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(
		proposal.Executed,
		proposal.Approvals,
		parametersTuple{
			MinApprovals:  proposal.Parameters.MinApprovals,
			SnapshotBlock: proposal.Parameters.SnapshotBlock,
			StartDate:     proposal.Parameters.StartDate,
			EndDate:       proposal.Parameters.EndDate,
		},
		dao.ActionTuples(proposal.Actions),
		proposal.AllowFailureMap.ToBig(),
		targetConfigTuple{
			Target:    targetConfig.Target,
			Operation: uint8(targetConfig.Operation),
		},
	)
}
