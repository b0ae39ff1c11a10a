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
	"math"
	"math/big"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProposalParameters are fixed when a proposal is created
type ProposalParameters struct {
	SnapshotBlock uint64
	StartDate     uint64
	EndDate       uint64
	MinApprovals  uint16
}

type Proposal struct {
	AllowFailureMap *uint256.Int
	Actions         []dao.Action
	Metadata        []byte
	Parameters      ProposalParameters
	ID              common.Hash
	Creator         common.Address
	Approvals       uint16
	Executed        bool
}

// CreateProposalParams describes a new proposal. Zero dates select the
// defaults: the block timestamp for the start and the default proposal
// duration after it for the end.
type CreateProposalParams struct {
	AllowFailureMap *uint256.Int
	Metadata        []byte
	Actions         []dao.Action
	StartDate       uint64
	EndDate         uint64
	ApproveNow      bool
	TryExecute      bool
}

// customProposalParamsArgs is the encoding of the extra data accepted by
// CreateProposalWithData
var customProposalParamsArgs = abi.Arguments{
	{Name: "allowFailureMap", Type: mustNewType("uint256")},
	{Name: "approveProposal", Type: mustNewType("bool")},
	{Name: "tryExecution", Type: mustNewType("bool")},
}

// CustomProposalParamsABI describes the extra data accepted by
// CreateProposalWithData
func CustomProposalParamsABI() string {
	return "(uint256 allowFailureMap, bool approveProposal, bool tryExecution)"
}

// EncodeCustomProposalParams builds the extra data for CreateProposalWithData
func EncodeCustomProposalParams(
	allowFailureMap *uint256.Int,
	approveNow bool,
	tryExecute bool,
) ([]byte, error) {
	tmpMap := new(big.Int)
	if allowFailureMap != nil {
		tmpMap = allowFailureMap.ToBig()
	}
	return customProposalParamsArgs.Pack(tmpMap, approveNow, tryExecute)
}

// CreateProposalWithData creates a proposal from the generic proposal
// interface. data is either empty or the encoding of the allow failure map
// and the approve and execute flags.
func (m *Multisig) CreateProposalWithData(
	ctx *ledger.Context,
	metadata []byte,
	actions []dao.Action,
	startDate uint64,
	endDate uint64,
	data []byte,
) (common.Hash, error) {
	params := CreateProposalParams{
		Metadata:  metadata,
		Actions:   actions,
		StartDate: startDate,
		EndDate:   endDate,
	}
	if len(data) > 0 {
		args, err := customProposalParamsArgs.Unpack(data)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to decode proposal data: %w", err)
		}
		allowFailureMap, overflow := uint256.FromBig(args[0].(*big.Int))
		if overflow {
			return common.Hash{}, errors.New("allow failure map overflows 256 bits")
		}
		params.AllowFailureMap = allowFailureMap
		params.ApproveNow = args[1].(bool)
		params.TryExecute = args[2].(bool)
	}
	return m.CreateProposal(ctx, params)
}

// CreateProposal creates a proposal in the current block and returns its ID.
// The sender needs CREATE_PROPOSAL_PERMISSION.
func (m *Multisig) CreateProposal(
	ctx *ledger.Context,
	params CreateProposalParams,
) (common.Hash, error) {
	if err := m.auth(ctx, CreateProposalPermissionID); err != nil {
		return common.Hash{}, err
	}
	if len(params.Actions) > dao.MaxActions {
		return common.Hash{}, TooManyActionsError{Count: len(params.Actions)}
	}
	state, err := m.state(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	snapshotBlock := ctx.BlockNumber() - 1
	if state.LastSettingsChange > snapshotBlock {
		return common.Hash{}, ProposalCreationForbiddenError{Caller: ctx.Sender()}
	}
	startDate, endDate, err := m.proposalDates(ctx, params.StartDate, params.EndDate)
	if err != nil {
		return common.Hash{}, err
	}
	payload, err := encodePayload(params.Actions, params.Metadata)
	if err != nil {
		return common.Hash{}, err
	}
	id, err := proposalIDFromPayload(
		ctx.ChainID(),
		ctx.BlockNumber(),
		m.config.address,
		payload,
	)
	if err != nil {
		return common.Hash{}, err
	}
	db := ctx.DB()
	if err := db.SetProposalPayload(m.config.address, id, payload, ctx.Txn()); err != nil {
		return common.Hash{}, err
	}
	tmpProposal := &models.Proposal{
		Plugin:          types.Address(m.config.address),
		ProposalID:      types.Hash(id),
		Creator:         types.Address(ctx.Sender()),
		SnapshotBlock:   types.Uint64(snapshotBlock),
		MinApprovals:    state.MinApprovals,
		StartDate:       types.Uint64(startDate),
		EndDate:         types.Uint64(endDate),
		AllowFailureMap: types.NewUint256(params.AllowFailureMap),
		CreatedBlock:    types.Uint64(ctx.BlockNumber()),
	}
	if err := db.CreateProposal(tmpProposal, ctx.Txn()); err != nil {
		return common.Hash{}, err
	}
	state.ProposalCount++
	if err := m.saveState(ctx, state); err != nil {
		return common.Hash{}, err
	}
	allowFailureMap := new(uint256.Int)
	if params.AllowFailureMap != nil {
		allowFailureMap.Set(params.AllowFailureMap)
	}
	ctx.Emit(
		ProposalCreatedEventType,
		ProposalCreatedEvent{
			ProposalID:      id,
			Creator:         ctx.Sender(),
			StartDate:       startDate,
			EndDate:         endDate,
			Metadata:        params.Metadata,
			Actions:         params.Actions,
			AllowFailureMap: allowFailureMap,
		},
	)
	ctx.OnCommit(m.metrics.proposalCreated)
	m.logger().Debug(
		"created proposal",
		"component", "multisig",
		"proposal_id", id.Hex(),
		"creator", ctx.Sender().Hex(),
		"actions", len(params.Actions),
	)
	if params.ApproveNow {
		// A failed inline execution still leaves the proposal behind
		if err := m.Approve(ctx, id, params.TryExecute); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (m *Multisig) proposalDates(
	ctx *ledger.Context,
	start uint64,
	end uint64,
) (uint64, uint64, error) {
	now := ctx.Timestamp()
	if start == 0 {
		start = now
	} else if start < now {
		return 0, 0, DateOutOfBoundsError{Limit: now, Actual: start}
	}
	if end == 0 {
		duration := uint64(m.config.defaultProposalDuration.Seconds())
		if start > math.MaxUint64-duration {
			return 0, 0, DateOutOfBoundsError{
				Limit:  math.MaxUint64 - duration,
				Actual: start,
			}
		}
		end = start + duration
	} else if end < start {
		return 0, 0, DateOutOfBoundsError{Limit: start, Actual: end}
	}
	return start, end, nil
}

// loadProposal returns the stored record of a proposal, or
// ProposalNotFoundError
func (m *Multisig) loadProposal(
	ctx *ledger.Context,
	id common.Hash,
) (*models.Proposal, error) {
	ret, err := ctx.DB().GetProposal(m.config.address, id, ctx.Txn())
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, ProposalNotFoundError{ProposalID: id}
		}
		return nil, err
	}
	return ret, nil
}

// GetProposal returns a proposal with its actions and metadata
func (m *Multisig) GetProposal(ctx *ledger.Context, id common.Hash) (*Proposal, error) {
	tmpProposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.proposalFromModel(ctx, tmpProposal)
}

func (m *Multisig) proposalFromModel(
	ctx *ledger.Context,
	tmpProposal *models.Proposal,
) (*Proposal, error) {
	id := tmpProposal.ProposalID.Common()
	payload, err := ctx.DB().GetProposalPayload(m.config.address, id, ctx.Txn())
	if err != nil {
		return nil, err
	}
	actions, metadata, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Proposal{
		ID:              id,
		Creator:         tmpProposal.Creator.Common(),
		Executed:        tmpProposal.Executed,
		Approvals:       tmpProposal.Approvals,
		Actions:         actions,
		Metadata:        metadata,
		AllowFailureMap: new(uint256.Int).Set(&tmpProposal.AllowFailureMap.Int),
		Parameters: ProposalParameters{
			SnapshotBlock: uint64(tmpProposal.SnapshotBlock),
			StartDate:     uint64(tmpProposal.StartDate),
			EndDate:       uint64(tmpProposal.EndDate),
			MinApprovals:  tmpProposal.MinApprovals,
		},
	}, nil
}

// Proposals returns every proposal of the plugin in creation order
func (m *Multisig) Proposals(ctx *ledger.Context) ([]*Proposal, error) {
	tmpProposals, err := ctx.DB().ListProposals(m.config.address, ctx.Txn())
	if err != nil {
		return nil, err
	}
	ret := make([]*Proposal, 0, len(tmpProposals))
	for i := range tmpProposals {
		tmpProposal, err := m.proposalFromModel(ctx, &tmpProposals[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, tmpProposal)
	}
	return ret, nil
}

// ProposalCount returns the number of proposals created, including ones that
// reused the ID of an earlier proposal
func (m *Multisig) ProposalCount(ctx *ledger.Context) (uint64, error) {
	state, err := m.state(ctx)
	if err != nil {
		return 0, err
	}
	return state.ProposalCount, nil
}
