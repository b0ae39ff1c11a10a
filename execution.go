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
	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Execute dispatches the actions of an approved proposal to the target
// executor. The sender needs EXECUTE_PROPOSAL_PERMISSION. A proposal is
// marked executed before its actions run and stays executed if they fail.
func (m *Multisig) Execute(ctx *ledger.Context, id common.Hash) error {
	if err := m.auth(ctx, ExecuteProposalPermissionID); err != nil {
		return err
	}
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return err
	}
	if !canExecute(ctx, proposal) {
		return ProposalExecutionForbiddenError{ProposalID: id}
	}
	return m.execute(ctx, proposal)
}

func (m *Multisig) execute(ctx *ledger.Context, proposal *models.Proposal) error {
	id := proposal.ProposalID.Common()
	executedBlock := ctx.BlockNumber()
	proposal.Executed = true
	proposal.ExecutedBlock = &executedBlock
	if err := ctx.DB().UpdateProposal(proposal, ctx.Txn()); err != nil {
		return err
	}
	execResults, failureMap, err := m.dispatch(ctx, proposal)
	if err != nil {
		ctx.Emit(
			ProposalExecutionFailedEventType,
			ProposalExecutionFailedEvent{ProposalID: id, Error: err.Error()},
		)
		ctx.OnCommit(func() { m.metrics.executed(true) })
		m.logger().Warn(
			"proposal execution failed",
			"component", "multisig",
			"proposal_id", id.Hex(),
			"error", err,
		)
		return ledger.KeepState(ExecutionFailedError{ProposalID: id, Err: err})
	}
	ctx.Emit(
		ProposalExecutedEventType,
		ProposalExecutedEvent{
			ProposalID:  id,
			FailureMap:  failureMap,
			ExecResults: execResults,
		},
	)
	ctx.OnCommit(func() { m.metrics.executed(false) })
	m.logger().Info(
		"executed proposal",
		"component", "multisig",
		"proposal_id", id.Hex(),
		"failure_map", failureMap.Hex(),
	)
	return nil
}

// dispatch runs the actions of a proposal through the target executor. A
// failure discards every state change the executor made.
func (m *Multisig) dispatch(
	ctx *ledger.Context,
	proposal *models.Proposal,
) ([][]byte, *uint256.Int, error) {
	targetConfig, err := m.TargetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	contract, ok := ctx.ContractAt(targetConfig.Target)
	if !ok {
		return nil, nil, InvalidTargetError{Target: targetConfig.Target}
	}
	executor, ok := contract.(Executor)
	if !ok {
		return nil, nil, InvalidTargetError{Target: targetConfig.Target}
	}
	payload, err := ctx.DB().GetProposalPayload(
		m.config.address,
		proposal.ProposalID.Common(),
		ctx.Txn(),
	)
	if err != nil {
		return nil, nil, err
	}
	actions, _, err := decodePayload(payload)
	if err != nil {
		return nil, nil, err
	}
	allowFailureMap := new(uint256.Int).Set(&proposal.AllowFailureMap.Int)
	var execResults [][]byte
	var failureMap *uint256.Int
	run := func(frame *ledger.Context) ([]byte, error) {
		var err error
		execResults, failureMap, err = executor.Execute(
			frame,
			proposal.ProposalID.Common(),
			actions,
			allowFailureMap,
		)
		return nil, err
	}
	switch targetConfig.Operation {
	case OperationCall:
		_, err = ctx.CallFunc(targetConfig.Target, run)
	case OperationDelegateCall:
		_, err = ctx.DelegateCall(run)
	default:
		err = InvalidOperationError{Operation: targetConfig.Operation}
	}
	if err != nil {
		return nil, nil, err
	}
	if failureMap == nil {
		failureMap = new(uint256.Int)
	}
	return execResults, failureMap, nil
}
