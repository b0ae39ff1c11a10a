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
)

func isProposalOpen(ctx *ledger.Context, proposal *models.Proposal) bool {
	now := ctx.Timestamp()
	return !proposal.Executed &&
		uint64(proposal.StartDate) <= now &&
		uint64(proposal.EndDate) >= now
}

// CanApprove reports whether an account may approve a proposal now
func (m *Multisig) CanApprove(
	ctx *ledger.Context,
	id common.Hash,
	account common.Address,
) (bool, error) {
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return false, err
	}
	return m.canApprove(ctx, proposal, account)
}

func (m *Multisig) canApprove(
	ctx *ledger.Context,
	proposal *models.Proposal,
	account common.Address,
) (bool, error) {
	if !isProposalOpen(ctx, proposal) {
		return false, nil
	}
	// Membership is taken from the snapshot block, so members added in the
	// creation block cannot approve
	listed, err := ctx.DB().IsMemberListedAtBlock(
		m.config.address,
		account,
		uint64(proposal.SnapshotBlock),
		ctx.Txn(),
	)
	if err != nil {
		return false, err
	}
	if !listed {
		return false, nil
	}
	approved, err := ctx.DB().HasApproval(proposal, account, ctx.Txn())
	if err != nil {
		return false, err
	}
	return !approved, nil
}

// Approve records the approval of the sender. With tryExecute set, a
// proposal that becomes executable is executed right away when the sender
// also holds EXECUTE_PROPOSAL_PERMISSION.
func (m *Multisig) Approve(
	ctx *ledger.Context,
	id common.Hash,
	tryExecute bool,
) error {
	if err := m.checkContext(ctx); err != nil {
		return err
	}
	approver := ctx.Sender()
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return err
	}
	ok, err := m.canApprove(ctx, proposal, approver)
	if err != nil {
		return err
	}
	if !ok {
		return ApprovalCastForbiddenError{ProposalID: id, Approver: approver}
	}
	if err := ctx.DB().AddApproval(
		proposal,
		approver,
		ctx.BlockNumber(),
		ctx.Txn(),
	); err != nil {
		return err
	}
	ctx.Emit(ApprovedEventType, ApprovedEvent{ProposalID: id, Approver: approver})
	ctx.OnCommit(m.metrics.approved)
	m.logger().Debug(
		"approved proposal",
		"component", "multisig",
		"proposal_id", id.Hex(),
		"approver", approver.Hex(),
		"approvals", proposal.Approvals,
	)
	if !tryExecute || !canExecute(ctx, proposal) {
		return nil
	}
	granted, err := m.hasPermission(ctx, approver, ExecuteProposalPermissionID)
	if err != nil {
		return err
	}
	if !granted {
		return nil
	}
	return m.execute(ctx, proposal)
}

// HasApproved reports whether an account approved a proposal
func (m *Multisig) HasApproved(
	ctx *ledger.Context,
	id common.Hash,
	account common.Address,
) (bool, error) {
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return false, err
	}
	return ctx.DB().HasApproval(proposal, account, ctx.Txn())
}

// Approvers returns the accounts that approved a proposal, in approval order
func (m *Multisig) Approvers(
	ctx *ledger.Context,
	id common.Hash,
) ([]common.Address, error) {
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	return ctx.DB().ProposalApprovers(proposal, ctx.Txn())
}

// CanExecute reports whether a proposal has reached its approval threshold
// inside its voting window and is not executed yet
func (m *Multisig) CanExecute(ctx *ledger.Context, id common.Hash) (bool, error) {
	proposal, err := m.loadProposal(ctx, id)
	if err != nil {
		return false, err
	}
	return canExecute(ctx, proposal), nil
}

func canExecute(ctx *ledger.Context, proposal *models.Proposal) bool {
	return isProposalOpen(ctx, proposal) &&
		proposal.Approvals >= proposal.MinApprovals
}
