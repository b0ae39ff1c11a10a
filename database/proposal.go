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

package database

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/ethereum/go-ethereum/common"
)

// SetProposalPayload stores the encoded actions and metadata of a proposal in
// the blob store
func (d *Database) SetProposalPayload(
	plugin common.Address,
	id common.Hash,
	payload []byte,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		key := types.ProposalPayloadKey(plugin, id)
		if err := txn.BlobSet(key, payload); err != nil {
			return fmt.Errorf("failed to set proposal payload: %w", err)
		}
		return nil
	})
}

// GetProposalPayload returns the encoded actions and metadata of a proposal.
// Payloads are addressed by the proposal ID, which is derived from their
// content, so cached entries never go stale.
func (d *Database) GetProposalPayload(
	plugin common.Address,
	id common.Hash,
	txn *Txn,
) ([]byte, error) {
	key := types.ProposalPayloadKey(plugin, id)
	if d.payloadCache != nil {
		if val, ok := d.payloadCache.Get(string(key)); ok {
			inc(d.metrics.payloadHits)
			return bytes.Clone(val.([]byte)), nil
		}
	}
	inc(d.metrics.payloadMisses)
	var ret []byte
	err := d.withTxn(txn, false, func(txn *Txn) error {
		val, err := txn.BlobGet(key)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return models.ErrProposalNotFound
			}
			return fmt.Errorf("failed to get proposal payload: %w", err)
		}
		ret = val
		return nil
	})
	if err != nil {
		return nil, err
	}
	if d.payloadCache != nil {
		d.payloadCache.Add(string(key), bytes.Clone(ret))
	}
	return ret, nil
}

// CreateProposal stores a new proposal. A proposal that already exists with
// the same ID has its parameters replaced while its approvals and execution
// state are carried over.
func (d *Database) CreateProposal(
	proposal *models.Proposal,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		existing, err := d.GetProposal(
			proposal.Plugin.Common(),
			proposal.ProposalID.Common(),
			txn,
		)
		if err != nil && !errors.Is(err, models.ErrProposalNotFound) {
			return err
		}
		if existing != nil {
			proposal.ID = existing.ID
			proposal.Approvals = existing.Approvals
			proposal.Executed = existing.Executed
			proposal.ExecutedBlock = existing.ExecutedBlock
			if result := txn.Metadata().Save(proposal); result.Error != nil {
				return fmt.Errorf("failed to update proposal: %w", result.Error)
			}
			return nil
		}
		if result := txn.Metadata().Create(proposal); result.Error != nil {
			return fmt.Errorf("failed to create proposal: %w", result.Error)
		}
		return nil
	})
}

// GetProposal returns a proposal by plugin and ID, or
// models.ErrProposalNotFound
func (d *Database) GetProposal(
	plugin common.Address,
	id common.Hash,
	txn *Txn,
) (*models.Proposal, error) {
	var ret *models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var tmpItems []models.Proposal
		result := txn.Metadata().
			Where(
				"plugin = ? AND proposal_id = ?",
				types.Address(plugin),
				types.Hash(id),
			).
			Limit(1).
			Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query proposal: %w", result.Error)
		}
		if len(tmpItems) == 0 {
			return models.ErrProposalNotFound
		}
		ret = &tmpItems[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// UpdateProposal writes back every field of a previously loaded proposal
func (d *Database) UpdateProposal(
	proposal *models.Proposal,
	txn *Txn,
) error {
	if proposal.ID == 0 {
		return models.ErrProposalNotFound
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		if result := txn.Metadata().Save(proposal); result.Error != nil {
			return fmt.Errorf("failed to update proposal: %w", result.Error)
		}
		return nil
	})
}

// ListProposals returns the proposals of a plugin in creation order
func (d *Database) ListProposals(
	plugin common.Address,
	txn *Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		result := txn.Metadata().
			Where("plugin = ?", types.Address(plugin)).
			Order("id ASC").
			Find(&ret)
		if result.Error != nil {
			return fmt.Errorf("failed to query proposals: %w", result.Error)
		}
		return nil
	})
	return ret, err
}

// AddApproval records an approval and bumps the approval counter of the
// proposal in the same transaction
func (d *Database) AddApproval(
	proposal *models.Proposal,
	approver common.Address,
	block uint64,
	txn *Txn,
) error {
	if proposal.ID == 0 {
		return models.ErrProposalNotFound
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		tmpItem := models.Approval{
			ProposalID: proposal.ID,
			Approver:   types.Address(approver),
			Block:      block,
		}
		if result := txn.Metadata().Create(&tmpItem); result.Error != nil {
			return fmt.Errorf("failed to add approval: %w", result.Error)
		}
		proposal.Approvals++
		result := txn.Metadata().
			Model(proposal).
			Update("approvals", proposal.Approvals)
		if result.Error != nil {
			proposal.Approvals--
			return fmt.Errorf("failed to update approval count: %w", result.Error)
		}
		return nil
	})
}

// HasApproval returns whether an address has approved a proposal
func (d *Database) HasApproval(
	proposal *models.Proposal,
	approver common.Address,
	txn *Txn,
) (bool, error) {
	var count int64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		result := txn.Metadata().
			Model(&models.Approval{}).
			Where(
				"proposal_id = ? AND approver = ?",
				proposal.ID,
				types.Address(approver),
			).
			Count(&count)
		if result.Error != nil {
			return fmt.Errorf("failed to query approval: %w", result.Error)
		}
		return nil
	})
	return count > 0, err
}

// ProposalApprovers returns the approvers of a proposal in approval order
func (d *Database) ProposalApprovers(
	proposal *models.Proposal,
	txn *Txn,
) ([]common.Address, error) {
	var ret []common.Address
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var tmpItems []models.Approval
		result := txn.Metadata().
			Where("proposal_id = ?", proposal.ID).
			Order("id ASC").
			Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query approvals: %w", result.Error)
		}
		for _, item := range tmpItems {
			ret = append(ret, item.Approver.Common())
		}
		return nil
	})
	return ret, err
}
