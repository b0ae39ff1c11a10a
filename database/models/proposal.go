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

package models

import (
	"errors"

	"github.com/blinklabs-io/multisig/database/types"
)

var ErrProposalNotFound = errors.New("proposal not found")

// Proposal holds the relational part of a multisig proposal. The actions and
// metadata live in the blob store under types.ProposalPayloadKey.
// Dates use the full uint64 range, so they are stored as decimal text.
type Proposal struct {
	ID              uint          `gorm:"primarykey"`
	Plugin          types.Address `gorm:"uniqueIndex:idx_proposal_plugin_id,priority:1;size:20;not null"`
	ProposalID      types.Hash    `gorm:"uniqueIndex:idx_proposal_plugin_id,priority:2;size:32;not null"`
	Creator         types.Address `gorm:"size:20;not null"`
	SnapshotBlock   types.Uint64  `gorm:"not null"`
	MinApprovals    uint16        `gorm:"not null"`
	StartDate       types.Uint64  `gorm:"type:varchar(20);not null"`
	EndDate         types.Uint64  `gorm:"type:varchar(20);not null"`
	AllowFailureMap types.Uint256 `gorm:"size:78;not null"`
	Approvals       uint16        `gorm:"not null"`
	Executed        bool          `gorm:"index;not null"`
	CreatedBlock    types.Uint64  `gorm:"index;not null"`
	ExecutedBlock   *uint64
}

func (Proposal) TableName() string {
	return "multisig_proposal"
}

// Approval records a single member's approval of a proposal
type Approval struct {
	ID         uint          `gorm:"primarykey"`
	ProposalID uint          `gorm:"uniqueIndex:idx_approval_proposal_approver,priority:1;not null"`
	Approver   types.Address `gorm:"uniqueIndex:idx_approval_proposal_approver,priority:2;size:20;not null"`
	Block      uint64        `gorm:"not null"`
}

func (Approval) TableName() string {
	return "multisig_approval"
}
