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
	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	InitializedEventType             event.EventType = "multisig.initialized"
	MembersAddedEventType            event.EventType = "multisig.members_added"
	MembersRemovedEventType          event.EventType = "multisig.members_removed"
	MultisigSettingsUpdatedEventType event.EventType = "multisig.settings_updated"
	TargetSetEventType               event.EventType = "multisig.target_set"
	MetadataSetEventType             event.EventType = "multisig.metadata_set"
	ProposalCreatedEventType         event.EventType = "multisig.proposal_created"
	ApprovedEventType                event.EventType = "multisig.approved"
	ProposalExecutedEventType        event.EventType = "multisig.proposal_executed"
	ProposalExecutionFailedEventType event.EventType = "multisig.proposal_execution_failed"
)

type InitializedEvent struct {
	Version uint8
}

type MembersAddedEvent struct {
	Members []common.Address
}

type MembersRemovedEvent struct {
	Members []common.Address
}

type MultisigSettingsUpdatedEvent struct {
	OnlyListed   bool
	MinApprovals uint16
}

type TargetSetEvent struct {
	TargetConfig TargetConfig
}

type MetadataSetEvent struct {
	Metadata []byte
}

type ProposalCreatedEvent struct {
	AllowFailureMap *uint256.Int
	Metadata        []byte
	Actions         []dao.Action
	StartDate       uint64
	EndDate         uint64
	ProposalID      common.Hash
	Creator         common.Address
}

type ApprovedEvent struct {
	ProposalID common.Hash
	Approver   common.Address
}

type ProposalExecutedEvent struct {
	FailureMap  *uint256.Int
	ExecResults [][]byte
	ProposalID  common.Hash
}

type ProposalExecutionFailedEvent struct {
	Error      string
	ProposalID common.Hash
}
