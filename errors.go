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
	"fmt"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/ethereum/go-ethereum/common"
)

type (
	TooManyActionsError = dao.TooManyActionsError
	ActionFailedError   = dao.ActionFailedError
)

// MinApprovalsOutOfBoundsError is returned when the approval threshold would
// leave [1, address list length]. Limit is the bound that was violated.
type MinApprovalsOutOfBoundsError struct {
	Limit  uint64
	Actual uint64
}

func (e MinApprovalsOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"min approvals out of bounds: limit %d, actual %d",
		e.Limit,
		e.Actual,
	)
}

type AddresslistLengthOutOfBoundsError struct {
	Limit  uint64
	Actual uint64
}

func (e AddresslistLengthOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"address list length out of bounds: limit %d, actual %d",
		e.Limit,
		e.Actual,
	)
}

// InvalidAddresslistUpdateError is returned when adding a listed member or
// removing an unlisted one
type InvalidAddresslistUpdateError struct {
	Member common.Address
}

func (e InvalidAddresslistUpdateError) Error() string {
	return fmt.Sprintf("invalid address list update for %s", e.Member)
}

type DateOutOfBoundsError struct {
	Limit  uint64
	Actual uint64
}

func (e DateOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"date out of bounds: limit %d, actual %d",
		e.Limit,
		e.Actual,
	)
}

// DaoUnauthorizedError is returned when the caller lacks a permission on the
// plugin
type DaoUnauthorizedError struct {
	Dao          common.Address
	Where        common.Address
	Who          common.Address
	PermissionID common.Hash
}

func (e DaoUnauthorizedError) Error() string {
	return fmt.Sprintf(
		"unauthorized: %s lacks permission %s on %s (DAO %s)",
		e.Who,
		e.PermissionID,
		e.Where,
		e.Dao,
	)
}

type ApprovalCastForbiddenError struct {
	ProposalID common.Hash
	Approver   common.Address
}

func (e ApprovalCastForbiddenError) Error() string {
	return fmt.Sprintf(
		"approval of proposal %s by %s is forbidden",
		e.ProposalID,
		e.Approver,
	)
}

type ProposalExecutionForbiddenError struct {
	ProposalID common.Hash
}

func (e ProposalExecutionForbiddenError) Error() string {
	return fmt.Sprintf("execution of proposal %s is forbidden", e.ProposalID)
}

// ProposalCreationForbiddenError is returned when the settings changed in the
// block a proposal would be created in
type ProposalCreationForbiddenError struct {
	Caller common.Address
}

func (e ProposalCreationForbiddenError) Error() string {
	return fmt.Sprintf("proposal creation by %s is forbidden in this block", e.Caller)
}

type AlreadyInitializedError struct {
	Version uint8
}

func (e AlreadyInitializedError) Error() string {
	return fmt.Sprintf("plugin already initialized at version %d", e.Version)
}

type ProposalNotFoundError struct {
	ProposalID common.Hash
}

func (e ProposalNotFoundError) Error() string {
	return fmt.Sprintf("proposal %s not found", e.ProposalID)
}

// ExecutionFailedError is returned when the target executor fails. The
// proposal stays executed.
type ExecutionFailedError struct {
	Err        error
	ProposalID common.Hash
}

func (e ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution of proposal %s failed: %v", e.ProposalID, e.Err)
}

func (e ExecutionFailedError) Unwrap() error {
	return e.Err
}

// BlockNotYetMinedError is returned for historical lookups at or after the
// pending block
type BlockNotYetMinedError struct {
	Block uint64
}

func (e BlockNotYetMinedError) Error() string {
	return fmt.Sprintf("block %d not yet mined", e.Block)
}

type InvalidOperationError struct {
	Operation Operation
}

func (e InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Operation)
}

// InvalidTargetError is returned when the configured target has no executor
// deployed
type InvalidTargetError struct {
	Target common.Address
}

func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("target %s is not an executor", e.Target)
}
