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

package dao

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// UnauthorizedError is returned when who lacks a permission on where
type UnauthorizedError struct {
	Where        common.Address
	Who          common.Address
	PermissionID common.Hash
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"unauthorized: %s lacks permission %s on %s",
		e.Who,
		e.PermissionID,
		e.Where,
	)
}

// ActionFailedError is returned when an action whose failure is not allowed
// fails. Every change made by the batch is discarded.
type ActionFailedError struct {
	Err   error
	Index int
}

func (e ActionFailedError) Error() string {
	return fmt.Sprintf("action %d failed: %v", e.Index, e.Err)
}

func (e ActionFailedError) Unwrap() error {
	return e.Err
}

type TooManyActionsError struct {
	Count int
}

func (e TooManyActionsError) Error() string {
	return fmt.Sprintf(
		"too many actions: %d exceeds the limit of %d",
		e.Count,
		MaxActions,
	)
}

type ReentrantCallError struct{}

func (ReentrantCallError) Error() string {
	return "reentrant call to execute"
}

type AnyAddressDisallowedForWhoAndWhereError struct{}

func (AnyAddressDisallowedForWhoAndWhereError) Error() string {
	return "where and who cannot both be the any address"
}

// PermissionsForAnyAddressDisallowedError is returned when granting a
// restricted permission through the any address
type PermissionsForAnyAddressDisallowedError struct{}

func (PermissionsForAnyAddressDisallowedError) Error() string {
	return "permission cannot be granted to or on the any address"
}

type PermissionAlreadyGrantedForDifferentConditionError struct {
	Where            common.Address
	Who              common.Address
	PermissionID     common.Hash
	CurrentCondition common.Address
	NewCondition     common.Address
}

func (e PermissionAlreadyGrantedForDifferentConditionError) Error() string {
	return fmt.Sprintf(
		"permission %s of %s on %s already granted with condition %s",
		e.PermissionID,
		e.Who,
		e.Where,
		e.CurrentCondition,
	)
}

type ConditionNotAContractError struct {
	Condition common.Address
}

func (e ConditionNotAContractError) Error() string {
	return fmt.Sprintf("condition %s is not a permission condition contract", e.Condition)
}
