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
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// PermissionCondition decides a conditional grant. Conditions are contracts
// deployed on the ledger, and the address they are deployed at is stored in
// place of the allow flag.
type PermissionCondition interface {
	IsGranted(
		ctx *ledger.Context,
		where common.Address,
		who common.Address,
		permissionID common.Hash,
		data []byte,
	) (bool, error)
}

// isRestrictedForAnyAddr reports permissions that must never be granted
// through AnyAddr
func isRestrictedForAnyAddr(permissionID common.Hash) bool {
	return permissionID == RootPermissionID ||
		permissionID == ExecutePermissionID
}

// HasPermission reports whether who holds a permission on where. Grants for
// (where, who), (where, AnyAddr) and (AnyAddr, who) are checked in that
// order.
func (d *DAO) HasPermission(
	ctx *ledger.Context,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	data []byte,
) (bool, error) {
	lookups := [][2]common.Address{
		{where, who},
		{where, AnyAddr},
		{AnyAddr, who},
	}
	for _, lookup := range lookups {
		condition, found, err := ctx.DB().GetPermission(
			d.address,
			lookup[0],
			lookup[1],
			permissionID,
			ctx.Txn(),
		)
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}
		if d.checkCondition(ctx, condition, where, who, permissionID, data) {
			return true, nil
		}
	}
	return false, nil
}

// checkCondition evaluates a stored grant. A condition that fails to evaluate
// denies the permission.
func (d *DAO) checkCondition(
	ctx *ledger.Context,
	condition common.Address,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	data []byte,
) bool {
	switch condition {
	case common.Address{}:
		return false
	case AllowFlag:
		return true
	}
	contract, ok := ctx.ContractAt(condition)
	if !ok {
		return false
	}
	cond, ok := contract.(PermissionCondition)
	if !ok {
		return false
	}
	granted, err := cond.IsGranted(ctx, where, who, permissionID, data)
	if err != nil {
		d.logger.Debug(
			"permission condition failed",
			"component", "dao",
			"condition", condition.Hex(),
			"error", err,
		)
		return false
	}
	return granted
}

func (d *DAO) auth(ctx *ledger.Context, permissionID common.Hash) error {
	granted, err := d.HasPermission(ctx, d.address, ctx.Sender(), permissionID, nil)
	if err != nil {
		return err
	}
	if !granted {
		return UnauthorizedError{
			Where:        d.address,
			Who:          ctx.Sender(),
			PermissionID: permissionID,
		}
	}
	return nil
}

// Grant gives who a permission on where. The sender needs ROOT_PERMISSION on
// the DAO.
func (d *DAO) Grant(
	ctx *ledger.Context,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
) error {
	if err := d.auth(ctx, RootPermissionID); err != nil {
		return err
	}
	return d.grant(ctx, where, who, permissionID, AllowFlag)
}

// GrantWithCondition gives who a permission on where that is decided by the
// condition contract at the given address
func (d *DAO) GrantWithCondition(
	ctx *ledger.Context,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	condition common.Address,
) error {
	if err := d.auth(ctx, RootPermissionID); err != nil {
		return err
	}
	contract, ok := ctx.ContractAt(condition)
	if !ok {
		return ConditionNotAContractError{Condition: condition}
	}
	if _, ok := contract.(PermissionCondition); !ok {
		return ConditionNotAContractError{Condition: condition}
	}
	return d.grant(ctx, where, who, permissionID, condition)
}

func (d *DAO) grant(
	ctx *ledger.Context,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	condition common.Address,
) error {
	if where == AnyAddr && who == AnyAddr {
		return AnyAddressDisallowedForWhoAndWhereError{}
	}
	if (where == AnyAddr || who == AnyAddr) && isRestrictedForAnyAddr(permissionID) {
		return PermissionsForAnyAddressDisallowedError{}
	}
	current, found, err := ctx.DB().GetPermission(
		d.address,
		where,
		who,
		permissionID,
		ctx.Txn(),
	)
	if err != nil {
		return err
	}
	if found {
		if current == condition {
			return nil
		}
		return PermissionAlreadyGrantedForDifferentConditionError{
			Where:            where,
			Who:              who,
			PermissionID:     permissionID,
			CurrentCondition: current,
			NewCondition:     condition,
		}
	}
	if err := ctx.DB().SetPermission(
		d.address,
		where,
		who,
		permissionID,
		condition,
		ctx.Txn(),
	); err != nil {
		return err
	}
	ctx.Emit(
		GrantedEventType,
		GrantedEvent{
			PermissionID: permissionID,
			Here:         ctx.Sender(),
			Where:        where,
			Who:          who,
			Condition:    condition,
		},
	)
	return nil
}

// Revoke removes a grant. The sender needs ROOT_PERMISSION on the DAO.
func (d *DAO) Revoke(
	ctx *ledger.Context,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
) error {
	if err := d.auth(ctx, RootPermissionID); err != nil {
		return err
	}
	_, found, err := ctx.DB().GetPermission(
		d.address,
		where,
		who,
		permissionID,
		ctx.Txn(),
	)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := ctx.DB().DeletePermission(
		d.address,
		where,
		who,
		permissionID,
		ctx.Txn(),
	); err != nil {
		return err
	}
	ctx.Emit(
		RevokedEventType,
		RevokedEvent{
			PermissionID: permissionID,
			Here:         ctx.Sender(),
			Where:        where,
			Who:          who,
		},
	)
	return nil
}
