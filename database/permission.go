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
	"fmt"

	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/ethereum/go-ethereum/common"
)

// GetPermission returns the condition stored for a grant, and whether the
// grant exists
func (d *Database) GetPermission(
	dao common.Address,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	txn *Txn,
) (common.Address, bool, error) {
	var ret *models.Permission
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.getPermission(dao, where, who, permissionID, txn)
		return err
	})
	if err != nil || ret == nil {
		return common.Address{}, false, err
	}
	return ret.Condition.Common(), true, nil
}

func (d *Database) getPermission(
	dao common.Address,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	txn *Txn,
) (*models.Permission, error) {
	var tmpItems []models.Permission
	result := txn.Metadata().
		Where(
			"dao = ? AND where_addr = ? AND who_addr = ? AND permission_id = ?",
			types.Address(dao),
			types.Address(where),
			types.Address(who),
			types.Hash(permissionID),
		).
		Limit(1).
		Find(&tmpItems)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query permission: %w", result.Error)
	}
	if len(tmpItems) == 0 {
		return nil, nil
	}
	return &tmpItems[0], nil
}

// SetPermission creates or replaces a grant
func (d *Database) SetPermission(
	dao common.Address,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	condition common.Address,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		tmpItem, err := d.getPermission(dao, where, who, permissionID, txn)
		if err != nil {
			return err
		}
		if tmpItem == nil {
			tmpItem = &models.Permission{
				Dao:          types.Address(dao),
				Where:        types.Address(where),
				Who:          types.Address(who),
				PermissionID: types.Hash(permissionID),
			}
		}
		tmpItem.Condition = types.Address(condition)
		if result := txn.Metadata().Save(tmpItem); result.Error != nil {
			return fmt.Errorf("failed to save permission: %w", result.Error)
		}
		return nil
	})
}

// DeletePermission removes a grant. Removing a grant that does not exist is
// not an error.
func (d *Database) DeletePermission(
	dao common.Address,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		result := txn.Metadata().
			Where(
				"dao = ? AND where_addr = ? AND who_addr = ? AND permission_id = ?",
				types.Address(dao),
				types.Address(where),
				types.Address(who),
				types.Hash(permissionID),
			).
			Delete(&models.Permission{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete permission: %w", result.Error)
		}
		return nil
	})
}

// GetDaoState returns the state of a DAO, or a zero state if it has never
// been written
func (d *Database) GetDaoState(
	dao common.Address,
	txn *Txn,
) (*models.DaoState, error) {
	ret := &models.DaoState{Dao: types.Address(dao)}
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var tmpItems []models.DaoState
		result := txn.Metadata().
			Where("dao = ?", types.Address(dao)).
			Limit(1).
			Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query DAO state: %w", result.Error)
		}
		if len(tmpItems) > 0 {
			ret = &tmpItems[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *Database) SetDaoState(
	state *models.DaoState,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		if result := txn.Metadata().Save(state); result.Error != nil {
			return fmt.Errorf("failed to save DAO state: %w", result.Error)
		}
		return nil
	})
}
