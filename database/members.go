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
	"gorm.io/gorm/clause"
)

// withTxn runs fn inside txn. A nil txn gets a transaction of its own, which
// is committed if fn succeeds. Writes through a read-only txn are refused.
func (d *Database) withTxn(txn *Txn, readWrite bool, fn func(*Txn) error) error {
	if txn != nil {
		if readWrite && !txn.ReadWrite() {
			return types.ErrTxnReadOnly
		}
		return fn(txn)
	}
	return d.Transaction(readWrite).Do(fn)
}

// SetMemberListed records the listing state of a member as of a block
func (d *Database) SetMemberListed(
	plugin common.Address,
	member common.Address,
	block uint64,
	listed bool,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		tmpItem := models.MemberCheckpoint{
			Plugin: types.Address(plugin),
			Member: types.Address(member),
			Block:  types.Uint64(block),
			Listed: listed,
		}
		result := txn.Metadata().Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "plugin"},
				{Name: "member"},
				{Name: "block"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"listed"}),
		}).Create(&tmpItem)
		if result.Error != nil {
			return fmt.Errorf("failed to set member checkpoint: %w", result.Error)
		}
		return nil
	})
}

// IsMemberListed returns whether a member is currently listed
func (d *Database) IsMemberListed(
	plugin common.Address,
	member common.Address,
	txn *Txn,
) (bool, error) {
	return d.isMemberListed(plugin, member, nil, txn)
}

// IsMemberListedAtBlock returns whether a member was listed at the end of a
// block
func (d *Database) IsMemberListedAtBlock(
	plugin common.Address,
	member common.Address,
	block uint64,
	txn *Txn,
) (bool, error) {
	return d.isMemberListed(plugin, member, &block, txn)
}

func (d *Database) isMemberListed(
	plugin common.Address,
	member common.Address,
	block *uint64,
	txn *Txn,
) (bool, error) {
	var ret bool
	err := d.withTxn(txn, false, func(txn *Txn) error {
		query := txn.Metadata().Where(
			"plugin = ? AND member = ?",
			types.Address(plugin),
			types.Address(member),
		)
		if block != nil {
			query = query.Where("block <= ?", *block)
		}
		var tmpItems []models.MemberCheckpoint
		result := query.Order("block DESC").Limit(1).Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query member checkpoint: %w", result.Error)
		}
		ret = len(tmpItems) > 0 && tmpItems[0].Listed
		return nil
	})
	return ret, err
}

// SetAddresslistLength records the size of a plugin's address list as of a
// block
func (d *Database) SetAddresslistLength(
	plugin common.Address,
	block uint64,
	length uint32,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		tmpItem := models.AddresslistLength{
			Plugin: types.Address(plugin),
			Block:  types.Uint64(block),
			Length: length,
		}
		result := txn.Metadata().Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "plugin"},
				{Name: "block"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"length"}),
		}).Create(&tmpItem)
		if result.Error != nil {
			return fmt.Errorf("failed to set address list length: %w", result.Error)
		}
		return nil
	})
}

// AddresslistLength returns the current size of a plugin's address list
func (d *Database) AddresslistLength(
	plugin common.Address,
	txn *Txn,
) (uint32, error) {
	return d.addresslistLength(plugin, nil, txn)
}

// AddresslistLengthAtBlock returns the size of a plugin's address list at
// the end of a block
func (d *Database) AddresslistLengthAtBlock(
	plugin common.Address,
	block uint64,
	txn *Txn,
) (uint32, error) {
	return d.addresslistLength(plugin, &block, txn)
}

func (d *Database) addresslistLength(
	plugin common.Address,
	block *uint64,
	txn *Txn,
) (uint32, error) {
	var ret uint32
	err := d.withTxn(txn, false, func(txn *Txn) error {
		query := txn.Metadata().Where("plugin = ?", types.Address(plugin))
		if block != nil {
			query = query.Where("block <= ?", *block)
		}
		var tmpItems []models.AddresslistLength
		result := query.Order("block DESC").Limit(1).Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query address list length: %w", result.Error)
		}
		if len(tmpItems) > 0 {
			ret = tmpItems[0].Length
		}
		return nil
	})
	return ret, err
}

// ListMembers returns the currently listed members of a plugin, in the order
// they were first added
func (d *Database) ListMembers(
	plugin common.Address,
	txn *Txn,
) ([]common.Address, error) {
	var ret []common.Address
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var tmpItems []models.MemberCheckpoint
		result := txn.Metadata().
			Where("plugin = ?", types.Address(plugin)).
			Order("block ASC").
			Order("id ASC").
			Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query member checkpoints: %w", result.Error)
		}
		order := []common.Address{}
		listed := make(map[common.Address]bool)
		for _, item := range tmpItems {
			member := item.Member.Common()
			if _, ok := listed[member]; !ok {
				order = append(order, member)
			}
			listed[member] = item.Listed
		}
		for _, member := range order {
			if listed[member] {
				ret = append(ret, member)
			}
		}
		return nil
	})
	return ret, err
}
