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
	"errors"
	"fmt"

	"github.com/blinklabs-io/multisig/database/models"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPluginState returns the stored state of a plugin instance, or
// models.ErrPluginStateNotFound
func (d *Database) GetPluginState(
	plugin common.Address,
	txn *Txn,
) (*models.PluginState, error) {
	var ret *models.PluginState
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var tmpItems []models.PluginState
		result := txn.Metadata().
			Where("plugin = ?", types.Address(plugin)).
			Limit(1).
			Find(&tmpItems)
		if result.Error != nil {
			return fmt.Errorf("failed to query plugin state: %w", result.Error)
		}
		if len(tmpItems) == 0 {
			return models.ErrPluginStateNotFound
		}
		ret = &tmpItems[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// GetOrNewPluginState returns the stored state of a plugin instance, or a
// zero state for an instance that has never been written
func (d *Database) GetOrNewPluginState(
	plugin common.Address,
	txn *Txn,
) (*models.PluginState, error) {
	state, err := d.GetPluginState(plugin, txn)
	if err != nil {
		if errors.Is(err, models.ErrPluginStateNotFound) {
			return &models.PluginState{Plugin: types.Address(plugin)}, nil
		}
		return nil, err
	}
	return state, nil
}

// SetPluginState creates or replaces the state of a plugin instance
func (d *Database) SetPluginState(
	state *models.PluginState,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		var result *gorm.DB
		if state.ID != 0 {
			result = txn.Metadata().Save(state)
		} else {
			result = txn.Metadata().Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "plugin"}},
				UpdateAll: true,
			}).Create(state)
		}
		if result.Error != nil {
			return fmt.Errorf("failed to save plugin state: %w", result.Error)
		}
		return nil
	})
}

// ListPluginStates returns every plugin instance in the database
func (d *Database) ListPluginStates(txn *Txn) ([]models.PluginState, error) {
	var ret []models.PluginState
	err := d.withTxn(txn, false, func(txn *Txn) error {
		result := txn.Metadata().Order("id ASC").Find(&ret)
		if result.Error != nil {
			return fmt.Errorf("failed to query plugin states: %w", result.Error)
		}
		return nil
	})
	return ret, err
}
