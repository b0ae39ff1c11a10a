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
)

// AddBlock stores a mined block header
func (d *Database) AddBlock(block *models.Block, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		if result := txn.Metadata().Create(block); result.Error != nil {
			return fmt.Errorf("failed to add block %d: %w", block.Number, result.Error)
		}
		return nil
	})
}

// GetBlocks returns every stored block header in ascending order
func (d *Database) GetBlocks(txn *Txn) ([]models.Block, error) {
	var ret []models.Block
	err := d.withTxn(txn, false, func(txn *Txn) error {
		result := txn.Metadata().Order("number ASC").Find(&ret)
		if result.Error != nil {
			return fmt.Errorf("failed to query blocks: %w", result.Error)
		}
		return nil
	})
	return ret, err
}
