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

package ledger

import (
	"github.com/blinklabs-io/multisig/database/models"
	"github.com/google/btree"
)

const blockIndexDegree = 32

func newBlockIndex() *btree.BTreeG[models.Block] {
	return btree.NewG(
		blockIndexDegree,
		func(a, b models.Block) bool {
			return a.Number < b.Number
		},
	)
}

func (l *Ledger) head() models.Block {
	ret, _ := l.blocks.Max()
	return ret
}

// BlockByNumber returns a mined block
func (l *Ledger) BlockByNumber(number uint64) (models.Block, bool) {
	l.RLock()
	defer l.RUnlock()
	return l.blocks.Get(models.Block{Number: number})
}

// Blocks returns the mined blocks in the inclusive range [from, to]
func (l *Ledger) Blocks(from uint64, to uint64) []models.Block {
	l.RLock()
	defer l.RUnlock()
	var ret []models.Block
	l.blocks.AscendRange(
		models.Block{Number: from},
		models.Block{Number: to + 1},
		func(block models.Block) bool {
			ret = append(ret, block)
			return true
		},
	)
	return ret
}
