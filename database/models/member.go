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

import "github.com/blinklabs-io/multisig/database/types"

// MemberCheckpoint records the listing state of an address as of a block.
// Rows are never deleted, so any past block can be answered by taking the
// latest checkpoint at or below it.
type MemberCheckpoint struct {
	ID     uint          `gorm:"primarykey"`
	Plugin types.Address `gorm:"uniqueIndex:idx_member_checkpoint,priority:1;size:20;not null"`
	Member types.Address `gorm:"uniqueIndex:idx_member_checkpoint,priority:2;size:20;not null"`
	Block  types.Uint64  `gorm:"uniqueIndex:idx_member_checkpoint,priority:3;not null"`
	Listed bool          `gorm:"not null"`
}

func (MemberCheckpoint) TableName() string {
	return "member_checkpoint"
}

// AddresslistLength records the size of a plugin's address list as of a block
type AddresslistLength struct {
	ID     uint          `gorm:"primarykey"`
	Plugin types.Address `gorm:"uniqueIndex:idx_addresslist_length,priority:1;size:20;not null"`
	Block  types.Uint64  `gorm:"uniqueIndex:idx_addresslist_length,priority:2;not null"`
	Length uint32        `gorm:"not null"`
}

func (AddresslistLength) TableName() string {
	return "addresslist_length"
}
