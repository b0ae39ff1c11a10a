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

// Permission is a single grant in a DAO's permission manager. Condition holds
// either the allow flag address or the address of a condition contract.
type Permission struct {
	ID           uint          `gorm:"primarykey"`
	Dao          types.Address `gorm:"uniqueIndex:idx_permission,priority:1;size:20;not null"`
	Where        types.Address `gorm:"column:where_addr;uniqueIndex:idx_permission,priority:2;size:20;not null"`
	Who          types.Address `gorm:"column:who_addr;uniqueIndex:idx_permission,priority:3;size:20;not null"`
	PermissionID types.Hash    `gorm:"uniqueIndex:idx_permission,priority:4;size:32;not null"`
	Condition    types.Address `gorm:"size:20;not null"`
}

func (Permission) TableName() string {
	return "dao_permission"
}

type DaoState struct {
	ID          uint          `gorm:"primarykey"`
	Dao         types.Address `gorm:"uniqueIndex;size:20;not null"`
	Initialized bool          `gorm:"not null"`
	Metadata    []byte
}

func (DaoState) TableName() string {
	return "dao_state"
}
