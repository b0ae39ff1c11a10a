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

import (
	"errors"

	"github.com/blinklabs-io/multisig/database/types"
)

var ErrPluginStateNotFound = errors.New("plugin state not found")

// PluginState holds the singleton configuration of a multisig plugin instance
type PluginState struct {
	ID                 uint          `gorm:"primarykey"`
	Plugin             types.Address `gorm:"uniqueIndex;size:20;not null"`
	Dao                types.Address `gorm:"size:20;not null"`
	InitializedVersion uint8         `gorm:"not null"`
	OnlyListed         bool          `gorm:"not null"`
	MinApprovals       uint16        `gorm:"not null"`
	LastSettingsChange uint64        `gorm:"not null"`
	Target             types.Address `gorm:"size:20;not null"`
	Operation          uint8         `gorm:"not null"`
	Metadata           []byte
	ProposalCount      uint64 `gorm:"not null"`
}

func (PluginState) TableName() string {
	return "multisig_plugin"
}
