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
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	ExecutedEventType    event.EventType = "dao.executed"
	GrantedEventType     event.EventType = "dao.granted"
	RevokedEventType     event.EventType = "dao.revoked"
	MetadataSetEventType event.EventType = "dao.metadata_set"
)

// ExecutedEvent is emitted for every executed batch of actions
type ExecutedEvent struct {
	Actor           common.Address
	CallID          common.Hash
	Actions         []Action
	AllowFailureMap *uint256.Int
	FailureMap      *uint256.Int
	ExecResults     [][]byte
}

type GrantedEvent struct {
	PermissionID common.Hash
	Here         common.Address
	Where        common.Address
	Who          common.Address
	Condition    common.Address
}

type RevokedEvent struct {
	PermissionID common.Hash
	Here         common.Address
	Where        common.Address
	Who          common.Address
}

type MetadataSetEvent struct {
	Metadata []byte
}
