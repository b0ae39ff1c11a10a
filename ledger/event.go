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
	"github.com/blinklabs-io/multisig/event"
	"github.com/ethereum/go-ethereum/common"
)

const BlockMinedEventType event.EventType = "ledger.block"

type BlockMinedEvent struct {
	Block models.Block
}

// Log is a notification emitted by a contract during a transaction. It is
// published as the data of an event.Event of the same type after commit.
type Log struct {
	Data        any
	Type        event.EventType
	Address     common.Address
	BlockNumber uint64
	TxSender    common.Address
}

// Receipt describes a transaction that was committed
type Receipt struct {
	Output      []byte
	Logs        []Log
	From        common.Address
	To          common.Address
	BlockNumber uint64
	Timestamp   uint64
	// Err is set when a transaction committed its state while reporting a
	// failure
	Err error
}
