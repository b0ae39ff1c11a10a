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
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Execute runs a batch of actions in order, each in its own call frame with
// the DAO as sender. Bit i of allowFailureMap tolerates the failure of action
// i, which is then recorded in the returned failure map. Any other failing
// action aborts the batch. The caller needs EXECUTE_PERMISSION on the DAO.
func (d *DAO) Execute(
	ctx *ledger.Context,
	callID common.Hash,
	actions []Action,
	allowFailureMap *uint256.Int,
) ([][]byte, *uint256.Int, error) {
	granted, err := d.HasPermission(
		ctx,
		ctx.Self(),
		ctx.Sender(),
		ExecutePermissionID,
		nil,
	)
	if err != nil {
		return nil, nil, err
	}
	if !granted {
		return nil, nil, UnauthorizedError{
			Where:        ctx.Self(),
			Who:          ctx.Sender(),
			PermissionID: ExecutePermissionID,
		}
	}
	if len(actions) > MaxActions {
		return nil, nil, TooManyActionsError{Count: len(actions)}
	}
	if !d.executing.CompareAndSwap(false, true) {
		return nil, nil, ReentrantCallError{}
	}
	defer d.executing.Store(false)
	if allowFailureMap == nil {
		allowFailureMap = new(uint256.Int)
	}
	failureMap := new(uint256.Int)
	execResults := make([][]byte, len(actions))
	for i, action := range actions {
		// Native value transfers are not modeled, so only the call is made
		out, err := ctx.Call(action.To, action.Data)
		if err != nil {
			if !bitSet(allowFailureMap, i) {
				return nil, nil, ActionFailedError{Index: i, Err: err}
			}
			setBit(failureMap, i)
			d.logger.Debug(
				"tolerated action failure",
				"component", "dao",
				"call_id", callID.Hex(),
				"index", i,
				"error", err,
			)
			continue
		}
		execResults[i] = out
	}
	ctx.Emit(
		ExecutedEventType,
		ExecutedEvent{
			Actor:           ctx.Sender(),
			CallID:          callID,
			Actions:         actions,
			AllowFailureMap: new(uint256.Int).Set(allowFailureMap),
			FailureMap:      failureMap,
			ExecResults:     execResults,
		},
	)
	return execResults, failureMap, nil
}

func bitSet(m *uint256.Int, i int) bool {
	var bit uint256.Int
	bit.Lsh(uint256.NewInt(1), uint(i)) // #nosec G115
	return !bit.And(&bit, m).IsZero()
}

func setBit(m *uint256.Int, i int) {
	var bit uint256.Int
	bit.Lsh(uint256.NewInt(1), uint(i)) // #nosec G115
	m.Or(m, &bit)
}
