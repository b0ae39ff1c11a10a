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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxActions is the number of actions a batch can hold, bounded by the width
// of the failure maps
const MaxActions = 256

// Action is a call made by the DAO
type Action struct {
	Value *uint256.Int
	Data  []byte
	To    common.Address
}

// ActionTuple is the ABI form of an Action
type ActionTuple struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// ActionsType is the ABI type of a list of actions
var ActionsType = mustNewType(
	"tuple[]",
	[]abi.ArgumentMarshaling{
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	},
)

func mustNewType(t string, components []abi.ArgumentMarshaling) abi.Type {
	ret, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return ret
}

// ActionTuples converts actions to their ABI form
func ActionTuples(actions []Action) []ActionTuple {
	ret := make([]ActionTuple, 0, len(actions))
	for _, action := range actions {
		tmpTuple := ActionTuple{
			To:    action.To,
			Value: new(big.Int),
			Data:  action.Data,
		}
		if tmpTuple.Data == nil {
			tmpTuple.Data = []byte{}
		}
		if action.Value != nil {
			tmpTuple.Value = action.Value.ToBig()
		}
		ret = append(ret, tmpTuple)
	}
	return ret
}

// ActionsFromABI converts an unpacked ABI list of actions
func ActionsFromABI(v any) (ret []Action, err error) {
	defer func() {
		// abi.ConvertType panics on incompatible values
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid actions value: %v", r)
		}
	}()
	tuples := *abi.ConvertType(v, new([]ActionTuple)).(*[]ActionTuple)
	ret = make([]Action, 0, len(tuples))
	for _, tuple := range tuples {
		value, overflow := uint256.FromBig(tuple.Value)
		if overflow {
			return nil, fmt.Errorf("action value overflows 256 bits: %s", tuple.Value)
		}
		ret = append(
			ret,
			Action{
				To:    tuple.To,
				Value: value,
				Data:  tuple.Data,
			},
		)
	}
	return ret, nil
}
