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
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const daoABIJSON = `[
{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"_callId","type":"bytes32"},{"name":"_actions","type":"tuple[]","components":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]},{"name":"_allowFailureMap","type":"uint256"}],"outputs":[{"name":"execResults","type":"bytes[]"},{"name":"failureMap","type":"uint256"}]},
{"type":"function","name":"grant","stateMutability":"nonpayable","inputs":[{"name":"_where","type":"address"},{"name":"_who","type":"address"},{"name":"_permissionId","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"grantWithCondition","stateMutability":"nonpayable","inputs":[{"name":"_where","type":"address"},{"name":"_who","type":"address"},{"name":"_permissionId","type":"bytes32"},{"name":"_condition","type":"address"}],"outputs":[]},
{"type":"function","name":"revoke","stateMutability":"nonpayable","inputs":[{"name":"_where","type":"address"},{"name":"_who","type":"address"},{"name":"_permissionId","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"hasPermission","stateMutability":"view","inputs":[{"name":"_where","type":"address"},{"name":"_who","type":"address"},{"name":"_permissionId","type":"bytes32"},{"name":"_data","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"setMetadata","stateMutability":"nonpayable","inputs":[{"name":"_metadata","type":"bytes"}],"outputs":[]},
{"type":"function","name":"getMetadata","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes"}]}
]`

// ABI is the call interface of a deployed DAO
var ABI = mustParseABI(daoABIJSON)

var ErrUnknownMethod = errors.New("unknown method")

func mustParseABI(data string) abi.ABI {
	ret, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		panic(err)
	}
	return ret
}

// Call dispatches an ABI encoded call to the DAO
func (d *DAO) Call(ctx *ledger.Context, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ErrUnknownMethod
	}
	method, err := ABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, input[:4])
	}
	if ctx.ReadOnly() && !method.IsConstant() {
		return nil, fmt.Errorf("%w: %s", ledger.ErrReadOnly, method.Name)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s arguments: %w", method.Name, err)
	}
	switch method.Name {
	case "execute":
		actions, err := ActionsFromABI(args[1])
		if err != nil {
			return nil, err
		}
		allowFailureMap, _ := uint256.FromBig(args[2].(*big.Int))
		execResults, failureMap, err := d.Execute(
			ctx,
			common.Hash(args[0].([32]byte)),
			actions,
			allowFailureMap,
		)
		if err != nil {
			return nil, err
		}
		for i := range execResults {
			if execResults[i] == nil {
				execResults[i] = []byte{}
			}
		}
		return method.Outputs.Pack(execResults, failureMap.ToBig())
	case "grant":
		return nil, d.Grant(
			ctx,
			args[0].(common.Address),
			args[1].(common.Address),
			common.Hash(args[2].([32]byte)),
		)
	case "grantWithCondition":
		return nil, d.GrantWithCondition(
			ctx,
			args[0].(common.Address),
			args[1].(common.Address),
			common.Hash(args[2].([32]byte)),
			args[3].(common.Address),
		)
	case "revoke":
		return nil, d.Revoke(
			ctx,
			args[0].(common.Address),
			args[1].(common.Address),
			common.Hash(args[2].([32]byte)),
		)
	case "hasPermission":
		granted, err := d.HasPermission(
			ctx,
			args[0].(common.Address),
			args[1].(common.Address),
			common.Hash(args[2].([32]byte)),
			args[3].([]byte),
		)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(granted)
	case "setMetadata":
		return nil, d.SetMetadata(ctx, args[0].([]byte))
	case "getMetadata":
		metadata, err := d.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		if metadata == nil {
			metadata = []byte{}
		}
		return method.Outputs.Pack(metadata)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
}
