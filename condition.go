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

package multisig

import (
	"fmt"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
)

const conditionABIJSON = `[
{"type":"function","name":"isGranted","stateMutability":"view","inputs":[{"name":"_where","type":"address"},{"name":"_who","type":"address"},{"name":"_permissionId","type":"bytes32"},{"name":"_data","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]}
]`

// ConditionABI is the call interface of a deployed ListedCheckCondition
var ConditionABI = mustParseABI(conditionABIJSON)

// ListedCheckCondition grants a permission to members of a plugin. While the
// plugin does not restrict proposing to members, anyone is granted.
type ListedCheckCondition struct {
	plugin *Multisig
}

var (
	_ dao.PermissionCondition = (*ListedCheckCondition)(nil)
	_ ledger.Contract         = (*ListedCheckCondition)(nil)
)

func NewListedCheckCondition(plugin *Multisig) *ListedCheckCondition {
	return &ListedCheckCondition{plugin: plugin}
}

func (c *ListedCheckCondition) IsGranted(
	ctx *ledger.Context,
	_ common.Address,
	who common.Address,
	_ common.Hash,
	_ []byte,
) (bool, error) {
	settings, err := c.plugin.MultisigSettings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.OnlyListed {
		return true, nil
	}
	return c.plugin.IsListed(ctx, who)
}

func (c *ListedCheckCondition) Call(ctx *ledger.Context, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ErrUnknownMethod
	}
	method, err := ConditionABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, input[:4])
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s arguments: %w", method.Name, err)
	}
	granted, err := c.IsGranted(
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
}
