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
	"math/big"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// payloadArgs is the encoding of the actions and metadata of a proposal. The
// encoded payload is what gets stored, and its hash salts the proposal ID.
var payloadArgs = abi.Arguments{
	{Name: "actions", Type: dao.ActionsType},
	{Name: "metadata", Type: mustNewType("bytes")},
}

var proposalIDArgs = abi.Arguments{
	{Name: "chainId", Type: mustNewType("uint256")},
	{Name: "blockNumber", Type: mustNewType("uint256")},
	{Name: "plugin", Type: mustNewType("address")},
	{Name: "salt", Type: mustNewType("bytes32")},
}

func encodePayload(actions []dao.Action, metadata []byte) ([]byte, error) {
	if metadata == nil {
		metadata = []byte{}
	}
	ret, err := payloadArgs.Pack(dao.ActionTuples(actions), metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proposal payload: %w", err)
	}
	return ret, nil
}

func decodePayload(payload []byte) ([]dao.Action, []byte, error) {
	args, err := payloadArgs.Unpack(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode proposal payload: %w", err)
	}
	actions, err := dao.ActionsFromABI(args[0])
	if err != nil {
		return nil, nil, err
	}
	return actions, args[1].([]byte), nil
}

// ProposalID derives the ID of a proposal created in a block on a chain by
// the plugin at an address
func ProposalID(
	chainID uint64,
	blockNumber uint64,
	plugin common.Address,
	actions []dao.Action,
	metadata []byte,
) (common.Hash, error) {
	payload, err := encodePayload(actions, metadata)
	if err != nil {
		return common.Hash{}, err
	}
	return proposalIDFromPayload(chainID, blockNumber, plugin, payload)
}

func proposalIDFromPayload(
	chainID uint64,
	blockNumber uint64,
	plugin common.Address,
	payload []byte,
) (common.Hash, error) {
	salt := crypto.Keccak256Hash(payload)
	encoded, err := proposalIDArgs.Pack(
		new(big.Int).SetUint64(chainID),
		new(big.Int).SetUint64(blockNumber),
		plugin,
		[32]byte(salt),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode proposal ID: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
