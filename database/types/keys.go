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

package types

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ProposalPayloadKeyPrefix = "pp"
	CommitTimestampBlobKey   = "metadata_commit_timestamp"
)

// ProposalPayloadKey returns the blob key holding the encoded actions and
// metadata of a proposal
func ProposalPayloadKey(plugin common.Address, id common.Hash) []byte {
	return slices.Concat(
		[]byte(ProposalPayloadKeyPrefix),
		plugin.Bytes(),
		id.Bytes(),
	)
}
