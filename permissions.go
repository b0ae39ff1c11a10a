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
	"github.com/blinklabs-io/multisig/dao"
)

var (
	CreateProposalPermissionID         = dao.PermissionID("CREATE_PROPOSAL_PERMISSION")
	ExecuteProposalPermissionID        = dao.PermissionID("EXECUTE_PROPOSAL_PERMISSION")
	UpdateMultisigSettingsPermissionID = dao.PermissionID("UPDATE_MULTISIG_SETTINGS_PERMISSION")
	SetTargetConfigPermissionID        = dao.PermissionID("SET_TARGET_CONFIG_PERMISSION")
	SetMetadataPermissionID            = dao.PermissionID("SET_METADATA_PERMISSION")
)
