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
	"context"
	"fmt"

	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// PermissionGrant is a permission granted on the DAO when a plugin is
// installed. A zero Condition makes the grant unconditional.
type PermissionGrant struct {
	Where        common.Address
	Who          common.Address
	PermissionID common.Hash
	Condition    common.Address
}

// InstallationPermissions returns the grants that wire a plugin into its DAO:
// the DAO manages the plugin, the plugin executes on the DAO, anyone passing
// the condition proposes, and anyone executes approved proposals
func InstallationPermissions(
	plugin common.Address,
	daoAddr common.Address,
	condition common.Address,
	withSetMetadata bool,
) []PermissionGrant {
	ret := []PermissionGrant{
		{Where: plugin, Who: daoAddr, PermissionID: UpdateMultisigSettingsPermissionID},
		{Where: daoAddr, Who: plugin, PermissionID: dao.ExecutePermissionID},
		{Where: plugin, Who: dao.AnyAddr, PermissionID: CreateProposalPermissionID, Condition: condition},
		{Where: plugin, Who: daoAddr, PermissionID: SetTargetConfigPermissionID},
		{Where: plugin, Who: dao.AnyAddr, PermissionID: ExecuteProposalPermissionID},
	}
	if withSetMetadata {
		ret = append(
			ret,
			PermissionGrant{Where: plugin, Who: daoAddr, PermissionID: SetMetadataPermissionID},
		)
	}
	return ret
}

// Install applies a set of grants. It runs as the DAO, with a sender holding
// ROOT_PERMISSION.
func Install(ctx *ledger.Context, d *dao.DAO, grants []PermissionGrant) error {
	for _, grant := range grants {
		var err error
		if grant.Condition == (common.Address{}) {
			err = d.Grant(ctx, grant.Where, grant.Who, grant.PermissionID)
		} else {
			err = d.GrantWithCondition(
				ctx,
				grant.Where,
				grant.Who,
				grant.PermissionID,
				grant.Condition,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to grant %s: %w", grant.PermissionID, err)
		}
	}
	return nil
}

// Uninstall revokes a set of grants. It runs as the DAO, with a sender
// holding ROOT_PERMISSION.
func Uninstall(ctx *ledger.Context, d *dao.DAO, grants []PermissionGrant) error {
	for _, grant := range grants {
		if err := d.Revoke(ctx, grant.Where, grant.Who, grant.PermissionID); err != nil {
			return fmt.Errorf("failed to revoke %s: %w", grant.PermissionID, err)
		}
	}
	return nil
}

// DeployConfig describes a DAO with one installed plugin
type DeployConfig struct {
	DAOMetadata      []byte
	Init             InitConfig
	Owner            common.Address
	DAOAddress       common.Address
	PluginAddress    common.Address
	ConditionAddress common.Address
	WithSetMetadata  bool
}

// Deployment holds the contracts created by Deploy
type Deployment struct {
	DAO       *dao.DAO
	Plugin    *Multisig
	Condition *ListedCheckCondition
}

// Deploy puts a DAO, a plugin and its proposal condition on a ledger. On a
// fresh ledger the owner then initializes both and installs the plugin. A
// ledger that already holds an initialized plugin is left as is.
func Deploy(
	ctx context.Context,
	l *ledger.Ledger,
	cfg DeployConfig,
	opts ...ConfigOptionFunc,
) (*Deployment, error) {
	ret := &Deployment{}
	ret.DAO = dao.New(cfg.DAOAddress, dao.WithLogger(l.Logger()))
	ret.Plugin = New(
		append(
			[]ConfigOptionFunc{WithLogger(l.Logger())},
			append(
				opts,
				WithAddress(cfg.PluginAddress),
				WithDAO(cfg.DAOAddress),
			)...,
		)...,
	)
	ret.Condition = NewListedCheckCondition(ret.Plugin)
	if err := l.Deploy(cfg.DAOAddress, ret.DAO); err != nil {
		return nil, err
	}
	if err := l.Deploy(cfg.PluginAddress, ret.Plugin); err != nil {
		return nil, err
	}
	if err := l.Deploy(cfg.ConditionAddress, ret.Condition); err != nil {
		return nil, err
	}
	var initialized bool
	err := l.View(
		ctx,
		cfg.Owner,
		cfg.PluginAddress,
		func(c *ledger.Context) error {
			state, err := ret.Plugin.state(c)
			if err != nil {
				return err
			}
			initialized = state.InitializedVersion >= initializerVersion
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	if initialized {
		l.Logger().Info(
			"using existing plugin installation",
			"component", "multisig",
			"address", cfg.PluginAddress.Hex(),
		)
		return ret, nil
	}
	if _, err := l.Submit(
		ctx,
		cfg.Owner,
		cfg.DAOAddress,
		func(c *ledger.Context) error {
			return ret.DAO.Initialize(c, cfg.DAOMetadata, cfg.Owner)
		},
	); err != nil {
		return nil, fmt.Errorf("failed to initialize DAO: %w", err)
	}
	if _, err := l.Submit(
		ctx,
		cfg.Owner,
		cfg.PluginAddress,
		func(c *ledger.Context) error {
			return ret.Plugin.Initialize(c, cfg.Init)
		},
	); err != nil {
		return nil, fmt.Errorf("failed to initialize plugin: %w", err)
	}
	grants := InstallationPermissions(
		cfg.PluginAddress,
		cfg.DAOAddress,
		cfg.ConditionAddress,
		cfg.WithSetMetadata,
	)
	if _, err := l.Submit(
		ctx,
		cfg.Owner,
		cfg.DAOAddress,
		func(c *ledger.Context) error {
			return Install(c, ret.DAO, grants)
		},
	); err != nil {
		return nil, fmt.Errorf("failed to install plugin: %w", err)
	}
	return ret, nil
}
