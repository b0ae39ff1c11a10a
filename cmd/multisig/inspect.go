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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/internal/config"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type proposalView struct {
	ID              common.Hash      `json:"id"`
	Creator         common.Address   `json:"creator"`
	Metadata        hexutil.Bytes    `json:"metadata"`
	AllowFailureMap string           `json:"allowFailureMap"`
	Actions         []actionView     `json:"actions"`
	Approvers       []common.Address `json:"approvers"`
	SnapshotBlock   uint64           `json:"snapshotBlock"`
	StartDate       uint64           `json:"startDate"`
	EndDate         uint64           `json:"endDate"`
	MinApprovals    uint16           `json:"minApprovals"`
	Approvals       uint16           `json:"approvals"`
	Executed        bool             `json:"executed"`
}

type actionView struct {
	To    common.Address `json:"to"`
	Value string         `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

type settingsView struct {
	Target            common.Address `json:"target"`
	Operation         string         `json:"operation"`
	Metadata          hexutil.Bytes  `json:"metadata"`
	ProposalCount     uint64         `json:"proposalCount"`
	MinApprovals      uint16         `json:"minApprovals"`
	AddresslistLength uint16         `json:"addresslistLength"`
	OnlyListed        bool           `json:"onlyListed"`
}

// inspectRun opens the configured database read-only and runs fn against
// the plugin
func inspectRun(
	cmd *cobra.Command,
	fn func(*ledger.Context, *multisig.Multisig) (any, error),
) {
	cfg := configFromCommand(cmd)
	logger := commonRun()
	ret, err := inspect(cmd.Context(), cfg, logger, fn)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ret); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func inspect(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	fn func(*ledger.Context, *multisig.Multisig) (any, error),
) (any, error) {
	deployCfg, err := cfg.Plugin.DeployConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	l, err := ledger.NewLedger(ledger.LedgerConfig{
		Logger:   logger,
		Database: db,
		ChainID:  cfg.ChainID,
	})
	if err != nil {
		return nil, err
	}
	plugin := multisig.New(
		multisig.WithLogger(logger),
		multisig.WithAddress(deployCfg.PluginAddress),
		multisig.WithDAO(deployCfg.DAOAddress),
	)
	if err := l.Deploy(deployCfg.PluginAddress, plugin); err != nil {
		return nil, err
	}
	var ret any
	err = l.View(
		ctx,
		deployCfg.Owner,
		deployCfg.PluginAddress,
		func(c *ledger.Context) error {
			var err error
			ret, err = fn(c, plugin)
			return err
		},
	)
	return ret, err
}

func membersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List the current members",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			inspectRun(
				cmd,
				func(c *ledger.Context, m *multisig.Multisig) (any, error) {
					members, err := m.Members(c)
					if err != nil {
						return nil, err
					}
					if members == nil {
						members = []common.Address{}
					}
					return members, nil
				},
			)
		},
	}
}

func settingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the plugin settings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			inspectRun(
				cmd,
				func(c *ledger.Context, m *multisig.Multisig) (any, error) {
					settings, err := m.MultisigSettings(c)
					if err != nil {
						return nil, err
					}
					targetConfig, err := m.TargetConfig(c)
					if err != nil {
						return nil, err
					}
					metadata, err := m.Metadata(c)
					if err != nil {
						return nil, err
					}
					length, err := m.AddresslistLength(c)
					if err != nil {
						return nil, err
					}
					count, err := m.ProposalCount(c)
					if err != nil {
						return nil, err
					}
					return settingsView{
						OnlyListed:        settings.OnlyListed,
						MinApprovals:      settings.MinApprovals,
						Target:            targetConfig.Target,
						Operation:         targetConfig.Operation.String(),
						Metadata:          metadata,
						AddresslistLength: length,
						ProposalCount:     count,
					}, nil
				},
			)
		},
	}
}

func proposalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal [id]",
		Short: "Show a proposal, or all proposals when no id is given",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			inspectRun(
				cmd,
				func(c *ledger.Context, m *multisig.Multisig) (any, error) {
					if len(args) == 0 {
						proposals, err := m.Proposals(c)
						if err != nil {
							return nil, err
						}
						ret := make([]proposalView, 0, len(proposals))
						for _, proposal := range proposals {
							view, err := newProposalView(c, m, proposal)
							if err != nil {
								return nil, err
							}
							ret = append(ret, view)
						}
						return ret, nil
					}
					id, err := parseProposalID(args[0])
					if err != nil {
						return nil, err
					}
					proposal, err := m.GetProposal(c, id)
					if err != nil {
						return nil, err
					}
					return newProposalView(c, m, proposal)
				},
			)
		},
	}
}

// parseProposalID accepts a proposal ID as a 0x-prefixed hash or a decimal
// uint256
func parseProposalID(value string) (common.Hash, error) {
	if has0xPrefix(value) {
		buf, err := hexutil.Decode(value)
		if err != nil || len(buf) > common.HashLength {
			return common.Hash{}, fmt.Errorf("invalid proposal id: %s", value)
		}
		return common.BytesToHash(buf), nil
	}
	tmpID, ok := new(big.Int).SetString(value, 10)
	if !ok || tmpID.Sign() < 0 || tmpID.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("invalid proposal id: %s", value)
	}
	return common.BigToHash(tmpID), nil
}

func has0xPrefix(value string) bool {
	return len(value) >= 2 && value[0] == '0' && (value[1] == 'x' || value[1] == 'X')
}

func newProposalView(
	c *ledger.Context,
	m *multisig.Multisig,
	proposal *multisig.Proposal,
) (proposalView, error) {
	approvers, err := m.Approvers(c, proposal.ID)
	if err != nil {
		return proposalView{}, err
	}
	if approvers == nil {
		approvers = []common.Address{}
	}
	ret := proposalView{
		ID:            proposal.ID,
		Creator:       proposal.Creator,
		Metadata:      proposal.Metadata,
		Actions:       make([]actionView, 0, len(proposal.Actions)),
		Approvers:     approvers,
		SnapshotBlock: proposal.Parameters.SnapshotBlock,
		StartDate:     proposal.Parameters.StartDate,
		EndDate:       proposal.Parameters.EndDate,
		MinApprovals:  proposal.Parameters.MinApprovals,
		Approvals:     proposal.Approvals,
		Executed:      proposal.Executed,
	}
	if proposal.AllowFailureMap != nil {
		ret.AllowFailureMap = proposal.AllowFailureMap.Hex()
	}
	for _, action := range proposal.Actions {
		tmpAction := actionView{
			To:   action.To,
			Data: action.Data,
		}
		if action.Value != nil {
			tmpAction.Value = action.Value.Dec()
		}
		ret.Actions = append(ret.Actions, tmpAction)
	}
	return ret, nil
}
