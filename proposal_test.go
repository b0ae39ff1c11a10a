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

package multisig_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProposal(t *testing.T) {
	env := newDefaultTestEnv(t)
	actions := []dao.Action{recordAction("a"), recordAction("b")}
	var id common.Hash
	receipt := env.submit(t, testAlice, func(c *ledger.Context) error {
		var err error
		id, err = env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{
				Metadata:        testMetadata,
				Actions:         actions,
				AllowFailureMap: uint256.NewInt(2),
			},
		)
		return err
	})
	expectedID, err := multisig.ProposalID(
		ledger.DefaultChainID,
		receipt.BlockNumber,
		testPluginAddr,
		actions,
		testMetadata,
	)
	require.NoError(t, err)
	assert.Equal(t, expectedID, id)

	proposal := env.proposal(t, id)
	assert.Equal(t, id, proposal.ID)
	assert.Equal(t, testAlice, proposal.Creator)
	assert.False(t, proposal.Executed)
	assert.Equal(t, uint16(0), proposal.Approvals)
	assert.Equal(t, testMetadata, proposal.Metadata)
	assert.Equal(t, uint64(2), proposal.AllowFailureMap.Uint64())
	require.Len(t, proposal.Actions, 2)
	assert.Equal(t, testRecorderAddr, proposal.Actions[1].To)
	assert.Equal(t, []byte("b"), proposal.Actions[1].Data)
	assert.True(t, proposal.Actions[1].Value.IsZero())
	assert.Equal(
		t,
		multisig.ProposalParameters{
			SnapshotBlock: receipt.BlockNumber - 1,
			StartDate:     receipt.Timestamp,
			EndDate:       receipt.Timestamp + uint64(multisig.DefaultProposalDuration.Seconds()),
			MinApprovals:  2,
		},
		proposal.Parameters,
	)

	require.Len(t, receipt.Logs, 1)
	createdEvt, ok := receipt.Logs[0].Data.(multisig.ProposalCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, id, createdEvt.ProposalID)
	assert.Equal(t, testAlice, createdEvt.Creator)
	assert.Equal(t, proposal.Parameters.StartDate, createdEvt.StartDate)
	assert.Equal(t, proposal.Parameters.EndDate, createdEvt.EndDate)

	env.view(t, func(c *ledger.Context) error {
		count, err := env.plugin.ProposalCount(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
		_, err = env.plugin.GetProposal(c, common.HexToHash("0x01"))
		var notFoundErr multisig.ProposalNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, common.HexToHash("0x01"), notFoundErr.ProposalID)
		return nil
	})
}

func TestCreateProposalApproveNow(t *testing.T) {
	for _, test := range []struct {
		name         string
		minApprovals uint16
		tryExecute   bool
		approvals    uint16
		executed     bool
	}{
		{name: "approve", minApprovals: 2, tryExecute: true, approvals: 1},
		{name: "approve without execute", minApprovals: 1, approvals: 1},
		{name: "approve and execute", minApprovals: 1, tryExecute: true, approvals: 1, executed: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(
				t,
				defaultMembers(),
				multisig.Settings{OnlyListed: true, MinApprovals: test.minApprovals},
			)
			id := env.createProposal(
				t,
				testAlice,
				multisig.CreateProposalParams{
					Metadata:   testMetadata,
					Actions:    []dao.Action{recordAction("a")},
					ApproveNow: true,
					TryExecute: test.tryExecute,
				},
			)
			proposal := env.proposal(t, id)
			assert.Equal(t, test.approvals, proposal.Approvals)
			assert.Equal(t, test.executed, proposal.Executed)
			assert.Equal(t, test.executed, env.recorded(t, "a"))
		})
	}
}

func TestCreateProposalPermission(t *testing.T) {
	env := newDefaultTestEnv(t)
	err := env.submitErr(testEve, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(c, multisig.CreateProposalParams{})
		return err
	})
	var authErr multisig.DaoUnauthorizedError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(
		t,
		multisig.DaoUnauthorizedError{
			Dao:          testDaoAddr,
			Where:        testPluginAddr,
			Who:          testEve,
			PermissionID: multisig.CreateProposalPermissionID,
		},
		authErr,
	)

	env.grant(t, testPluginAddr, testOwner, multisig.UpdateMultisigSettingsPermissionID)
	env.submit(t, testOwner, func(c *ledger.Context) error {
		return env.plugin.UpdateMultisigSettings(
			c,
			multisig.Settings{OnlyListed: false, MinApprovals: 2},
		)
	})
	id := env.createProposal(t, testEve, multisig.CreateProposalParams{})
	assert.Equal(t, testEve, env.proposal(t, id).Creator)
	// Proposing is open to anyone, approving is not
	assert.False(t, env.canApprove(t, id, testEve))
}

func TestCreateProposalDates(t *testing.T) {
	env := newDefaultTestEnv(t)
	_, now := env.ledger.Pending()

	err := env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{StartDate: now - 1},
		)
		return err
	})
	var dateErr multisig.DateOutOfBoundsError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, multisig.DateOutOfBoundsError{Limit: now, Actual: now - 1}, dateErr)

	err = env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{StartDate: now + 100, EndDate: now + 99},
		)
		return err
	})
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, multisig.DateOutOfBoundsError{Limit: now + 100, Actual: now + 99}, dateErr)

	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{StartDate: now + 100, EndDate: now + 100},
	)
	params := env.proposal(t, id).Parameters
	assert.Equal(t, now+100, params.StartDate)
	assert.Equal(t, now+100, params.EndDate)
}

func TestCreateProposalUnboundedDates(t *testing.T) {
	env := newDefaultTestEnv(t)
	_, now := env.ledger.Pending()

	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{EndDate: math.MaxUint64},
	)
	params := env.proposal(t, id).Parameters
	assert.Equal(t, uint64(math.MaxUint64), params.EndDate)
	assert.GreaterOrEqual(t, params.StartDate, now)
	assert.True(t, env.canApprove(t, id, testBob))

	id = env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{StartDate: 1 << 63, EndDate: 1 << 63},
	)
	params = env.proposal(t, id).Parameters
	assert.Equal(t, uint64(1<<63), params.StartDate)
	assert.Equal(t, uint64(1<<63), params.EndDate)
	assert.False(t, env.canApprove(t, id, testBob))
}

func TestCreateProposalDefaultEndDateOverflow(t *testing.T) {
	env := newDefaultTestEnv(t)
	duration := uint64(multisig.DefaultProposalDuration.Seconds())
	err := env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{StartDate: math.MaxUint64 - 10},
		)
		return err
	})
	var dateErr multisig.DateOutOfBoundsError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(
		t,
		multisig.DateOutOfBoundsError{
			Limit:  math.MaxUint64 - duration,
			Actual: math.MaxUint64 - 10,
		},
		dateErr,
	)
}

func TestCreateProposalDefaultDuration(t *testing.T) {
	env := newDefaultTestEnv(t)
	plugin := multisig.New(
		multisig.WithAddress(common.HexToAddress("0x3510000000000000000000000000000000000002")),
		multisig.WithDAO(testDaoAddr),
		multisig.WithDefaultProposalDuration(time.Hour),
	)
	require.NoError(t, env.ledger.Deploy(plugin.Address(), plugin))
	env.grant(t, plugin.Address(), dao.AnyAddr, multisig.CreateProposalPermissionID)
	var id common.Hash
	receipt, err := env.ledger.Submit(
		context.Background(),
		testAlice,
		plugin.Address(),
		func(c *ledger.Context) error {
			var err error
			id, err = plugin.CreateProposal(c, multisig.CreateProposalParams{})
			return err
		},
	)
	require.NoError(t, err)
	err = env.ledger.View(
		context.Background(),
		testAlice,
		plugin.Address(),
		func(c *ledger.Context) error {
			proposal, err := plugin.GetProposal(c, id)
			require.NoError(t, err)
			assert.Equal(t, receipt.Timestamp+3600, proposal.Parameters.EndDate)
			return nil
		},
	)
	require.NoError(t, err)
}

func TestCreateProposalTooManyActions(t *testing.T) {
	env := newDefaultTestEnv(t)
	actions := make([]dao.Action, dao.MaxActions+1)
	for i := range actions {
		actions[i] = recordAction("a")
	}
	err := env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{Actions: actions},
		)
		return err
	})
	var actionsErr multisig.TooManyActionsError
	require.ErrorAs(t, err, &actionsErr)
	assert.Equal(t, dao.MaxActions+1, actionsErr.Count)

	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{Actions: actions[:dao.MaxActions]},
	)
	assert.Len(t, env.proposal(t, id).Actions, dao.MaxActions)
}

func TestCreateProposalSameBlockSettingsChange(t *testing.T) {
	env := newDefaultTestEnv(t)
	env.grant(t, testPluginAddr, testOwner, multisig.UpdateMultisigSettingsPermissionID)
	require.NoError(t, env.ledger.SetManualMining(true))
	env.submit(t, testOwner, func(c *ledger.Context) error {
		return env.plugin.UpdateMultisigSettings(
			c,
			multisig.Settings{OnlyListed: true, MinApprovals: 1},
		)
	})
	err := env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(c, multisig.CreateProposalParams{})
		return err
	})
	var forbiddenErr multisig.ProposalCreationForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)
	assert.Equal(t, testAlice, forbiddenErr.Caller)

	require.NoError(t, env.ledger.Mine(t.Context()))
	id := env.createProposal(t, testAlice, multisig.CreateProposalParams{})
	assert.Equal(t, uint16(1), env.proposal(t, id).Parameters.MinApprovals)
}

func TestCreateProposalSameBlockSettingsChangeByProposal(t *testing.T) {
	env := newTestEnv(
		t,
		[]common.Address{testAlice},
		multisig.Settings{OnlyListed: true, MinApprovals: 1},
	)
	input, err := multisig.ABI.Pack(
		"updateMultisigSettings",
		struct {
			OnlyListed   bool
			MinApprovals uint16
		}{OnlyListed: false, MinApprovals: 1},
	)
	require.NoError(t, err)
	action := dao.Action{To: testPluginAddr, Data: input}

	require.NoError(t, env.ledger.SetManualMining(true))
	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{
			Metadata:   testMetadata,
			Actions:    []dao.Action{action},
			ApproveNow: true,
			TryExecute: true,
		},
	)
	assert.True(t, env.proposal(t, id).Executed)
	assert.False(t, env.settings(t).OnlyListed)

	err = env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposal(
			c,
			multisig.CreateProposalParams{
				Metadata: testMetadata,
				Actions:  []dao.Action{action},
			},
		)
		return err
	})
	var forbiddenErr multisig.ProposalCreationForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)
	assert.Equal(t, testAlice, forbiddenErr.Caller)
}

func TestCreateProposalDuplicateID(t *testing.T) {
	env := newDefaultTestEnv(t)
	params := multisig.CreateProposalParams{
		Metadata: testMetadata,
		Actions:  []dao.Action{recordAction("a")},
	}
	require.NoError(t, env.ledger.SetManualMining(true))
	approveParams := params
	approveParams.ApproveNow = true
	first := env.createProposal(t, testAlice, approveParams)
	second := env.createProposal(t, testBob, params)
	// Identical payloads in one block alias to the same ID. The approval
	// recorded on the first creation survives the second.
	assert.Equal(t, first, second)
	proposal := env.proposal(t, second)
	assert.Equal(t, testBob, proposal.Creator)
	assert.Equal(t, uint16(1), proposal.Approvals)

	env.view(t, func(c *ledger.Context) error {
		count, err := env.plugin.ProposalCount(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), count)
		approved, err := env.plugin.HasApproved(c, second, testAlice)
		require.NoError(t, err)
		assert.True(t, approved)
		proposals, err := env.plugin.Proposals(c)
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
		return nil
	})
}

func TestCreateProposalWithData(t *testing.T) {
	env := newDefaultTestEnv(t)
	assert.Equal(
		t,
		"(uint256 allowFailureMap, bool approveProposal, bool tryExecution)",
		multisig.CustomProposalParamsABI(),
	)
	data, err := multisig.EncodeCustomProposalParams(uint256.NewInt(1), true, false)
	require.NoError(t, err)
	var withData, withoutData common.Hash
	env.submit(t, testAlice, func(c *ledger.Context) error {
		var err error
		withData, err = env.plugin.CreateProposalWithData(
			c,
			testMetadata,
			[]dao.Action{recordAction("a")},
			0,
			0,
			data,
		)
		return err
	})
	env.submit(t, testAlice, func(c *ledger.Context) error {
		var err error
		withoutData, err = env.plugin.CreateProposalWithData(
			c,
			testMetadata,
			[]dao.Action{recordAction("b")},
			0,
			0,
			nil,
		)
		return err
	})
	proposal := env.proposal(t, withData)
	assert.Equal(t, uint16(1), proposal.Approvals)
	assert.Equal(t, uint64(1), proposal.AllowFailureMap.Uint64())
	proposal = env.proposal(t, withoutData)
	assert.Equal(t, uint16(0), proposal.Approvals)
	assert.True(t, proposal.AllowFailureMap.IsZero())

	err = env.submitErr(testAlice, func(c *ledger.Context) error {
		_, err := env.plugin.CreateProposalWithData(c, nil, nil, 0, 0, []byte{1, 2, 3})
		return err
	})
	require.Error(t, err)
}

func TestCreateProposalEvent(t *testing.T) {
	env := newDefaultTestEnv(t)
	_, evtCh := env.eventBus.Subscribe(multisig.ProposalCreatedEventType)
	id := env.createProposal(t, testAlice, multisig.CreateProposalParams{Metadata: testMetadata})
	select {
	case evt := <-evtCh:
		log, ok := evt.Data.(ledger.Log)
		require.True(t, ok)
		assert.Equal(t, testPluginAddr, log.Address)
		assert.Equal(t, testAlice, log.TxSender)
		createdEvt, ok := log.Data.(multisig.ProposalCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, id, createdEvt.ProposalID)
	case <-time.After(time.Second):
		t.Fatal("did not receive proposal created event")
	}
}

func TestProposalIDDependsOnInputs(t *testing.T) {
	actions := []dao.Action{recordAction("a")}
	base, err := multisig.ProposalID(1, 10, testPluginAddr, actions, testMetadata)
	require.NoError(t, err)
	for _, test := range []struct {
		name     string
		chainID  uint64
		block    uint64
		plugin   common.Address
		actions  []dao.Action
		metadata []byte
	}{
		{name: "chain", chainID: 2, block: 10, plugin: testPluginAddr, actions: actions, metadata: testMetadata},
		{name: "block", chainID: 1, block: 11, plugin: testPluginAddr, actions: actions, metadata: testMetadata},
		{name: "plugin", chainID: 1, block: 10, plugin: testDaoAddr, actions: actions, metadata: testMetadata},
		{name: "actions", chainID: 1, block: 10, plugin: testPluginAddr, actions: nil, metadata: testMetadata},
		{name: "value", chainID: 1, block: 10, plugin: testPluginAddr, actions: []dao.Action{{To: testRecorderAddr, Data: []byte("a"), Value: uint256.NewInt(1)}}, metadata: testMetadata},
		{name: "metadata", chainID: 1, block: 10, plugin: testPluginAddr, actions: actions, metadata: nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			id, err := multisig.ProposalID(
				test.chainID,
				test.block,
				test.plugin,
				test.actions,
				test.metadata,
			)
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
	again, err := multisig.ProposalID(1, 10, testPluginAddr, actions, testMetadata)
	require.NoError(t, err)
	assert.Equal(t, base, again)
}
