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
	"testing"
	"time"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioApproveAndExecute(t *testing.T) {
	env := newDefaultTestEnv(t)
	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{
			Metadata: testMetadata,
			Actions:  []dao.Action{recordAction("a")},
		},
	)
	assert.False(t, env.canExecute(t, id))
	env.approve(t, testAlice, id, false)
	assert.False(t, env.canExecute(t, id))
	env.approve(t, testBob, id, true)
	proposal := env.proposal(t, id)
	assert.True(t, proposal.Executed)
	assert.Equal(t, uint16(2), proposal.Approvals)
	assert.False(t, env.canExecute(t, id))
	assert.True(t, env.recorded(t, "a"))
}

func TestScenarioMinApprovalsAboveListLength(t *testing.T) {
	env := newDefaultTestEnv(t)
	env.grant(t, testPluginAddr, testOwner, multisig.UpdateMultisigSettingsPermissionID)
	err := env.submitErr(testOwner, func(c *ledger.Context) error {
		return env.plugin.UpdateMultisigSettings(
			c,
			multisig.Settings{OnlyListed: true, MinApprovals: 4},
		)
	})
	var boundsErr multisig.MinApprovalsOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, multisig.MinApprovalsOutOfBoundsError{Limit: 3, Actual: 4}, boundsErr)
	assert.Equal(t, multisig.Settings{OnlyListed: true, MinApprovals: 2}, env.settings(t))
	assert.Equal(t, uint16(3), env.addresslistLength(t))
}

func TestScenarioShrinkToMinApprovals(t *testing.T) {
	env := newDefaultTestEnv(t)
	env.grant(t, testPluginAddr, testOwner, multisig.UpdateMultisigSettingsPermissionID)
	env.submit(t, testOwner, func(c *ledger.Context) error {
		return env.plugin.RemoveAddresses(c, []common.Address{testCarol})
	})
	assert.Equal(t, uint16(2), env.addresslistLength(t))
	err := env.submitErr(testOwner, func(c *ledger.Context) error {
		return env.plugin.RemoveAddresses(c, []common.Address{testBob})
	})
	var boundsErr multisig.MinApprovalsOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, multisig.MinApprovalsOutOfBoundsError{Limit: 1, Actual: 2}, boundsErr)
	assert.True(t, env.isListed(t, testBob))
	assert.Equal(t, uint16(2), env.addresslistLength(t))
}

func TestScenarioFutureStartDate(t *testing.T) {
	env := newDefaultTestEnv(t)
	_, now := env.ledger.Pending()
	startDate := now + 3600
	endDate := startDate + 3600
	id := env.createProposal(
		t,
		testAlice,
		multisig.CreateProposalParams{StartDate: startDate, EndDate: endDate},
	)
	assert.False(t, env.canApprove(t, id, testAlice))

	// The ledger clock is fixed, so the offset alone decides the time
	env.ledger.IncreaseTime(time.Duration(startDate-testStartTime) * time.Second)
	_, pending := env.ledger.Pending()
	require.Equal(t, startDate, pending)
	assert.True(t, env.canApprove(t, id, testAlice))

	env.ledger.IncreaseTime(3600 * time.Second)
	_, pending = env.ledger.Pending()
	require.Equal(t, endDate, pending)
	assert.True(t, env.canApprove(t, id, testAlice))

	env.ledger.IncreaseTime(time.Second)
	assert.False(t, env.canApprove(t, id, testAlice))
}

func TestScenarioIdenticalProposalsInDifferentBlocks(t *testing.T) {
	env := newDefaultTestEnv(t)
	params := multisig.CreateProposalParams{
		Metadata: testMetadata,
		Actions:  []dao.Action{recordAction("a")},
	}
	first := env.createProposal(t, testAlice, params)
	second := env.createProposal(t, testAlice, params)
	assert.NotEqual(t, first, second)
	env.view(t, func(c *ledger.Context) error {
		proposals, err := env.plugin.Proposals(c)
		require.NoError(t, err)
		require.Len(t, proposals, 2)
		assert.Equal(t, first, proposals[0].ID)
		assert.Equal(t, second, proposals[1].ID)
		return nil
	})
}
