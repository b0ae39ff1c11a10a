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
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/dao"
	"github.com/blinklabs-io/multisig/database"
	"github.com/blinklabs-io/multisig/database/types"
	"github.com/blinklabs-io/multisig/event"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStartTime = 1_700_000_000

var (
	testDaoAddr       = common.HexToAddress("0xda00000000000000000000000000000000000001")
	testPluginAddr    = common.HexToAddress("0x3510000000000000000000000000000000000001")
	testConditionAddr = common.HexToAddress("0xc0d0000000000000000000000000000000000001")
	testRecorderAddr  = common.HexToAddress("0x4ec0000000000000000000000000000000000001")
	testOwner         = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	testAlice         = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	testBob           = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	testCarol         = common.HexToAddress("0x0000000000000000000000000000000000000ca1")
	testDave          = common.HexToAddress("0x0000000000000000000000000000000000000da7")
	testEve           = common.HexToAddress("0x0000000000000000000000000000000000000e7e")
	errRecorder       = errors.New("recorder failure")
	testMetadata      = []byte("ipfs://proposal")
)

// recorderContract stores the input of every call it receives. An input of
// "fail" makes it fail after storing.
type recorderContract struct{}

func (recorderContract) Call(ctx *ledger.Context, input []byte) ([]byte, error) {
	if err := ctx.Txn().BlobSet(append([]byte("rec"), input...), []byte{1}); err != nil {
		return nil, err
	}
	if string(input) == "fail" {
		return nil, errRecorder
	}
	return append([]byte("ok:"), input...), nil
}

func recordAction(input string) dao.Action {
	return dao.Action{To: testRecorderAddr, Data: []byte(input)}
}

type testEnv struct {
	ledger   *ledger.Ledger
	eventBus *event.EventBus
	dao      *dao.DAO
	plugin   *multisig.Multisig
}

func defaultMembers() []common.Address {
	return []common.Address{testAlice, testBob, testCarol}
}

func newTestEnv(
	t *testing.T,
	members []common.Address,
	settings multisig.Settings,
) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	l, err := ledger.NewLedger(
		ledger.LedgerConfig{
			Database: db,
			EventBus: eventBus,
			Clock: func() time.Time {
				return time.Unix(testStartTime, 0)
			},
		},
	)
	require.NoError(t, err)
	require.NoError(t, l.Deploy(testRecorderAddr, recorderContract{}))
	deployment, err := multisig.Deploy(
		context.Background(),
		l,
		multisig.DeployConfig{
			DAOMetadata:      []byte("ipfs://dao"),
			Owner:            testOwner,
			DAOAddress:       testDaoAddr,
			PluginAddress:    testPluginAddr,
			ConditionAddress: testConditionAddr,
			Init: multisig.InitConfig{
				Members:  members,
				Settings: settings,
				Metadata: []byte("ipfs://plugin"),
			},
		},
	)
	require.NoError(t, err)
	return &testEnv{
		ledger:   l,
		eventBus: eventBus,
		dao:      deployment.DAO,
		plugin:   deployment.Plugin,
	}
}

// newDefaultTestEnv has alice, bob and carol as members and needs two
// approvals from members only
func newDefaultTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(
		t,
		defaultMembers(),
		multisig.Settings{OnlyListed: true, MinApprovals: 2},
	)
}

// submit runs fn as a transaction to the plugin
func (e *testEnv) submit(
	t *testing.T,
	from common.Address,
	fn func(*ledger.Context) error,
) *ledger.Receipt {
	t.Helper()
	receipt, err := e.ledger.Submit(context.Background(), from, testPluginAddr, fn)
	require.NoError(t, err)
	return receipt
}

func (e *testEnv) submitErr(from common.Address, fn func(*ledger.Context) error) error {
	_, err := e.ledger.Submit(context.Background(), from, testPluginAddr, fn)
	return err
}

func (e *testEnv) view(t *testing.T, fn func(*ledger.Context) error) {
	t.Helper()
	require.NoError(t, e.ledger.View(context.Background(), testOwner, testPluginAddr, fn))
}

// grant gives a permission as the DAO owner
func (e *testEnv) grant(
	t *testing.T,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
) {
	t.Helper()
	_, err := e.ledger.Submit(
		context.Background(),
		testOwner,
		testDaoAddr,
		func(c *ledger.Context) error {
			return e.dao.Grant(c, where, who, permissionID)
		},
	)
	require.NoError(t, err)
}

func (e *testEnv) revoke(
	t *testing.T,
	where common.Address,
	who common.Address,
	permissionID common.Hash,
) {
	t.Helper()
	_, err := e.ledger.Submit(
		context.Background(),
		testOwner,
		testDaoAddr,
		func(c *ledger.Context) error {
			return e.dao.Revoke(c, where, who, permissionID)
		},
	)
	require.NoError(t, err)
}

func (e *testEnv) createProposal(
	t *testing.T,
	from common.Address,
	params multisig.CreateProposalParams,
) common.Hash {
	t.Helper()
	var id common.Hash
	e.submit(t, from, func(c *ledger.Context) error {
		var err error
		id, err = e.plugin.CreateProposal(c, params)
		return err
	})
	return id
}

func (e *testEnv) approve(t *testing.T, from common.Address, id common.Hash, tryExecute bool) {
	t.Helper()
	e.submit(t, from, func(c *ledger.Context) error {
		return e.plugin.Approve(c, id, tryExecute)
	})
}

func (e *testEnv) proposal(t *testing.T, id common.Hash) *multisig.Proposal {
	t.Helper()
	var ret *multisig.Proposal
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.GetProposal(c, id)
		return err
	})
	return ret
}

func (e *testEnv) canApprove(t *testing.T, id common.Hash, who common.Address) bool {
	t.Helper()
	var ret bool
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.CanApprove(c, id, who)
		return err
	})
	return ret
}

func (e *testEnv) canExecute(t *testing.T, id common.Hash) bool {
	t.Helper()
	var ret bool
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.CanExecute(c, id)
		return err
	})
	return ret
}

func (e *testEnv) isListed(t *testing.T, who common.Address) bool {
	t.Helper()
	var ret bool
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.IsListed(c, who)
		return err
	})
	return ret
}

func (e *testEnv) settings(t *testing.T) multisig.Settings {
	t.Helper()
	var ret multisig.Settings
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.MultisigSettings(c)
		return err
	})
	return ret
}

func (e *testEnv) addresslistLength(t *testing.T) uint16 {
	t.Helper()
	var ret uint16
	e.view(t, func(c *ledger.Context) error {
		var err error
		ret, err = e.plugin.AddresslistLength(c)
		return err
	})
	return ret
}

func (e *testEnv) recorded(t *testing.T, input string) bool {
	t.Helper()
	var ret bool
	e.view(t, func(c *ledger.Context) error {
		_, err := c.Txn().BlobGet(append([]byte("rec"), input...))
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil
		}
		ret = err == nil
		return err
	})
	return ret
}

func logTypes(receipt *ledger.Receipt) []event.EventType {
	ret := make([]event.EventType, 0, len(receipt.Logs))
	for _, log := range receipt.Logs {
		ret = append(ret, log.Type)
	}
	return ret
}

func TestInitialize(t *testing.T) {
	env := newDefaultTestEnv(t)
	for _, member := range defaultMembers() {
		assert.True(t, env.isListed(t, member))
	}
	assert.False(t, env.isListed(t, testDave))
	assert.Equal(t, uint16(3), env.addresslistLength(t))
	assert.Equal(
		t,
		multisig.Settings{OnlyListed: true, MinApprovals: 2},
		env.settings(t),
	)
	env.view(t, func(c *ledger.Context) error {
		targetConfig, err := env.plugin.TargetConfig(c)
		require.NoError(t, err)
		assert.Equal(
			t,
			multisig.TargetConfig{Target: testDaoAddr, Operation: multisig.OperationCall},
			targetConfig,
		)
		metadata, err := env.plugin.Metadata(c)
		require.NoError(t, err)
		assert.Equal(t, []byte("ipfs://plugin"), metadata)
		members, err := env.plugin.Members(c)
		require.NoError(t, err)
		assert.Equal(t, defaultMembers(), members)
		return nil
	})

	err := env.submitErr(testOwner, func(c *ledger.Context) error {
		return env.plugin.Initialize(c, multisig.InitConfig{})
	})
	var initErr multisig.AlreadyInitializedError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, uint8(2), initErr.Version)
	err = env.submitErr(testOwner, func(c *ledger.Context) error {
		return env.plugin.InitializeFrom(c, 1, nil)
	})
	require.ErrorAs(t, err, &initErr)
}

func TestInitializeEvents(t *testing.T) {
	env := newDefaultTestEnv(t)
	plugin := multisig.New(
		multisig.WithAddress(common.HexToAddress("0x3510000000000000000000000000000000000002")),
		multisig.WithDAO(testDaoAddr),
	)
	require.NoError(t, env.ledger.Deploy(plugin.Address(), plugin))
	receipt, err := env.ledger.Submit(
		context.Background(),
		testOwner,
		plugin.Address(),
		func(c *ledger.Context) error {
			return plugin.Initialize(
				c,
				multisig.InitConfig{
					Members:  []common.Address{testAlice},
					Settings: multisig.Settings{MinApprovals: 1},
				},
			)
		},
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]event.EventType{
			multisig.MembersAddedEventType,
			multisig.MultisigSettingsUpdatedEventType,
			multisig.TargetSetEventType,
			multisig.MetadataSetEventType,
			multisig.InitializedEventType,
		},
		logTypes(receipt),
	)
	for _, log := range receipt.Logs {
		assert.Equal(t, plugin.Address(), log.Address)
	}
}

func TestInitializeValidation(t *testing.T) {
	env := newDefaultTestEnv(t)
	plugin := multisig.New(
		multisig.WithAddress(common.HexToAddress("0x3510000000000000000000000000000000000002")),
		multisig.WithDAO(testDaoAddr),
	)
	require.NoError(t, env.ledger.Deploy(plugin.Address(), plugin))
	initialize := func(cfg multisig.InitConfig) error {
		_, err := env.ledger.Submit(
			context.Background(),
			testOwner,
			plugin.Address(),
			func(c *ledger.Context) error {
				return plugin.Initialize(c, cfg)
			},
		)
		return err
	}

	members := make([]common.Address, multisig.MaxAddresslistLength+1)
	for i := range members {
		members[i] = common.BigToAddress(big.NewInt(int64(i + 1)))
	}
	err := initialize(multisig.InitConfig{Members: members})
	var lengthErr multisig.AddresslistLengthOutOfBoundsError
	require.ErrorAs(t, err, &lengthErr)
	assert.Equal(t, uint64(multisig.MaxAddresslistLength), lengthErr.Limit)
	assert.Equal(t, uint64(multisig.MaxAddresslistLength+1), lengthErr.Actual)

	err = initialize(
		multisig.InitConfig{
			Members:  []common.Address{testAlice},
			Settings: multisig.Settings{MinApprovals: 2},
		},
	)
	var boundsErr multisig.MinApprovalsOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, multisig.MinApprovalsOutOfBoundsError{Limit: 1, Actual: 2}, boundsErr)

	err = initialize(
		multisig.InitConfig{
			Members:  []common.Address{testAlice},
			Settings: multisig.Settings{MinApprovals: 0},
		},
	)
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, multisig.MinApprovalsOutOfBoundsError{Limit: 1, Actual: 0}, boundsErr)

	err = initialize(
		multisig.InitConfig{
			Members:      []common.Address{testAlice},
			Settings:     multisig.Settings{MinApprovals: 1},
			TargetConfig: multisig.TargetConfig{Operation: multisig.Operation(7)},
		},
	)
	require.ErrorAs(t, err, &multisig.InvalidOperationError{})

	// Failed attempts leave the plugin uninitialized
	require.NoError(
		t,
		initialize(
			multisig.InitConfig{
				Members:  []common.Address{testAlice},
				Settings: multisig.Settings{MinApprovals: 1},
			},
		),
	)
}

func TestInitializeFrom(t *testing.T) {
	env := newDefaultTestEnv(t)
	target := common.HexToAddress("0x7a40000000000000000000000000000000000001")
	payload, err := multisig.EncodeInitializeFromPayload(
		multisig.TargetConfig{Target: target, Operation: multisig.OperationDelegateCall},
		[]byte("ipfs://updated"),
	)
	require.NoError(t, err)

	for _, test := range []struct {
		name      string
		fromBuild uint16
		expected  multisig.TargetConfig
		metadata  []byte
	}{
		{
			name:      "before build 3",
			fromBuild: 2,
			expected:  multisig.TargetConfig{Target: target, Operation: multisig.OperationDelegateCall},
			metadata:  []byte("ipfs://updated"),
		},
		{
			name:      "from build 3",
			fromBuild: 3,
			expected:  multisig.TargetConfig{Target: testDaoAddr, Operation: multisig.OperationCall},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			addr := common.BigToAddress(big.NewInt(0x3520 + int64(test.fromBuild)))
			plugin := multisig.New(multisig.WithAddress(addr), multisig.WithDAO(testDaoAddr))
			require.NoError(t, env.ledger.Deploy(addr, plugin))
			_, err := env.ledger.Submit(
				context.Background(),
				testOwner,
				addr,
				func(c *ledger.Context) error {
					return plugin.InitializeFrom(c, test.fromBuild, payload)
				},
			)
			require.NoError(t, err)
			err = env.ledger.View(
				context.Background(),
				testOwner,
				addr,
				func(c *ledger.Context) error {
					targetConfig, err := plugin.TargetConfig(c)
					require.NoError(t, err)
					assert.Equal(t, test.expected, targetConfig)
					metadata, err := plugin.Metadata(c)
					require.NoError(t, err)
					if test.metadata == nil {
						assert.Empty(t, metadata)
					} else {
						assert.Equal(t, test.metadata, metadata)
					}
					return nil
				},
			)
			require.NoError(t, err)
			_, err = env.ledger.Submit(
				context.Background(),
				testOwner,
				addr,
				func(c *ledger.Context) error {
					return plugin.Initialize(c, multisig.InitConfig{})
				},
			)
			require.ErrorAs(t, err, &multisig.AlreadyInitializedError{})
		})
	}
}

func TestWrongContext(t *testing.T) {
	env := newDefaultTestEnv(t)
	_, err := env.ledger.Submit(
		context.Background(),
		testAlice,
		testDaoAddr,
		func(c *ledger.Context) error {
			return env.plugin.Approve(c, common.Hash{}, false)
		},
	)
	require.ErrorIs(t, err, multisig.ErrWrongContract)
}
