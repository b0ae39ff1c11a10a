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
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// MaxAddresslistLength is the largest address list a plugin can hold, bounded
// by the width of the approval threshold
const MaxAddresslistLength = 65535

// AddAddresses adds members to the address list. The sender needs
// UPDATE_MULTISIG_SETTINGS_PERMISSION.
func (m *Multisig) AddAddresses(
	ctx *ledger.Context,
	members []common.Address,
) error {
	if err := m.auth(ctx, UpdateMultisigSettingsPermissionID); err != nil {
		return err
	}
	if err := m.addAddresses(ctx, members); err != nil {
		return err
	}
	ctx.Emit(MembersAddedEventType, MembersAddedEvent{Members: members})
	return nil
}

func (m *Multisig) addAddresses(
	ctx *ledger.Context,
	members []common.Address,
) error {
	db := ctx.DB()
	plugin := m.config.address
	length, err := db.AddresslistLength(plugin, ctx.Txn())
	if err != nil {
		return err
	}
	newLength := uint64(length) + uint64(len(members))
	if newLength > MaxAddresslistLength {
		return AddresslistLengthOutOfBoundsError{
			Limit:  MaxAddresslistLength,
			Actual: newLength,
		}
	}
	for _, member := range members {
		// Members added earlier in the same batch are already listed here
		listed, err := db.IsMemberListed(plugin, member, ctx.Txn())
		if err != nil {
			return err
		}
		if listed {
			return InvalidAddresslistUpdateError{Member: member}
		}
		if err := db.SetMemberListed(
			plugin,
			member,
			ctx.BlockNumber(),
			true,
			ctx.Txn(),
		); err != nil {
			return err
		}
	}
	// #nosec G115 -- bounded by MaxAddresslistLength above
	return m.setLength(ctx, uint32(newLength))
}

// RemoveAddresses removes members from the address list. The list cannot
// shrink below the approval threshold. The sender needs
// UPDATE_MULTISIG_SETTINGS_PERMISSION.
func (m *Multisig) RemoveAddresses(
	ctx *ledger.Context,
	members []common.Address,
) error {
	if err := m.auth(ctx, UpdateMultisigSettingsPermissionID); err != nil {
		return err
	}
	state, err := m.state(ctx)
	if err != nil {
		return err
	}
	db := ctx.DB()
	plugin := m.config.address
	length, err := db.AddresslistLength(plugin, ctx.Txn())
	if err != nil {
		return err
	}
	var newLength uint64
	if uint64(len(members)) < uint64(length) {
		newLength = uint64(length) - uint64(len(members))
	}
	if newLength < uint64(state.MinApprovals) {
		return MinApprovalsOutOfBoundsError{
			Limit:  newLength,
			Actual: uint64(state.MinApprovals),
		}
	}
	for _, member := range members {
		listed, err := db.IsMemberListed(plugin, member, ctx.Txn())
		if err != nil {
			return err
		}
		if !listed {
			return InvalidAddresslistUpdateError{Member: member}
		}
		if err := db.SetMemberListed(
			plugin,
			member,
			ctx.BlockNumber(),
			false,
			ctx.Txn(),
		); err != nil {
			return err
		}
	}
	// #nosec G115 -- bounded by the current length
	if err := m.setLength(ctx, uint32(newLength)); err != nil {
		return err
	}
	ctx.Emit(MembersRemovedEventType, MembersRemovedEvent{Members: members})
	return nil
}

func (m *Multisig) setLength(ctx *ledger.Context, length uint32) error {
	if err := ctx.DB().SetAddresslistLength(
		m.config.address,
		ctx.BlockNumber(),
		length,
		ctx.Txn(),
	); err != nil {
		return err
	}
	ctx.OnCommit(func() {
		m.metrics.setMembers(uint16(length)) // #nosec G115
	})
	return nil
}

// IsListed reports whether an address is currently a member
func (m *Multisig) IsListed(ctx *ledger.Context, account common.Address) (bool, error) {
	return ctx.DB().IsMemberListed(m.config.address, account, ctx.Txn())
}

// IsMember is an alias of IsListed
func (m *Multisig) IsMember(ctx *ledger.Context, account common.Address) (bool, error) {
	return m.IsListed(ctx, account)
}

// IsListedAtBlock reports whether an address was a member at the end of a
// mined block
func (m *Multisig) IsListedAtBlock(
	ctx *ledger.Context,
	account common.Address,
	block uint64,
) (bool, error) {
	if block >= ctx.BlockNumber() {
		return false, BlockNotYetMinedError{Block: block}
	}
	return ctx.DB().IsMemberListedAtBlock(
		m.config.address,
		account,
		block,
		ctx.Txn(),
	)
}

// AddresslistLength returns the current number of members
func (m *Multisig) AddresslistLength(ctx *ledger.Context) (uint16, error) {
	length, err := ctx.DB().AddresslistLength(m.config.address, ctx.Txn())
	return uint16(length), err // #nosec G115
}

// AddresslistLengthAtBlock returns the number of members at the end of a
// mined block
func (m *Multisig) AddresslistLengthAtBlock(
	ctx *ledger.Context,
	block uint64,
) (uint16, error) {
	if block >= ctx.BlockNumber() {
		return 0, BlockNotYetMinedError{Block: block}
	}
	length, err := ctx.DB().AddresslistLengthAtBlock(
		m.config.address,
		block,
		ctx.Txn(),
	)
	return uint16(length), err // #nosec G115
}

// Members returns the current members in the order they were first added
func (m *Multisig) Members(ctx *ledger.Context) ([]common.Address, error) {
	return ctx.DB().ListMembers(m.config.address, ctx.Txn())
}
