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

package sops_test

import (
	"testing"

	"github.com/blinklabs-io/multisig/internal/sops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEncrypted(t *testing.T) {
	assert.False(t, sops.IsEncrypted([]byte("chainId: 1337\n")))
	assert.False(t, sops.IsEncrypted([]byte("not: [valid")))
	assert.True(
		t,
		sops.IsEncrypted([]byte(`{"data":"ENC[AES256_GCM,data:x]","sops":{"version":"3.11.0"}}`)),
	)
}

func TestEncryptRequiresMasterKey(t *testing.T) {
	t.Setenv("MULTISIG_GCP_KMS_RESOURCE_ID", "")
	t.Setenv("MULTISIG_AWS_KMS_KEY_ARNS", "")
	_, err := sops.Encrypt([]byte("chainId: 1337\n"))
	require.ErrorContains(t, err, "at least one master key")
}

func TestEncryptRejectsEncrypted(t *testing.T) {
	_, err := sops.Encrypt([]byte(`{"data":"x","sops":{}}`))
	require.ErrorIs(t, err, sops.ErrAlreadyEncrypted)
}
