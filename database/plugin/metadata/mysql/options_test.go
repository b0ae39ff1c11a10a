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

package mysql_test

import (
	"testing"

	"github.com/blinklabs-io/multisig/database/plugin/metadata/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	store := mysql.NewWithOptions(
		mysql.WithHost("db.example"),
		mysql.WithUser("multisig"),
		mysql.WithPassword("secret"),
	)
	assert.Equal(
		t,
		"multisig:secret@tcp(db.example:3306)/multisig?parseTime=true&loc=UTC",
		store.DSN(),
	)

	store = mysql.NewWithOptions(mysql.WithDSN("u:p@tcp(h:1)/d"))
	assert.Equal(t, "u:p@tcp(h:1)/d", store.DSN())
}
