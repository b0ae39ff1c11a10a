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

package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type databaseMetrics struct {
	commits        prometheus.Counter
	rollbacks      prometheus.Counter
	payloadHits    prometheus.Counter
	payloadMisses  prometheus.Counter
	blobWriteBytes prometheus.Counter
}

func (m *databaseMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.commits = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "database_txn_commits_total",
		Help: "number of committed read-write transactions",
	})
	m.rollbacks = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "database_txn_rollbacks_total",
		Help: "number of rolled back read-write transactions",
	})
	m.payloadHits = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "database_payload_cache_hits_total",
		Help: "proposal payload reads served from cache",
	})
	m.payloadMisses = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "database_payload_cache_misses_total",
		Help: "proposal payload reads served from the blob store",
	})
	m.blobWriteBytes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "database_blob_write_bytes_total",
		Help: "bytes written to the blob store",
	})
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

func add(c prometheus.Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}
