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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	blockNum   prometheus.Gauge
	txTotal    prometheus.Counter
	txFailed   prometheus.Counter
	txDuration prometheus.Histogram
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.blockNum = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_block_number",
		Help: "latest mined block number",
	})
	m.txTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "committed transactions",
	})
	m.txFailed = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_failed_total",
		Help: "transactions that returned an error",
	})
	m.txDuration = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_transaction_duration_seconds",
		Help:    "time spent running a transaction, including commit",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
	})
}

func (m *ledgerMetrics) setBlockNumber(number uint64) {
	if m.blockNum != nil {
		m.blockNum.Set(float64(number))
	}
}

func (m *ledgerMetrics) txDone(seconds float64, failed bool) {
	if m.txTotal == nil {
		return
	}
	if failed {
		m.txFailed.Inc()
	} else {
		m.txTotal.Inc()
	}
	m.txDuration.Observe(seconds)
}
