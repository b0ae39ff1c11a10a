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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type multisigMetrics struct {
	proposalsCreated prometheus.Counter
	approvals        prometheus.Counter
	executions       *prometheus.CounterVec
	members          prometheus.Gauge
}

func (m *multisigMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.proposalsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "multisig_proposals_created_total",
		Help: "proposals created",
	})
	m.approvals = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "multisig_approvals_total",
		Help: "approvals cast",
	})
	m.executions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisig_executions_total",
			Help: "proposal executions by result",
		},
		[]string{"result"},
	)
	m.members = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "multisig_members",
		Help: "current address list length",
	})
}

func (m *multisigMetrics) proposalCreated() {
	if m.proposalsCreated != nil {
		m.proposalsCreated.Inc()
	}
}

func (m *multisigMetrics) approved() {
	if m.approvals != nil {
		m.approvals.Inc()
	}
}

func (m *multisigMetrics) executed(failed bool) {
	if m.executions == nil {
		return
	}
	result := "success"
	if failed {
		result = "failure"
	}
	m.executions.WithLabelValues(result).Inc()
}

func (m *multisigMetrics) setMembers(count uint16) {
	if m.members != nil {
		m.members.Set(float64(count))
	}
}
