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

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/multisig/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testEvtType event.EventType = "test.event"

func TestEventBusSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	_, otherCh := eb.Subscribe("other.event")
	eb.Publish(event.NewEvent(testEvtType, 999))
	for _, subCh := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt := <-subCh:
			assert.Equal(t, testEvtType, evt.Type)
			assert.Equal(t, 999, evt.Data)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
	select {
	case evt := <-otherCh:
		t.Fatalf("unexpected event: %v", evt)
	default:
	}
}

func TestEventBusAllEvents(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, allCh := eb.Subscribe(event.AllEvents)
	eb.Publish(event.NewEvent("a", 1))
	eb.Publish(event.NewEvent("b", 2))
	var got []event.EventType
	for range 2 {
		select {
		case evt := <-allCh:
			got = append(got, evt.Type)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
	assert.Equal(t, []event.EventType{"a", "b"}, got)
}

func TestEventBusUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(event.NewEvent(testEvtType, 1))
	_, ok := <-subCh
	assert.False(t, ok, "channel should be closed")
}

func TestEventBusSubscribeFunc(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	var count atomic.Int32
	eb.SubscribeFunc(testEvtType, func(event.Event) {
		count.Add(1)
	})
	for i := range 5 {
		require.True(t, eb.PublishAsync(event.NewEvent(testEvtType, i)))
	}
	require.Eventually(
		t,
		func() bool { return count.Load() == 5 },
		time.Second,
		10*time.Millisecond,
	)
	eb.Stop()
	eb.Stop()
	assert.False(t, eb.PublishAsync(event.NewEvent(testEvtType, 6)))
}

type panicSubscriber struct {
	closed atomic.Bool
}

func (p *panicSubscriber) Deliver(event.Event) error {
	panic("boom")
}

func (p *panicSubscriber) Close() {
	p.closed.Store(true)
}

func TestEventBusFailingSubscriberRemoved(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	sub := &panicSubscriber{}
	eb.RegisterSubscriber(testEvtType, sub)
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(event.NewEvent(testEvtType, 1))
	assert.True(t, sub.closed.Load())
	select {
	case <-subCh:
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber did not receive event")
	}
	eb.Publish(event.NewEvent(testEvtType, 2))
	count, err := testutil.GatherAndCount(reg, "event_bus_delivery_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(reg, "event_bus_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
