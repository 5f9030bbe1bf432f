package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/roach88/hubsession/internal/transport"
)

type twinEvent struct {
	state   transport.TwinUpdateState
	payload string
}

func TestSendReportedState_EmptyPayload(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	err := e.SendReportedState(nil, nil)
	assert.True(t, IsInvalidArg(err))
	assert.NotContains(t, lb.Calls, "SubscribeTwin")
	assert.Zero(t, e.pendingTwin.Len())
}

func TestSendReportedState_SubscribeFailure(t *testing.T) {
	e, lb, _ := newTestEngine(t)
	lb.Fail("SubscribeTwin", nil)

	called := false
	err := e.SendReportedState([]byte(`{"a":1}`), func(int) { called = true })
	require.ErrorIs(t, err, ErrTransport)
	assert.Zero(t, e.pendingTwin.Len())

	e.DoWork()
	e.Destroy()
	assert.False(t, called)
}

func TestSendReportedState_CopiesPayload(t *testing.T) {
	e, _, _ := newTestEngine(t)

	payload := []byte(`{"a":1}`)
	require.NoError(t, e.SendReportedState(payload, nil))
	payload[2] = 'z'

	rec, ok := e.pendingTwin.Front()
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(rec.Payload))
}

func TestReportedState_OutOfOrderAcks(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	statuses := map[string][]int{}
	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, e.SendReportedState([]byte(`{}`), func(status int) {
			statuses[name] = append(statuses[name], status)
		}))
	}

	e.DoWork()
	assert.Equal(t, []uint32{2, 3, 4}, lb.Processed)
	assert.Equal(t, 3, e.awaitingAck.Len())

	lb.Ack(3, 204)
	assert.Equal(t, map[string][]int{"second": {204}}, statuses)

	lb.Ack(99, 200)
	lb.Ack(3, 500)
	assert.Len(t, statuses, 1)

	lb.Ack(4, 200)
	lb.Ack(2, 400)
	assert.Equal(t, map[string][]int{
		"first":  {400},
		"second": {204},
		"third":  {200},
	}, statuses)
	assert.Zero(t, e.awaitingAck.Len())
}

func TestDrainTwin_StopsOnContinue(t *testing.T) {
	e, lb, _ := newTestEngine(t)
	for range 3 {
		require.NoError(t, e.SendReportedState([]byte(`{}`), nil))
	}

	lb.QueueProcessResults(transport.ProcessOK, transport.ProcessContinue)
	e.DoWork()
	assert.Equal(t, []uint32{2}, lb.Processed)
	assert.Equal(t, 1, e.awaitingAck.Len())
	assert.Equal(t, 2, e.pendingTwin.Len())

	e.DoWork()
	assert.Equal(t, []uint32{2, 3, 4}, lb.Processed)
	assert.Zero(t, e.pendingTwin.Len())
}

func TestDrainTwin_StopsWhenDisconnected(t *testing.T) {
	e, lb, _ := newTestEngine(t)
	lb.SetConnected(false)
	require.NoError(t, e.SendReportedState([]byte(`{}`), nil))

	e.DoWork()
	assert.Equal(t, 1, e.pendingTwin.Len())
	assert.Empty(t, lb.Processed)
}

func TestDrainTwin_DropsRejectedItems(t *testing.T) {
	sink := &recordingSink{}
	e, lb, _ := newTestEngine(t, WithJournal(sink))

	var statuses []int
	for range 2 {
		require.NoError(t, e.SendReportedState([]byte(`{}`), func(s int) { statuses = append(statuses, s) }))
	}

	lb.QueueProcessResults(transport.ProcessError)
	e.DoWork()

	assert.Zero(t, e.pendingTwin.Len())
	assert.Equal(t, 1, e.awaitingAck.Len())
	assert.Equal(t, []uint32{3}, lb.Processed)
	assert.Empty(t, statuses)

	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, ReportedDropped, sink.outcomes[0].Result)
	assert.Equal(t, uint32(2), sink.outcomes[0].ItemID)
}

func TestGetTwin(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	assert.True(t, IsInvalidArg(e.GetTwin(nil)))

	var got []twinEvent
	require.NoError(t, e.GetTwin(func(s transport.TwinUpdateState, p []byte) {
		got = append(got, twinEvent{s, string(p)})
	}))
	assert.True(t, lb.Subscriptions["twin"])
	assert.True(t, lb.CompleteGetTwin([]byte(`{"desired":{}}`)))
	assert.Equal(t, []twinEvent{{transport.TwinComplete, `{"desired":{}}`}}, got)
}

func TestGetTwin_CallbackFiresOnce(t *testing.T) {
	e, mt := newMockEngine(t)

	var captured transport.TwinFunc
	mt.EXPECT().SubscribeTwin("dev1").Return(nil)
	mt.EXPECT().GetTwinAsync("dev1", gomock.Any()).DoAndReturn(func(_ transport.DeviceHandle, fn transport.TwinFunc) error {
		captured = fn
		return nil
	})

	calls := 0
	require.NoError(t, e.GetTwin(func(transport.TwinUpdateState, []byte) { calls++ }))
	require.NotNil(t, captured)

	captured(transport.TwinComplete, []byte(`{}`))
	captured(transport.TwinComplete, []byte(`{}`))
	assert.Equal(t, 1, calls)
}

func TestGetTwin_TransportRejects(t *testing.T) {
	e, mt := newMockEngine(t)

	mt.EXPECT().SubscribeTwin("dev1").Return(nil)
	mt.EXPECT().GetTwinAsync("dev1", gomock.Any()).Return(errors.New("busy"))

	err := e.GetTwin(func(transport.TwinUpdateState, []byte) {})
	require.ErrorIs(t, err, ErrTransport)
	assert.False(t, e.completeTwinSeen)
}

func TestTwinCallback_PartialBeforeCompleteIsDropped(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	var got []twinEvent
	require.NoError(t, e.SetTwinCallback(func(s transport.TwinUpdateState, p []byte) {
		got = append(got, twinEvent{s, string(p)})
	}))

	lb.DeliverTwin(transport.TwinPartial, []byte(`early`))
	assert.Empty(t, got)

	lb.DeliverTwin(transport.TwinComplete, []byte(`full`))
	lb.DeliverTwin(transport.TwinPartial, []byte(`patch`))
	assert.Equal(t, []twinEvent{
		{transport.TwinComplete, "full"},
		{transport.TwinPartial, "patch"},
	}, got)
}

func TestTwinCallback_GetTwinLatches(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	var got []twinEvent
	require.NoError(t, e.SetTwinCallback(func(s transport.TwinUpdateState, p []byte) {
		got = append(got, twinEvent{s, string(p)})
	}))
	require.NoError(t, e.GetTwin(func(transport.TwinUpdateState, []byte) {}))

	lb.DeliverTwin(transport.TwinPartial, []byte(`patch`))
	assert.Equal(t, []twinEvent{{transport.TwinPartial, "patch"}}, got)
}

func TestSetTwinCallback_Unsubscribe(t *testing.T) {
	e, lb, _ := newTestEngine(t)

	require.NoError(t, e.SetTwinCallback(func(transport.TwinUpdateState, []byte) {}))
	assert.True(t, lb.Subscriptions["twin"])

	require.NoError(t, e.SetTwinCallback(nil))
	assert.False(t, lb.Subscriptions["twin"])

	lb.DeliverTwin(transport.TwinComplete, []byte(`{}`))
	assert.False(t, e.completeTwinSeen)

	lb.Fail("SubscribeTwin", nil)
	assert.ErrorIs(t, e.SetTwinCallback(func(transport.TwinUpdateState, []byte) {}), ErrTransport)
	assert.Nil(t, e.twin)
}
