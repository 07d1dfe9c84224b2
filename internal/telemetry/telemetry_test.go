package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
	pkgmqtt "github.com/autopeer-io/rentfleet/pkg/mqtt"
	"github.com/autopeer-io/rentfleet/pkg/mqtt/topic"
)

type recorder struct {
	mu  sync.Mutex
	got []vehicle.Status
}

func (r *recorder) Report(_ context.Context, s vehicle.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
	return nil
}

func (r *recorder) Emit(ctx context.Context, s vehicle.Status) {
	_ = r.Report(ctx, s)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.got {
		out = append(out, s.Name)
	}
	return out
}

func TestQueueDropsWhenFull(t *testing.T) {
	rec := &recorder{}
	q := NewQueue("http", rec, 2)

	for _, name := range []string{"Volvo", "Lada", "Kia"} {
		q.Emit(t.Context(), vehicle.Status{Name: name})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()

	require.Eventually(t, func() bool { return len(rec.names()) == 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, []string{"Volvo", "Lada"}, rec.names())
}

func TestQueueSurvivesReportFailure(t *testing.T) {
	rec := &recorder{}
	var calls atomic.Int32
	q := NewQueue("http", ReporterFunc(func(ctx context.Context, s vehicle.Status) error {
		if calls.Add(1) == 1 {
			return errors.New("management unreachable")
		}
		return rec.Report(ctx, s)
	}), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Start(ctx) }()

	q.Emit(t.Context(), vehicle.Status{Name: "Volvo"})
	q.Emit(t.Context(), vehicle.Status{Name: "Lada"})

	require.Eventually(t, func() bool { return len(rec.names()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"Lada"}, rec.names())
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, Nop{}, b}.Emit(t.Context(), vehicle.Status{Name: "Volvo"})

	assert.Equal(t, []string{"Volvo"}, a.names())
	assert.Equal(t, []string{"Volvo"}, b.names())
}

type fakeMQTT struct {
	mu        sync.Mutex
	started   bool
	published map[string][]byte
	qos       int
}

func (f *fakeMQTT) Start(context.Context) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *fakeMQTT) Disconnect(context.Context) {}

func (f *fakeMQTT) AwaitConnection(context.Context) error { return nil }

func (f *fakeMQTT) Subscribe(context.Context, string, int, pkgmqtt.Handler) error { return nil }

func (f *fakeMQTT) Publish(_ context.Context, t string, qos int, _ bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[t] = payload
	f.qos = qos
	return nil
}

func (f *fakeMQTT) get(t string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[t]
}

func TestMQTTSinkPublishesPerVehicleTopic(t *testing.T) {
	client := &fakeMQTT{published: map[string][]byte{}}
	sink := newMQTTSink(client, topic.NewTopicBuilder("rentfleet/v1/"), 0, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Start(ctx) }()

	sink.Emit(ctx, vehicle.Status{Name: "Volvo", Running: true, Speed: 42})

	require.Eventually(t, func() bool { return client.get("rentfleet/v1/telemetry/volvo") != nil }, time.Second, time.Millisecond)

	var st vehicle.Status
	require.NoError(t, json.Unmarshal(client.get("rentfleet/v1/telemetry/volvo"), &st))
	assert.Equal(t, 42.0, st.Speed)
	assert.True(t, st.Running)
	assert.Zero(t, client.qos)
}

func TestStreamBroadcast(t *testing.T) {
	stream := NewStream(func() []vehicle.Status {
		return []vehicle.Status{{Name: "Volvo"}, {Name: "Lada"}}
	})
	srv := httptest.NewServer(stream)
	defer srv.Close()
	defer stream.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var initial []vehicle.Status
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Len(t, initial, 2)

	require.Eventually(t, func() bool { return stream.Clients() == 1 }, time.Second, time.Millisecond)
	stream.Emit(t.Context(), vehicle.Status{Name: "Volvo", Speed: 55})

	var st vehicle.Status
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, "Volvo", st.Name)
	assert.Equal(t, 55.0, st.Speed)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return stream.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestStreamRejectsSubscribersAfterClose(t *testing.T) {
	stream := NewStream(nil)
	srv := httptest.NewServer(stream)
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- stream.Start(ctx) }()
	cancel()
	require.NoError(t, <-done)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, stream.Clients())
}
