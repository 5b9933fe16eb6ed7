package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	calls   atomic.Int32
	release chan struct{}
	out     map[string]any
}

func (f *fakeRenderer) Show(_ context.Context, kind common.Kind, id string) (any, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	v, ok := f.out[string(kind)+"/"+id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return v, nil
}

type fakeSnapshots struct {
	mu      sync.Mutex
	puts    map[string]string
	deletes []string
	failPut int
}

func (f *fakeSnapshots) Put(_ context.Context, kind common.Kind, id string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut > 0 {
		f.failPut--
		return errors.New("s3 unavailable")
	}
	f.puts[string(kind)+"/"+id] = string(body)
	return nil
}

func (f *fakeSnapshots) Delete(_ context.Context, kind common.Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, string(kind)+"/"+id)
	return nil
}

func event(t *testing.T, kind common.Kind, id string, action common.ChangeAction) []byte {
	t.Helper()
	body, err := json.Marshal(common.ChangeEvent{Kind: kind, ID: id, Action: action})
	require.NoError(t, err)
	return body
}

func TestChangeMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := changeMessage(common.ChangeEvent{Kind: common.KindWork, ID: "w1", Action: common.ActionUpdated}, now)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, "updated", msg.Type)
	assert.JSONEq(t, `{"kind":"work","id":"w1","action":"updated"}`, string(msg.Body))
}

func TestParseChangeEvent(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"Valid", `{"kind":"staging","id":"s1","action":"created"}`, true},
		{"NotJSON", `created s1`, false},
		{"UnknownKind", `{"kind":"play","id":"s1","action":"created"}`, false},
		{"MissingID", `{"kind":"work","action":"created"}`, false},
		{"UnknownAction", `{"kind":"work","id":"w1","action":"renamed"}`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseChangeEvent([]byte(tc.body))
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformed)
			}
		})
	}
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 3, retryCount(amqp091.Table{"x-retries": int32(3)}))
	assert.Equal(t, 4, retryCount(amqp091.Table{"x-retries": int64(4)}))
	assert.Equal(t, 0, retryCount(amqp091.Table{"x-retries": "many"}))
}

func TestProjectionWorkerPublishesAndRemoves(t *testing.T) {
	r := &fakeRenderer{out: map[string]any{"work/w1": map[string]string{"name": "Hamlet"}}}
	s := &fakeSnapshots{puts: map[string]string{}, failPut: 1}
	w := NewProjectionWorker(r, s, WithStoreRetries(2, util.NoBackoff))
	ctx := context.Background()

	require.NoError(t, w.Handle(ctx, event(t, common.KindWork, "w1", common.ActionCreated)))
	assert.JSONEq(t, `{"name":"Hamlet"}`, s.puts["work/w1"])

	require.NoError(t, w.Handle(ctx, event(t, common.KindWork, "w1", common.ActionDeleted)))
	require.NoError(t, w.Handle(ctx, event(t, common.KindWork, "gone", common.ActionUpdated)))
	assert.Equal(t, []string{"work/w1", "work/gone"}, s.deletes)

	assert.ErrorIs(t, w.Handle(ctx, []byte("{")), ErrMalformed)
}

func TestProjectionWorkerStoreFailure(t *testing.T) {
	r := &fakeRenderer{out: map[string]any{"person/p1": "Ann"}}
	s := &fakeSnapshots{puts: map[string]string{}, failPut: 5}
	w := NewProjectionWorker(r, s, WithStoreRetries(2, util.NoBackoff))

	err := w.Handle(context.Background(), event(t, common.KindPerson, "p1", common.ActionUpdated))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestProjectionWorkerCollapsesConcurrentRenders(t *testing.T) {
	r := &fakeRenderer{
		release: make(chan struct{}),
		out:     map[string]any{"venue/v1": "Globe"},
	}
	s := &fakeSnapshots{puts: map[string]string{}}
	w := NewProjectionWorker(r, s)
	body := event(t, common.KindVenue, "v1", common.ActionUpdated)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- w.Handle(context.Background(), body)
		}()
	}
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

type keyLocker struct {
	keys []string
	err  error
}

func (l *keyLocker) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

func TestProjectionWorkerHoldsLease(t *testing.T) {
	r := &fakeRenderer{out: map[string]any{"company/c1": "Globe Co"}}
	s := &fakeSnapshots{puts: map[string]string{}}
	l := &keyLocker{}
	w := NewProjectionWorker(r, s, WithLocker(l))

	require.NoError(t, w.Handle(context.Background(), event(t, common.KindCompany, "c1", common.ActionCreated)))
	assert.Equal(t, []string{"projection:company/c1"}, l.keys)
	assert.Contains(t, s.puts, "company/c1")

	l.err = errors.New("lease busy")
	err := w.Handle(context.Background(), event(t, common.KindCompany, "c1", common.ActionDeleted))
	assert.ErrorIs(t, err, l.err)
	assert.Empty(t, s.deletes)
}
