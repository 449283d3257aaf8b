package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apoyos/internal/amqp"
	"apoyos/internal/cache"
	applog "apoyos/internal/log"
)

type fakeConsumer struct {
	msgs []*amqp.SupportChangedMessage
	err  error
}

func (f *fakeConsumer) Run(ctx context.Context, handler amqp.Handler) error {
	for _, m := range f.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHandleSupportChanged_PurgesCaches(t *testing.T) {
	mgr := cache.NewManager(applog.Nop())
	responses := cache.NewLRUCache[[]byte](10, time.Minute)
	mgr.Register(responses)
	responses.Set("stats:2025", []byte(`{}`))
	responses.Set("by-month:2025", []byte(`[]`))

	w := NewInvalidationWorker(mgr, nil)
	err := w.HandleSupportChanged(context.Background(), &amqp.SupportChangedMessage{ID: 9, Action: amqp.ActionCreated, DeliveryDate: "2025-04-01"})
	require.NoError(t, err)

	assert.Equal(t, 0, responses.Size())
	processed, purged := w.Stats()
	assert.EqualValues(t, 1, processed)
	assert.EqualValues(t, 2, purged)
}

func TestRun_ConsumesUntilCancelled(t *testing.T) {
	mgr := cache.NewManager(applog.Nop())
	responses := cache.NewLRUCache[[]byte](10, time.Minute)
	mgr.Register(responses)
	responses.Set("k", []byte("v"))

	consumer := &fakeConsumer{msgs: []*amqp.SupportChangedMessage{
		{ID: 1, Action: amqp.ActionUpdated},
		{ID: 2, Action: amqp.ActionDeleted},
	}}
	w := NewInvalidationWorker(mgr, applog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	require.Eventually(t, func() bool {
		processed, _ := w.Stats()
		return processed == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 0, responses.Size())
}

func TestRun_PropagatesConsumerFailure(t *testing.T) {
	boom := errors.New("access refused")
	w := NewInvalidationWorker(cache.NewManager(applog.Nop()), applog.Nop())

	err := w.Run(context.Background(), &fakeConsumer{err: boom})
	assert.ErrorIs(t, err, boom)
}
