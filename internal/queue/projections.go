package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Renderer builds the show projection of a record.
type Renderer interface {
	Show(ctx context.Context, kind common.Kind, id string) (any, error)
}

// SnapshotStore persists rendered projections.
type SnapshotStore interface {
	Put(ctx context.Context, kind common.Kind, id string, body []byte) error
	Delete(ctx context.Context, kind common.Kind, id string) error
}

// Locker serializes work on a key across worker replicas.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ProjectionWorker keeps published show projections in step with change
// events. Concurrent events for the same record share one render.
type ProjectionWorker struct {
	renderer  Renderer
	snapshots SnapshotStore
	locker    Locker
	group     singleflight.Group
	tries     int
	backoff   util.Backoff
}

type ProjectionWorkerOption func(*ProjectionWorker)

// WithStoreRetries sets how often a snapshot write is attempted before the
// message goes back to the retry queue.
func WithStoreRetries(tries int, backoff util.Backoff) ProjectionWorkerOption {
	return func(w *ProjectionWorker) {
		w.tries = tries
		w.backoff = backoff
	}
}

// WithLocker makes replicas take turns publishing the same record.
func WithLocker(l Locker) ProjectionWorkerOption {
	return func(w *ProjectionWorker) {
		w.locker = l
	}
}

func NewProjectionWorker(r Renderer, s SnapshotStore, opts ...ProjectionWorkerOption) *ProjectionWorker {
	w := &ProjectionWorker{
		renderer:  r,
		snapshots: s,
		tries:     3,
		backoff:   util.ExponentialBackoff(200*time.Millisecond, 2*time.Second),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle processes one change event body. It satisfies Handler.
func (w *ProjectionWorker) Handle(ctx context.Context, body []byte) error {
	event, err := ParseChangeEvent(body)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s/%s", event.Kind, event.ID)
	_, err, shared := w.group.Do(key, func() (any, error) {
		apply := func(ctx context.Context) error {
			if event.Action == common.ActionDeleted {
				return w.remove(ctx, event)
			}
			return w.render(ctx, event)
		}
		if w.locker == nil {
			return nil, apply(ctx)
		}
		return nil, w.locker.WithLease(ctx, "projection:"+key, apply)
	})
	if shared {
		logger.Debug("[Worker] Shared projection render", "kind", event.Kind, "id", event.ID)
	}
	return err
}

func (w *ProjectionWorker) render(ctx context.Context, event common.ChangeEvent) error {
	out, err := w.renderer.Show(ctx, event.Kind, event.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Debug("[Worker] Record gone before render", "kind", event.Kind, "id", event.ID)
		return w.remove(ctx, event)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s/%s: %w", event.Kind, event.ID, err)
	}

	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", event.Kind, event.ID, err)
	}
	err = util.RetryErr(ctx, w.tries, w.backoff, func(ctx context.Context) error {
		return w.snapshots.Put(ctx, event.Kind, event.ID, body)
	})
	if err != nil {
		return err
	}
	logger.Info("[Worker] Published projection", "kind", event.Kind, "id", event.ID, "bytes", len(body))
	return nil
}

func (w *ProjectionWorker) remove(ctx context.Context, event common.ChangeEvent) error {
	err := util.RetryErr(ctx, w.tries, w.backoff, func(ctx context.Context) error {
		return w.snapshots.Delete(ctx, event.Kind, event.ID)
	})
	if err != nil {
		return err
	}
	logger.Info("[Worker] Removed projection", "kind", event.Kind, "id", event.ID)
	return nil
}
