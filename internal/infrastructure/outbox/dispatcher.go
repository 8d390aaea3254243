package outbox

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
)

type Publisher interface {
	Publish(event.Event) error
}

// Dispatcher delivers recorded events at least once. An event stays
// unpublished until the bus accepts it; an event that can no longer be
// decoded is logged and marked published.
type Dispatcher struct {
	Repo         Repository
	EventBus     Publisher
	PollInterval time.Duration
	BatchSize    int
	Logger       logging.Logger
	Metrics      *metrics.Metrics
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

func (d *Dispatcher) DispatchOnce(ctx context.Context) {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.logger().Error("outbox read failed", map[string]any{"error": err.Error()})
		return
	}

	for _, evt := range events {
		payload, err := event.Decode(evt.Type, evt.Payload)
		if err != nil {
			d.logger().Error("dropping undecodable outbox event", map[string]any{
				"event_id": evt.ID,
				"event":    string(evt.Type),
				"error":    err.Error(),
			})
			d.markPublished(ctx, evt.ID)
			continue
		}

		if err := d.EventBus.Publish(event.Event{Type: evt.Type, Payload: payload}); err != nil {
			d.logger().Error("outbox publish failed", map[string]any{
				"event_id": evt.ID,
				"event":    string(evt.Type),
				"error":    err.Error(),
			})
			continue
		}

		d.Metrics.IncEventDispatched(string(evt.Type))
		d.markPublished(ctx, evt.ID)
	}
}

func (d *Dispatcher) markPublished(ctx context.Context, id string) {
	if err := d.Repo.MarkPublished(ctx, id); err != nil {
		d.logger().Error("outbox mark published failed", map[string]any{
			"event_id": id,
			"error":    err.Error(),
		})
	}
}

func (d *Dispatcher) logger() logging.Logger {
	if d.Logger == nil {
		return logging.Noop{}
	}
	return d.Logger
}
