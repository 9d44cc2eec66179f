package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/metrics"
)

// Topic names a state-changed notification stream.
type Topic string

const (
	TopicCartUpdated     Topic = "cart.updated"
	TopicCartOpenRequest Topic = "cart.open_request"
	TopicOrdersUpdated   Topic = "orders.updated"
	TopicDesignsUpdated  Topic = "designs.updated"
	TopicPayoutsUpdated  Topic = "payouts.updated"
	TopicProfilesUpdated Topic = "profiles.updated"
)

// Handler receives the topic that fired.
type Handler func(topic Topic)

// Bus fans state-changed notifications out to in-process subscribers
// synchronously. A forwarder, when attached, mirrors local publishes to
// other processes on a best-effort basis.
type Bus struct {
	mu        sync.RWMutex
	subs      map[Topic]map[int64]Handler
	nextID    int64
	forwarder func(Topic)
	logg      *logger.Logger
	mets      *metrics.StoreMetrics
}

// NewBus builds an empty bus.
func NewBus(logg *logger.Logger, mets *metrics.StoreMetrics) *Bus {
	return &Bus{
		subs: map[Topic]map[int64]Handler{},
		logg: logg,
		mets: mets,
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = map[int64]Handler{}
	}
	b.subs[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers the topic to every current subscriber inline, then hands
// it to the forwarder for remote delivery.
func (b *Bus) Publish(ctx context.Context, topic Topic) {
	b.deliver(ctx, topic)

	b.mu.RLock()
	forward := b.forwarder
	b.mu.RUnlock()
	if forward != nil {
		forward(topic)
	}
}

// AttachForwarder wires the cross-process mirror. Only one forwarder is
// supported; the last attached wins.
func (b *Bus) AttachForwarder(forward func(Topic)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarder = forward
}

// deliver runs the local fan-out without re-forwarding, so remote publishes
// relayed back into this process cannot loop.
func (b *Bus) deliver(ctx context.Context, topic Topic) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(ctx, topic, handler)
	}
	b.mets.IncEventPublished(string(topic))
}

func (b *Bus) invoke(ctx context.Context, topic Topic, handler Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			if b.logg != nil {
				lctx := b.logg.WithField(ctx, "topic", string(topic))
				b.logg.Error(lctx, "subscriber panicked", fmt.Errorf("panic: %v", rec))
			}
		}
	}()
	handler(topic)
}
