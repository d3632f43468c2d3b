package watch

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Bus is a small typed in-process event bus for watch-mode orchestration.
//
// Subscriptions are typed via generics; Publish blocks until every
// subscriber has accepted the event or the context is canceled, so a slow
// consumer exerts backpressure instead of dropping events. The bus is not
// durable; build history persistence lives in internal/history.
type Bus struct {
	mu        sync.RWMutex
	subs      map[reflect.Type]map[uint64]*subscriber
	nextID    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

type subscriber struct {
	send  func(ctx context.Context, evt any) error
	close func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscriber)}
}

// Subscribe registers a subscription for events of type T and returns the
// delivery channel plus an unsubscribe function. Interface types match any
// implementing concrete event.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	if b.closed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	var closeOnce sync.Once
	closeChannel := func() {
		closeOnce.Do(func() { close(ch) })
	}

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
			closeChannel()
		})
	}

	sub := &subscriber{
		send: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return sgerrors.New(sgerrors.CategoryInternal, sgerrors.SeverityError, "event type mismatch").
					WithContext("expected", eventType.String()).
					WithContext("actual", reflect.TypeOf(evt).String())
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return sgerrors.Wrap(ctx.Err(), sgerrors.CategoryInternal, sgerrors.SeverityError, "event publish canceled").
					WithContext("event_type", eventType.String())
			}
		},
		close: closeChannel,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		closeChannel()
		return ch, func() {}
	}
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub
	return ch, unsubscribe
}

// Publish delivers an event to all matching subscribers, blocking until
// each accepts or ctx is canceled.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return sgerrors.New(sgerrors.CategoryInternal, sgerrors.SeverityError, "event cannot be nil")
	}
	if b.closed.Load() {
		return sgerrors.New(sgerrors.CategoryInternal, sgerrors.SeverityError, "event bus is closed")
	}

	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	var targets []*subscriber
	for subType, typeSubs := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if !match {
			continue
		}
		for _, s := range typeSubs {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.send(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and every subscription channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)

		b.mu.Lock()
		var toClose []*subscriber
		for _, typeSubs := range b.subs {
			for _, s := range typeSubs {
				toClose = append(toClose, s)
			}
		}
		b.subs = make(map[reflect.Type]map[uint64]*subscriber)
		b.mu.Unlock()

		for _, s := range toClose {
			s.close()
		}
	})
}
