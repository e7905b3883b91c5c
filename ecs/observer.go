// Copyright © 2024 Galvanized Logic Inc.

package ecs

// observer.go is the typed subscription API over Registry's per-kind
// channels (spec §4.1 "Observer queues: subscribe to add/remove events
// for a component kind; queue drains each frame rather than invoking a
// callback inline"). Grounded on gazed-vu's event.go dispatch-by-type
// pattern, adapted to a pull-based channel instead of a push callback
// so sim/events.go can drain observers once per frame under its own
// timing instead of racing the writer.

// observerQueueDepth bounds the per-subscriber channel so a subscriber
// that never drains cannot block component mutation; events beyond the
// bound are dropped (fireObservers' select/default).
const observerQueueDepth = 256

// Observer is a subscription handle for one component kind's add/remove
// events on one Registry.
type Observer struct {
	registry *Registry
	kind     Kind
	events   chan ComponentEvent
}

// Events returns the channel new ComponentEvents arrive on. Drain it
// promptly; a full channel silently drops further events for this
// subscriber rather than blocking whoever is mutating components.
func (o *Observer) Events() <-chan ComponentEvent { return o.events }

// Drain removes and returns every event currently buffered without
// blocking, the shape sim/events.go uses once per frame.
func (o *Observer) Drain() []ComponentEvent {
	out := []ComponentEvent{}
	for {
		select {
		case ev := <-o.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Close unsubscribes, after which no further events are delivered.
func (o *Observer) Close() {
	o.registry.observersMu.Lock()
	defer o.registry.observersMu.Unlock()
	chans := o.registry.observers[o.kind]
	for i, c := range chans {
		if c == o.events {
			o.registry.observers[o.kind] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

// Observe subscribes to add/remove events for component type T on r.
func Observe[T any](r *Registry) *Observer {
	k := kindFor[T]()
	return observeKind(r, k)
}

// ObserveKind subscribes by Kind directly, for callers (such as the
// engine's generic event-log) that don't have a static T.
func ObserveKind(r *Registry, k Kind) *Observer {
	return observeKind(r, k)
}

func observeKind(r *Registry, k Kind) *Observer {
	c := make(chan ComponentEvent, observerQueueDepth)
	r.observersMu.Lock()
	r.observers[k] = append(r.observers[k], c)
	r.observersMu.Unlock()
	return &Observer{registry: r, kind: k, events: c}
}
