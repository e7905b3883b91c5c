// Copyright © 2024 Galvanized Logic Inc.

package sim

import "github.com/lumenforge/lumen/ecs"

// events.go covers spec §4.5 steps 1 and 7: routing OS/window input
// events into subscribed entities' EventInput queues, and draining the
// Physics component's add/remove observer so destroyed actors get torn
// down. Grounded on spec §5 "Input event queue: lock-free MPSC queue
// drained exclusively by the physics thread" and §4.1's observer API.

// inputQueueDrainLimit bounds how many InputDispatch values dispatchInput
// pulls from Inbox per frame, so a burst of OS events can never make one
// physics frame arbitrarily long; events beyond the limit are picked up
// next frame (the channel itself is the actual queue).
const inputQueueDrainLimit = 256

// dispatchInput is spec §4.5 step 1: pull events from the lock-free
// Inbox queue and append them to the named entity's EventInput queue.
func (r *Runtime) dispatchInput(lock *ecs.Lock) {
	for i := 0; i < inputQueueDrainLimit; i++ {
		select {
		case d := <-r.Inbox:
			r.routeInput(lock, d)
		default:
			return
		}
	}
}

func (r *Runtime) routeInput(lock *ecs.Lock, d InputDispatch) {
	ref := r.Refs.GetEntityByName(d.EntityName)
	id, ok := ref.Resolve(lock.Instance())
	if !ok {
		return // name not bound to a live entity right now; event is dropped.
	}
	e := ecs.Entity{ID: id, Instance: lock.Instance()}
	q, _, err := ecs.Get[ecs.EventInput](lock, e)
	if err != nil {
		return
	}
	q.Events = append(q.Events, d.Event)
	_ = ecs.Set(lock, e, q)
}

// drainPhysicsObserver is spec §4.5 step 7: drain the Physics add/remove
// observer; for REMOVED, destroy the actor (or detach sub-actor shapes).
func (r *Runtime) drainPhysicsObserver(lock *ecs.Lock) {
	if r.physicsObs == nil {
		return
	}
	for _, ev := range r.physicsObs.Drain() {
		if ev.Kind != ecs.EventRemoved {
			continue
		}
		if actor, ok := r.actors[ev.Entity.ID]; ok {
			r.backend.destroy(actor.BodyIndex)
			delete(r.actors, ev.Entity.ID)
			continue
		}
		// Not a parent actor; it may have been a sub-actor. Force every
		// remaining actor's shape fingerprint to be recomputed next
		// reconcile pass rather than tracking which ancestor it named
		// (sub-actors have no per-shape identity on the backend — see
		// mergeSubActorShapes in sim/actors.go, which clears a parent's
		// fingerprint the same way).
		for _, a := range r.actors {
			a.shapes = nil
		}
	}
}
