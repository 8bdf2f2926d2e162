package plume

import (
	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/pair"
)

const (
	TRIGGER_ENTER EventType = iota
	OVERLAP_ENTER
	TRIGGER_STAY
	OVERLAP_STAY
	TRIGGER_EXIT
	OVERLAP_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events, emitted instead of the overlap events when either body
// is a trigger
type TriggerEnterEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Overlap events
type OverlapEnterEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e OverlapEnterEvent) Type() EventType { return OVERLAP_ENTER }

type OverlapStayEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e OverlapStayEvent) Type() EventType { return OVERLAP_STAY }

type OverlapExitEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e OverlapExitEvent) Type() EventType { return OVERLAP_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// overlapPair is the tracked state of one overlapping pair, in the order
// stored by the pair cache.
type overlapPair struct {
	collider1 *actor.Collider
	collider2 *actor.Collider
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Overlap tracking for Enter/Stay/Exit detection, keyed by pair id
	previousActivePairs map[pair.ID]overlapPair
	currentActivePairs  map[pair.ID]overlapPair

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pair.ID]overlapPair),
		currentActivePairs:  make(map[pair.ID]overlapPair),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordOverlap is called by the narrow phase for every pair found
// actually overlapping this step
func (e *Events) recordOverlap(pairID pair.ID, collider1, collider2 *actor.Collider) {
	e.currentActivePairs[pairID] = overlapPair{collider1: collider1, collider2: collider2}
}

// pairRemoved forces the exit of a pair destroyed outside the normal
// separation path (collider teardown, disabled collision), even while its
// bodies are asleep.
func (e *Events) pairRemoved(pairID pair.ID) {
	if state, tracked := e.previousActivePairs[pairID]; tracked {
		e.emitExit(state)
		delete(e.previousActivePairs, pairID)
	}
	delete(e.currentActivePairs, pairID)
}

// removeBody drops the sleep tracking of a removed body. Its overlaps are
// expected to be retired pair by pair beforehand.
func (e *Events) removeBody(body *actor.RigidBody) {
	delete(e.sleepStates, body)
}

func (e *Events) emitExit(state overlapPair) {
	if state.collider1.Body.IsTrigger || state.collider2.Body.IsTrigger {
		e.buffer = append(e.buffer, TriggerExitEvent{ColliderA: state.collider1, ColliderB: state.collider2})
	} else {
		e.buffer = append(e.buffer, OverlapExitEvent{ColliderA: state.collider1, ColliderB: state.collider2})
	}
}

// processOverlapEvents compares current and previous pairs to detect
// Enter/Stay/Exit. Should be called once per step, at flush.
func (e *Events) processOverlapEvents() {
	// Detect Enter and Stay events
	for pairID, state := range e.currentActivePairs {
		// Skip if both bodies are sleeping, to avoid spamming events
		if state.collider1.Body.IsSleeping && state.collider2.Body.IsSleeping {
			continue
		}

		isTrigger := state.collider1.Body.IsTrigger || state.collider2.Body.IsTrigger

		if _, active := e.previousActivePairs[pairID]; active {
			// Pair was active before and still is, Stay
			if isTrigger {
				e.buffer = append(e.buffer, TriggerStayEvent{
					ColliderA: state.collider1,
					ColliderB: state.collider2,
				})
			} else {
				e.buffer = append(e.buffer, OverlapStayEvent{
					ColliderA: state.collider1,
					ColliderB: state.collider2,
				})
			}
		} else {
			// New pair, Enter
			if isTrigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{
					ColliderA: state.collider1,
					ColliderB: state.collider2,
				})
			} else {
				e.buffer = append(e.buffer, OverlapEnterEvent{
					ColliderA: state.collider1,
					ColliderB: state.collider2,
				})
			}
		}
	}

	// Detect Exit events
	for pairID, state := range e.previousActivePairs {
		if _, active := e.currentActivePairs[pairID]; active {
			continue
		}

		// A pair that went quiet because both bodies fell asleep has
		// neither exited nor re-entered, its state is carried over
		if state.collider1.Body.IsSleeping && state.collider2.Body.IsSleeping {
			e.currentActivePairs[pairID] = state
			continue
		}

		e.emitExit(state)
	}

	// Swap for next step and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processOverlapEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
