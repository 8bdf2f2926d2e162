package plume

import (
	"testing"

	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/pair"
	"github.com/go-gl/mathgl/mgl64"
)

// createTestCollider creates a minimal body with one sphere collider,
// detached from any world, for event testing
func createTestCollider(isTrigger, isSleeping bool) *actor.Collider {
	body := actor.NewRigidBody(
		actor.Transform{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent()},
		actor.BodyTypeDynamic,
	)
	body.IsTrigger = isTrigger
	body.IsSleeping = isSleeping

	collider := actor.NewCollider(body, &actor.Sphere{Radius: 1.0})
	body.Colliders = append(body.Colliders, collider)

	return collider
}

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) countType(eventType EventType) int {
	n := 0
	for _, e := range ec.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	return ec.countType(eventType) > 0
}

// subscribeAll registers the capture on every overlap and trigger type
func subscribeAll(events *Events, capture *eventCapture) {
	for _, eventType := range []EventType{
		TRIGGER_ENTER, OVERLAP_ENTER,
		TRIGGER_STAY, OVERLAP_STAY,
		TRIGGER_EXIT, OVERLAP_EXIT,
	} {
		events.Subscribe(eventType, capture.capture)
	}
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(OVERLAP_ENTER, capture.capture)

	// Verify listener is registered
	if len(events.listeners[OVERLAP_ENTER]) != 1 {
		t.Errorf("Expected 1 listener for OVERLAP_ENTER, got %d", len(events.listeners[OVERLAP_ENTER]))
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	capture1 := &eventCapture{}
	capture2 := &eventCapture{}
	capture3 := &eventCapture{}

	// Subscribe multiple listeners to the same event type
	events.Subscribe(OVERLAP_ENTER, capture1.capture)
	events.Subscribe(OVERLAP_ENTER, capture2.capture)
	events.Subscribe(OVERLAP_ENTER, capture3.capture)

	if len(events.listeners[OVERLAP_ENTER]) != 3 {
		t.Errorf("Expected 3 listeners for OVERLAP_ENTER, got %d", len(events.listeners[OVERLAP_ENTER]))
	}

	// Trigger an event
	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)

	events.recordOverlap(pair.NewID(1, 2), colliderA, colliderB)
	events.flush()

	// All listeners should have received the event
	if capture1.count() != 1 {
		t.Errorf("Capture1 expected 1 event, got %d", capture1.count())
	}
	if capture2.count() != 1 {
		t.Errorf("Capture2 expected 1 event, got %d", capture2.count())
	}
	if capture3.count() != 1 {
		t.Errorf("Capture3 expected 1 event, got %d", capture3.count())
	}
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureOverlap := &eventCapture{}
	captureTrigger := &eventCapture{}

	events.Subscribe(OVERLAP_ENTER, captureOverlap.capture)
	events.Subscribe(TRIGGER_ENTER, captureTrigger.capture)

	// Record an overlap between two non trigger bodies
	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)

	events.recordOverlap(pair.NewID(1, 2), colliderA, colliderB)
	events.flush()

	// Only the overlap listener should receive the event
	if captureOverlap.count() != 1 {
		t.Errorf("Overlap capture expected 1 event, got %d", captureOverlap.count())
	}
	if captureTrigger.count() != 0 {
		t.Errorf("Trigger capture expected 0 events, got %d", captureTrigger.count())
	}
}

// =============================================================================
// Overlap Enter/Stay/Exit Tests
// =============================================================================

func TestEvents_OverlapEnter(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)

	events.recordOverlap(pair.NewID(1, 2), colliderA, colliderB)
	events.flush()

	if capture.countType(OVERLAP_ENTER) != 1 {
		t.Errorf("Expected 1 OVERLAP_ENTER, got %d", capture.countType(OVERLAP_ENTER))
	}
	if capture.count() != 1 {
		t.Errorf("Expected 1 event in total, got %d", capture.count())
	}
}

func TestEvents_OverlapStay(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	// First frame: Enter
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	// Second frame: still overlapping, Stay
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()

	if capture.countType(OVERLAP_STAY) != 1 {
		t.Errorf("Expected 1 OVERLAP_STAY, got %d", capture.countType(OVERLAP_STAY))
	}
	if capture.countType(OVERLAP_ENTER) != 0 {
		t.Errorf("Expected no OVERLAP_ENTER on the second frame, got %d", capture.countType(OVERLAP_ENTER))
	}
}

func TestEvents_OverlapExit(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	// First frame: Enter
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	// Second frame: no overlap recorded, Exit
	events.flush()

	if capture.countType(OVERLAP_EXIT) != 1 {
		t.Errorf("Expected 1 OVERLAP_EXIT, got %d", capture.countType(OVERLAP_EXIT))
	}
	if capture.count() != 1 {
		t.Errorf("Expected 1 event in total, got %d", capture.count())
	}
}

func TestEvents_OverlapStay_SleepingBodies(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	// Both bodies asleep: the recorded overlap stays silent
	colliderA.Body.IsSleeping = true
	colliderB.Body.IsSleeping = true

	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events while both bodies sleep, got %d", capture.count())
	}
}

// =============================================================================
// Trigger Enter/Stay/Exit Tests
// =============================================================================

func TestEvents_TriggerEnter(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	trigger := createTestCollider(true, false)
	visitor := createTestCollider(false, false)

	events.recordOverlap(pair.NewID(1, 2), trigger, visitor)
	events.flush()

	if capture.countType(TRIGGER_ENTER) != 1 {
		t.Errorf("Expected 1 TRIGGER_ENTER, got %d", capture.countType(TRIGGER_ENTER))
	}
	if capture.countType(OVERLAP_ENTER) != 0 {
		t.Errorf("Trigger overlap should not emit OVERLAP_ENTER, got %d", capture.countType(OVERLAP_ENTER))
	}
}

func TestEvents_TriggerStay(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	trigger := createTestCollider(true, false)
	visitor := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	events.recordOverlap(pairID, trigger, visitor)
	events.flush()
	capture.reset()

	events.recordOverlap(pairID, trigger, visitor)
	events.flush()

	if capture.countType(TRIGGER_STAY) != 1 {
		t.Errorf("Expected 1 TRIGGER_STAY, got %d", capture.countType(TRIGGER_STAY))
	}
}

func TestEvents_TriggerExit(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	trigger := createTestCollider(true, false)
	visitor := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	events.recordOverlap(pairID, trigger, visitor)
	events.flush()
	capture.reset()

	events.flush()

	if capture.countType(TRIGGER_EXIT) != 1 {
		t.Errorf("Expected 1 TRIGGER_EXIT, got %d", capture.countType(TRIGGER_EXIT))
	}
}

func TestEvents_MixedTriggerAndOverlap(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	trigger := createTestCollider(true, false)
	solidA := createTestCollider(false, false)
	solidB := createTestCollider(false, false)

	// Une paire déclencheur et une paire solide dans la même frame
	events.recordOverlap(pair.NewID(1, 2), trigger, solidA)
	events.recordOverlap(pair.NewID(3, 4), solidA, solidB)
	events.flush()

	if capture.countType(TRIGGER_ENTER) != 1 {
		t.Errorf("Expected 1 TRIGGER_ENTER, got %d", capture.countType(TRIGGER_ENTER))
	}
	if capture.countType(OVERLAP_ENTER) != 1 {
		t.Errorf("Expected 1 OVERLAP_ENTER, got %d", capture.countType(OVERLAP_ENTER))
	}
}

// =============================================================================
// Sleeping Pair Carry-over Tests
// =============================================================================

func TestEvents_SleepingPairCarriedOver(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	// Frame 1: Enter while awake
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	// Frames 2-4: both bodies asleep, the narrow phase records nothing.
	// La paire ne doit ni sortir ni être oubliée
	colliderA.Body.IsSleeping = true
	colliderB.Body.IsSleeping = true

	for frame := 0; frame < 3; frame++ {
		events.flush()
	}

	if capture.count() != 0 {
		t.Fatalf("Expected no events while the pair sleeps, got %d", capture.count())
	}
	if _, tracked := events.previousActivePairs[pairID]; !tracked {
		t.Fatal("Sleeping pair should still be tracked for the next frames")
	}

	// Frame 5: woken up and still overlapping, Stay and not Enter
	colliderA.Body.IsSleeping = false
	colliderB.Body.IsSleeping = false

	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()

	if capture.countType(OVERLAP_STAY) != 1 {
		t.Errorf("Expected 1 OVERLAP_STAY after waking, got %d", capture.countType(OVERLAP_STAY))
	}
	if capture.countType(OVERLAP_ENTER) != 0 {
		t.Errorf("Waking a carried pair should not re-enter, got %d OVERLAP_ENTER", capture.countType(OVERLAP_ENTER))
	}
}

func TestEvents_PairRemoved_WhileSleeping(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	colliderA.Body.IsSleeping = true
	colliderB.Body.IsSleeping = true

	// Destroying the pair forces the exit even while asleep
	events.pairRemoved(pairID)
	events.flush()

	if capture.countType(OVERLAP_EXIT) != 1 {
		t.Errorf("Expected 1 forced OVERLAP_EXIT, got %d", capture.countType(OVERLAP_EXIT))
	}
}

// =============================================================================
// pairRemoved Tests
// =============================================================================

func TestEvents_PairRemoved_ForcesExit(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()
	capture.reset()

	events.pairRemoved(pairID)

	if capture.countType(OVERLAP_EXIT) != 0 {
		t.Error("Exit should be buffered until the flush")
	}

	events.flush()

	if capture.countType(OVERLAP_EXIT) != 1 {
		t.Errorf("Expected 1 OVERLAP_EXIT, got %d", capture.countType(OVERLAP_EXIT))
	}
	if len(events.previousActivePairs) != 0 || len(events.currentActivePairs) != 0 {
		t.Error("Removed pair should not be tracked anymore")
	}
}

func TestEvents_PairRemoved_UnknownPair(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	// Removing a pair that never overlapped emits nothing
	events.pairRemoved(pair.NewID(8, 9))
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events, got %d", capture.count())
	}
}

// =============================================================================
// Sleep and Wake Events Tests
// =============================================================================

func TestEvents_OnSleep(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_SLEEP, capture.capture)

	collider := createTestCollider(false, false)
	bodies := []*actor.RigidBody{collider.Body}

	// First sighting establishes the baseline without an event
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 0 {
		t.Fatalf("Expected no event at the baseline, got %d", capture.count())
	}

	// Falling asleep emits ON_SLEEP once
	collider.Body.IsSleeping = true
	events.processSleepEvents(bodies)
	events.flush()

	if capture.countType(ON_SLEEP) != 1 {
		t.Errorf("Expected 1 ON_SLEEP, got %d", capture.countType(ON_SLEEP))
	}

	// Still sleeping: no repeat
	capture.reset()
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no repeated ON_SLEEP, got %d", capture.count())
	}
}

func TestEvents_OnWake(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_WAKE, capture.capture)

	collider := createTestCollider(false, true)
	bodies := []*actor.RigidBody{collider.Body}

	events.processSleepEvents(bodies)
	events.flush()

	collider.Body.IsSleeping = false
	events.processSleepEvents(bodies)
	events.flush()

	if capture.countType(ON_WAKE) != 1 {
		t.Errorf("Expected 1 ON_WAKE, got %d", capture.countType(ON_WAKE))
	}
}

func TestEvents_NoSleepEvent_AlreadySleeping(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_SLEEP, capture.capture)

	// A body first seen asleep has not just fallen asleep
	collider := createTestCollider(false, true)
	bodies := []*actor.RigidBody{collider.Body}

	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no ON_SLEEP for an already sleeping body, got %d", capture.count())
	}
}

func TestEvents_RemoveBody_DropsSleepTracking(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_SLEEP, capture.capture)

	collider := createTestCollider(false, false)
	bodies := []*actor.RigidBody{collider.Body}

	events.processSleepEvents(bodies)
	events.removeBody(collider.Body)

	if _, tracked := events.sleepStates[collider.Body]; tracked {
		t.Fatal("Removed body should not be tracked anymore")
	}

	// Re-added asleep: new baseline, no event
	collider.Body.IsSleeping = true
	events.processSleepEvents(bodies)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no event for the re-added body, got %d", capture.count())
	}
}

// =============================================================================
// Edge Cases Tests
// =============================================================================

func TestEvents_EmptyBuffer_Flush(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	// Flushing an empty manager should be a no-op
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events, got %d", capture.count())
	}
}

func TestEvents_NoListeners(t *testing.T) {
	events := NewEvents()

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)

	// Recording and flushing without listeners should not panic
	events.recordOverlap(pair.NewID(1, 2), colliderA, colliderB)
	events.flush()
}

func TestEvents_Flush_ClearsBuffer(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)

	events.recordOverlap(pair.NewID(1, 2), colliderA, colliderB)
	events.flush()

	if len(events.buffer) != 0 {
		t.Errorf("Expected an empty buffer after flush, got %d entries", len(events.buffer))
	}
}

func TestEvents_MultipleFrames_EnterExitEnter(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	colliderA := createTestCollider(false, false)
	colliderB := createTestCollider(false, false)
	pairID := pair.NewID(1, 2)

	// Frame 1: overlap begins
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()

	// Frame 2: overlap ends
	events.flush()

	// Frame 3: overlap begins again
	events.recordOverlap(pairID, colliderA, colliderB)
	events.flush()

	if capture.countType(OVERLAP_ENTER) != 2 {
		t.Errorf("Expected 2 OVERLAP_ENTER, got %d", capture.countType(OVERLAP_ENTER))
	}
	if capture.countType(OVERLAP_EXIT) != 1 {
		t.Errorf("Expected 1 OVERLAP_EXIT, got %d", capture.countType(OVERLAP_EXIT))
	}
	if capture.countType(OVERLAP_STAY) != 0 {
		t.Errorf("Expected no OVERLAP_STAY, got %d", capture.countType(OVERLAP_STAY))
	}
}
