package scheduler

import (
	"testing"
	"time"
)

func TestHeapPushPopOrdering(t *testing.T) {
	h := &scheduleHeap{}
	now := time.Now()

	heapPush(h, entry{ID: 3, TriggerAt: now.Add(3 * time.Hour)})
	heapPush(h, entry{ID: 1, TriggerAt: now.Add(1 * time.Hour)})
	heapPush(h, entry{ID: 2, TriggerAt: now.Add(2 * time.Hour)})

	for _, want := range []int64{1, 2, 3} {
		if got := heapPop(h).ID; got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if h.Len() != 0 {
		t.Errorf("expected empty heap, got len %d", h.Len())
	}
}

func TestHeapRemoveByID(t *testing.T) {
	h := &scheduleHeap{}
	now := time.Now()
	heapPush(h, entry{ID: 1, TriggerAt: now.Add(time.Hour)})
	heapPush(h, entry{ID: 2, TriggerAt: now.Add(2 * time.Hour)})
	heapPush(h, entry{ID: 3, TriggerAt: now.Add(3 * time.Hour)})

	if !heapRemoveByID(h, 2) {
		t.Fatal("expected 2 to be removed")
	}
	if heapRemoveByID(h, 2) {
		t.Fatal("second removal of 2 should report false")
	}
	if _, ok := heapFind(*h, 2); ok {
		t.Fatal("2 should no longer be armed")
	}
	if e, ok := heapFind(*h, 3); !ok || !e.TriggerAt.Equal(now.Add(3*time.Hour)) {
		t.Fatalf("unexpected entry for 3: %+v %v", e, ok)
	}
	if first := heapPop(h); first.ID != 1 {
		t.Errorf("expected 1 first, got %d", first.ID)
	}
}

func TestHeapDuplicateTriggerTimes(t *testing.T) {
	h := &scheduleHeap{}
	same := time.Now().Add(time.Hour)
	for id := int64(1); id <= 3; id++ {
		heapPush(h, entry{ID: id, TriggerAt: same})
	}
	seen := map[int64]bool{}
	for h.Len() > 0 {
		e := heapPop(h)
		if seen[e.ID] {
			t.Errorf("duplicate pop for %d", e.ID)
		}
		seen[e.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 pops, got %d", len(seen))
	}
}
