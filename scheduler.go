// scheduler.go - Event priority queue coordinating PPU/APU/timer events

package main

import "container/heap"

// EventKind identifies what fired. The core only defines the kinds its
// own scope owns (APU frame sequencer, sample emission); PPU/timer/DMA
// kinds are declared for callers that wire those peripherals in, but the
// scheduler itself is agnostic to what a kind means.
type EventKind int

const (
	EventAPUFrameSequencer EventKind = iota
	EventAPUSampleTick
	EventPPU
	EventTimer
	EventDMA
)

// event is one scheduled occurrence: fire at Deadline (absolute system
// cycle count), breaking ties by Seq (insertion order).
type event struct {
	Kind     EventKind
	Deadline uint64
	Seq      uint64
	index    int // heap.Interface bookkeeping
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Deadline != h[j].Deadline {
		return h[i].Deadline < h[j].Deadline
	}
	return h[i].Seq < h[j].Seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a bounded min-heap of pending events keyed by absolute
// cycle count. Concurrent event kinds are few (~16), so a heap
// comfortably outperforms anything fancier.
type Scheduler struct {
	heap    eventHeap
	nextSeq uint64
}

func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.heap)
	return s
}

// Schedule inserts an event keyed by absolute cycle count.
func (s *Scheduler) Schedule(kind EventKind, atCycles uint64) {
	heap.Push(&s.heap, &event{Kind: kind, Deadline: atCycles, Seq: s.nextSeq})
	s.nextSeq++
}

// Cancel removes every pending event of the given kind.
func (s *Scheduler) Cancel(kind EventKind) {
	kept := s.heap[:0]
	for _, e := range s.heap {
		if e.Kind == kind {
			continue
		}
		kept = append(kept, e)
	}
	s.heap = kept
	heap.Init(&s.heap)
}

// PopDue drains every event with Deadline <= now, in deadline order
// (ties broken by insertion order), and returns their kinds.
func (s *Scheduler) PopDue(now uint64) []EventKind {
	var due []EventKind
	for s.heap.Len() > 0 && s.heap[0].Deadline <= now {
		e := heap.Pop(&s.heap).(*event)
		due = append(due, e.Kind)
	}
	return due
}

// Pending reports whether any event of the given kind is scheduled.
func (s *Scheduler) Pending(kind EventKind) bool {
	for _, e := range s.heap {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// NextDeadline returns the earliest pending deadline and whether one
// exists; callers use this to bound how far a step-in-chunks loop may
// advance before it must stop and drain PopDue.
func (s *Scheduler) NextDeadline() (uint64, bool) {
	if s.heap.Len() == 0 {
		return 0, false
	}
	return s.heap[0].Deadline, true
}

// Reset clears all pending events.
func (s *Scheduler) Reset() {
	s.heap = nil
	heap.Init(&s.heap)
	s.nextSeq = 0
}

// schedulerSnapshot is the serializable form used by savestate.go - plain
// deadline/kind pairs, since the heap's internal index bookkeeping is not
// meaningful across a save/load boundary.
type schedulerSnapshot struct {
	Kind     EventKind
	Deadline uint64
}

func (s *Scheduler) snapshot() []schedulerSnapshot {
	out := make([]schedulerSnapshot, len(s.heap))
	for i, e := range s.heap {
		out[i] = schedulerSnapshot{Kind: e.Kind, Deadline: e.Deadline}
	}
	return out
}

func (s *Scheduler) restore(snaps []schedulerSnapshot) {
	s.Reset()
	for _, sn := range snaps {
		s.Schedule(sn.Kind, sn.Deadline)
	}
}
