package paginate

import "github.com/researchaccelerator-hub/innertube-miner/model/youtube"

// initialItems bounds the preallocation, never the capacity.
const initialItems = 64

// Accumulator is an insertion-ordered, deduplicating, capped collection of
// videos. It belongs to a single request and is not safe for concurrent use.
type Accumulator struct {
	items    []youtube.Video
	seen     map[string]struct{}
	capacity int
}

// NewAccumulator returns an accumulator holding at most capacity videos.
// Ids in exclude are treated as already seen, which keeps a video from being
// listed as related to itself. A capacity of zero or less is always full.
func NewAccumulator(capacity int, exclude ...string) *Accumulator {
	if capacity < 0 {
		capacity = 0
	}
	seen := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}
	return &Accumulator{
		items:    make([]youtube.Video, 0, min(capacity, initialItems)),
		seen:     seen,
		capacity: capacity,
	}
}

// Insert appends v unless its id was seen before or the accumulator is full.
// It reports whether v was added.
func (a *Accumulator) Insert(v youtube.Video) bool {
	if a.Full() {
		return false
	}
	if _, dup := a.seen[v.ID]; dup {
		return false
	}
	a.seen[v.ID] = struct{}{}
	a.items = append(a.items, v)
	return true
}

// Len returns the number of videos collected.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Full reports whether the capacity has been reached.
func (a *Accumulator) Full() bool {
	return len(a.items) >= a.capacity
}

// Items returns a copy of the collected videos in insertion order.
func (a *Accumulator) Items() []youtube.Video {
	out := make([]youtube.Video, len(a.items))
	copy(out, a.items)
	return out
}
