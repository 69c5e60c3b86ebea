package worker

import "geocrawl/internal/scope"

// Entry is one frontier item.
type Entry struct {
	URL      string
	Depth    int
	Referrer string
}

// Frontier is the FIFO crawl queue with at-most-once admission by
// normalized URL. It is owned by the coordinator loop and needs no
// locking.
type Frontier struct {
	queue   []Entry
	visited map[string]struct{}
}

func NewFrontier() *Frontier {
	return &Frontier{visited: map[string]struct{}{}}
}

// Push admits a URL unless its normalized form was seen before.
// Returns whether it was enqueued.
func (f *Frontier) Push(url string, depth int, referrer string) bool {
	key := scope.Normalize(url)
	if _, seen := f.visited[key]; seen {
		return false
	}
	f.visited[key] = struct{}{}
	f.queue = append(f.queue, Entry{URL: url, Depth: depth, Referrer: referrer})
	return true
}

// Requeue puts an already-admitted entry back at the head, used when
// its host is at the in-flight cap.
func (f *Frontier) Requeue(e Entry) {
	f.queue = append([]Entry{e}, f.queue...)
}

// Pop removes the oldest entry.
func (f *Frontier) Pop() (Entry, bool) {
	if len(f.queue) == 0 {
		return Entry{}, false
	}
	e := f.queue[0]
	f.queue = f.queue[1:]
	return e, true
}

func (f *Frontier) Len() int { return len(f.queue) }

// VisitedCount is the number of distinct normalized URLs ever admitted.
func (f *Frontier) VisitedCount() int { return len(f.visited) }
