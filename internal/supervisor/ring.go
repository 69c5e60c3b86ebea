package supervisor

// ring is a fixed-capacity buffer of recent log lines. Not
// goroutine-safe; callers synchronize through the Manager mutex.
type ring struct {
	lines []string
	next  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{lines: make([]string, capacity)}
}

func (r *ring) append(line string) {
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
}

// tail returns the most recent n lines in arrival order.
func (r *ring) tail(n int) []string {
	if n > r.count {
		n = r.count
	}
	out := make([]string, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.lines)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}
