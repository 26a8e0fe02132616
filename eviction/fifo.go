package eviction

// fifo evicts in first-seen order and ignores reads.
type fifo struct {
	// queue holds keys oldest first.
	queue []string
	set   map[string]struct{}
}

func newFIFO() *fifo {
	return &fifo{set: make(map[string]struct{})}
}

func (f *fifo) OnGet(string) {}

func (f *fifo) OnPut(k string) {
	if _, ok := f.set[k]; ok {
		return
	}
	f.queue = append(f.queue, k)
	f.set[k] = struct{}{}
}

func (f *fifo) Evict(pinned func(string) bool) (string, bool) {
	for i, k := range f.queue {
		if pinned != nil && pinned(k) {
			continue
		}
		f.queue = append(f.queue[:i:i], f.queue[i+1:]...)
		delete(f.set, k)
		return k, true
	}
	return "", false
}

func (f *fifo) Len() int { return len(f.set) }
