package eviction

// lruNode is one tracked key in the recency list.
type lruNode struct {
	key   string
	newer *lruNode
	older *lruNode
}

// lru keeps keys in a doubly-linked list, most recent at head, least recent at tail.
type lru struct {
	nodes map[string]*lruNode
	head  *lruNode
	tail  *lruNode
}

func newLRU() *lru {
	return &lru{nodes: make(map[string]*lruNode)}
}

func (l *lru) OnGet(k string) {
	if n, ok := l.nodes[k]; ok && n != l.head {
		l.unlink(n)
		l.pushHead(n)
	}
}

func (l *lru) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		return
	}
	n := &lruNode{key: k}
	l.nodes[k] = n
	l.pushHead(n)
}

// Evict walks from the least recently used end towards the head and takes the first
// key that is not pinned.
func (l *lru) Evict(pinned func(string) bool) (string, bool) {
	for n := l.tail; n != nil; n = n.newer {
		if pinned != nil && pinned(n.key) {
			continue
		}
		l.unlink(n)
		delete(l.nodes, n.key)
		return n.key, true
	}
	return "", false
}

func (l *lru) Len() int { return len(l.nodes) }

func (l *lru) pushHead(n *lruNode) {
	n.newer = nil
	n.older = l.head
	if l.head != nil {
		l.head.newer = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) unlink(n *lruNode) {
	if n.newer != nil {
		n.newer.older = n.older
	} else {
		l.head = n.older
	}
	if n.older != nil {
		n.older.newer = n.newer
	} else {
		l.tail = n.newer
	}
	n.newer, n.older = nil, nil
}
