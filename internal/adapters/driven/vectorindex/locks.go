package vectorindex

import (
	"sort"
	"sync"
)

// docLocks serialises writers per document name.
// Entries are dropped once no goroutine holds or waits for them.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*docLock)}
}

// lock acquires the locks for names in sorted order and returns the release func.
func (l *docLocks) lock(names ...string) func() {
	names = uniqueSorted(names)

	held := make([]*docLock, 0, len(names))
	for _, name := range names {
		l.mu.Lock()
		dl, ok := l.locks[name]
		if !ok {
			dl = &docLock{}
			l.locks[name] = dl
		}
		dl.refs++
		l.mu.Unlock()

		dl.mu.Lock()
		held = append(held, dl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, names[i])
			}
			l.mu.Unlock()
		}
	}
}

func (l *docLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
