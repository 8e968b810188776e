package maven

import "sync"

// pathLocks serializes work on one local repository path while letting
// different paths proceed in parallel. Entries are dropped once unused.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	sync.Mutex
	waiters int
}

func (p *pathLocks) lock(path string) (unlock func()) {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*pathLock)
	}
	l := p.locks[path]
	if l == nil {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.waiters++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		if l.waiters--; l.waiters == 0 {
			delete(p.locks, path)
		}
		p.mu.Unlock()
	}
}
