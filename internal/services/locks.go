package services

import "sync"

const lockStripes = 64

// postLocks serialises read-modify-write sequences per post inside this process.
// Posts sharing a stripe also share a lock, which only costs throughput.
type postLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *postLocks) Lock(postID uint) func() {
	m := &l.stripes[postID%lockStripes]
	m.Lock()
	return m.Unlock
}
