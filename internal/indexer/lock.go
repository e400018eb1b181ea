package indexer

import "sync/atomic"

// IndexLock guards ingest runs with try-acquire semantics, so a second
// request can be refused instead of queued behind a long ingest.
type IndexLock struct {
	state atomic.Int32 // 0 = free, 1 = held
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Held reports whether an ingest currently holds the lock
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.state.Store(0)
}
