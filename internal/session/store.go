package session

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 32

// Store keeps one Session per identity key with idle-based eviction.
// Keys are spread over a fixed set of shards so turns for unrelated
// visitors never contend on the same lock.
type Store struct {
	ttl        time.Duration
	sweepEvery time.Duration
	lastSweep  atomic.Int64
	shards     [shardCount]shard
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a store evicting sessions idle longer than ttl.
func NewStore(ttl time.Duration) *Store {
	sweepEvery := ttl / 10
	if sweepEvery < 30*time.Second {
		sweepEvery = 30 * time.Second
	}
	s := &Store{ttl: ttl, sweepEvery: sweepEvery}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*Session)
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.shards[h.Sum32()%shardCount]
}

// Acquire returns the session for key, creating a zero-valued one on
// first use, locked for exclusive use by the calling turn. The caller
// must Release it. Acquire never fails.
func (s *Store) Acquire(key string) *Session {
	sh := s.shardFor(key)
	for {
		sh.mu.Lock()
		sess, ok := sh.sessions[key]
		if !ok {
			sess = newSession(key)
			sh.sessions[key] = sess
		}
		sh.mu.Unlock()

		sess.mu.Lock()
		if !sess.evicted {
			return sess
		}
		// Lost a race with the sweep; the map entry is gone, go create
		// a fresh session.
		sess.mu.Unlock()
	}
}

// MaybeSweep runs Sweep if enough time has passed since the last one.
// The non-sweeping path costs a single atomic load, so it is safe to
// call before every turn.
func (s *Store) MaybeSweep(now time.Time) {
	last := s.lastSweep.Load()
	if now.UnixNano()-last < s.sweepEvery.Nanoseconds() {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	s.Sweep(now)
}

// Sweep removes every session idle longer than the TTL. Sessions locked
// by an in-flight turn are skipped; they get another chance next sweep.
// Eviction is silent and has no side effects on draft state.
func (s *Store) Sweep(now time.Time) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, sess := range sh.sessions {
			if !sess.mu.TryLock() {
				continue
			}
			if sess.Expired(now, s.ttl) {
				sess.evicted = true
				delete(sh.sessions, key)
			}
			sess.mu.Unlock()
		}
		sh.mu.Unlock()
	}
}

// Len returns the number of live sessions across all shards.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}
