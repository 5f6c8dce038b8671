// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sync"
	"time"
)

// entry is a cached record with its expiration time.
type entry struct {
	info       TranscodeInfo
	expiration time.Time
}

func (e *entry) isExpired() bool {
	return !e.expiration.IsZero() && time.Now().After(e.expiration)
}

// MemoryStore is an in-process implementation of Store used in tests and in
// single-node setups without Redis. Packaging queues are plain slices.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	queues  map[string][][]byte
	janitor *janitor
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval
// starts a background goroutine that drops expired entries.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		queues:  make(map[string][][]byte),
	}
	if cleanupInterval > 0 {
		s.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go s.janitor.run(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (TranscodeInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.isExpired() {
		return TranscodeInfo{}, false, nil
	}
	return e.info, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, info TranscodeInfo, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = newEntry(info, ttl)
	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key string, info TranscodeInfo, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !e.isExpired() {
		return false, nil
	}
	s.entries[key] = newEntry(info, ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) EnqueuePackaging(_ context.Context, queue string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[queue] = append(s.queues[queue], payload)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Queue returns the messages enqueued on the named queue, oldest first.
func (s *MemoryStore) Queue(queue string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.queues[queue]))
	copy(out, s.queues[queue])
	return out
}

// Stop halts the background cleanup goroutine.
func (s *MemoryStore) Stop() {
	if s.janitor != nil {
		s.janitor.stop <- struct{}{}
	}
}

func (s *MemoryStore) deleteExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.isExpired() {
			delete(s.entries, key)
		}
	}
}

func newEntry(info TranscodeInfo, ttl time.Duration) *entry {
	e := &entry{info: info}
	if ttl > 0 {
		e.expiration = time.Now().Add(ttl)
	}
	return e
}

// janitor periodically drops expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(s *MemoryStore) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-j.stop:
			return
		}
	}
}
