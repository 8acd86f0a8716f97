// Package cache is a two-tier cache: an in-process map in front of an
// optional durable key/value store. The cache is best effort. Durable tier
// failures are logged and behave like a miss, never like an error.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

// DurableStore is the persistent tier. Keys are already namespaced by the
// implementation, so ListKeys only returns keys owned by this cache.
type DurableStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	RemoveMany(ctx context.Context, keys []string) error
}

// Entry is shared by both tiers.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
	TTLMs     int64           `json:"ttlMs"`
}

func (e Entry) valid(now time.Time) bool {
	return now.UnixMilli()-e.CreatedAt < e.TTLMs
}

type setOptions struct {
	ttl     time.Duration
	persist bool
}

type Option func(*setOptions)

func WithTTL(ttl time.Duration) Option {
	return func(o *setOptions) { o.ttl = ttl }
}

// Persist also writes the entry to the durable tier.
func Persist() Option {
	return func(o *setOptions) { o.persist = true }
}

type Stats struct {
	Entries int      `json:"entries"`
	Keys    []string `json:"keys"`
	Hits    int64    `json:"hits"`
	Misses  int64    `json:"misses"`
}

type Store struct {
	mu         sync.Mutex
	memory     map[string]Entry
	durable    DurableStore
	defaultTTL time.Duration
	hits       int64
	misses     int64

	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// New builds a cache. durable may be nil for a memory-only cache.
func New(durable DurableStore, defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store{
		memory:     make(map[string]Entry),
		durable:    durable,
		defaultTTL: defaultTTL,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
}

// Get decodes the cached value for key into dest and reports whether it was found.
// Expired entries are treated as absent.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	s.mu.Lock()
	entry, ok := s.memory[key]
	if ok && !entry.valid(s.now()) {
		delete(s.memory, key)
		ok = false
	}
	s.mu.Unlock()

	if ok {
		if err := json.Unmarshal(entry.Data, dest); err == nil {
			s.count(true)
			return true
		}
		s.mu.Lock()
		delete(s.memory, key)
		s.mu.Unlock()
	}

	if s.durable == nil {
		s.count(false)
		return false
	}

	raw, found, err := s.durable.Get(ctx, key)
	if err != nil {
		log.Printf("cache: durable get %s: %v", key, err)
		s.count(false)
		return false
	}
	if !found {
		s.count(false)
		return false
	}

	var stored Entry
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("cache: corrupt durable entry %s: %v", key, err)
		s.removeDurable(ctx, key)
		s.count(false)
		return false
	}
	if !stored.valid(s.now()) {
		s.removeDurable(ctx, key)
		s.count(false)
		return false
	}
	if err := json.Unmarshal(stored.Data, dest); err != nil {
		s.count(false)
		return false
	}

	s.mu.Lock()
	s.memory[key] = stored
	s.mu.Unlock()
	s.count(true)
	return true
}

// Set always writes the memory tier and writes the durable tier only when
// Persist is given. Without Persist any durable entry for key is dropped.
func (s *Store) Set(ctx context.Context, key string, value any, opts ...Option) {
	o := setOptions{ttl: s.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	entry := Entry{
		Data:      data,
		CreatedAt: s.now().UnixMilli(),
		TTLMs:     o.ttl.Milliseconds(),
	}

	s.mu.Lock()
	s.memory[key] = entry
	s.mu.Unlock()

	if s.durable == nil {
		return
	}
	if !o.persist {
		// A durable copy from an earlier persisted Set would outlive this value.
		s.removeDurable(ctx, key)
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache: encode entry %s: %v", key, err)
		return
	}
	if err := s.durable.Set(ctx, key, string(raw)); err != nil {
		log.Printf("cache: durable set %s: %v", key, err)
	}
}

func (s *Store) Invalidate(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.memory, key)
	s.mu.Unlock()

	s.removeDurable(ctx, key)
}

// InvalidatePattern removes every key containing substr from both tiers.
func (s *Store) InvalidatePattern(ctx context.Context, substr string) {
	s.mu.Lock()
	for key := range s.memory {
		if strings.Contains(key, substr) {
			delete(s.memory, key)
		}
	}
	s.mu.Unlock()

	if s.durable == nil {
		return
	}
	keys, err := s.durable.ListKeys(ctx)
	if err != nil {
		log.Printf("cache: durable list keys: %v", err)
		return
	}
	var matched []string
	for _, key := range keys {
		if strings.Contains(key, substr) {
			matched = append(matched, key)
		}
	}
	s.removeManyDurable(ctx, matched)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.memory = make(map[string]Entry)
	s.mu.Unlock()

	if s.durable == nil {
		return
	}
	keys, err := s.durable.ListKeys(ctx)
	if err != nil {
		log.Printf("cache: durable list keys: %v", err)
		return
	}
	s.removeManyDurable(ctx, keys)
}

// Sweep evicts expired memory entries and returns how many were removed.
// The durable tier is only cleaned lazily on Get.
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.memory {
		if !entry.valid(now) {
			delete(s.memory, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Stop is called.
func (s *Store) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTTL
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("cache: swept %d expired entries", n)
				}
			}
		}
	}()
}

func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.memory))
	for key := range s.memory {
		keys = append(keys, key)
	}
	return Stats{
		Entries: len(s.memory),
		Keys:    keys,
		Hits:    s.hits,
		Misses:  s.misses,
	}
}

func (s *Store) count(hit bool) {
	s.mu.Lock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()
}

func (s *Store) removeDurable(ctx context.Context, key string) {
	if s.durable == nil {
		return
	}
	if err := s.durable.Remove(ctx, key); err != nil {
		log.Printf("cache: durable remove %s: %v", key, err)
	}
}

func (s *Store) removeManyDurable(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.durable.RemoveMany(ctx, keys); err != nil {
		log.Printf("cache: durable remove %d keys: %v", len(keys), err)
	}
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result. Concurrent misses for the same key each call fetch.
func GetOrFetch[T any](ctx context.Context, s *Store, key string, fetch func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var cached T
	if s.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.Set(ctx, key, value, opts...)
	return value, nil
}

// BatchFetch serves hits from the cache and calls fetch once with every
// missing key. Keys the fetcher does not return are left out of the result.
func BatchFetch[T any](ctx context.Context, s *Store, keys []string, fetch func(ctx context.Context, missing []string) (map[string]T, error), opts ...Option) (map[string]T, error) {
	result := make(map[string]T, len(keys))
	var missing []string

	for _, key := range keys {
		var cached T
		if s.Get(ctx, key, &cached) {
			result[key] = cached
			continue
		}
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for key, value := range fetched {
		s.Set(ctx, key, value, opts...)
		result[key] = value
	}
	return result, nil
}
