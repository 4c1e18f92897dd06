package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/getmockd/netty/internal/id"
)

// DefaultCapacity is used by NewMemoryStore for non-positive capacities.
const DefaultCapacity = 1000

// subscriberBuffer is the channel size handed to each subscriber.
const subscriberBuffer = 64

// MemoryStore is a Store backed by a bounded in-memory buffer.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int

	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

var _ SubscribableStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store keeping at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, maxEntries),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records entry, assigning an ID and timestamp when missing.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	if entry.ID == "" {
		entry.ID = id.ULID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// FIFO eviction
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// slow subscriber, drop
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns entries newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil && !filter.matches(entry) {
			continue
		}
		result = append(result, entry)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

func (f *Filter) matches(entry *Entry) bool {
	if f.Method != "" && !strings.EqualFold(entry.Method, f.Method) {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(entry.Path, f.Path) {
		return false
	}
	if f.StatusCode != 0 && entry.ResponseStatus != f.StatusCode {
		return false
	}
	if f.HasError != nil && *f.HasError != (entry.Error != "") {
		return false
	}
	return true
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.maxEntries)
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a subscriber for new entries.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	sub := make(Subscriber, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, sub)
			s.subMu.Unlock()
			close(sub)
		})
	}
}
