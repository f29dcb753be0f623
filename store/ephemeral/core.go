package ephemeral

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/utils"
)

var (
	ErrTooLong   = errors.New("key too long")
	ErrStoreFull = errors.New("ephemeral store full")
)

const (
	maxKeyLength    = 254
	maxStoreSize    = 10_000
	cleanupInterval = time.Minute
)

type item struct {
	value     string
	expiresAt time.Time
}

// coreStore is a bounded map of expiring string values.
type coreStore struct {
	data map[string]*item
	mu   sync.Mutex
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func newCoreStore() *coreStore {
	store := &coreStore{
		data: make(map[string]*item),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go store.cleanup(cleanupInterval)

	logging.DebugLog("Ephemeral store initialized")
	return store
}

func (s *coreStore) set(key, value string, ttl time.Duration) error {
	if len(key) > maxKeyLength {
		logging.DebugLog("Store set failed: key too long [%s] (length: %d)", utils.HashEmail(key), len(key))
		return ErrTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// replacing an existing key never grows the store
	if _, exists := s.data[key]; !exists && len(s.data) >= maxStoreSize {
		logging.WarnLog("Store set failed: store full (size: %d)", len(s.data))
		return ErrStoreFull
	}

	s.data[key] = &item{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	logging.DebugLog("Store set success [%s] ttl=%v", utils.HashEmail(key), ttl)
	return nil
}

func (s *coreStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.data[key]
	if !ok || s.now().After(it.expiresAt) {
		return "", false
	}
	return it.value, true
}

// takeIf removes key and reports true when its live value satisfies match.
// A failed match leaves the entry in place.
func (s *coreStore) takeIf(key string, match func(string) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.data[key]
	if !ok {
		return false
	}
	if s.now().After(it.expiresAt) {
		delete(s.data, key)
		return false
	}
	if !match(it.value) {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *coreStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.data[key]; existed {
		delete(s.data, key)
		logging.DebugLog("Store delete success [%s]", utils.HashEmail(key))
	}
}

func (s *coreStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// ConstantTimeEquals compares two strings in constant time to prevent timing attacks.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *coreStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for k, v := range s.data {
		if now.After(v.expiresAt) {
			delete(s.data, k)
			expired++
		}
	}
	return expired
}

func (s *coreStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logging.InfoLog("Store cleanup: removed %d expired items (current size: %d)", n, s.len())
			}
		}
	}
}

func (s *coreStore) close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
