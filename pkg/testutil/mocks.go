// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

// MockVerifier is a test implementation of webapp.Verifier. Payloads are accepted or
// rejected according to what the test registered; anything else is rejected.
type MockVerifier struct {
	mu       sync.RWMutex
	accepted map[string]int64 // raw payload -> user ID
	errs     map[string]error
	calls    int
}

// NewMockVerifier creates a mock verifier that accepts nothing.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{
		accepted: make(map[string]int64),
		errs:     make(map[string]error),
	}
}

// Accept makes Verify succeed for raw with the given user ID.
func (m *MockVerifier) Accept(raw string, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted[raw] = userID
}

// Fail makes Verify return err for raw.
func (m *MockVerifier) Fail(raw string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[raw] = err
}

// Verify implements webapp.Verifier.
func (m *MockVerifier) Verify(_ context.Context, raw string) (*webapp.Session, error) {
	m.mu.Lock()
	m.calls++
	userID, ok := m.accepted[raw]
	err := m.errs[raw]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	data, parseErr := webapp.ParseInitData(raw)
	if parseErr != nil {
		return nil, parseErr
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown payload", webapp.ErrRejected)
	}
	return &webapp.Session{UserID: userID, InitData: data, VerifiedAt: Now()}, nil
}

// Calls returns how many times Verify was called.
func (m *MockVerifier) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// MockCache is a test implementation of webapp.Cache that ignores TTLs and records writes.
type MockCache struct {
	store *MemoryStore[string, []byte]
	mu    sync.Mutex
	ttls  map[string]time.Duration
}

// NewMockCache creates an empty cache.
func NewMockCache() *MockCache {
	return &MockCache{store: NewMemoryStore[string, []byte](), ttls: make(map[string]time.Duration)}
}

// Get implements webapp.Cache.
func (c *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	return v, ok, nil
}

// Set implements webapp.Cache.
func (c *MockCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls[key] = ttl
	return nil
}

// TTL returns the TTL the last Set used for key.
func (c *MockCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// Count returns the number of cached entries.
func (c *MockCache) Count() int {
	return c.store.Count()
}

// MemoryStore is a generic in-memory store for testing.
type MemoryStore[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{items: make(map[K]V)}
}

// Set stores an item.
func (s *MemoryStore[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Get retrieves an item.
func (s *MemoryStore[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Delete removes an item.
func (s *MemoryStore[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Count returns the number of items.
func (s *MemoryStore[K, V]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// InitDataOptions controls the payload built by InitData.
type InitDataOptions struct {
	UserID       int64
	FirstName    string
	LanguageCode string
	StartParam   string
	AuthDate     time.Time
}

// InitData builds a well-formed raw initData payload with a random hash. The hash is not a
// valid signature; only shape checks will accept it.
func InitData(opts InitDataOptions) string {
	if opts.UserID == 0 {
		opts.UserID = 1
	}
	if opts.FirstName == "" {
		opts.FirstName = "Test"
	}
	if opts.AuthDate.IsZero() {
		opts.AuthDate = Now()
	}

	user, err := json.Marshal(webapp.User{
		ID:           opts.UserID,
		FirstName:    opts.FirstName,
		LanguageCode: webapp.LanguageCode(opts.LanguageCode),
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal user: %v", err))
	}

	v := url.Values{}
	v.Set("query_id", GenerateID())
	v.Set("user", string(user))
	v.Set("auth_date", strconv.FormatInt(opts.AuthDate.Unix(), 10))
	v.Set("hash", GenerateID())
	if opts.StartParam != "" {
		v.Set("start_param", opts.StartParam)
	}
	return v.Encode()
}

// GenerateID generates a new UUID string.
func GenerateID() string {
	return uuid.NewString()
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}
