package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// --- Mock Locator ---

type mockLocator struct {
	locateFn func(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error)
}

func (m *mockLocator) Locate(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error) {
	if m.locateFn != nil {
		return m.locateFn(ctx, opts)
	}
	return domain.GeoPoint{}, errors.New("no position")
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	mu       sync.Mutex
	calls    []string
	searchFn func(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockGeocoder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// --- Mock Snapper ---

type mockSnapper struct {
	snapFn func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error)
}

func (m *mockSnapper) Snap(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
	if m.snapFn != nil {
		return m.snapFn(ctx, req)
	}
	return &domain.SnapResult{}, nil
}

// --- Mock Renderer ---

type mockRenderer struct {
	renderFn func(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) ([]byte, error)
}

func (m *mockRenderer) Render(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) ([]byte, error) {
	if m.renderFn != nil {
		return m.renderFn(ctx, elements, surface)
	}
	return []byte("\x89PNG"), nil
}

// --- Mock TrackCodec ---

type mockCodec struct {
	decodeFn func(data []byte) (domain.GeoPath, error)
}

func (m *mockCodec) Encode(name string, path domain.GeoPath) ([]byte, error) {
	return []byte(fmt.Sprintf("<gpx name=%q points=%d/>", name, len(path))), nil
}

func (m *mockCodec) Decode(data []byte) (domain.GeoPath, error) {
	if m.decodeFn != nil {
		return m.decodeFn(data)
	}
	return domain.GeoPath{}, nil
}

// --- Mock ArtifactStore ---

type mockStore struct {
	mu      sync.Mutex
	seq     int
	live    map[string]*domain.StoredArtifact
	revoked map[string]int
	putErr  error
}

func newMockStore() *mockStore {
	return &mockStore{live: map[string]*domain.StoredArtifact{}, revoked: map[string]int{}}
}

func (m *mockStore) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.seq++
	h := fmt.Sprintf("h%d", m.seq)
	m.live[h] = &domain.StoredArtifact{Handle: h, Filename: filename, ContentType: contentType, Data: data}
	return h, nil
}

func (m *mockStore) Get(ctx context.Context, handle string) (*domain.StoredArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.live[handle]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return a, nil
}

func (m *mockStore) Revoke(ctx context.Context, handle string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[handle]++
	if _, ok := m.live[handle]; !ok {
		return false, nil
	}
	delete(m.live, handle)
	return true, nil
}

func (m *mockStore) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func (m *mockStore) RevokeCount(handle string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[handle]
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func (m *mockPublisher) Last(eventType string) (domain.SessionEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == eventType {
			return m.events[i], true
		}
	}
	return domain.SessionEvent{}, false
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("valkey nil message")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
