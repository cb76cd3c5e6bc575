// Package memory holds in-process adapters.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// ArtifactStore implements ports.ArtifactStore in memory. Handles are random
// UUIDs; a revoked handle is gone for good.
type ArtifactStore struct {
	mu    sync.RWMutex
	files map[string]*domain.StoredArtifact
}

// NewArtifactStore creates an empty store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{files: make(map[string]*domain.StoredArtifact)}
}

// Put stores a copy of data and returns its handle.
func (s *ArtifactStore) Put(_ context.Context, filename, contentType string, data []byte) (string, error) {
	handle := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.files[handle] = &domain.StoredArtifact{
		Handle:      handle,
		Filename:    filename,
		ContentType: contentType,
		Data:        buf,
	}
	s.mu.Unlock()
	return handle, nil
}

// Get returns the file behind handle.
func (s *ArtifactStore) Get(_ context.Context, handle string) (*domain.StoredArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[handle]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return f, nil
}

// Revoke drops the handle and reports whether it was live.
func (s *ArtifactStore) Revoke(_ context.Context, handle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[handle]; !ok {
		return false, nil
	}
	delete(s.files, handle)
	return true, nil
}

// Len returns the number of live handles.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
