package images

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/bizregistry/internal/models"
)

const (
	defaultPendingTTL        = 30 * time.Minute
	defaultPendingMaxEntries = 500
	defaultPendingMaxBytes   = 256 * 1024 * 1024
)

// PendingUpload is a validated image waiting to be submitted with its session.
type PendingUpload struct {
	ID        string                     `json:"id"`
	SessionID string                     `json:"sessionId"`
	Slot      Slot                       `json:"slot"`
	File      models.ImageFile           `json:"file"`
	Width     int                        `json:"width,omitempty"`
	Height    int                        `json:"height,omitempty"`
	Screening *models.ScreeningResult    `json:"screening,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
	ExpiresAt time.Time                  `json:"expiresAt"`
}

// PendingStore holds validated uploads per edit session until submit.
type PendingStore interface {
	// Put stores the upload and returns its id, or "" if it could not be stored.
	Put(upload PendingUpload) string
	Get(sessionID, uploadID string) (*PendingUpload, bool)
	// List returns a session's uploads for a slot, oldest first.
	List(sessionID string, slot Slot) []PendingUpload
	Delete(uploadID string)
	Clear(sessionID string)
}

// InMemoryPendingStore keeps uploads in memory, bounded by TTL, entry count
// and total bytes. The oldest entries are evicted first.
type InMemoryPendingStore struct {
	mu         sync.Mutex
	uploads    map[string]PendingUpload
	order      []string
	totalBytes int64
	ttl        time.Duration
	maxEntries int
	maxBytes   int64
	now        func() time.Time
}

// NewInMemoryPendingStore creates a pending store with the provided TTL.
func NewInMemoryPendingStore(ttl time.Duration) *InMemoryPendingStore {
	return NewInMemoryPendingStoreWithLimits(ttl, defaultPendingMaxEntries, defaultPendingMaxBytes)
}

// NewInMemoryPendingStoreWithLimits creates a pending store with explicit bounds.
func NewInMemoryPendingStoreWithLimits(ttl time.Duration, maxEntries int, maxBytes int64) *InMemoryPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultPendingMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = defaultPendingMaxBytes
	}

	return &InMemoryPendingStore{
		uploads:    make(map[string]PendingUpload),
		ttl:        ttl,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Put stores an upload and returns its id.
func (s *InMemoryPendingStore) Put(upload PendingUpload) string {
	size := upload.File.Size()
	if size > s.maxBytes {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupLocked(now)

	id := uuid.NewString()
	upload.ID = id
	upload.CreatedAt = now
	upload.ExpiresAt = now.Add(s.ttl)
	s.uploads[id] = upload
	s.order = append(s.order, id)
	s.totalBytes += size

	for len(s.order) > 0 && (len(s.uploads) > s.maxEntries || s.totalBytes > s.maxBytes) {
		s.removeLocked(s.order[0])
	}

	return id
}

// Get fetches an upload scoped to a session.
func (s *InMemoryPendingStore) Get(sessionID, uploadID string) (*PendingUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(s.now())

	upload, ok := s.uploads[uploadID]
	if !ok || upload.SessionID != sessionID {
		return nil, false
	}

	copyUpload := upload
	return &copyUpload, true
}

// List returns a session's uploads for one slot in insertion order.
func (s *InMemoryPendingStore) List(sessionID string, slot Slot) []PendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(s.now())

	var out []PendingUpload
	for _, id := range s.order {
		upload := s.uploads[id]
		if upload.SessionID == sessionID && upload.Slot == slot {
			out = append(out, upload)
		}
	}
	return out
}

// Delete removes an upload.
func (s *InMemoryPendingStore) Delete(uploadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(uploadID)
}

// Clear removes every upload belonging to a session.
func (s *InMemoryPendingStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, upload := range s.uploads {
		if upload.SessionID == sessionID {
			s.removeLocked(id)
		}
	}
}

func (s *InMemoryPendingStore) removeLocked(uploadID string) {
	upload, ok := s.uploads[uploadID]
	if !ok {
		return
	}
	delete(s.uploads, uploadID)
	s.totalBytes -= upload.File.Size()
	for i, id := range s.order {
		if id == uploadID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *InMemoryPendingStore) cleanupLocked(now time.Time) {
	for id, upload := range s.uploads {
		if now.After(upload.ExpiresAt) {
			s.removeLocked(id)
		}
	}
}

var _ PendingStore = (*InMemoryPendingStore)(nil)
