package images

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/johnrirwin/bizregistry/internal/models"
)

var (
	// ErrCarouselFull is returned when a batch would push the carousel past its cap.
	ErrCarouselFull = errors.New("carousel is full")
	// ErrSingleLogo is returned when more than one file is offered for the logo.
	ErrSingleLogo = errors.New("only one logo may be selected")
	// ErrPendingUploadNotFound is returned when an upload is missing or expired.
	ErrPendingUploadNotFound = errors.New("pending upload not found")
	// ErrStoreUnavailable is returned when the pending store refused an upload.
	ErrStoreUnavailable = errors.New("pending upload store unavailable")
	// ErrUploadSetClosed is returned by Apply once the session is torn down.
	ErrUploadSetClosed = errors.New("upload set closed")
)

// UploadSet is one session's view of the pending store: at most one logo and
// a capped list of carousel photos. Apply calls are serialized so the cap
// check and the puts that follow it see the same carousel.
type UploadSet struct {
	sessionID   string
	store       PendingStore
	carouselCap int

	applyMu sync.Mutex
	closed  atomic.Bool
}

// NewUploadSet binds a session to a pending store.
func NewUploadSet(sessionID string, store PendingStore, carouselCap int) *UploadSet {
	if carouselCap <= 0 {
		carouselCap = DefaultLimits().CarouselCap
	}
	return &UploadSet{
		sessionID:   sessionID,
		store:       store,
		carouselCap: carouselCap,
	}
}

// CarouselCap is the maximum number of carousel photos per session.
func (u *UploadSet) CarouselCap() int {
	return u.carouselCap
}

// Apply stores accepted results in the given slot and returns the new ids.
// A logo replaces any existing logo. A carousel batch is stored whole or not
// at all.
func (u *UploadSet) Apply(slot Slot, accepted []Result) ([]string, error) {
	if len(accepted) == 0 {
		return nil, nil
	}

	u.applyMu.Lock()
	defer u.applyMu.Unlock()

	if u.closed.Load() {
		return nil, ErrUploadSetClosed
	}

	var (
		ids []string
		err error
	)
	switch slot {
	case SlotLogo:
		ids, err = u.applyLogo(accepted)
	case SlotCarousel:
		ids, err = u.applyCarousel(accepted)
	default:
		return nil, fmt.Errorf("slot %q does not hold pending uploads", slot)
	}
	if err != nil {
		return nil, err
	}

	// Close may have cleared the store while we were writing.
	if u.closed.Load() {
		u.drop(ids)
		return nil, ErrUploadSetClosed
	}
	return ids, nil
}

func (u *UploadSet) applyLogo(accepted []Result) ([]string, error) {
	if len(accepted) > 1 {
		return nil, ErrSingleLogo
	}
	id, err := u.put(SlotLogo, accepted[0])
	if err != nil {
		return nil, err
	}
	for _, old := range u.store.List(u.sessionID, SlotLogo) {
		if old.ID != id {
			u.store.Delete(old.ID)
		}
	}
	return []string{id}, nil
}

func (u *UploadSet) applyCarousel(accepted []Result) ([]string, error) {
	existing := len(u.store.List(u.sessionID, SlotCarousel))
	if existing+len(accepted) > u.carouselCap {
		return nil, fmt.Errorf("%w: at most %d photos are allowed, %d already selected",
			ErrCarouselFull, u.carouselCap, existing)
	}
	ids := make([]string, 0, len(accepted))
	for _, res := range accepted {
		id, err := u.put(SlotCarousel, res)
		if err != nil {
			u.drop(ids)
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (u *UploadSet) drop(ids []string) {
	for _, id := range ids {
		u.store.Delete(id)
	}
}

func (u *UploadSet) put(slot Slot, res Result) (string, error) {
	id := u.store.Put(PendingUpload{
		SessionID: u.sessionID,
		Slot:      slot,
		File:      res.File,
		Width:     res.Width,
		Height:    res.Height,
		Screening: res.Screening,
	})
	if id == "" {
		return "", ErrStoreUnavailable
	}
	return id, nil
}

// Logo returns the pending logo, if any.
func (u *UploadSet) Logo() (*PendingUpload, bool) {
	logos := u.store.List(u.sessionID, SlotLogo)
	if len(logos) == 0 {
		return nil, false
	}
	latest := logos[len(logos)-1]
	return &latest, true
}

// Carousel returns the pending carousel photos, oldest first.
func (u *UploadSet) Carousel() []PendingUpload {
	return u.store.List(u.sessionID, SlotCarousel)
}

// Files returns the raw files to attach to a submission.
func (u *UploadSet) Files() (*models.ImageFile, []models.ImageFile) {
	var logo *models.ImageFile
	if l, ok := u.Logo(); ok {
		f := l.File
		logo = &f
	}
	carousel := u.Carousel()
	files := make([]models.ImageFile, 0, len(carousel))
	for _, c := range carousel {
		files = append(files, c.File)
	}
	return logo, files
}

// Count returns the number of pending files across both slots.
func (u *UploadSet) Count() int {
	return len(u.store.List(u.sessionID, SlotLogo)) + len(u.store.List(u.sessionID, SlotCarousel))
}

// Remove drops one pending upload owned by this session.
func (u *UploadSet) Remove(uploadID string) error {
	if _, ok := u.store.Get(u.sessionID, uploadID); !ok {
		return ErrPendingUploadNotFound
	}
	u.store.Delete(uploadID)
	return nil
}

// Clear drops every pending upload of the session.
func (u *UploadSet) Clear() {
	u.store.Clear(u.sessionID)
}

// Close clears the set and makes later Apply calls fail. It does not wait
// for an Apply in progress; that call removes what it stored instead.
func (u *UploadSet) Close() {
	u.closed.Store(true)
	u.store.Clear(u.sessionID)
}
