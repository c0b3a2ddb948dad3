package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/johnrirwin/bizregistry/internal/geo"
	"github.com/johnrirwin/bizregistry/internal/images"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/notify"
	"github.com/johnrirwin/bizregistry/internal/phone"
	"github.com/johnrirwin/bizregistry/internal/policy"
	"github.com/johnrirwin/bizregistry/internal/registryapi"
	"github.com/johnrirwin/bizregistry/internal/submission"
)

// State is where an edit session is in its lifecycle.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
	StateSignedOut  State = "signed_out"
	StateClosed     State = "closed"
)

var (
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrNotReady         = errors.New("session is not ready")
	ErrSessionClosed    = errors.New("session closed")
	ErrSignedOut        = errors.New("signed out")
	ErrFieldNotEditable = errors.New("field is not editable")
)

// Session is one user's edit of one business. It owns its form and its
// upload set; nothing is shared with other sessions.
type Session struct {
	svc        *Service
	id         string
	businessID int64
	logger     *logging.Logger

	mu sync.Mutex
	// generation is bumped by Close. Results of calls started under an older
	// generation are dropped.
	generation uint64
	state      State
	status     policy.Status
	editable   policy.FieldSet
	record     *models.BusinessRecord
	form       models.BusinessForm
	uploads    *images.UploadSet
}

func (s *Session) ID() string        { return s.id }
func (s *Session) BusinessID() int64 { return s.businessID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() policy.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// EditableFields returns a copy of the fields the user may change.
func (s *Session) EditableFields() policy.FieldSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return policy.NewFieldSet(s.editable.Names()...)
}

// Form returns a copy of the current form.
func (s *Session) Form() models.BusinessForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

// Record returns the record as last loaded, or nil.
func (s *Session) Record() *models.BusinessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Uploads returns the pending logo and carousel photos.
func (s *Session) Uploads() (*images.PendingUpload, []images.PendingUpload) {
	logo, _ := s.uploads.Logo()
	return logo, s.uploads.Carousel()
}

// Load fetches the record and seeds the form. The server's status replaces
// the hint the session was created with.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case StateSignedOut:
		s.mu.Unlock()
		return ErrSignedOut
	case StateSubmitting:
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.state = StateLoading
	gen := s.generation
	s.mu.Unlock()

	record, err := s.svc.transport.GetBusiness(ctx, s.businessID)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Dropping late load result")
		return ErrSessionClosed
	}
	if err != nil {
		if registryapi.IsUnauthorized(err) {
			s.state = StateSignedOut
			s.mu.Unlock()
			s.svc.signOut(ctx, err)
			return err
		}
		s.state = StateFailed
		s.mu.Unlock()
		s.svc.reportTransportError(ctx, "Loading business failed", err)
		return err
	}

	if raw := strings.TrimSpace(record.ValidationStatus); raw != "" {
		s.status = s.svc.classifier.Classify(raw)
	}
	s.editable = policy.EditableFields(s.status)
	s.record = record
	s.form = seedForm(record, s.svc.countryCode)
	s.state = StateReady
	status := s.status
	s.mu.Unlock()

	metrics.StatusClassifications.WithLabelValues(string(status)).Inc()
	s.logger.Info("Business loaded", logging.WithFields(map[string]interface{}{
		"raw_status": record.ValidationStatus,
		"status":     string(status),
	}))
	return nil
}

// seedForm copies a record into an editable form, with phone numbers
// stripped of their country code.
func seedForm(record *models.BusinessRecord, countryCode string) models.BusinessForm {
	form := models.BusinessForm{
		CommercialName:        record.CommercialName,
		Description:           record.Description,
		CountryCodePhone:      countryCode,
		Phone:                 phone.Strip(record.Phone, countryCode),
		CountryCode:           countryCode,
		AcceptsWhatsappOrders: record.AcceptsWhatsappOrders,
		WhatsappNumber:        phone.Strip(record.WhatsappNumber, countryCode),
		Website:               record.Website,
		Facebook:              record.Facebook,
		Instagram:             record.Instagram,
		Tiktok:                record.Tiktok,
		Email:                 record.Email,
		Address:               record.Address,
		ParishCommunitySector: record.ParishCommunitySector,
		GoogleMapsCoordinates: record.GoogleMapsCoordinates,
		DeliveryService:       record.DeliveryService,
		SalePlace:             record.SalePlace,
		Schedules:             record.Schedules.Clone(),
	}
	if record.Category != nil {
		form.CategoryID = record.Category.ID.String()
	}
	if form.DeliveryService == "" {
		form.DeliveryService = models.DeliveryNone
	}
	if form.SalePlace == "" {
		form.SalePlace = models.SalePlaceNone
	}
	return form
}

// Edit applies fn to a copy of the form. The change is rejected as a whole
// if fn fails or touches a field the current status locks.
func (s *Session) Edit(fn func(f *models.BusinessForm) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableStateLocked(); err != nil {
		return err
	}

	draft := s.form.Clone()
	if err := fn(&draft); err != nil {
		return err
	}
	if locked := s.editable.Outside(models.ChangedFields(s.form, draft)); len(locked) > 0 {
		names := make([]string, len(locked))
		for i, f := range locked {
			names[i] = string(f)
		}
		return fmt.Errorf("%w: %s", ErrFieldNotEditable, strings.Join(names, ", "))
	}
	s.form = draft
	return nil
}

func (s *Session) editableStateLocked() error {
	switch s.state {
	case StateReady:
		return nil
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateClosed:
		return ErrSessionClosed
	case StateSignedOut:
		return ErrSignedOut
	default:
		return ErrNotReady
	}
}

// Set changes one field from its text form.
func (s *Session) Set(field models.FieldName, value string) error {
	return s.Edit(func(f *models.BusinessForm) error {
		return setField(f, field, value)
	})
}

// SetCoordinatesText stores the coordinates text as typed and reports
// whether it parses. An invalid value is kept so the user can fix it; Submit
// refuses it.
func (s *Session) SetCoordinatesText(text string) error {
	if err := s.Edit(func(f *models.BusinessForm) error {
		f.GoogleMapsCoordinates = text
		return nil
	}); err != nil {
		return err
	}
	_, err := geo.Parse(text)
	return err
}

// ApplyLocation writes a picked point into the coordinates field.
func (s *Session) ApplyLocation(lat, lng float64) error {
	c := geo.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return fmt.Errorf("%v, %v: %w", lat, lng, geo.ErrOutOfRange)
	}
	return s.Edit(func(f *models.BusinessForm) error {
		f.GoogleMapsCoordinates = c.String()
		return nil
	})
}

// PickLocation opens picker at the current coordinates, or the default
// center when they do not parse, and applies the confirmed point.
func (s *Session) PickLocation(ctx context.Context, picker LocationPicker) error {
	s.mu.Lock()
	if err := s.editableStateLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.editable.Contains(models.FieldGoogleMapsCoordinates) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFieldNotEditable, models.FieldGoogleMapsCoordinates)
	}
	current, err := geo.Parse(s.form.GoogleMapsCoordinates)
	if err != nil {
		current = geo.DefaultCenter
	}
	gen := s.generation
	s.mu.Unlock()

	lat, lng, err := picker.Pick(ctx, current)
	if err != nil {
		return err
	}
	if s.stale(gen) {
		return ErrSessionClosed
	}
	return s.ApplyLocation(lat, lng)
}

// AddFiles validates a batch of images for slot and adds the accepted ones.
// Each rejected file produces a warning; a carousel batch that would exceed
// the cap is refused whole.
func (s *Session) AddFiles(ctx context.Context, slot images.Slot, files []models.ImageFile) ([]images.Result, error) {
	if slot != images.SlotLogo && slot != images.SlotCarousel {
		return nil, fmt.Errorf("slot %q cannot be edited in a business session", slot)
	}

	s.mu.Lock()
	if err := s.editableStateLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gen := s.generation
	s.mu.Unlock()

	results := s.svc.pipeline.ValidateBatch(ctx, slot, files)
	if s.stale(gen) {
		s.logger.Debug("Dropping late image validation", logging.WithField("files", len(files)))
		return results, ErrSessionClosed
	}

	limits := s.svc.pipeline.Limits()
	accepted := make([]images.Result, 0, len(results))
	for _, res := range results {
		if res.Accepted() {
			accepted = append(accepted, res)
			continue
		}
		s.svc.notifier.Notify(ctx, notify.Warning(res.Message(limits)))
	}

	ids, err := s.uploads.Apply(slot, accepted)
	if errors.Is(err, images.ErrUploadSetClosed) || (err == nil && s.stale(gen)) {
		s.logger.Debug("Dropping images for closed session", logging.WithField("files", len(files)))
		return results, ErrSessionClosed
	}
	if err != nil {
		switch {
		case errors.Is(err, images.ErrCarouselFull):
			s.svc.notifier.Notify(ctx, notify.Warning(
				fmt.Sprintf("You can upload at most %d carousel photos.", s.uploads.CarouselCap())))
		case errors.Is(err, images.ErrSingleLogo):
			s.svc.notifier.Notify(ctx, notify.Warning("Select a single logo image."))
		default:
			s.logger.Error("Storing uploads failed", logging.WithField("error", err.Error()))
			s.svc.notifier.Notify(ctx, notify.Danger("The images could not be stored. Please try again."))
		}
		return results, err
	}

	summary := fmt.Sprintf("%d file(s) accepted", len(ids))
	if len(ids) == 0 {
		s.svc.notifier.Notify(ctx, notify.Warning(summary))
	} else {
		s.svc.notifier.Notify(ctx, notify.Success(summary))
	}
	return results, nil
}

// RemoveUpload drops one pending image.
func (s *Session) RemoveUpload(uploadID string) error {
	s.mu.Lock()
	err := s.editableStateLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.uploads.Remove(uploadID)
}

// Validate runs the local checks Submit runs.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validateForm(s.form, s.editable, s.svc.countryCode).orNil()
}

// Submit validates the form and sends it in the shape the record's status
// requires. Only one submission may be in flight.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editableStateLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := validateForm(s.form, s.editable, s.svc.countryCode).orNil(); err != nil {
		s.mu.Unlock()
		s.svc.notifier.Notify(ctx, notify.Warning(userMessage(err)))
		return err
	}

	logo, carousel := s.uploads.Files()
	req, err := submission.Build(s.businessID, s.status, s.form.Clone(), submission.Attachments{Logo: logo, Carousel: carousel})
	if err != nil {
		s.mu.Unlock()
		s.svc.notifier.Notify(ctx, notify.Danger(userMessage(err)))
		return err
	}
	s.state = StateSubmitting
	gen := s.generation
	s.mu.Unlock()

	shape := string(req.Shape())
	s.logger.Info("Submitting business", logging.WithField("shape", shape))
	sendErr := s.svc.transport.Send(ctx, req)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Dropping late submit result")
		return ErrSessionClosed
	}

	if sendErr != nil {
		metrics.Submissions.WithLabelValues(shape, string(registryapi.KindOf(sendErr))).Inc()
		if registryapi.IsUnauthorized(sendErr) {
			s.state = StateSignedOut
			s.mu.Unlock()
			s.svc.signOut(ctx, sendErr)
			return sendErr
		}
		s.state = StateFailed
		s.mu.Unlock()

		s.svc.reportTransportError(ctx, "Submitting business failed", sendErr)

		s.mu.Lock()
		if gen == s.generation && s.state == StateFailed {
			s.state = StateReady
		}
		s.mu.Unlock()
		return sendErr
	}

	s.state = StateSuccess
	s.mu.Unlock()
	metrics.Submissions.WithLabelValues(shape, "ok").Inc()

	s.uploads.Clear()
	if js, ok := req.(*submission.JSONRequest); ok && js.DiscardedAttachments > 0 {
		s.svc.notifier.Notify(ctx, notify.Warning(fmt.Sprintf(
			"%d selected image(s) were not sent. Images can only be replaced while a business is rejected.",
			js.DiscardedAttachments)))
	}
	s.svc.notifier.Notify(ctx, notify.Success("Business updated successfully."))
	s.svc.router.Navigate(ctx, DetailRoute(s.businessID))
	return nil
}

// Close abandons the session. Calls still in flight finish without touching
// it.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.state = StateClosed
	s.mu.Unlock()

	s.uploads.Close()
	metrics.ActiveSessions.Dec()
	s.logger.Debug("Session closed")
}

func (s *Session) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}
