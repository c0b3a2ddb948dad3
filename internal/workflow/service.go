// Package workflow runs business edit sessions: it loads a record, applies
// the editability policy, collects images and submits the result in the
// shape the record's moderation state requires.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/bizregistry/internal/auth"
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

// Transport is the part of the registry API the workflow calls.
type Transport interface {
	GetBusiness(ctx context.Context, id int64) (*models.BusinessRecord, error)
	Send(ctx context.Context, req submission.OutboundRequest) error
	CreateBusiness(ctx context.Context, payload models.CreateBusinessPayload, logo *models.ImageFile, carousel []models.ImageFile) error
	RequestDeletion(ctx context.Context, id int64, reason, justification string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListMyBusinesses(ctx context.Context, category string, page, size int) (*registryapi.Page, error)
}

// Deps are the collaborators of a Service. Transport, Credentials, Notifier
// and Router are required.
type Deps struct {
	Transport   Transport
	Credentials auth.CredentialProvider
	Notifier    notify.Notifier
	Router      Router
	Pipeline    *images.Pipeline
	Store       images.PendingStore
	Classifier  *policy.Classifier
	CountryCode string
	Logger      *logging.Logger
}

// Service creates edit sessions and runs the one-shot registry actions.
type Service struct {
	transport   Transport
	creds       auth.CredentialProvider
	notifier    notify.Notifier
	router      Router
	pipeline    *images.Pipeline
	store       images.PendingStore
	classifier  *policy.Classifier
	countryCode string
	logger      *logging.Logger
	now         func() time.Time
}

// NewService creates a workflow service.
func NewService(deps Deps) *Service {
	s := &Service{
		transport:   deps.Transport,
		creds:       deps.Credentials,
		notifier:    deps.Notifier,
		router:      deps.Router,
		pipeline:    deps.Pipeline,
		store:       deps.Store,
		classifier:  deps.Classifier,
		countryCode: strings.TrimSpace(deps.CountryCode),
		logger:      deps.Logger,
		now:         time.Now,
	}
	if s.pipeline == nil {
		s.pipeline = images.NewPipeline(images.DefaultLimits(), deps.Logger)
	}
	if s.store == nil {
		s.store = images.NewInMemoryPendingStore(30 * time.Minute)
	}
	if s.classifier == nil {
		s.classifier = policy.NewClassifier(nil)
	}
	if s.countryCode == "" {
		s.countryCode = phone.DefaultCountryCode
	}
	return s
}

// Classify maps a raw registry status onto a canonical state using the
// service's synonyms.
func (s *Service) Classify(raw string) policy.Status {
	return s.classifier.Classify(raw)
}

// NewSession starts an edit session for a business without loading it.
// statusHint is used until the record arrives.
func (s *Service) NewSession(businessID int64, statusHint string) *Session {
	sessionID := uuid.NewString()
	status := s.classifier.Classify(statusHint)

	sess := &Session{
		svc:        s,
		id:         sessionID,
		businessID: businessID,
		state:      StateLoading,
		status:     status,
		editable:   policy.EditableFields(status),
		uploads:    images.NewUploadSet(sessionID, s.store, s.pipeline.Limits().CarouselCap),
		logger: s.logger.With(logging.WithFields(map[string]interface{}{
			"session_id":  sessionID,
			"business_id": businessID,
		})),
	}
	metrics.ActiveSessions.Inc()
	return sess
}

// Open starts a session and loads the record. The session is returned even
// when loading fails so the caller can retry Load or Close it.
func (s *Service) Open(ctx context.Context, businessID int64, statusHint string) (*Session, error) {
	if businessID <= 0 {
		return nil, fmt.Errorf("%w: %d", submission.ErrInvalidBusinessID, businessID)
	}
	sess := s.NewSession(businessID, statusHint)
	if err := sess.Load(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// RequestDeletion asks the registry administrators to delete a business.
// Both the reason and the justification are required.
func (s *Service) RequestDeletion(ctx context.Context, businessID int64, reason, justification string) error {
	if businessID <= 0 {
		return fmt.Errorf("%w: %d", submission.ErrInvalidBusinessID, businessID)
	}

	reason = strings.TrimSpace(reason)
	justification = strings.TrimSpace(justification)
	verr := &ValidationError{}
	if reason == "" {
		verr.add("reason", msgRequired)
	}
	if justification == "" {
		verr.add("justification", msgRequired)
	}
	if err := verr.orNil(); err != nil {
		s.notifier.Notify(ctx, notify.Warning(verr.UserMessage()))
		return err
	}

	if err := s.transport.RequestDeletion(ctx, businessID, reason, justification); err != nil {
		s.reportTransportError(ctx, "Deletion request failed", err)
		return err
	}

	s.logger.Info("Deletion requested", logging.WithField("business_id", businessID))
	s.notifier.Notify(ctx, notify.Success("Deletion request sent. An administrator will review it."))
	s.router.Navigate(ctx, MyBusinessesRoute)
	return nil
}

// reportTransportError tells the user what went wrong. An unauthorized error
// ends the signed-in session instead.
// ListMine returns one page of the signed-in user's businesses. A rejected
// token signs the user out like every other registry call.
func (s *Service) ListMine(ctx context.Context, category string, page, size int) (*registryapi.Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	result, err := s.transport.ListMyBusinesses(ctx, strings.TrimSpace(category), page, size)
	if err != nil {
		s.reportTransportError(ctx, "Listing businesses failed", err)
		return nil, err
	}
	return result, nil
}

func (s *Service) reportTransportError(ctx context.Context, logMsg string, err error) {
	if registryapi.IsUnauthorized(err) {
		s.signOut(ctx, err)
		return
	}
	s.logger.Warn(logMsg, logging.WithField("error", err.Error()))
	s.notifier.Notify(ctx, notify.Danger(userMessage(err)))
}

// signOut clears credentials and sends the user to the login screen.
func (s *Service) signOut(ctx context.Context, cause error) {
	s.logger.Warn("Authentication required, signing out", logging.WithField("error", cause.Error()))
	s.creds.Logout(ctx)
	s.notifier.Notify(ctx, notify.Danger(userMessage(cause)))
	s.router.Navigate(ctx, LoginRoute)
}

func userMessage(err error) string {
	var apiErr *registryapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.UserMessage()
	}
	return "Something went wrong. Please try again."
}
