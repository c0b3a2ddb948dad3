// Package promotions manages the time-limited offers a business advertises.
package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johnrirwin/bizregistry/internal/auth"
	"github.com/johnrirwin/bizregistry/internal/images"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/registryapi"
)

// ErrInvalidID is returned for a missing or non-positive id.
var ErrInvalidID = errors.New("invalid id")

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Transport is the promotions part of the registry API.
type Transport interface {
	ListPromotions(ctx context.Context, businessID int64) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, payload models.PromotionCreatePayload, photo models.ImageFile) error
	UpdatePromotion(ctx context.Context, id int64, payload models.PromotionUpdatePayload, photo *models.ImageFile) error
	DeletePromotion(ctx context.Context, id int64) error
}

// Draft is a promotion as entered by the business owner.
type Draft struct {
	BusinessID int64
	Type       models.PromotionType
	Title      string
	StartDate  string
	EndDate    string
	Conditions string
	Photo      *models.ImageFile
}

// Service validates and sends promotion changes.
type Service struct {
	transport Transport
	pipeline  *images.Pipeline
	creds     auth.CredentialProvider
	logger    *logging.Logger
	now       func() time.Time
}

// NewService creates a promotions service. The pipeline checks photo format
// and size; promotions have no minimum resolution.
func NewService(transport Transport, pipeline *images.Pipeline, creds auth.CredentialProvider, logger *logging.Logger) *Service {
	return &Service{
		transport: transport,
		pipeline:  pipeline,
		creds:     creds,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns a business's promotions with dates as YYYY-MM-DD.
func (s *Service) List(ctx context.Context, businessID int64) ([]models.Promotion, error) {
	if businessID <= 0 {
		return nil, fmt.Errorf("business %w: %d", ErrInvalidID, businessID)
	}

	promos, err := s.transport.ListPromotions(ctx, businessID)
	if err != nil {
		return nil, s.transportError(ctx, "list", err)
	}
	for i := range promos {
		promos[i].StartDate = normalizeDate(promos[i].StartDate)
		promos[i].EndDate = normalizeDate(promos[i].EndDate)
	}
	return promos, nil
}

// Create validates a draft and creates the promotion. A photo is required.
func (s *Service) Create(ctx context.Context, draft Draft) error {
	draft, err := s.validate(ctx, draft, true)
	if err != nil {
		return err
	}

	payload := models.PromotionCreatePayload{
		BusinessID: draft.BusinessID,
		PromoType:  draft.Type,
		Title:      draft.Title,
		StartDate:  draft.StartDate,
		EndDate:    draft.EndDate,
		Conditions: draft.Conditions,
	}
	if err := s.transport.CreatePromotion(ctx, payload, *draft.Photo); err != nil {
		return s.transportError(ctx, "create", err)
	}

	s.logger.Info("Promotion created", logging.WithFields(map[string]interface{}{
		"business_id": draft.BusinessID,
		"type":        string(draft.Type),
		"start":       draft.StartDate,
		"end":         draft.EndDate,
	}))
	return nil
}

// Update validates a draft and replaces promotion id. The photo is optional.
func (s *Service) Update(ctx context.Context, id int64, draft Draft) error {
	if id <= 0 {
		return fmt.Errorf("promotion %w: %d", ErrInvalidID, id)
	}
	draft, err := s.validate(ctx, draft, false)
	if err != nil {
		return err
	}

	payload := models.PromotionUpdatePayload{
		BusinessID: draft.BusinessID,
		PromoType:  draft.Type,
		Title:      draft.Title,
		StartDate:  draft.StartDate,
		EndDate:    draft.EndDate,
		Conditions: draft.Conditions,
	}
	if err := s.transport.UpdatePromotion(ctx, id, payload, draft.Photo); err != nil {
		return s.transportError(ctx, "update", err)
	}

	s.logger.Info("Promotion updated", logging.WithField("promotion_id", id))
	return nil
}

// Delete removes promotion id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("promotion %w: %d", ErrInvalidID, id)
	}
	if err := s.transport.DeletePromotion(ctx, id); err != nil {
		return s.transportError(ctx, "delete", err)
	}
	s.logger.Info("Promotion deleted", logging.WithField("promotion_id", id))
	return nil
}

func (s *Service) validate(ctx context.Context, d Draft, photoRequired bool) (Draft, error) {
	if d.BusinessID <= 0 {
		return d, fmt.Errorf("business %w: %d", ErrInvalidID, d.BusinessID)
	}
	if photoRequired && d.Photo == nil {
		return d, &ValidationError{Field: "photo", Message: "a promotion photo is required"}
	}

	d.Title = strings.TrimSpace(d.Title)
	d.Conditions = strings.TrimSpace(d.Conditions)
	if d.Title == "" || strings.TrimSpace(d.StartDate) == "" || strings.TrimSpace(d.EndDate) == "" || d.Conditions == "" {
		return d, &ValidationError{Field: "promotion", Message: "all fields are required"}
	}
	if !d.Type.Valid() {
		return d, &ValidationError{Field: "promoType", Message: fmt.Sprintf("unknown promotion type %q", d.Type)}
	}

	start, ok := models.ParseDate(d.StartDate)
	if !ok {
		return d, &ValidationError{Field: "startDate", Message: "start date must be YYYY-MM-DD"}
	}
	end, ok := models.ParseDate(d.EndDate)
	if !ok {
		return d, &ValidationError{Field: "endDate", Message: "end date must be YYYY-MM-DD"}
	}
	today, _ := models.ParseDate(models.LocalDate(s.now()))
	if start.Before(today) {
		return d, &ValidationError{Field: "startDate", Message: "the start date cannot be in the past"}
	}
	if !end.After(start) {
		return d, &ValidationError{Field: "endDate", Message: "the end date must be after the start date"}
	}
	d.StartDate = start.Format(models.DateLayout)
	d.EndDate = end.Format(models.DateLayout)

	if d.Photo != nil {
		res := s.pipeline.Validate(ctx, images.SlotPromotion, *d.Photo)
		if !res.Accepted() {
			return d, &ValidationError{Field: "photo", Message: res.Message(s.pipeline.Limits())}
		}
		photo := res.File
		d.Photo = &photo
	}
	return d, nil
}

func (s *Service) transportError(ctx context.Context, op string, err error) error {
	if registryapi.IsUnauthorized(err) {
		s.logger.Warn("Authentication required, signing out", logging.WithField("op", op))
		s.creds.Logout(ctx)
	} else {
		s.logger.Warn("Promotion request failed", logging.WithFields(map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		}))
	}
	return err
}

func normalizeDate(value string) string {
	if t, ok := models.ParseDate(value); ok {
		return t.Format(models.DateLayout)
	}
	return value
}
