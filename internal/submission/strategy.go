// Package submission decides how an edited business is sent back to the
// registry: a full multipart resubmission for rejected records, or a
// partial JSON update for everything else.
package submission

import (
	"errors"
	"fmt"

	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/phone"
	"github.com/johnrirwin/bizregistry/internal/policy"
)

// ErrInvalidBusinessID is returned for a missing or non-positive id.
var ErrInvalidBusinessID = errors.New("invalid business id")

// Shape is the wire shape of an update request.
type Shape string

const (
	ShapeMultipart Shape = "multipart"
	ShapeJSON      Shape = "json"
)

// ShapeFor returns the request shape used for a record in the given state.
func ShapeFor(status policy.Status) Shape {
	if policy.AllowsFullResubmission(status) {
		return ShapeMultipart
	}
	return ShapeJSON
}

// OutboundRequest is either a *MultipartRequest or a *JSONRequest.
type OutboundRequest interface {
	BusinessID() int64
	Shape() Shape
	outbound()
}

// MultipartRequest resubmits a rejected record with every field and any new
// images.
type MultipartRequest struct {
	ID       int64
	Business models.FullBusinessPayload
	Logo     *models.ImageFile
	Carousel []models.ImageFile
}

func (r *MultipartRequest) BusinessID() int64 { return r.ID }
func (r *MultipartRequest) Shape() Shape      { return ShapeMultipart }
func (r *MultipartRequest) outbound()         {}

// JSONRequest updates the restricted field set of a live or pending record.
// It never carries files; DiscardedAttachments counts the selected images
// that were left out.
type JSONRequest struct {
	ID                   int64
	Business             models.PartialBusinessPayload
	DiscardedAttachments int
}

func (r *JSONRequest) BusinessID() int64 { return r.ID }
func (r *JSONRequest) Shape() Shape      { return ShapeJSON }
func (r *JSONRequest) outbound()         {}

// Attachments are the images selected in the edit session.
type Attachments struct {
	Logo     *models.ImageFile
	Carousel []models.ImageFile
}

// Count returns the number of attached files.
func (a Attachments) Count() int {
	n := len(a.Carousel)
	if a.Logo != nil {
		n++
	}
	return n
}

// Build selects the request shape for status and fills it from form.
func Build(id int64, status policy.Status, form models.BusinessForm, attachments Attachments) (OutboundRequest, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBusinessID, id)
	}

	switch ShapeFor(status) {
	case ShapeMultipart:
		return &MultipartRequest{
			ID:       id,
			Business: FullPayload(form),
			Logo:     attachments.Logo,
			Carousel: attachments.Carousel,
		}, nil
	default:
		return &JSONRequest{
			ID:                   id,
			Business:             PartialPayload(form),
			DiscardedAttachments: attachments.Count(),
		}, nil
	}
}

// FullPayload converts the form into the complete resubmission payload.
func FullPayload(form models.BusinessForm) models.FullBusinessPayload {
	return models.FullBusinessPayload{
		CategoryID:            form.CategoryID,
		CommercialName:        form.CommercialName,
		Description:           form.Description,
		CountryCodePhone:      form.CountryCodePhone,
		Phone:                 phone.Assemble(form.CountryCodePhone, form.Phone),
		CountryCode:           form.CountryCode,
		AcceptsWhatsappOrders: form.AcceptsWhatsappOrders,
		WhatsappNumber:        phone.AssembleWhatsApp(form.AcceptsWhatsappOrders, form.CountryCode, form.WhatsappNumber),
		Website:               form.Website,
		Facebook:              form.Facebook,
		Instagram:             form.Instagram,
		Tiktok:                form.Tiktok,
		Email:                 form.Email,
		Address:               form.Address,
		ParishCommunitySector: form.ParishCommunitySector,
		GoogleMapsCoordinates: form.GoogleMapsCoordinates,
		DeliveryService:       form.DeliveryService,
		SalePlace:             form.SalePlace,
		Schedules:             normalizeSchedules(form.Schedules),
	}
}

// PartialPayload converts the form into the restricted update payload.
func PartialPayload(form models.BusinessForm) models.PartialBusinessPayload {
	return models.PartialBusinessPayload{
		CommercialName:        form.CommercialName,
		Description:           form.Description,
		Facebook:              form.Facebook,
		Instagram:             form.Instagram,
		Tiktok:                form.Tiktok,
		Website:               form.Website,
		Phone:                 phone.Assemble(form.CountryCodePhone, form.Phone),
		Email:                 form.Email,
		AcceptsWhatsappOrders: form.AcceptsWhatsappOrders,
		WhatsappNumber:        phone.AssembleWhatsApp(form.AcceptsWhatsappOrders, form.CountryCode, form.WhatsappNumber),
		Address:               form.Address,
		GoogleMapsCoordinates: form.GoogleMapsCoordinates,
		Schedules:             normalizeSchedules(form.Schedules),
	}
}

func normalizeSchedules(s models.Schedules) models.Schedules {
	if s == nil {
		return models.Schedules{}
	}
	return s.Clone()
}
