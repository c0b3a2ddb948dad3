package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnrirwin/bizregistry/internal/geo"
	"github.com/johnrirwin/bizregistry/internal/images"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/notify"
	"github.com/johnrirwin/bizregistry/internal/policy"
	"github.com/johnrirwin/bizregistry/internal/registryapi"
	"github.com/johnrirwin/bizregistry/internal/submission"
)

// Registration-only fields.
const (
	FieldParishID           models.FieldName = "parishId"
	FieldProductsServices   models.FieldName = "productsServices"
	FieldUdelSupportDetails models.FieldName = "udelSupportDetails"
	FieldLogoFile           models.FieldName = "logoFile"
	FieldCarouselPhotos     models.FieldName = "carrouselPhotos"
)

// Registration is a new business as entered by its owner.
type Registration struct {
	Form                models.BusinessForm
	ParishID            string
	ProductsServices    string
	ReceivedUdelSupport bool
	UdelSupportDetails  string
	Logo                *models.ImageFile
	Carousel            []models.ImageFile
}

// Register validates a new business and its images and sends it for
// moderation.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	reg = sanitizeRegistration(reg)

	verr := validateForm(reg.Form, policy.NewFieldSet(models.AllFields...), s.countryCode)
	validateRegistrationExtras(reg, verr)
	s.validateRegistrationImages(ctx, reg, verr)
	if err := verr.orNil(); err != nil {
		s.notifier.Notify(ctx, notify.Warning(verr.UserMessage()))
		return err
	}

	categories, err := s.transport.ListCategories(ctx)
	switch {
	case registryapi.IsUnauthorized(err):
		s.signOut(ctx, err)
		return err
	case err != nil:
		s.logger.Warn("Could not load categories, skipping category check", logging.WithField("error", err.Error()))
	case !hasCategory(categories, reg.Form.CategoryID):
		verr.add(models.FieldCategoryID, "is not a known category")
		s.notifier.Notify(ctx, notify.Warning(verr.UserMessage()))
		return verr
	}

	payload := models.CreateBusinessPayload{
		FullBusinessPayload: submission.FullPayload(reg.Form),
		ParishID:            reg.ParishID,
		ProductsServices:    reg.ProductsServices,
		ReceivedUdelSupport: reg.ReceivedUdelSupport,
		UdelSupportDetails:  reg.UdelSupportDetails,
		RegistrationDate:    models.LocalDate(s.now()),
	}

	if err := s.transport.CreateBusiness(ctx, payload, reg.Logo, reg.Carousel); err != nil {
		metrics.Submissions.WithLabelValues(string(submission.ShapeMultipart), string(registryapi.KindOf(err))).Inc()
		s.reportTransportError(ctx, "Registering business failed", err)
		return err
	}
	metrics.Submissions.WithLabelValues(string(submission.ShapeMultipart), "ok").Inc()

	s.logger.Info("Business registered", logging.WithFields(map[string]interface{}{
		"commercial_name": payload.CommercialName,
		"photos":          len(reg.Carousel),
	}))
	s.notifier.Notify(ctx, notify.Success("Business registered. It will be published once it is approved."))
	s.router.Navigate(ctx, MyBusinessesRoute)
	return nil
}

func sanitizeRegistration(reg Registration) Registration {
	f := reg.Form.Clone()
	f.CommercialName = strings.TrimSpace(f.CommercialName)
	f.Description = strings.TrimSpace(f.Description)
	f.Address = strings.TrimSpace(f.Address)
	f.ParishCommunitySector = strings.TrimSpace(f.ParishCommunitySector)
	f.Website = strings.TrimSpace(f.Website)
	f.Facebook = strings.TrimSpace(f.Facebook)
	f.Instagram = strings.TrimSpace(f.Instagram)
	f.Tiktok = strings.TrimSpace(f.Tiktok)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.WhatsappNumber = strings.TrimSpace(f.WhatsappNumber)
	if f.GoogleMapsCoordinates = strings.TrimSpace(f.GoogleMapsCoordinates); f.GoogleMapsCoordinates != "" {
		f.GoogleMapsCoordinates = geo.Sanitize(strings.Join(strings.Fields(f.GoogleMapsCoordinates), " "))
	}
	if f.DeliveryService == "" {
		f.DeliveryService = models.DeliveryNone
	}
	if f.SalePlace == "" {
		f.SalePlace = models.SalePlaceNone
	}
	reg.Form = f

	reg.ParishID = strings.TrimSpace(reg.ParishID)
	reg.ProductsServices = strings.TrimSpace(reg.ProductsServices)
	reg.UdelSupportDetails = strings.TrimSpace(reg.UdelSupportDetails)
	if !reg.ReceivedUdelSupport {
		reg.UdelSupportDetails = ""
	}
	return reg
}

func validateRegistrationExtras(reg Registration, verr *ValidationError) {
	checkText := func(field models.FieldName, value string, required bool, max int) {
		switch {
		case value == "" && required:
			verr.add(field, msgRequired)
		case utf8.RuneCountInString(value) > max:
			verr.add(field, fmt.Sprintf("must be at most %d characters", max))
		}
	}
	checkText(models.FieldParishCommunitySector, reg.Form.ParishCommunitySector, true, 50)
	checkText(FieldParishID, reg.ParishID, true, 50)
	checkText(FieldProductsServices, reg.ProductsServices, true, 50)
	checkText(FieldUdelSupportDetails, reg.UdelSupportDetails, false, 200)
}

func (s *Service) validateRegistrationImages(ctx context.Context, reg Registration, verr *ValidationError) {
	limits := s.pipeline.Limits()

	if reg.Logo != nil {
		if res := s.pipeline.Validate(ctx, images.SlotLogo, *reg.Logo); !res.Accepted() {
			verr.add(FieldLogoFile, res.Message(limits))
		}
	}

	if len(reg.Carousel) > limits.CarouselCap {
		verr.add(FieldCarouselPhotos, fmt.Sprintf("at most %d photos are allowed", limits.CarouselCap))
		return
	}
	for _, res := range s.pipeline.ValidateBatch(ctx, images.SlotCarousel, reg.Carousel) {
		if !res.Accepted() {
			verr.add(FieldCarouselPhotos, res.Message(limits))
		}
	}
}

func hasCategory(categories []models.Category, id string) bool {
	for _, c := range categories {
		if c.ID.String() == id {
			return true
		}
	}
	return false
}
