package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/notify"
	"github.com/johnrirwin/bizregistry/internal/registryapi"
	"github.com/johnrirwin/bizregistry/internal/testutil"
)

func newRegistration(t *testing.T) Registration {
	return Registration{
		Form: models.BusinessForm{
			CategoryID:            "3",
			CommercialName:        "  Tejidos Andinos ",
			Description:           "Artesanías en lana de alpaca",
			CountryCodePhone:      "+593",
			Phone:                 "62 955 123",
			CountryCode:           "+593",
			AcceptsWhatsappOrders: false,
			WhatsappNumber:        "998877665",
			Email:                 "ventas@tejidos.ec",
			Address:               "Plaza de Ponchos, puesto 14",
			ParishCommunitySector: "Otavalo",
			GoogleMapsCoordinates: "  0.234500 ,   -78.262100 ",
			Schedules:             models.ScheduleText("Sábados 6:00-15:00"),
		},
		ParishID:         "12",
		ProductsServices: "Ponchos, bufandas",
		Logo:             &models.ImageFile{Name: "logo.png", Data: testutil.PNG(t, 800, 600, 0)},
		Carousel:         []models.ImageFile{{Name: "stand.jpg", Data: testutil.JPEG(t, 1200, 900)}},
	}
}

func TestRegisterSendsSanitizedPayload(t *testing.T) {
	h := newHarness(t, nil)
	h.tr.categories = []models.Category{{ID: "3", Name: "Artesanías"}}

	reg := newRegistration(t)
	reg.Form.Phone = "629551234"
	require.NoError(t, h.svc.Register(context.Background(), reg))

	require.Len(t, h.tr.created, 1)
	payload := h.tr.created[0]
	assert.Equal(t, "Tejidos Andinos", payload.CommercialName)
	assert.Equal(t, "+593629551234", payload.Phone)
	assert.Empty(t, payload.WhatsappNumber, "no WhatsApp opt-in")
	assert.Equal(t, "0.234500, -78.262100", payload.GoogleMapsCoordinates)
	assert.Equal(t, "2026-03-01", payload.RegistrationDate)
	assert.Equal(t, "12", payload.ParishID)
	assert.Equal(t, models.DeliveryNone, payload.DeliveryService)
	assert.Empty(t, payload.UdelSupportDetails)

	assert.Equal(t, []string{MyBusinessesRoute}, h.router.visited())
	last, ok := h.notes.Last()
	require.True(t, ok)
	assert.Equal(t, notify.SeveritySuccess, last.Severity)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Registration)
		field  models.FieldName
	}{
		{"phone with spaces", func(r *Registration) {}, models.FieldPhone},
		{"missing products", func(r *Registration) { r.Form.Phone = "629551234"; r.ProductsServices = " " }, FieldProductsServices},
		{"missing parish", func(r *Registration) { r.Form.Phone = "629551234"; r.ParishID = "" }, FieldParishID},
		{"sector too long", func(r *Registration) {
			r.Form.Phone = "629551234"
			r.Form.ParishCommunitySector = "Barrio San Juan de la Loma, sector norte, junto al mercado"
		}, models.FieldParishCommunitySector},
		{"logo too small", func(r *Registration) {
			r.Form.Phone = "629551234"
			r.Logo = &models.ImageFile{Name: "logo.jpg", Data: testutil.JPEG(t, 500, 400)}
		}, FieldLogoFile},
		{"too many photos", func(r *Registration) {
			r.Form.Phone = "629551234"
			r.Carousel = make([]models.ImageFile, 6)
		}, FieldCarouselPhotos},
		{"whatsapp opt-in without number", func(r *Registration) {
			r.Form.Phone = "629551234"
			r.Form.AcceptsWhatsappOrders = true
			r.Form.WhatsappNumber = ""
		}, models.FieldWhatsappNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.tr.categories = []models.Category{{ID: "3"}}
			reg := newRegistration(t)
			tt.mutate(&reg)

			err := h.svc.Register(context.Background(), reg)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has(tt.field), "problems: %v", verr.Problems)
			assert.Empty(t, h.tr.created)
		})
	}
}

func TestRegisterUnknownCategory(t *testing.T) {
	h := newHarness(t, nil)
	h.tr.categories = []models.Category{{ID: "1"}, {ID: "2"}}
	reg := newRegistration(t)
	reg.Form.Phone = "629551234"

	err := h.svc.Register(context.Background(), reg)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(models.FieldCategoryID))
	assert.Empty(t, h.tr.created)
}

func TestRegisterUnauthorizedSignsOut(t *testing.T) {
	h := newHarness(t, nil)
	h.tr.catErr = &registryapi.APIError{Op: "list_categories", Kind: registryapi.KindUnauthorized, Message: "Your session has expired."}
	reg := newRegistration(t)
	reg.Form.Phone = "629551234"

	err := h.svc.Register(context.Background(), reg)
	assert.True(t, registryapi.IsUnauthorized(err))
	assert.Equal(t, 1, h.creds.logouts)
	assert.Equal(t, []string{LoginRoute}, h.router.visited())
	assert.Empty(t, h.tr.created)
}
