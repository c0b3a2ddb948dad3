package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnrirwin/bizregistry/internal/models"
)

// setField assigns value, given as text, to one form field.
func setField(f *models.BusinessForm, field models.FieldName, value string) error {
	switch field {
	case models.FieldCategoryID:
		f.CategoryID = strings.TrimSpace(value)
	case models.FieldCommercialName:
		f.CommercialName = value
	case models.FieldDescription:
		f.Description = value
	case models.FieldCountryCodePhone:
		f.CountryCodePhone = strings.TrimSpace(value)
	case models.FieldPhone:
		f.Phone = strings.TrimSpace(value)
	case models.FieldCountryCode:
		f.CountryCode = strings.TrimSpace(value)
	case models.FieldAcceptsWhatsappOrders:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		f.AcceptsWhatsappOrders = b
	case models.FieldWhatsappNumber:
		f.WhatsappNumber = strings.TrimSpace(value)
	case models.FieldWebsite:
		f.Website = value
	case models.FieldFacebook:
		f.Facebook = value
	case models.FieldInstagram:
		f.Instagram = value
	case models.FieldTiktok:
		f.Tiktok = value
	case models.FieldEmail:
		f.Email = strings.TrimSpace(value)
	case models.FieldAddress:
		f.Address = value
	case models.FieldParishCommunitySector:
		f.ParishCommunitySector = value
	case models.FieldGoogleMapsCoordinates:
		f.GoogleMapsCoordinates = value
	case models.FieldDeliveryService:
		mode := models.DeliveryMode(strings.ToUpper(strings.TrimSpace(value)))
		if !mode.Valid() {
			return fmt.Errorf("%s: unknown delivery mode %q", field, value)
		}
		f.DeliveryService = mode
	case models.FieldSalePlace:
		place := models.SalePlace(strings.ToUpper(strings.TrimSpace(value)))
		if !place.Valid() {
			return fmt.Errorf("%s: unknown sale place %q", field, value)
		}
		f.SalePlace = place
	case models.FieldSchedules:
		f.Schedules = models.ScheduleText(strings.Split(value, ";")...)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "si", "sí", "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}
