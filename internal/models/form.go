package models

// FieldName names one editable business form field. Values match the
// registry's JSON keys.
type FieldName string

const (
	FieldCategoryID            FieldName = "categoryId"
	FieldCommercialName        FieldName = "commercialName"
	FieldDescription           FieldName = "description"
	FieldCountryCodePhone      FieldName = "countryCodePhone"
	FieldPhone                 FieldName = "phone"
	FieldCountryCode           FieldName = "countryCode"
	FieldAcceptsWhatsappOrders FieldName = "acceptsWhatsappOrders"
	FieldWhatsappNumber        FieldName = "whatsappNumber"
	FieldWebsite               FieldName = "website"
	FieldFacebook              FieldName = "facebook"
	FieldInstagram             FieldName = "instagram"
	FieldTiktok                FieldName = "tiktok"
	FieldEmail                 FieldName = "email"
	FieldAddress               FieldName = "address"
	FieldParishCommunitySector FieldName = "parishCommunitySector"
	FieldGoogleMapsCoordinates FieldName = "googleMapsCoordinates"
	FieldDeliveryService       FieldName = "deliveryService"
	FieldSalePlace             FieldName = "salePlace"
	FieldSchedules             FieldName = "schedules"
)

// AllFields is the full form field universe in display order.
var AllFields = []FieldName{
	FieldCategoryID,
	FieldCommercialName,
	FieldDescription,
	FieldCountryCodePhone,
	FieldPhone,
	FieldCountryCode,
	FieldAcceptsWhatsappOrders,
	FieldWhatsappNumber,
	FieldWebsite,
	FieldFacebook,
	FieldInstagram,
	FieldTiktok,
	FieldEmail,
	FieldAddress,
	FieldParishCommunitySector,
	FieldGoogleMapsCoordinates,
	FieldDeliveryService,
	FieldSalePlace,
	FieldSchedules,
}

// BusinessForm is the client-side editable copy of a business record.
// Phone and WhatsApp numbers are held without their country code.
type BusinessForm struct {
	CategoryID            string
	CommercialName        string
	Description           string
	CountryCodePhone      string
	Phone                 string
	CountryCode           string
	AcceptsWhatsappOrders bool
	WhatsappNumber        string
	Website               string
	Facebook              string
	Instagram             string
	Tiktok                string
	Email                 string
	Address               string
	ParishCommunitySector string
	GoogleMapsCoordinates string
	DeliveryService       DeliveryMode
	SalePlace             SalePlace
	Schedules             Schedules
}

// Clone returns a copy that shares no mutable state with f.
func (f BusinessForm) Clone() BusinessForm {
	f.Schedules = f.Schedules.Clone()
	return f
}

// ChangedFields lists the fields whose values differ between a and b.
func ChangedFields(a, b BusinessForm) []FieldName {
	var changed []FieldName
	add := func(cond bool, name FieldName) {
		if cond {
			changed = append(changed, name)
		}
	}
	add(a.CategoryID != b.CategoryID, FieldCategoryID)
	add(a.CommercialName != b.CommercialName, FieldCommercialName)
	add(a.Description != b.Description, FieldDescription)
	add(a.CountryCodePhone != b.CountryCodePhone, FieldCountryCodePhone)
	add(a.Phone != b.Phone, FieldPhone)
	add(a.CountryCode != b.CountryCode, FieldCountryCode)
	add(a.AcceptsWhatsappOrders != b.AcceptsWhatsappOrders, FieldAcceptsWhatsappOrders)
	add(a.WhatsappNumber != b.WhatsappNumber, FieldWhatsappNumber)
	add(a.Website != b.Website, FieldWebsite)
	add(a.Facebook != b.Facebook, FieldFacebook)
	add(a.Instagram != b.Instagram, FieldInstagram)
	add(a.Tiktok != b.Tiktok, FieldTiktok)
	add(a.Email != b.Email, FieldEmail)
	add(a.Address != b.Address, FieldAddress)
	add(a.ParishCommunitySector != b.ParishCommunitySector, FieldParishCommunitySector)
	add(a.GoogleMapsCoordinates != b.GoogleMapsCoordinates, FieldGoogleMapsCoordinates)
	add(a.DeliveryService != b.DeliveryService, FieldDeliveryService)
	add(a.SalePlace != b.SalePlace, FieldSalePlace)
	add(!a.Schedules.Equal(b.Schedules), FieldSchedules)
	return changed
}
