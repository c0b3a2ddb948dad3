package models

// FullBusinessPayload is the `business` part of a multipart update of a
// rejected record. Every field is resubmitted; phone numbers carry their
// country code.
type FullBusinessPayload struct {
	CategoryID            string       `json:"categoryId"`
	CommercialName        string       `json:"commercialName"`
	Description           string       `json:"description"`
	CountryCodePhone      string       `json:"countryCodePhone"`
	Phone                 string       `json:"phone"`
	CountryCode           string       `json:"countryCode"`
	AcceptsWhatsappOrders bool         `json:"acceptsWhatsappOrders"`
	WhatsappNumber        string       `json:"whatsappNumber"`
	Website               string       `json:"website"`
	Facebook              string       `json:"facebook"`
	Instagram             string       `json:"instagram"`
	Tiktok                string       `json:"tiktok"`
	Email                 string       `json:"email"`
	Address               string       `json:"address"`
	ParishCommunitySector string       `json:"parishCommunitySector"`
	GoogleMapsCoordinates string       `json:"googleMapsCoordinates"`
	DeliveryService       DeliveryMode `json:"deliveryService"`
	SalePlace             SalePlace    `json:"salePlace"`
	Schedules             Schedules    `json:"schedules"`
}

// PartialBusinessPayload is the JSON body for updating a live or pending
// record. It only carries fields that stay editable after approval.
type PartialBusinessPayload struct {
	CommercialName        string    `json:"commercialName"`
	Description           string    `json:"description"`
	Facebook              string    `json:"facebook"`
	Instagram             string    `json:"instagram"`
	Tiktok                string    `json:"tiktok"`
	Website               string    `json:"website"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	AcceptsWhatsappOrders bool      `json:"acceptsWhatsappOrders"`
	WhatsappNumber        string    `json:"whatsappNumber"`
	Address               string    `json:"address"`
	GoogleMapsCoordinates string    `json:"googleMapsCoordinates"`
	Schedules             Schedules `json:"schedules"`
}

// CreateBusinessPayload is the `business` part of a registration request.
type CreateBusinessPayload struct {
	FullBusinessPayload
	ParishID            string `json:"parishId"`
	ProductsServices    string `json:"productsServices"`
	ReceivedUdelSupport bool   `json:"receivedUdelSupport"`
	UdelSupportDetails  string `json:"udelSupportDetails,omitempty"`
	RegistrationDate    string `json:"registrationDate"`
}

// ImageFile is an image selected for upload.
type ImageFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

// Size returns the file size in bytes.
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}
