package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DeliveryMode is how a business delivers its products.
type DeliveryMode string

const (
	DeliveryNone     DeliveryMode = "NO"
	DeliveryYes      DeliveryMode = "SI"
	DeliveryOnDemand DeliveryMode = "BAJO_PEDIDO"
)

// SalePlace is where a business sells.
type SalePlace string

const (
	SalePlaceNone  SalePlace = "NO"
	SalePlaceFairs SalePlace = "FERIAS"
	SalePlaceStore SalePlace = "LOCAL_FIJO"
)

// Valid reports whether d is one of the known delivery modes.
func (d DeliveryMode) Valid() bool {
	switch d {
	case DeliveryNone, DeliveryYes, DeliveryOnDemand:
		return true
	}
	return false
}

// Valid reports whether p is one of the known sale places.
func (p SalePlace) Valid() bool {
	switch p {
	case SalePlaceNone, SalePlaceFairs, SalePlaceStore:
		return true
	}
	return false
}

// PhotoRole identifies what a stored photo is used for.
type PhotoRole string

const (
	PhotoLogo      PhotoRole = "LOGO"
	PhotoSlide     PhotoRole = "SLIDE"
	PhotoPromotion PhotoRole = "PROMOTION"
)

// ID is an identifier the registry sends either as a JSON number or a string.
type ID string

// UnmarshalJSON accepts "12", 12 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Category is the business category reference embedded in a record.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Parish is the geographic parish a business belongs to.
type Parish struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Photo is an image already stored by the registry.
type Photo struct {
	ID        ID        `json:"id,omitempty"`
	URL       string    `json:"url"`
	PhotoType PhotoRole `json:"photoType"`
}

// BusinessRecord is the registry's view of a business. The server is the
// source of truth; clients only hold transient editable copies.
type BusinessRecord struct {
	ID                    int64        `json:"id"`
	CommercialName        string       `json:"commercialName"`
	RepresentativeName    string       `json:"representativeName,omitempty"`
	Description           string       `json:"description"`
	Category              *Category    `json:"category,omitempty"`
	Parish                *Parish      `json:"parish,omitempty"`
	ParishCommunitySector string       `json:"parishCommunitySector,omitempty"`
	Address               string       `json:"address"`
	Phone                 string       `json:"phone"`
	Email                 string       `json:"email"`
	Website               string       `json:"website"`
	Facebook              string       `json:"facebook"`
	Instagram             string       `json:"instagram"`
	Tiktok                string       `json:"tiktok"`
	AcceptsWhatsappOrders bool         `json:"acceptsWhatsappOrders"`
	WhatsappNumber        string       `json:"whatsappNumber"`
	GoogleMapsCoordinates string       `json:"googleMapsCoordinates"`
	DeliveryService       DeliveryMode `json:"deliveryService"`
	SalePlace             SalePlace    `json:"salePlace"`
	ProductsServices      string       `json:"productsServices,omitempty"`
	Schedules             Schedules    `json:"schedules,omitempty"`
	Photos                []Photo      `json:"photos,omitempty"`
	ValidationStatus      string       `json:"validationStatus"`
	RejectionReason       string       `json:"rejectionReason,omitempty"`
	RegistrationDate      string       `json:"registrationDate,omitempty"`
}

// Logo returns the record's logo photo, if any.
func (b *BusinessRecord) Logo() (Photo, bool) {
	for _, p := range b.Photos {
		if p.PhotoType == PhotoLogo {
			return p, true
		}
	}
	return Photo{}, false
}

// Slides returns the carousel photos in server order.
func (b *BusinessRecord) Slides() []Photo {
	var out []Photo
	for _, p := range b.Photos {
		if p.PhotoType == PhotoSlide {
			out = append(out, p)
		}
	}
	return out
}

// Schedules is the opening-hours value. The registry stores a list, but older
// records and hand-filled forms hold a single free-text entry; a scalar is
// always wrapped into a one-element list.
type Schedules []json.RawMessage

// ScheduleText builds a Schedules value from plain text entries, skipping blanks.
func ScheduleText(entries ...string) Schedules {
	out := make(Schedules, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		raw, _ := json.Marshal(e)
		out = append(out, raw)
	}
	return out
}

// UnmarshalJSON accepts either a JSON array or a single scalar/object.
func (s *Schedules) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = ScheduleText(text)
		return nil
	}
	*s = Schedules{json.RawMessage(append([]byte(nil), data...))}
	return nil
}

// MarshalJSON always emits a list, never null.
func (s Schedules) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]json.RawMessage(s))
}

// Empty reports whether no non-blank entry is present.
func (s Schedules) Empty() bool {
	for _, raw := range s {
		trimmed := bytes.TrimSpace(raw)
		switch {
		case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")), bytes.Equal(trimmed, []byte(`""`)):
			continue
		}
		if trimmed[0] == '"' {
			var text string
			if json.Unmarshal(trimmed, &text) == nil && strings.TrimSpace(text) == "" {
				continue
			}
		}
		return false
	}
	return true
}

// Equal compares entries byte-wise after trimming whitespace.
func (s Schedules) Equal(o Schedules) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !bytes.Equal(bytes.TrimSpace(s[i]), bytes.TrimSpace(o[i])) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s Schedules) Clone() Schedules {
	if s == nil {
		return nil
	}
	out := make(Schedules, len(s))
	for i, raw := range s {
		out[i] = append(json.RawMessage(nil), raw...)
	}
	return out
}
