package models

// PromotionType is the kind of offer a promotion advertises.
type PromotionType string

const (
	PromotionPercentDiscount PromotionType = "DESCUENTO_PORCENTAJE"
	PromotionTwoForOne       PromotionType = "DOSXUNO"
	PromotionFixedDiscount   PromotionType = "DESCUENTO_FIJO"
	PromotionCombo           PromotionType = "COMBO"
)

// Valid reports whether t is a known promotion type.
func (t PromotionType) Valid() bool {
	switch t {
	case PromotionPercentDiscount, PromotionTwoForOne, PromotionFixedDiscount, PromotionCombo:
		return true
	}
	return false
}

// Promotion is a promotion as listed by the registry.
type Promotion struct {
	ID           int64         `json:"idBusinessPromo"`
	BusinessID   int64         `json:"businessId"`
	BusinessName string        `json:"businessName,omitempty"`
	PromoType    PromotionType `json:"tipoPromocion"`
	Title        string        `json:"tituloPromocion"`
	StartDate    string        `json:"fechaPromoInicio"`
	EndDate      string        `json:"fechaPromoFin"`
	Conditions   string        `json:"condiciones"`
	ImageURL     string        `json:"businessImageUrl,omitempty"`
}

// PromotionCreatePayload is the `dto` part of a promotion create request.
// The create endpoint uses Spanish keys.
type PromotionCreatePayload struct {
	BusinessID int64         `json:"businessId"`
	PromoType  PromotionType `json:"tipoPromocion"`
	Title      string        `json:"tituloPromocion"`
	StartDate  string        `json:"fechaPromoInicio"`
	EndDate    string        `json:"fechaPromoFin"`
	Conditions string        `json:"condiciones"`
}

// PromotionUpdatePayload is the `dto` part of a promotion update request.
// The update endpoint uses English keys.
type PromotionUpdatePayload struct {
	BusinessID int64         `json:"businessId"`
	PromoType  PromotionType `json:"promoType"`
	Title      string        `json:"titlePromotion"`
	StartDate  string        `json:"datePromoStart"`
	EndDate    string        `json:"datePromoEnd"`
	Conditions string        `json:"conditions"`
}
