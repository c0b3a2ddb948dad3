package workflow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/johnrirwin/bizregistry/internal/geo"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/phone"
	"github.com/johnrirwin/bizregistry/internal/policy"
)

// Problem is one failed check on one field.
type Problem struct {
	Field   models.FieldName
	Message string
}

// ValidationError lists every problem found in a form. Submission is blocked
// while any remain.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one problem.
func (e *ValidationError) Has(field models.FieldName) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

// UserMessage summarizes the problems for a notification.
func (e *ValidationError) UserMessage() string {
	for _, p := range e.Problems {
		if p.Message == msgRequired {
			return "Please complete all required fields."
		}
	}
	if len(e.Problems) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Problems[0].Field, e.Problems[0].Message)
}

func (e *ValidationError) add(field models.FieldName, msg string) {
	e.Problems = append(e.Problems, Problem{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

const msgRequired = "is required"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type textRule struct {
	field    models.FieldName
	required bool
	max      int
	value    func(f *models.BusinessForm) string
}

var formTextRules = []textRule{
	{models.FieldCategoryID, true, 0, func(f *models.BusinessForm) string { return f.CategoryID }},
	{models.FieldCommercialName, true, 100, func(f *models.BusinessForm) string { return f.CommercialName }},
	{models.FieldDescription, true, 200, func(f *models.BusinessForm) string { return f.Description }},
	{models.FieldCountryCodePhone, true, 0, func(f *models.BusinessForm) string { return f.CountryCodePhone }},
	{models.FieldCountryCode, true, 0, func(f *models.BusinessForm) string { return f.CountryCode }},
	{models.FieldPhone, true, 9, func(f *models.BusinessForm) string { return f.Phone }},
	{models.FieldWebsite, false, 100, func(f *models.BusinessForm) string { return f.Website }},
	{models.FieldFacebook, false, 100, func(f *models.BusinessForm) string { return f.Facebook }},
	{models.FieldInstagram, false, 100, func(f *models.BusinessForm) string { return f.Instagram }},
	{models.FieldTiktok, false, 100, func(f *models.BusinessForm) string { return f.Tiktok }},
	{models.FieldEmail, false, 100, func(f *models.BusinessForm) string { return f.Email }},
	{models.FieldAddress, true, 100, func(f *models.BusinessForm) string { return f.Address }},
	{models.FieldGoogleMapsCoordinates, true, 100, func(f *models.BusinessForm) string { return f.GoogleMapsCoordinates }},
}

// validateForm checks the fields in editable. Locked fields keep the server's
// values and are not checked, the same way a disabled input is skipped.
func validateForm(form models.BusinessForm, editable policy.FieldSet, defaultCountryCode string) *ValidationError {
	verr := &ValidationError{}

	for _, rule := range formTextRules {
		if !editable.Contains(rule.field) {
			continue
		}
		v := strings.TrimSpace(rule.value(&form))
		if v == "" {
			if rule.required {
				verr.add(rule.field, msgRequired)
			}
			continue
		}
		if rule.max > 0 && utf8.RuneCountInString(v) > rule.max {
			verr.add(rule.field, fmt.Sprintf("must be at most %d characters", rule.max))
		}
	}

	if editable.Contains(models.FieldPhone) && form.Phone != "" && !verr.Has(models.FieldPhone) {
		switch {
		case !phone.IsDigits(form.Phone):
			verr.add(models.FieldPhone, "must contain only digits")
		case strings.TrimSpace(form.CountryCodePhone) == defaultCountryCode && !phone.IsValidLocal(form.Phone):
			verr.add(models.FieldPhone, "must be 9 digits and start with 2-7 or 9")
		}
	}

	if editable.Contains(models.FieldWhatsappNumber) && form.AcceptsWhatsappOrders {
		switch n := strings.TrimSpace(form.WhatsappNumber); {
		case n == "":
			verr.add(models.FieldWhatsappNumber, msgRequired)
		case !phone.IsDigits(n):
			verr.add(models.FieldWhatsappNumber, "must contain only digits")
		case len(n) > 9:
			verr.add(models.FieldWhatsappNumber, "must be at most 9 digits")
		}
	}

	if editable.Contains(models.FieldEmail) {
		if email := strings.TrimSpace(form.Email); email != "" && !emailPattern.MatchString(email) {
			verr.add(models.FieldEmail, "is not a valid email address")
		}
	}

	if editable.Contains(models.FieldGoogleMapsCoordinates) && !verr.Has(models.FieldGoogleMapsCoordinates) {
		if _, err := geo.Parse(form.GoogleMapsCoordinates); err != nil {
			verr.add(models.FieldGoogleMapsCoordinates, "must be valid \"lat, lng\" coordinates")
		}
	}

	if editable.Contains(models.FieldSchedules) {
		if form.Schedules.Empty() {
			verr.add(models.FieldSchedules, msgRequired)
		} else {
			for _, entry := range scheduleStrings(form.Schedules) {
				if utf8.RuneCountInString(entry) > 100 {
					verr.add(models.FieldSchedules, "each entry must be at most 100 characters")
					break
				}
			}
		}
	}

	if editable.Contains(models.FieldDeliveryService) && form.DeliveryService != "" && !form.DeliveryService.Valid() {
		verr.add(models.FieldDeliveryService, "must be NO, SI or BAJO_PEDIDO")
	}
	if editable.Contains(models.FieldSalePlace) && form.SalePlace != "" && !form.SalePlace.Valid() {
		verr.add(models.FieldSalePlace, "must be NO, FERIAS or LOCAL_FIJO")
	}

	return verr
}

// scheduleStrings returns the text entries of s. Structured entries are skipped.
func scheduleStrings(s models.Schedules) []string {
	var out []string
	for _, raw := range s {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			out = append(out, text)
		}
	}
	return out
}
