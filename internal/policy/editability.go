package policy

import (
	"github.com/johnrirwin/bizregistry/internal/models"
)

// FieldSet is an immutable-by-convention set of form fields.
type FieldSet map[models.FieldName]struct{}

// NewFieldSet builds a set from the given names.
func NewFieldSet(names ...models.FieldName) FieldSet {
	set := make(FieldSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is in the set.
func (s FieldSet) Contains(name models.FieldName) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in form display order.
func (s FieldSet) Names() []models.FieldName {
	out := make([]models.FieldName, 0, len(s))
	for _, name := range models.AllFields {
		if s.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}

// IsSupersetOf reports whether every member of o is also in s.
func (s FieldSet) IsSupersetOf(o FieldSet) bool {
	for name := range o {
		if !s.Contains(name) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same members.
func (s FieldSet) Equal(o FieldSet) bool {
	return len(s) == len(o) && s.IsSupersetOf(o)
}

// Outside returns the names in fields that are not members of s.
func (s FieldSet) Outside(fields []models.FieldName) []models.FieldName {
	var out []models.FieldName
	for _, f := range fields {
		if !s.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// liveEditableFields stay editable once a record has been submitted for or
// passed moderation. Category, delivery mode and sale place are fixed.
var liveEditableFields = []models.FieldName{
	models.FieldCommercialName,
	models.FieldDescription,
	models.FieldFacebook,
	models.FieldInstagram,
	models.FieldTiktok,
	models.FieldWebsite,
	models.FieldPhone,
	models.FieldEmail,
	models.FieldAcceptsWhatsappOrders,
	models.FieldWhatsappNumber,
	models.FieldAddress,
	models.FieldGoogleMapsCoordinates,
	models.FieldSchedules,
	models.FieldCountryCodePhone,
	models.FieldCountryCode,
}

// EditableFields returns the fields a user may change for a record in the
// given state. Only rejected records reopen the whole form; everything else,
// UNKNOWN included, gets the restricted set.
func EditableFields(status Status) FieldSet {
	if status == StatusRejected {
		return NewFieldSet(models.AllFields...)
	}
	return NewFieldSet(liveEditableFields...)
}

// AllowsFullResubmission reports whether a record in this state goes back
// through moderation with every field and new images.
func AllowsFullResubmission(status Status) bool {
	return status == StatusRejected
}
