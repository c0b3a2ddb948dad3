package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnrirwin/bizregistry/internal/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Status
	}{
		{"REJECTED", StatusRejected},
		{"rechazado", StatusRejected},
		{"  Denied ", StatusRejected},
		{"APPROVED", StatusApproved},
		{"aprobado", StatusApproved},
		{"Aceptado", StatusApproved},
		{"accepted", StatusApproved},
		{"VALIDATED", StatusApproved},
		{"validado", StatusApproved},
		{"PENDING", StatusPending},
		{"pendiente", StatusPending},
		{"EN_REVISION", StatusPending},
		{"en revisión", StatusPending},
		{"en-revision", StatusPending},
		{"Revisión", StatusPending},
		{"", StatusUnknown},
		{"   ", StatusUnknown},
		{"ARCHIVED", StatusUnknown},
		{"approvedish", StatusUnknown},
		{"en  -  revision", StatusPending},
		{"-DENIED", StatusUnknown},
		{"_PENDING_", StatusUnknown},
		{"APPROVED-", StatusUnknown},
		{"_", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusApproved, StatusPending, StatusUnknown} {
		assert.Equal(t, s, Classify(string(Classify(string(s)))))
		assert.Equal(t, s, Classify(string(s)))
	}
}

func TestClassifierExtraSynonyms(t *testing.T) {
	c := NewClassifier(map[Status][]string{
		StatusApproved: {"activo", "Publicado"},
		StatusPending:  {"rechazado"},
		StatusUnknown:  {"whatever"},
	})

	assert.Equal(t, StatusApproved, c.Classify("ACTIVO"))
	assert.Equal(t, StatusApproved, c.Classify("publicado"))
	assert.Equal(t, StatusRejected, c.Classify("rechazado"), "extras never override built-ins")
	assert.Equal(t, StatusUnknown, c.Classify("whatever"))
	assert.Equal(t, StatusUnknown, Classify("activo"), "package table is unaffected")
}

func TestEditableFields(t *testing.T) {
	rejected := EditableFields(StatusRejected)
	approved := EditableFields(StatusApproved)
	pending := EditableFields(StatusPending)
	unknown := EditableFields(StatusUnknown)

	assert.Len(t, rejected, len(models.AllFields))
	assert.True(t, rejected.IsSupersetOf(approved))
	assert.True(t, approved.Equal(pending))
	assert.True(t, approved.Equal(unknown))
	assert.Len(t, approved, 15)

	for _, locked := range []models.FieldName{
		models.FieldCategoryID,
		models.FieldDeliveryService,
		models.FieldSalePlace,
	} {
		assert.True(t, rejected.Contains(locked), "%s editable when rejected", locked)
		assert.False(t, approved.Contains(locked), "%s locked when approved", locked)
	}
	assert.True(t, approved.Contains(models.FieldGoogleMapsCoordinates))
	assert.True(t, approved.Contains(models.FieldCountryCode))

	assert.Equal(t,
		[]models.FieldName{models.FieldCategoryID, models.FieldSalePlace},
		approved.Outside([]models.FieldName{models.FieldCategoryID, models.FieldPhone, models.FieldSalePlace}),
	)
}

func TestEditableFieldsReturnsFreshSet(t *testing.T) {
	set := EditableFields(StatusApproved)
	set[models.FieldCategoryID] = struct{}{}
	assert.False(t, EditableFields(StatusApproved).Contains(models.FieldCategoryID))
}

func TestAllowsFullResubmission(t *testing.T) {
	assert.True(t, AllowsFullResubmission(StatusRejected))
	assert.False(t, AllowsFullResubmission(StatusApproved))
	assert.False(t, AllowsFullResubmission(StatusPending))
	assert.False(t, AllowsFullResubmission(StatusUnknown))
}
