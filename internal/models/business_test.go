package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessRecordDecode(t *testing.T) {
	raw := `{
		"id": 42,
		"commercialName": "Panadería Doña Rosa",
		"category": {"id": 7, "name": "Alimentos"},
		"parish": {"id": "3", "name": "San Pablo"},
		"phone": "+593987654321",
		"deliveryService": "BAJO_PEDIDO",
		"salePlace": "FERIAS",
		"schedules": "Lunes a viernes 08:00-17:00",
		"photos": [
			{"id": 1, "url": "https://cdn/logo.png", "photoType": "LOGO"},
			{"id": 2, "url": "https://cdn/s1.png", "photoType": "SLIDE"},
			{"id": 3, "url": "https://cdn/s2.png", "photoType": "SLIDE"}
		],
		"validationStatus": "rechazado"
	}`

	var rec BusinessRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, ID("7"), rec.Category.ID)
	assert.Equal(t, ID("3"), rec.Parish.ID)
	assert.Equal(t, DeliveryOnDemand, rec.DeliveryService)
	assert.True(t, rec.SalePlace.Valid())
	assert.Equal(t, ScheduleText("Lunes a viernes 08:00-17:00"), rec.Schedules)

	logo, ok := rec.Logo()
	require.True(t, ok)
	assert.Equal(t, "https://cdn/logo.png", logo.URL)
	assert.Len(t, rec.Slides(), 2)
}

func TestSchedulesWrapsScalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		empty bool
	}{
		{name: "text", input: `"8-17"`, want: `["8-17"]`},
		{name: "list", input: `["a","b"]`, want: `["a","b"]`},
		{name: "object", input: `{"dayOfWeek":"MONDAY"}`, want: `[{"dayOfWeek":"MONDAY"}]`},
		{name: "null", input: `null`, want: `[]`, empty: true},
		{name: "blank text", input: `"   "`, want: `[]`, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Schedules
			require.NoError(t, json.Unmarshal([]byte(tt.input), &s))
			out, err := json.Marshal(s)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
			assert.Equal(t, tt.empty, s.Empty())
		})
	}
}

func TestChangedFields(t *testing.T) {
	base := BusinessForm{
		CommercialName:  "Tienda",
		CategoryID:      "1",
		DeliveryService: DeliveryYes,
		Schedules:       ScheduleText("9-18"),
	}

	edited := base.Clone()
	edited.CommercialName = "Tienda Nueva"
	edited.SalePlace = SalePlaceStore
	edited.Schedules = ScheduleText("9-18", "Sábados 9-13")

	assert.Equal(t,
		[]FieldName{FieldCommercialName, FieldSalePlace, FieldSchedules},
		ChangedFields(base, edited),
	)
	assert.Empty(t, ChangedFields(base, base.Clone()))
}

func TestPromotionTypeValid(t *testing.T) {
	assert.True(t, PromotionTwoForOne.Valid())
	assert.False(t, PromotionType("BOGO").Valid())
}
