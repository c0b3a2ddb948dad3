package registryapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/johnrirwin/bizregistry/internal/auth"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/policy"
	"github.com/johnrirwin/bizregistry/internal/submission"
	"github.com/johnrirwin/bizregistry/internal/testutil"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	creds := auth.NewTokenStore(token, 0, testutil.NullLogger())
	client := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, creds, logging.NewTest(t))
	return client, &calls
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGetBusiness(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "enveloped",
			body: `{"success":true,"message":"ok","data":{"id":7,"commercialName":"Panadería Sol","validationStatus":"rechazado","schedules":"L-V 8-17"}}`,
		},
		{
			name: "bare",
			body: `{"id":7,"commercialName":"Panadería Sol","validationStatus":"rechazado","schedules":["L-V 8-17"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/business/public-details", r.URL.Path)
				assert.Equal(t, "7", r.URL.Query().Get("id"))
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, tt.body)
			})

			record, err := client.GetBusiness(context.Background(), 7)
			require.NoError(t, err)
			assert.Equal(t, int64(7), record.ID)
			assert.Equal(t, "Panadería Sol", record.CommercialName)
			assert.Equal(t, policy.StatusRejected, policy.Classify(record.ValidationStatus))
			assert.True(t, record.Schedules.Equal(models.ScheduleText("L-V 8-17")))
		})
	}
}

func TestGetBusinessRejectsMalformedRecord(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"commercialName":"sin id"}}`)
	})

	_, err := client.GetBusiness(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestGetBusinessReportsEnvelopeFailure(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"Negocio inactivo"}`)
	})

	_, err := client.GetBusiness(context.Background(), 7)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Negocio inactivo", apiErr.UserMessage())
}

func TestGetBusinessInvalidIDSendsNothing(t *testing.T) {
	client, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":1}`)
	})

	_, err := client.GetBusiness(context.Background(), 0)
	assert.ErrorIs(t, err, submission.ErrInvalidBusinessID)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestMissingCredentialsSendNothing(t *testing.T) {
	client, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	err := client.UpdatePartial(context.Background(), 3, models.PartialBusinessPayload{})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     ErrorKind
		message  string
		retrying bool
	}{
		{"bad request with server message", 400, `{"message":"El correo no es válido"}`, KindValidation, "El correo no es válido", true},
		{"bad request without message", 400, ``, KindValidation, msgValidation, true},
		{"unprocessable", 422, `{"message":"ignored"}`, KindValidation, msgUnprocessable, true},
		{"unauthorized", 401, ``, KindUnauthorized, msgUnauthorized, false},
		{"forbidden", 403, ``, KindForbidden, msgForbidden, true},
		{"not found", 404, ``, KindNotFound, msgNotFound, true},
		{"too large", 413, ``, KindTooLarge, msgTooLarge, true},
		{"internal", 500, `{"message":"NullPointerException"}`, KindServer, msgServer, true},
		{"unavailable", 503, ``, KindServer, msgServer, true},
		{"teapot", 418, ``, KindUnexpected, msgUnexpected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.UpdatePartial(context.Background(), 3, models.PartialBusinessPayload{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.UserMessage())
			assert.Equal(t, tt.retrying, apiErr.Retryable())
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	creds := auth.NewTokenStore("tok", 0, testutil.NullLogger())
	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, creds, testutil.NullLogger())

	err := client.UpdatePartial(context.Background(), 3, models.PartialBusinessPayload{})
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, err.Error(), msgNetwork)
}

func sampleForm() models.BusinessForm {
	return models.BusinessForm{
		CategoryID:            "2",
		CommercialName:        "Panadería Sol",
		Description:           "Pan artesanal",
		CountryCodePhone:      "+593",
		Phone:                 "987654321",
		CountryCode:           "+593",
		AcceptsWhatsappOrders: true,
		WhatsappNumber:        "998877665",
		Address:               "Calle Bolívar 3-21",
		ParishCommunitySector: "San Francisco",
		GoogleMapsCoordinates: "0.351600, -78.122500",
		DeliveryService:       models.DeliveryOnDemand,
		SalePlace:             models.SalePlaceFairs,
		Schedules:             models.ScheduleText("Sábados 7:00-12:00"),
	}
}

func TestSendRejectedAsMultipart(t *testing.T) {
	logo := &models.ImageFile{Name: "logo.png", ContentType: "image/png", Data: []byte("logo-bytes")}
	carousel := []models.ImageFile{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
	}
	req, err := submission.Build(9, policy.StatusRejected, sampleForm(), submission.Attachments{Logo: logo, Carousel: carousel})
	require.NoError(t, err)

	client, calls := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/business/update-rejected/9", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		business := r.MultipartForm.Value["business"]
		require.Len(t, business, 1)
		var keys map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(business[0]), &keys))
		assert.Len(t, keys, len(models.AllFields))
		assert.JSONEq(t, `"+593987654321"`, string(keys["phone"]))
		assert.JSONEq(t, `"BAJO_PEDIDO"`, string(keys["deliveryService"]))

		logos := r.MultipartForm.File["logoFile"]
		require.Len(t, logos, 1)
		assert.Equal(t, "logo.png", logos[0].Filename)
		assert.Equal(t, "image/png", logos[0].Header.Get("Content-Type"))
		assert.Len(t, r.MultipartForm.File["carouselFiles"], 2)

		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	require.NoError(t, client.Send(context.Background(), req))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestSendLiveAsJSON(t *testing.T) {
	req, err := submission.Build(9, policy.StatusApproved, sampleForm(), submission.Attachments{
		Logo: &models.ImageFile{Name: "logo.png", Data: []byte("x")},
	})
	require.NoError(t, err)

	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/business/9", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var keys map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&keys))
		assert.NotContains(t, keys, "categoryId")
		assert.NotContains(t, keys, "salePlace")
		assert.JSONEq(t, `["Sábados 7:00-12:00"]`, string(keys["schedules"]))
		assert.JSONEq(t, `"+593998877665"`, string(keys["whatsappNumber"]))

		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Send(context.Background(), req))
}

func TestCreateBusinessUsesRegistrationParts(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/business/create", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["logoFile"], 1)
		assert.Len(t, r.MultipartForm.File["carrouselPhotos"], 1)

		var payload map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(r.MultipartForm.Value["business"][0]), &payload))
		assert.JSONEq(t, `"5"`, string(payload["parishId"]))
		assert.JSONEq(t, `"Panadería Sol"`, string(payload["commercialName"]))
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":30}}`)
	})

	payload := models.CreateBusinessPayload{
		FullBusinessPayload: submission.FullPayload(sampleForm()),
		ParishID:            "5",
	}
	err := client.CreateBusiness(context.Background(), payload,
		&models.ImageFile{Name: "logo.png", Data: []byte("l")},
		[]models.ImageFile{{Name: "c.png", Data: []byte("c")}})
	require.NoError(t, err)
}

func TestRequestDeletion(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/business/deletion/4", r.URL.Path)
		assert.Equal(t, "Cierre definitivo", r.URL.Query().Get("motivo"))
		assert.Equal(t, "El local cerró en agosto", r.URL.Query().Get("justificacion"))
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	require.NoError(t, client.RequestDeletion(context.Background(), 4, "Cierre definitivo", "El local cerró en agosto"))
}

func TestListCategoriesAndMyBusinesses(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/businessCategories/select":
			writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":1,"name":"Alimentos"},{"id":"2","name":"Artesanías"}]}`)
		case "/business/private-list-by-category":
			assert.Equal(t, "0", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("size"))
			assert.False(t, r.URL.Query().Has("category"))
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"content":[{"id":4,"commercialName":"Sol"}],"totalElements":1,"totalPages":1,"number":0}}`)
		default:
			http.NotFound(w, r)
		}
	})

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, models.ID("2"), categories[1].ID)

	page, err := client.ListMyBusinesses(context.Background(), "  ", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, int64(4), page.Content[0].ID)
	assert.Equal(t, 1, page.TotalElements)
}

func TestPromotionEndpoints(t *testing.T) {
	client, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/promotions/business/private":
			assert.Equal(t, "4", r.URL.Query().Get("businessId"))
			writeJSON(w, http.StatusOK, `{"success":true,"data":[{"idBusinessPromo":11,"businessId":4,"tipoPromocion":"DOSXUNO","tituloPromocion":"2x1 martes"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/promotions/business/create":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Len(t, r.MultipartForm.File["photo"], 1)
			assert.Contains(t, r.MultipartForm.Value["dto"][0], `"tituloPromocion":"2x1 martes"`)
			writeJSON(w, http.StatusOK, `{"success":true}`)
		case r.Method == http.MethodPut && r.URL.Path == "/promotions/business/update/11":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Empty(t, r.MultipartForm.File["photo"])
			assert.Contains(t, r.MultipartForm.Value["dto"][0], `"titlePromotion":"3x2 martes"`)
			writeJSON(w, http.StatusOK, `{"success":true}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/promotions/business/delete":
			assert.Equal(t, "11", r.URL.Query().Get("promoId"))
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	promos, err := client.ListPromotions(ctx, 4)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, models.PromotionTwoForOne, promos[0].PromoType)

	require.NoError(t, client.CreatePromotion(ctx, models.PromotionCreatePayload{BusinessID: 4, Title: "2x1 martes"},
		models.ImageFile{Name: "p.jpg", Data: []byte("p")}))
	require.NoError(t, client.UpdatePromotion(ctx, 11, models.PromotionUpdatePayload{BusinessID: 4, Title: "3x2 martes"}, nil))
	require.NoError(t, client.DeletePromotion(ctx, 11))
}

func TestCallsAreTraced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "404" {
			writeJSON(w, http.StatusNotFound, ``)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":7,"commercialName":"Sol","validationStatus":"APROBADO"}`)
	}))
	t.Cleanup(srv.Close)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	creds := auth.NewTokenStore("tok", 0, testutil.NullLogger())
	client := NewClient(Config{BaseURL: srv.URL, TracerProvider: tp}, creds, testutil.NullLogger())

	_, err := client.GetBusiness(context.Background(), 7)
	require.NoError(t, err)
	_, err = client.GetBusiness(context.Background(), 404)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "registry.get_business", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "registry.get_business", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "not_found", spanAttr(spans[1], "registry.error_kind"))
	assert.EqualValues(t, 404, spanAttrInt(spans[1], "http.status_code"))
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func spanAttrInt(span sdktrace.ReadOnlySpan, key string) int64 {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.AsInt64()
		}
	}
	return 0
}
