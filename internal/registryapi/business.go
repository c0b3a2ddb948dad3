package registryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/submission"
)

// businessRecordSchema is the minimum shape a business detail response must
// have before it is trusted to seed an edit form.
const businessRecordSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"commercialName": {"type": ["string", "null"]},
		"validationStatus": {"type": ["string", "null"]},
		"phone": {"type": ["string", "null"]},
		"whatsappNumber": {"type": ["string", "null"]},
		"googleMapsCoordinates": {"type": ["string", "null"]},
		"photos": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"url": {"type": ["string", "null"]},
					"photoType": {"type": ["string", "null"]}
				}
			}
		}
	}
}`

var businessRecordSchemaLoader = gojsonschema.NewStringLoader(businessRecordSchema)

func validateRecordShape(data []byte) error {
	result, err := gojsonschema.Validate(businessRecordSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("business record failed validation: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetBusiness fetches one business record. The registry returns it either
// bare or inside a {success,message,data} envelope.
func (c *Client) GetBusiness(ctx context.Context, id int64) (*models.BusinessRecord, error) {
	const op = "get_business"
	if id <= 0 {
		return nil, &APIError{Op: op, Kind: KindValidation, Message: "Invalid business id.", Err: submission.ErrInvalidBusinessID}
	}

	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/business/public-details",
		query:  url.Values{"id": {strconv.FormatInt(id, 10)}},
	})
	if err != nil {
		return nil, err
	}

	data, err := unwrapEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	if err := validateRecordShape(data); err != nil {
		return nil, unexpected(op, err)
	}

	var record models.BusinessRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, unexpected(op, fmt.Errorf("decode business: %w", err))
	}
	return &record, nil
}

// Send dispatches an update built by the submission strategy.
func (c *Client) Send(ctx context.Context, req submission.OutboundRequest) error {
	switch r := req.(type) {
	case *submission.MultipartRequest:
		return c.UpdateRejected(ctx, r.ID, r.Business, r.Logo, r.Carousel)
	case *submission.JSONRequest:
		return c.UpdatePartial(ctx, r.ID, r.Business)
	default:
		return unexpected("send", fmt.Errorf("unsupported request type %T", req))
	}
}

// UpdatePartial updates the fields that stay editable on a live or pending record.
func (c *Client) UpdatePartial(ctx context.Context, id int64, payload models.PartialBusinessPayload) error {
	_, err := c.doJSON(ctx, "update_business", http.MethodPut, "/business/"+strconv.FormatInt(id, 10), nil, payload)
	return err
}

// UpdateRejected resubmits a rejected record with every field and new images.
func (c *Client) UpdateRejected(ctx context.Context, id int64, payload models.FullBusinessPayload, logo *models.ImageFile, carousel []models.ImageFile) error {
	body := newMultipartBody()
	body.JSON("business", payload)
	if logo != nil {
		body.File("logoFile", *logo)
	}
	for _, f := range carousel {
		body.File("carouselFiles", f)
	}
	_, err := c.doMultipart(ctx, "update_rejected_business", http.MethodPut, "/business/update-rejected/"+strconv.FormatInt(id, 10), body)
	return err
}

// CreateBusiness registers a new business with its logo and carousel photos.
func (c *Client) CreateBusiness(ctx context.Context, payload models.CreateBusinessPayload, logo *models.ImageFile, carousel []models.ImageFile) error {
	body := newMultipartBody()
	body.JSON("business", payload)
	if logo != nil {
		body.File("logoFile", *logo)
	}
	for _, f := range carousel {
		body.File("carrouselPhotos", f)
	}
	_, err := c.doMultipart(ctx, "create_business", http.MethodPost, "/business/create", body)
	return err
}

// RequestDeletion asks the registry administrators to delete a business.
func (c *Client) RequestDeletion(ctx context.Context, id int64, reason, justification string) error {
	_, err := c.do(ctx, request{
		op:     "request_deletion",
		method: http.MethodPost,
		path:   "/business/deletion/" + strconv.FormatInt(id, 10),
		query: url.Values{
			"motivo":        {reason},
			"justificacion": {justification},
		},
	})
	return err
}

// ListCategories returns the selectable business categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "list_categories"
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/businessCategories/select"})
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(op, body)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, unexpected(op, fmt.Errorf("decode categories: %w", err))
	}
	return categories, nil
}

// Page is one page of the signed-in user's businesses.
type Page struct {
	Content       []models.BusinessRecord `json:"content"`
	TotalElements int                     `json:"totalElements"`
	TotalPages    int                     `json:"totalPages"`
	Number        int                     `json:"number"`
}

// ListMyBusinesses lists the businesses owned by the signed-in user.
func (c *Client) ListMyBusinesses(ctx context.Context, category string, page, size int) (*Page, error) {
	const op = "list_my_businesses"
	query := url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	if category = strings.TrimSpace(category); category != "" {
		query.Set("category", category)
	}

	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/business/private-list-by-category", query: query})
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(op, body)
	if err != nil {
		return nil, err
	}

	var out Page
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, unexpected(op, fmt.Errorf("decode businesses: %w", err))
	}
	return &out, nil
}
