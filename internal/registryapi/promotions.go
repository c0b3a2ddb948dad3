package registryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/johnrirwin/bizregistry/internal/models"
)

// ListPromotions lists a business's promotions, including inactive ones.
func (c *Client) ListPromotions(ctx context.Context, businessID int64) ([]models.Promotion, error) {
	const op = "list_promotions"
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/promotions/business/private",
		query:  url.Values{"businessId": {strconv.FormatInt(businessID, 10)}},
	})
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var promos []models.Promotion
	if err := json.Unmarshal(data, &promos); err != nil {
		return nil, unexpected(op, fmt.Errorf("decode promotions: %w", err))
	}
	return promos, nil
}

// CreatePromotion creates a promotion with its photo.
func (c *Client) CreatePromotion(ctx context.Context, payload models.PromotionCreatePayload, photo models.ImageFile) error {
	body := newMultipartBody()
	body.JSON("dto", payload)
	body.File("photo", photo)
	_, err := c.doMultipart(ctx, "create_promotion", http.MethodPost, "/promotions/business/create", body)
	return err
}

// UpdatePromotion updates a promotion, replacing its photo when one is given.
func (c *Client) UpdatePromotion(ctx context.Context, id int64, payload models.PromotionUpdatePayload, photo *models.ImageFile) error {
	body := newMultipartBody()
	body.JSON("dto", payload)
	if photo != nil {
		body.File("photo", *photo)
	}
	_, err := c.doMultipart(ctx, "update_promotion", http.MethodPut, "/promotions/business/update/"+strconv.FormatInt(id, 10), body)
	return err
}

// DeletePromotion deletes a promotion.
func (c *Client) DeletePromotion(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{
		op:     "delete_promotion",
		method: http.MethodDelete,
		path:   "/promotions/business/delete",
		query:  url.Values{"promoId": {strconv.FormatInt(id, 10)}},
	})
	return err
}
