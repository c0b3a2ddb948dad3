package registryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnrirwin/bizregistry/internal/auth"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/models"
)

const maxResponseBytes = 8 << 20

// Config configures the registry client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Client talks to the business registry REST API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   auth.CredentialProvider
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewClient creates a registry client. Every call authenticates with a
// bearer token from creds.
func NewClient(cfg Config, creds auth.CredentialProvider, logger *logging.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		creds:   creds,
		logger:  logger,
		tracer:  tp.Tracer("github.com/johnrirwin/bizregistry/internal/registryapi"),
	}
}

// request describes one registry call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// do sends req and returns the raw response body. It never sends a request
// without credentials.
func (c *Client) do(ctx context.Context, req request) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "registry."+req.op, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("registry.path", req.path),
	))
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = string(KindOf(err))
			span.SetAttributes(attribute.String("registry.error_kind", result))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.RegistryRequests.WithLabelValues(req.op, result).Inc()
		metrics.RegistryRequestDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())
		span.End()
	}()

	token, err := c.creds.Token(ctx)
	if err != nil {
		c.logger.Warn("No credentials for registry call", logging.WithFields(map[string]interface{}{
			"op":    req.op,
			"error": err.Error(),
		}))
		return nil, unauthenticated(req.op, err)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, unexpected(req.op, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("Registry unreachable", logging.WithFields(map[string]interface{}{
			"op":    req.op,
			"error": err.Error(),
		}))
		return nil, networkError(req.op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(req.op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		apiErr := classify(req.op, resp.StatusCode, serverMessage(body))
		c.logger.Warn("Registry call failed", logging.WithFields(map[string]interface{}{
			"op":     req.op,
			"status": resp.StatusCode,
			"kind":   string(apiErr.Kind),
		}))
		return nil, apiErr
	}

	c.logger.Debug("Registry call succeeded", logging.WithFields(map[string]interface{}{
		"op":     req.op,
		"status": resp.StatusCode,
	}))
	return body, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, unexpected(op, fmt.Errorf("encode payload: %w", err))
		}
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, request{op: op, method: method, path: path, query: query, body: body, contentType: contentType})
}

// serverMessage pulls "message" out of an error body, if it is JSON.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// multipartBody builds a multipart/form-data request body.
type multipartBody struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipartBody() *multipartBody {
	m := &multipartBody{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

// JSON adds a part holding v encoded as application/json.
func (m *multipartBody) JSON(field string, v interface{}) {
	if m.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.err = fmt.Errorf("encode %s: %w", field, err)
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, field))
	h.Set("Content-Type", "application/json")
	part, err := m.w.CreatePart(h)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = part.Write(data)
}

// File adds a file part.
func (m *multipartBody) File(field string, file models.ImageFile) {
	if m.err != nil {
		return
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.Name))
	h.Set("Content-Type", contentType)
	part, err := m.w.CreatePart(h)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = part.Write(file.Data)
}

// Finish closes the writer and returns the body and its content type.
func (m *multipartBody) Finish() ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	if err := m.w.Close(); err != nil {
		return nil, "", err
	}
	return m.buf.Bytes(), m.w.FormDataContentType(), nil
}

func (c *Client) doMultipart(ctx context.Context, op, method, path string, body *multipartBody) ([]byte, error) {
	data, contentType, err := body.Finish()
	if err != nil {
		return nil, unexpected(op, fmt.Errorf("encode multipart: %w", err))
	}
	return c.do(ctx, request{op: op, method: method, path: path, body: data, contentType: contentType})
}

// unwrapEnvelope returns the payload of a {success,message,data} envelope,
// or body unchanged when it is not wrapped.
func unwrapEnvelope(op string, body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var env struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, unexpected(op, err)
	}
	if env.Success == nil && env.Data == nil {
		return trimmed, nil
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = msgUnexpected
		}
		return nil, &APIError{Op: op, Kind: KindUnexpected, Message: msg, Err: errors.New("registry reported failure")}
	}
	return bytes.TrimSpace(env.Data), nil
}
