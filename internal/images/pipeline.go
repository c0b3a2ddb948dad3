package images

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/models"
)

// Slot is where an accepted image will be attached.
type Slot string

const (
	SlotLogo      Slot = "logo"
	SlotCarousel  Slot = "carousel"
	SlotPromotion Slot = "promotion"
)

// Reason explains why a file was rejected. The zero value means accepted.
type Reason string

const (
	ReasonUnsupportedFormat Reason = "unsupported format"
	ReasonTooLarge          Reason = "too large"
	ReasonTooSmall          Reason = "below minimum resolution"
	ReasonUnreadable        Reason = "unreadable image"
	ReasonNotAllowed        Reason = "content not allowed"
	ReasonCanceled          Reason = "validation canceled"
)

// Screener screens image content before it is accepted.
type Screener interface {
	Screen(ctx context.Context, photo []byte) (*models.ScreeningResult, error)
}

// Limits bounds what the pipeline accepts.
type Limits struct {
	MaxBytes    int64
	MinWidth    int
	MinHeight   int
	CarouselCap int
	Concurrency int
}

// DefaultLimits: 2 MiB, 800x600 minimum, five carousel photos.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:    2 * 1024 * 1024,
		MinWidth:    800,
		MinHeight:   600,
		CarouselCap: 5,
		Concurrency: 4,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxBytes <= 0 {
		l.MaxBytes = d.MaxBytes
	}
	if l.MinWidth <= 0 {
		l.MinWidth = d.MinWidth
	}
	if l.MinHeight <= 0 {
		l.MinHeight = d.MinHeight
	}
	if l.CarouselCap <= 0 {
		l.CarouselCap = d.CarouselCap
	}
	if l.Concurrency <= 0 {
		l.Concurrency = d.Concurrency
	}
	return l
}

// Result is the outcome of validating one file.
type Result struct {
	File        models.ImageFile
	ContentType string
	Width       int
	Height      int
	Reason      Reason
	Err         error
	Screening   *models.ScreeningResult
}

// Accepted reports whether the file passed every check.
func (r Result) Accepted() bool {
	return r.Reason == ""
}

// Message is the user-facing explanation for a rejected file.
func (r Result) Message(limits Limits) string {
	switch r.Reason {
	case "":
		return ""
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("%s: %s, only JPG and PNG are allowed", r.File.Name, r.Reason)
	case ReasonTooLarge:
		return fmt.Sprintf("%s: %s, the limit is %s", r.File.Name, r.Reason, humanBytes(limits.MaxBytes))
	case ReasonTooSmall:
		return fmt.Sprintf("%s: %s, needs at least %dx%d (got %dx%d)",
			r.File.Name, r.Reason, limits.MinWidth, limits.MinHeight, r.Width, r.Height)
	default:
		return fmt.Sprintf("%s: %s", r.File.Name, r.Reason)
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScreener adds content screening after the local checks. Screening
// failures are logged and the file is accepted.
func WithScreener(s Screener, timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.screener = s
		p.screenTimeout = timeout
	}
}

// Pipeline validates image files before they join an upload set.
type Pipeline struct {
	limits        Limits
	screener      Screener
	screenTimeout time.Duration
	logger        *logging.Logger
}

// NewPipeline creates a validation pipeline.
func NewPipeline(limits Limits, logger *logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		limits: limits.withDefaults(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Limits returns the effective limits.
func (p *Pipeline) Limits() Limits {
	return p.limits
}

// ValidateBatch validates every file concurrently and returns one result per
// file, in input order. A failure on one file never affects the others.
func (p *Pipeline) ValidateBatch(ctx context.Context, slot Slot, files []models.ImageFile) []Result {
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limits.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = p.Validate(gctx, slot, file)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Validate runs the checks for a single file: extension, size, content
// sniffing, decoded resolution and optional screening.
func (p *Pipeline) Validate(ctx context.Context, slot Slot, file models.ImageFile) Result {
	start := time.Now()
	res := p.validate(ctx, slot, file)

	outcome := "accepted"
	if !res.Accepted() {
		outcome = string(res.Reason)
		fields := logging.WithFields(map[string]interface{}{
			"file":   file.Name,
			"slot":   string(slot),
			"reason": string(res.Reason),
		})
		if res.Err != nil {
			p.logger.Warn("Image rejected", fields, logging.WithField("error", res.Err.Error()))
		} else {
			p.logger.Debug("Image rejected", fields)
		}
	}
	metrics.ImageValidations.WithLabelValues(string(slot), outcome).Inc()
	metrics.ImageValidationDuration.WithLabelValues(string(slot)).Observe(time.Since(start).Seconds())

	return res
}

func (p *Pipeline) validate(ctx context.Context, slot Slot, file models.ImageFile) Result {
	res := Result{File: file}

	if err := ctx.Err(); err != nil {
		res.Reason, res.Err = ReasonCanceled, err
		return res
	}

	if !acceptedExtension(file.Name) {
		res.Reason = ReasonUnsupportedFormat
		return res
	}
	if file.Size() > p.limits.MaxBytes {
		res.Reason = ReasonTooLarge
		return res
	}

	contentType, ok := sniffPhoto(file.Data)
	res.ContentType = contentType
	if !ok {
		if len(file.Data) == 0 {
			res.Reason = ReasonUnreadable
		} else {
			res.Reason = ReasonUnsupportedFormat
		}
		return res
	}
	res.File.ContentType = contentType

	if slot != SlotPromotion {
		img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
		if err != nil {
			res.Reason = ReasonUnreadable
			res.Err = fmt.Errorf("images - validate - imaging.Decode: %w", err)
			return res
		}
		bounds := img.Bounds()
		res.Width, res.Height = bounds.Dx(), bounds.Dy()
		if res.Width < p.limits.MinWidth || res.Height < p.limits.MinHeight {
			res.Reason = ReasonTooSmall
			return res
		}
	}

	res.Screening = p.screen(ctx, file.Data)
	if res.Screening.Blocked() {
		res.Reason = ReasonNotAllowed
	}
	return res
}

func (p *Pipeline) screen(ctx context.Context, data []byte) *models.ScreeningResult {
	if p.screener == nil {
		return nil
	}
	timeout := p.screenTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	screenCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := p.screener.Screen(screenCtx, data)
	if err != nil || result == nil {
		if err != nil {
			p.logger.Warn("Image screening unavailable, accepting file", logging.WithField("error", err.Error()))
		}
		return &models.ScreeningResult{
			Verdict: models.VerdictUnscreened,
			Note:    "unable to verify right now",
		}
	}
	return result
}

func humanBytes(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mib)
}
