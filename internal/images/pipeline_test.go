package images

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/bizregistry/internal/models"
	"github.com/johnrirwin/bizregistry/internal/testutil"
)

type fakeScreener struct {
	result *models.ScreeningResult
	err    error
	calls  atomic.Int32
}

func (f *fakeScreener) Screen(context.Context, []byte) (*models.ScreeningResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestPipeline(opts ...Option) *Pipeline {
	return NewPipeline(DefaultLimits(), testutil.NullLogger(), opts...)
}

func TestPipelineValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		slot       Slot
		file       models.ImageFile
		wantReason Reason
		wantW      int
		wantH      int
	}{
		{
			name:  "large png accepted",
			slot:  SlotCarousel,
			file:  models.ImageFile{Name: "storefront.PNG", Data: testutil.PNG(t, 1900, 1200, 500*1024)},
			wantW: 1900,
			wantH: 1200,
		},
		{
			name:  "minimum size jpeg accepted",
			slot:  SlotLogo,
			file:  models.ImageFile{Name: "logo.jpeg", Data: testutil.JPEG(t, 800, 600)},
			wantW: 800,
			wantH: 600,
		},
		{
			name:       "small jpeg rejected",
			slot:       SlotLogo,
			file:       models.ImageFile{Name: "logo.jpg", Data: testutil.JPEG(t, 500, 400)},
			wantReason: ReasonTooSmall,
			wantW:      500,
			wantH:      400,
		},
		{
			name:       "3 MB png rejected",
			slot:       SlotCarousel,
			file:       models.ImageFile{Name: "huge.png", Data: testutil.PNG(t, 1000, 800, 3*1024*1024)},
			wantReason: ReasonTooLarge,
		},
		{
			name:       "gif rejected by extension",
			slot:       SlotCarousel,
			file:       models.ImageFile{Name: "anim.gif", Data: []byte("GIF89a")},
			wantReason: ReasonUnsupportedFormat,
		},
		{
			name:       "renamed gif rejected by content",
			slot:       SlotCarousel,
			file:       models.ImageFile{Name: "anim.png", Data: append([]byte("GIF89a"), make([]byte, 64)...)},
			wantReason: ReasonUnsupportedFormat,
		},
		{
			name:       "truncated png unreadable",
			slot:       SlotLogo,
			file:       models.ImageFile{Name: "broken.png", Data: testutil.PNG(t, 900, 700, 0)[:40]},
			wantReason: ReasonUnreadable,
		},
		{
			name: "promotion skips resolution",
			slot: SlotPromotion,
			file: models.ImageFile{Name: "promo.jpg", Data: testutil.JPEG(t, 300, 300)},
		},
	}

	p := newTestPipeline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := p.Validate(context.Background(), tt.slot, tt.file)
			assert.Equal(t, tt.wantReason, res.Reason, "err=%v", res.Err)
			assert.Equal(t, tt.wantReason == "", res.Accepted())
			if tt.wantW > 0 {
				assert.Equal(t, tt.wantW, res.Width)
				assert.Equal(t, tt.wantH, res.Height)
			}
		})
	}
}

func TestPipelineValidateBatchKeepsOrderAndIsolation(t *testing.T) {
	p := newTestPipeline()
	files := []models.ImageFile{
		{Name: "a.png", Data: testutil.PNG(t, 1024, 768, 0)},
		{Name: "b.png", Data: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}},
		{Name: "c.bmp", Data: []byte("BM")},
		{Name: "d.jpg", Data: testutil.JPEG(t, 1200, 900)},
	}

	results := p.ValidateBatch(context.Background(), SlotCarousel, files)
	require.Len(t, results, 4)

	assert.True(t, results[0].Accepted())
	assert.Equal(t, ReasonUnreadable, results[1].Reason)
	assert.Equal(t, ReasonUnsupportedFormat, results[2].Reason)
	assert.True(t, results[3].Accepted())
	for i, r := range results {
		assert.Equal(t, files[i].Name, r.File.Name)
	}
	assert.Equal(t, "image/jpeg", results[3].File.ContentType)
}

func TestPipelineScreening(t *testing.T) {
	file := models.ImageFile{Name: "a.png", Data: testutil.PNG(t, 800, 600, 0)}

	t.Run("rejected content", func(t *testing.T) {
		screener := &fakeScreener{result: &models.ScreeningResult{Verdict: models.VerdictBlocked}}
		res := newTestPipeline(WithScreener(screener, time.Second)).Validate(context.Background(), SlotLogo, file)
		assert.Equal(t, ReasonNotAllowed, res.Reason)
		assert.EqualValues(t, 1, screener.calls.Load())
	})

	t.Run("screening error fails open", func(t *testing.T) {
		screener := &fakeScreener{err: errors.New("throttled")}
		res := newTestPipeline(WithScreener(screener, time.Second)).Validate(context.Background(), SlotLogo, file)
		assert.True(t, res.Accepted())
		require.NotNil(t, res.Screening)
		assert.Equal(t, models.VerdictUnscreened, res.Screening.Verdict)
	})

	t.Run("local failures are not screened", func(t *testing.T) {
		screener := &fakeScreener{result: &models.ScreeningResult{Verdict: models.VerdictClear}}
		small := models.ImageFile{Name: "s.png", Data: testutil.PNG(t, 10, 10, 0)}
		res := newTestPipeline(WithScreener(screener, time.Second)).Validate(context.Background(), SlotLogo, small)
		assert.Equal(t, ReasonTooSmall, res.Reason)
		assert.Zero(t, screener.calls.Load())
	})
}

func TestPipelineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestPipeline().Validate(ctx, SlotLogo, models.ImageFile{Name: "a.png", Data: testutil.PNG(t, 800, 600, 0)})
	assert.Equal(t, ReasonCanceled, res.Reason)
}

func TestResultMessage(t *testing.T) {
	limits := DefaultLimits()
	assert.Equal(t, "x.png: too large, the limit is 2 MB",
		Result{File: models.ImageFile{Name: "x.png"}, Reason: ReasonTooLarge}.Message(limits))
	assert.Equal(t, "x.png: below minimum resolution, needs at least 800x600 (got 500x400)",
		Result{File: models.ImageFile{Name: "x.png"}, Reason: ReasonTooSmall, Width: 500, Height: 400}.Message(limits))
	assert.Empty(t, Result{}.Message(limits))
}

func TestSniffPhoto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       []byte
		wantType    string
		wantAllowed bool
	}{
		{name: "empty", input: nil, wantType: "", wantAllowed: false},
		{
			name:        "jpeg_allowed",
			input:       append([]byte{0xFF, 0xD8, 0xFF, 0xDB}, make([]byte, 512)...),
			wantType:    "image/jpeg",
			wantAllowed: true,
		},
		{
			name:        "png_allowed",
			input:       append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 512)...),
			wantType:    "image/png",
			wantAllowed: true,
		},
		{
			name:        "webp_disallowed",
			input:       append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 512)...),
			wantType:    "image/webp",
			wantAllowed: false,
		},
		{
			name:        "text_drops_params",
			input:       []byte("just some text"),
			wantType:    "text/plain",
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotType, gotAllowed := sniffPhoto(tt.input)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantAllowed, gotAllowed)
		})
	}
}
