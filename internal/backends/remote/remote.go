// Package remote sends images to a waifu2x style HTTP super-resolution API.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // response decoders
	_ "image/jpeg" // response decoders
	"image/png"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	_ "golang.org/x/image/webp" // response decoders

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/classical"
	"image-upscaler/internal/models"
)

// maxResponseBytes bounds the decoded response body.
const maxResponseBytes = 256 << 20

type Config struct {
	Enabled bool
	URL     string
	APIKey  string
	Timeout time.Duration
	Noise   int
	Style   string
}

type Backend struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Backend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Backend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (b *Backend) Name() models.Capability {
	return models.RemoteAPI
}

func (b *Backend) ScaleRange() models.ScaleRange {
	return models.ScaleRange{Min: 1, Max: 4}
}

// Probe checks configuration only; it sends no traffic.
func (b *Backend) Probe(context.Context) error {
	if !b.cfg.Enabled {
		return backends.Unavailable(models.RemoteAPI, "remote API disabled", nil)
	}
	if b.cfg.URL == "" {
		return backends.Unavailable(models.RemoteAPI, "no endpoint configured", nil)
	}
	return nil
}

func (b *Backend) Upscale(ctx context.Context, img *models.Image, scale models.ScaleFactor, opts backends.Options) (*models.Image, error) {
	if err := backends.ValidateInput(img, scale); err != nil {
		return nil, err
	}
	if b.cfg.URL == "" {
		return nil, backends.Unavailable(models.RemoteAPI, "no endpoint configured", nil)
	}

	body, contentType, err := b.buildForm(img, scale, opts)
	if err != nil {
		return nil, backends.Processing(models.RemoteAPI, "encode", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL, body)
	if err != nil {
		return nil, backends.Network(models.RemoteAPI, 0, fmt.Errorf("create request: %w", err))
	}
	b.setHeaders(req, contentType)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ctxErr
		}
		return nil, backends.Network(models.RemoteAPI, 0, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backends.Network(models.RemoteAPI, resp.StatusCode,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, backends.Network(models.RemoteAPI, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, backends.Processing(models.RemoteAPI, "decode", err)
	}

	result, err := models.DerivedImage(img, decoded, models.OriginIntermediate)
	if err != nil {
		return nil, backends.Processing(models.RemoteAPI, "decode", err)
	}

	w, h := scale.TargetSize(img.Width, img.Height)
	return classical.ResizeTo(result, w, h, opts.Interpolation)
}

func (b *Backend) buildForm(img *models.Image, scale models.ScaleFactor, opts backends.Options) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", err
	}
	if err := png.Encode(part, img.Pixels); err != nil {
		return nil, "", fmt.Errorf("png encode: %w", err)
	}

	fields := map[string]string{
		"scale": strconv.Itoa(RequestScale(scale)),
		"noise": strconv.Itoa(b.noise(opts)),
		"style": b.style(opts),
	}
	for _, name := range []string{"scale", "noise", "style"} {
		if err := form.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}

func (b *Backend) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/*")
	if b.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", b.cfg.APIKey)
	}
}

func (b *Backend) noise(opts backends.Options) int {
	if opts.Noise >= 0 && opts.Noise <= 3 {
		return opts.Noise
	}
	return b.cfg.Noise
}

func (b *Backend) style(opts backends.Options) string {
	switch opts.Style {
	case "auto", "art", "photo":
		return opts.Style
	}
	if b.cfg.Style != "" {
		return b.cfg.Style
	}
	return "auto"
}

// RequestScale is the integer scale sent to the API: the requested factor
// rounded up and clamped to 1-4.
func RequestScale(scale models.ScaleFactor) int {
	s := int(math.Ceil(float64(scale)))
	return min(max(s, 1), 4)
}
