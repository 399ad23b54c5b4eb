package remote

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/backends/backendtest"
	"image-upscaler/internal/models"
)

type received struct {
	scale, noise, style, apiKey string
	width, height               int
}

// newAPI serves a doubled-size PNG for every valid upload.
func newAPI(t *testing.T, got *received) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		src, err := png.Decode(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		got.scale = r.FormValue("scale")
		got.noise = r.FormValue("noise")
		got.style = r.FormValue("style")
		got.apiKey = r.Header.Get("X-API-Key")
		got.width, got.height = src.Bounds().Dx(), src.Bounds().Dy()

		out := image.NewNRGBA(image.Rect(0, 0, got.width*2, got.height*2))
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpscale_Success(t *testing.T) {
	var got received
	srv := newAPI(t, &got)
	b := New(Config{Enabled: true, URL: srv.URL, APIKey: "k", Noise: 2, Style: "art"})

	img := backendtest.Gradient(20, 10)
	out, err := b.Upscale(context.Background(), img, 2, backends.Options{Noise: 3, Style: "photo"})
	require.NoError(t, err)

	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)
	assert.Equal(t, "2", got.scale)
	assert.Equal(t, "3", got.noise)
	assert.Equal(t, "photo", got.style)
	assert.Equal(t, "k", got.apiKey)
	assert.Equal(t, 20, got.width)
}

func TestUpscale_FractionalScaleResizedToTarget(t *testing.T) {
	var got received
	srv := newAPI(t, &got)
	b := New(Config{Enabled: true, URL: srv.URL})

	out, err := b.Upscale(context.Background(), backendtest.Gradient(10, 10), 1.5, backends.Options{Noise: -1})
	require.NoError(t, err)

	assert.Equal(t, "2", got.scale)
	assert.Equal(t, "0", got.noise, "falls back to configured noise")
	assert.Equal(t, "auto", got.style)
	assert.Equal(t, 15, out.Width)
	assert.Equal(t, 15, out.Height)
}

func TestUpscale_ErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{Enabled: true, URL: srv.URL}).
		Upscale(context.Background(), backendtest.Gradient(4, 4), 2, backends.DefaultOptions())

	var ne *backends.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusServiceUnavailable, ne.StatusCode)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, int32(1), calls.Load(), "never retries")
}

func TestUpscale_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	_, err := New(Config{Enabled: true, URL: srv.URL}).
		Upscale(context.Background(), backendtest.Gradient(4, 4), 2, backends.DefaultOptions())

	var pe *backends.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "decode", pe.Op)
}

func TestUpscale_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Config{Enabled: true, URL: srv.URL, Timeout: 50 * time.Millisecond}).
		Upscale(context.Background(), backendtest.Gradient(4, 4), 2, backends.DefaultOptions())

	var ne *backends.NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestUpscale_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{Enabled: true, URL: url}).
		Upscale(context.Background(), backendtest.Gradient(4, 4), 2, backends.DefaultOptions())

	var ne *backends.NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestUpscale_InvalidInput(t *testing.T) {
	b := New(Config{Enabled: true, URL: "http://127.0.0.1:1"})
	_, err := b.Upscale(context.Background(), nil, 2, backends.DefaultOptions())
	assert.ErrorIs(t, err, backends.ErrInvalidInput)
}

func TestProbe(t *testing.T) {
	assert.ErrorIs(t, New(Config{}).Probe(context.Background()), backends.ErrUnavailable)
	assert.ErrorIs(t, New(Config{Enabled: true}).Probe(context.Background()), backends.ErrUnavailable)
	assert.NoError(t, New(Config{Enabled: true, URL: "http://example.invalid"}).Probe(context.Background()))
}

func TestRequestScale(t *testing.T) {
	tests := []struct {
		in   models.ScaleFactor
		want int
	}{
		{0.5, 1},
		{1, 1},
		{1.5, 2},
		{2, 2},
		{2.1, 3},
		{4, 4},
		{8, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequestScale(tt.in), tt.in.String())
	}
}

func TestBuildForm_EncodesPNG(t *testing.T) {
	b := New(Config{})
	body, contentType, err := b.buildForm(backendtest.Solid(3, 3, color.Black), 2, backends.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, contentType, "multipart/form-data")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `name="file"; filename="image.png"`)
	assert.Contains(t, buf.String(), "\x89PNG")
}
