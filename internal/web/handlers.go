package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/services"
)

const (
	HeaderBackend = "X-Upscale-Backend"
	HeaderResults = "X-Upscale-Results"

	multipartMemory = 32 << 20
	scaleStep       = 0.5
)

// uploadFields lists the accepted multipart file keys.
var uploadFields = []string{"images[]", "images"}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexPage struct {
	Accept       string
	MaxSide      int
	MaxUpload    string
	Scales       []option
	Tiers        []option
	Formats      []option
	Quality      int
	Enhance      bool
	Capabilities []backends.CapabilityInfo
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Accept:       strings.Join(pipeline.SupportedInputExtensions, ","),
		MaxSide:      s.loader.MaxSide(),
		MaxUpload:    humanize.IBytes(uint64(s.opts.MaxUploadBytes)),
		Scales:       s.scaleOptions(),
		Quality:      s.opts.DefaultQuality,
		Enhance:      s.opts.Enhance,
		Capabilities: s.service.Capabilities(),
	}
	for _, tier := range models.QualityTiers {
		page.Tiers = append(page.Tiers, option{Value: string(tier), Label: string(tier), Selected: tier == s.opts.DefaultTier})
	}
	for _, format := range pipeline.OutputFormats {
		if format == "webp" && !codec.Available() {
			continue
		}
		page.Formats = append(page.Formats, option{Value: format, Label: format, Selected: format == s.opts.DefaultFormat})
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		s.logger.Error("WebServer", err, map[string]interface{}{"template": "index.html"})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// scaleOptions lists scales from the configured minimum to maximum in half
// steps, starting at 1.5 when the minimum is 1.
func (s *Server) scaleOptions() []option {
	start := float64(s.opts.MinScale)
	if start <= 1 {
		start = 1.5
	}
	var opts []option
	for v := start; v <= float64(s.opts.MaxScale)+1e-9; v += scaleStep {
		value := strconv.FormatFloat(v, 'f', -1, 64)
		opts = append(opts, option{
			Value:    value,
			Label:    models.ScaleFactor(v).String(),
			Selected: models.ScaleFactor(v) == s.opts.DefaultScale,
		})
	}
	return opts
}

type capabilitiesResponse struct {
	OpenCV       string                         `json:"opencv,omitempty"`
	Capabilities []backends.CapabilityInfo      `json:"capabilities"`
	Plans        map[string][]models.Capability `json:"plans"`
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	resp := capabilitiesResponse{
		OpenCV:       codec.OpenCVVersion(),
		Capabilities: s.service.Capabilities(),
		Plans:        make(map[string][]models.Capability, len(models.QualityTiers)),
	}
	for _, tier := range models.QualityTiers {
		resp.Plans[string(tier)] = s.service.Plan(services.Request{Tier: tier, Scale: s.opts.DefaultScale})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// resultEntry is one element of the X-Upscale-Results header.
type resultEntry struct {
	Name       string            `json:"name"`
	Backend    models.Capability `json:"backend"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Attempts   []models.Attempt  `json:"attempts,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

func (s *Server) handleUpscale(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %s", humanize.IBytes(uint64(s.opts.MaxUploadBytes))))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %s", humanize.IBytes(uint64(s.opts.MaxUploadBytes))))
			return
		}
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only

	req, err := s.parseRequest(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	files := uploadedFiles(r.MultipartForm)
	if len(files) == 0 {
		s.fail(w, r, http.StatusBadRequest, errors.New("no images uploaded"))
		return
	}

	jobs := make([]*pipeline.Decoded, 0, len(files))
	for _, fh := range files {
		job, err := s.decode(fh)
		if err != nil {
			s.fail(w, r, statusFor(err), err)
			return
		}
		jobs = append(jobs, job)
	}

	outcomes := s.service.ProcessBatch(r.Context(), jobs, req)
	if err := services.FirstError(outcomes); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}

	s.writeResultHeaders(w, outcomes)

	if len(outcomes) == 1 {
		encoded := outcomes[0].Encoded
		w.Header().Set("Content-Type", pipeline.ContentType(encoded.Format))
		w.Header().Set("Content-Disposition", attachment(encoded.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(encoded.Data)))
		_, _ = w.Write(encoded.Data)
		return
	}

	entries := make([]pipeline.Encoded, len(outcomes))
	for i, o := range outcomes {
		entries[i] = *o.Encoded
	}
	var buf bytes.Buffer
	if err := pipeline.WriteArchive(&buf, entries); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(pipeline.ArchiveName(len(entries))))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) parseRequest(r *http.Request) (services.Request, error) {
	req := services.Request{
		Scale:    s.opts.DefaultScale,
		Tier:     s.opts.DefaultTier,
		Options:  s.opts.Backend,
		Enhance:  s.opts.Enhance,
		Settings: s.opts.Settings,
		Output:   pipeline.EncodeOptions{Format: s.opts.DefaultFormat, Quality: s.opts.DefaultQuality},
		Prefix:   s.opts.Prefix,
	}

	if v := r.FormValue("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		scale := models.ScaleFactor(f)
		if err != nil || !scale.Valid() {
			return req, fmt.Errorf("invalid scale %q: %w", v, backends.ErrInvalidInput)
		}
		if scale < s.opts.MinScale || scale > s.opts.MaxScale {
			return req, fmt.Errorf("scale %s outside %s to %s: %w", scale, s.opts.MinScale, s.opts.MaxScale, backends.ErrInvalidInput)
		}
		req.Scale = scale
	}

	if v := r.FormValue("tier"); v != "" {
		tier, err := models.ParseQualityTier(v)
		if err != nil {
			return req, err
		}
		req.Tier = tier
	}

	if v := r.FormValue("format"); v != "" {
		format, err := pipeline.ParseFormat(v)
		if err != nil {
			return req, err
		}
		req.Output.Format = format
	}

	if v := r.FormValue("quality"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 || q > 100 {
			return req, fmt.Errorf("invalid quality %q: must be 1-100", v)
		}
		req.Output.Quality = q
	}

	if v := r.FormValue("enhance"); v != "" {
		enhance, err := parseBool(v)
		if err != nil {
			return req, err
		}
		req.Enhance = enhance
	}

	return req, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for _, key := range uploadFields {
		files = append(files, form.File[key]...)
	}
	return files
}

func (s *Server) decode(fh *multipart.FileHeader) (*pipeline.Decoded, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer f.Close()
	return s.loader.LoadFromReader(fh.Filename, f)
}

func (s *Server) writeResultHeaders(w http.ResponseWriter, outcomes []services.Outcome) {
	results := make([]resultEntry, len(outcomes))
	for i, o := range outcomes {
		w.Header().Add(HeaderBackend, string(o.Backend()))
		results[i] = resultEntry{
			Name:       o.Name,
			Backend:    o.Backend(),
			Width:      o.Final.Width,
			Height:     o.Final.Height,
			Attempts:   o.Result.Attempts,
			DurationMS: o.Duration.Milliseconds(),
		}
	}
	if data, err := json.Marshal(results); err == nil {
		w.Header().Set(HeaderResults, string(data))
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var allFailed *backends.AllBackendsFailedError
	switch {
	case errors.Is(err, pipeline.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrUnsupportedFormat), errors.Is(err, backends.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &allFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	fields := map[string]interface{}{
		"request_id": RequestID(r.Context()),
		"status":     status,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("WebServer", err, fields)
	} else {
		fields["error"] = err.Error()
		s.logger.Warning("WebServer", "request rejected", fields)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
