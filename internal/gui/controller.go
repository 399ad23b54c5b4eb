package gui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"image-upscaler/internal/gui/preview"
	"image-upscaler/internal/gui/widgets"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/services"

	"fyne.io/fyne/v2"
)

// Controller coordinates between view components and the services.
type Controller struct {
	view       *View
	images     *services.ImageService
	processing *services.ProcessingService
	logger     logger.Logger

	mu               sync.RWMutex
	request          services.Request
	current          *pipeline.Decoded
	outcome          *services.Outcome
	processingActive bool
	processCancel    context.CancelFunc
}

func NewController(images *services.ImageService, processing *services.ProcessingService, defaults services.Request, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop{}
	}
	return &Controller{
		images:     images,
		processing: processing,
		request:    defaults,
		logger:     log,
	}
}

func (c *Controller) SetView(view *View) {
	c.view = view
}

// PanelValues converts a request into the settings panel state.
func PanelValues(req services.Request) widgets.PanelValues {
	return widgets.PanelValues{
		Scale:      float64(req.Scale),
		Tier:       string(req.Tier),
		Format:     req.Output.Format,
		Quality:    req.Output.Quality,
		Enhance:    req.Enhance,
		Denoise:    req.Settings.Denoise,
		Sharpen:    req.Settings.SharpenFactor,
		Contrast:   req.Settings.ContrastFactor,
		Saturation: req.Settings.SaturationFactor,
	}
}

// ApplyPanelValues copies the panel state onto req.
func ApplyPanelValues(req services.Request, v widgets.PanelValues) services.Request {
	if scale := models.ScaleFactor(v.Scale); scale.Valid() {
		req.Scale = scale
	}
	if tier, err := models.ParseQualityTier(v.Tier); err == nil {
		req.Tier = tier
	}
	if format, err := pipeline.ParseFormat(v.Format); err == nil {
		req.Output.Format = format
	}
	if v.Quality > 0 {
		req.Output.Quality = v.Quality
	}
	req.Enhance = v.Enhance
	req.Settings.Denoise = v.Denoise
	req.Settings.Sharpen = v.Sharpen > 1
	req.Settings.SharpenFactor = v.Sharpen
	req.Settings.Contrast = v.Contrast > 1
	req.Settings.ContrastFactor = v.Contrast
	req.Settings.Saturation = v.Saturation > 1
	req.Settings.SaturationFactor = v.Saturation
	return req
}

func (c *Controller) UpdateSettings(values widgets.PanelValues) {
	c.mu.Lock()
	c.request = ApplyPanelValues(c.request, values)
	c.mu.Unlock()

	c.updatePrediction()
}

func (c *Controller) updatePrediction() {
	c.mu.RLock()
	current, scale := c.current, c.request.Scale
	c.mu.RUnlock()

	text := "Output: --"
	if current != nil {
		w, h := c.images.PredictOutputSize(current, scale)
		text = preview.PredictionText(current.Image.Width, current.Image.Height, w, h)
	}
	c.view.SetPrediction(text)
}

func (c *Controller) LoadImage() {
	c.view.ShowFileDialog(c.images.GetSupportedFormats(), func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("file selection", err)
			return
		}
		if reader == nil {
			return
		}

		c.view.SetStatus("Loading image...")

		go func() {
			decoded, loadErr := c.images.LoadImage(context.Background(), reader.URI().Name(), reader)

			fyne.Do(func() {
				if loadErr != nil {
					c.handleError("image load", loadErr)
					c.view.SetStatus("Ready")
					return
				}

				c.mu.Lock()
				c.current = decoded
				c.outcome = nil
				c.mu.Unlock()

				info := c.images.GetImageInfo(decoded)
				c.view.SetOriginalImage(preview.Thumbnail(decoded.Image.Pixels, preview.DefaultMaxSide),
					fmt.Sprintf("%s, %s, %s", preview.SizeText(info.Width, info.Height), info.Format, info.FileSize))
				c.view.SetResultImage(nil, "--")
				c.view.SetResult("Backend: --")
				c.view.SetState(widgets.StateLoaded)
				c.view.SetStatus("Image loaded")
				c.updatePrediction()

				c.logger.Info("Controller", "image loaded", map[string]interface{}{
					"name":   info.Name,
					"width":  info.Width,
					"height": info.Height,
					"format": info.Format,
				})
			})
		}()
	})
}

func (c *Controller) Upscale() {
	c.mu.Lock()
	if c.processingActive || c.current == nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.processingActive = true
	c.processCancel = cancel
	job, req := c.current, c.request
	c.mu.Unlock()

	c.view.SetState(widgets.StateBusy)
	c.view.SetStatus(fmt.Sprintf("Upscaling %s (%s)...", req.Scale, req.Tier))

	go func() {
		defer cancel()
		outcome := c.processing.Process(ctx, job, req)

		fyne.Do(func() {
			c.mu.Lock()
			c.processingActive = false
			c.processCancel = nil
			if outcome.Err == nil {
				c.outcome = &outcome
			}
			c.mu.Unlock()

			if ctx.Err() != nil {
				c.view.SetState(widgets.StateLoaded)
				c.view.SetStatus("Upscaling cancelled")
				return
			}
			if outcome.Err != nil {
				c.view.SetState(widgets.StateLoaded)
				c.view.SetStatus("Upscaling failed")
				c.handleError("upscale", outcome.Err)
				return
			}

			c.view.SetResultImage(preview.Thumbnail(outcome.Final.Pixels, preview.DefaultMaxSide),
				preview.SizeText(outcome.Final.Width, outcome.Final.Height))
			c.view.SetResult(resultText(outcome))
			c.view.SetState(widgets.StateDone)
			c.view.SetStatus(fmt.Sprintf("Done in %s", outcome.Duration.Round(1e6)))
		})
	}()
}

func resultText(o services.Outcome) string {
	text := "Backend: " + string(o.Backend())
	if o.Result != nil && len(o.Result.Attempts) > 0 {
		failed := make([]string, len(o.Result.Attempts))
		for i, a := range o.Result.Attempts {
			failed[i] = string(a.Backend)
		}
		text += " (after " + strings.Join(failed, ", ") + ")"
	}
	return text
}

func (c *Controller) CancelProcessing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processCancel != nil {
		c.processCancel()
	}
}

func (c *Controller) SaveImage() {
	c.mu.RLock()
	outcome, req := c.outcome, c.request
	c.mu.RUnlock()

	if outcome == nil {
		c.handleError("save", fmt.Errorf("no upscaled image to save"))
		return
	}

	c.view.ShowSaveDialog(outcome.Name, func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("file save", err)
			return
		}
		if writer == nil {
			return
		}

		opts := req.Output
		if format, err := pipeline.ParseFormat(writer.URI().Extension()); err == nil {
			opts.Format = format
		}

		c.view.SetStatus("Saving image...")
		go func() {
			saveErr := c.images.SaveImage(context.Background(), writer, outcome.Final, opts)

			fyne.Do(func() {
				if saveErr != nil {
					c.handleError("image save", saveErr)
					c.view.SetStatus("Save failed")
					return
				}
				c.view.SetStatus("Image saved")
				c.logger.Info("Controller", "image saved", map[string]interface{}{
					"path":   writer.URI().Path(),
					"format": opts.Format,
				})
			})
		}()
	})
}

func (c *Controller) handleError(operation string, err error) {
	c.logger.Error("Controller", err, map[string]interface{}{
		"operation": operation,
	})

	fyne.Do(func() {
		c.view.ShowError(err)
	})
}

// Shutdown cancels any running upscale.
func (c *Controller) Shutdown(context.Context) error {
	c.CancelProcessing()
	c.logger.Info("Controller", "shutdown completed", nil)
	return nil
}
