package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"image-upscaler/internal/app"
	"image-upscaler/internal/config"
	"image-upscaler/internal/gui"
	"image-upscaler/internal/gui/widgets"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/shutdown"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

// Application is the desktop front end.
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger

	controller *gui.Controller
	view       *gui.View
	core       *app.Application
	shutdown   *shutdown.Manager
}

func main() {
	configPath := flag.String("config", "", "path to a config.toml")
	flag.Parse()

	cfg := app.LoadConfig(*configPath)
	log := app.NewLogger(cfg)

	application, err := NewApplication(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	application.Run()
}

func NewApplication(cfg *config.Config, log logger.Logger) (*Application, error) {
	mgr := shutdown.NewManager(log)

	core, err := app.New(mgr.Context(), cfg, log)
	if err != nil {
		return nil, err
	}
	core.RegisterShutdown(mgr)

	fyneApp := fyneapp.NewWithID(app.AppID)
	fyneApp.SetMetadata(&fyne.AppMetadata{
		ID:      app.AppID,
		Name:    app.AppName,
		Version: app.AppVersion,
	})

	window := fyneApp.NewWindow(app.AppName)
	window.Resize(calculateWindowSize())
	window.CenterOnScreen()
	window.SetMaster()

	defaults := core.DefaultRequest()
	formats := pipeline.OutputFormats
	if !codec.Available() {
		formats = withoutWEBP(formats)
	}

	settings := widgets.NewSettingsPanel(scaleChoices(cfg), tierNames(), formats, gui.PanelValues(defaults))
	view := gui.NewView(window, settings)
	controller := gui.NewController(core.Images, core.Processing, defaults, log)
	controller.SetView(view)
	view.SetController(controller)

	mgr.Register("controller", controller)

	a := &Application{
		fyneApp:    fyneApp,
		window:     window,
		logger:     log,
		controller: controller,
		view:       view,
		core:       core,
		shutdown:   mgr,
	}
	a.setupWindowEvents()

	log.Info("Desktop", "application initialized", map[string]interface{}{
		"version":    app.AppVersion,
		"go_version": runtime.Version(),
		"num_cpu":    runtime.NumCPU(),
	})
	return a, nil
}

func (a *Application) Run() {
	a.shutdown.Listen()
	go func() {
		<-a.shutdown.Done()
		fyne.Do(a.fyneApp.Quit)
	}()

	a.view.Show()
	a.fyneApp.Run()
	a.shutdown.Shutdown()
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		a.view.ShowConfirm("Exit", "Quit the upscaler?", func(confirmed bool) {
			if confirmed {
				a.window.Close()
			}
		})
	})
}

func calculateWindowSize() fyne.Size {
	width, height := float32(1280), float32(800)
	if runtime.NumCPU() >= 8 {
		width *= 1.2
		height *= 1.2
	}
	return fyne.NewSize(width, height)
}

// scaleChoices lists the configured range in half steps, from 1.5 when the
// minimum is 1.
func scaleChoices(cfg *config.Config) []float64 {
	upscaleCfg := cfg.GetUpscaleConfig()
	start := upscaleCfg.MinScale
	if start <= 1 {
		start = 1.5
	}
	var scales []float64
	for v := start; v <= upscaleCfg.MaxScale+1e-9; v += 0.5 {
		scales = append(scales, v)
	}
	return scales
}

func tierNames() []string {
	names := make([]string, len(models.QualityTiers))
	for i, t := range models.QualityTiers {
		names[i] = string(t)
	}
	return names
}

func withoutWEBP(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if f != "webp" {
			out = append(out, f)
		}
	}
	return out
}
