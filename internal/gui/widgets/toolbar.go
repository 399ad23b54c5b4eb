package widgets

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	container     *fyne.Container
	loadButton    *widget.Button
	saveButton    *widget.Button
	upscaleButton *widget.Button
	cancelButton  *widget.Button
	statusLabel   *widget.Label
	resultLabel   *widget.Label
	progress      *widget.ProgressBarInfinite

	loadHandler    func()
	saveHandler    func()
	upscaleHandler func()
	cancelHandler  func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.loadButton = widget.NewButton("Load Image", t.onLoadClicked)
	t.loadButton.Importance = widget.HighImportance

	t.saveButton = widget.NewButton("Save Result", t.onSaveClicked)
	t.saveButton.Importance = widget.HighImportance
	t.saveButton.Disable()

	t.upscaleButton = widget.NewButton("Upscale", t.onUpscaleClicked)
	t.upscaleButton.Importance = widget.HighImportance
	t.upscaleButton.Disable()

	t.cancelButton = widget.NewButton("Cancel", t.onCancelClicked)
	t.cancelButton.Importance = widget.MediumImportance
	t.cancelButton.Disable()

	t.statusLabel = widget.NewLabel("Ready")
	t.resultLabel = widget.NewLabel("Backend: --")

	t.progress = widget.NewProgressBarInfinite()
	t.progress.Stop()
	t.progress.Hide()
}

func (t *Toolbar) buildLayout() {
	background := canvas.NewRectangle(color.RGBA{R: 248, G: 249, B: 250, A: 255})

	actionSection := container.NewHBox(
		t.loadButton,
		widget.NewSeparator(),
		t.saveButton,
	)

	processGroup := container.NewVBox(
		widget.NewLabel("Processing"),
		container.NewHBox(t.upscaleButton, t.cancelButton),
	)

	statusGroup := container.NewVBox(
		widget.NewLabel("Status"),
		t.statusLabel,
		t.progress,
	)

	resultGroup := container.NewVBox(
		widget.NewLabel("Result"),
		t.resultLabel,
	)

	content := container.NewHBox(
		actionSection,
		widget.NewSeparator(),
		processGroup,
		widget.NewSeparator(),
		statusGroup,
		widget.NewSeparator(),
		resultGroup,
	)

	t.container = container.NewStack(
		background,
		container.NewPadded(content),
	)
}

func (t *Toolbar) onLoadClicked() {
	if t.loadHandler != nil {
		t.loadHandler()
	}
}

func (t *Toolbar) onSaveClicked() {
	if t.saveHandler != nil {
		t.saveHandler()
	}
}

func (t *Toolbar) onUpscaleClicked() {
	if t.upscaleHandler != nil {
		t.upscaleHandler()
	}
}

func (t *Toolbar) onCancelClicked() {
	if t.cancelHandler != nil {
		t.cancelHandler()
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetLoadHandler(handler func()) {
	t.loadHandler = handler
}

func (t *Toolbar) SetSaveHandler(handler func()) {
	t.saveHandler = handler
}

func (t *Toolbar) SetUpscaleHandler(handler func()) {
	t.upscaleHandler = handler
}

func (t *Toolbar) SetCancelHandler(handler func()) {
	t.cancelHandler = handler
}

// State is the coarse UI state driving which buttons are enabled.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateBusy
	StateDone
)

// Must be called on the fyne main goroutine.
func (t *Toolbar) SetState(state State) {
	switch state {
	case StateEmpty:
		t.upscaleButton.Disable()
		t.cancelButton.Disable()
		t.saveButton.Disable()
		t.loadButton.Enable()
	case StateLoaded:
		t.upscaleButton.Enable()
		t.cancelButton.Disable()
		t.saveButton.Disable()
		t.loadButton.Enable()
	case StateBusy:
		t.upscaleButton.Disable()
		t.cancelButton.Enable()
		t.saveButton.Disable()
		t.loadButton.Disable()
	case StateDone:
		t.upscaleButton.Enable()
		t.cancelButton.Disable()
		t.saveButton.Enable()
		t.loadButton.Enable()
	}

	if state == StateBusy {
		t.progress.Show()
		t.progress.Start()
	} else {
		t.progress.Stop()
		t.progress.Hide()
	}
}

func (t *Toolbar) SetStatus(status string) {
	t.statusLabel.SetText(status)
}

func (t *Toolbar) SetResult(text string) {
	t.resultLabel.SetText(text)
}
