package gui

import (
	"image"

	"image-upscaler/internal/gui/widgets"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// View handles all UI components and their layout
type View struct {
	window     fyne.Window
	controller *Controller

	toolbar       *widgets.Toolbar
	imageDisplay  *widgets.ImageDisplay
	settingsPanel *widgets.SettingsPanel
	mainContainer *fyne.Container
}

func NewView(window fyne.Window, settings *widgets.SettingsPanel) *View {
	view := &View{
		window:        window,
		settingsPanel: settings,
	}

	view.setupComponents()
	view.setupLayout()

	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller
	v.setupEventHandlers()
}

func (v *View) setupComponents() {
	v.toolbar = widgets.NewToolbar()
	v.imageDisplay = widgets.NewImageDisplay()
}

func (v *View) setupLayout() {
	v.mainContainer = container.NewBorder(
		v.toolbar.GetContainer(),
		nil,
		nil,
		container.NewVScroll(v.settingsPanel.GetContainer()),
		v.imageDisplay.GetContainer(),
	)
}

func (v *View) setupEventHandlers() {
	if v.controller == nil {
		return
	}

	v.toolbar.SetLoadHandler(v.controller.LoadImage)
	v.toolbar.SetSaveHandler(v.controller.SaveImage)
	v.toolbar.SetUpscaleHandler(v.controller.Upscale)
	v.toolbar.SetCancelHandler(v.controller.CancelProcessing)

	v.settingsPanel.SetChangeHandler(v.controller.UpdateSettings)
}

func (v *View) SetOriginalImage(img image.Image, caption string) {
	v.imageDisplay.SetOriginalImage(img, caption)
}

func (v *View) SetResultImage(img image.Image, caption string) {
	v.imageDisplay.SetResultImage(img, caption)
}

func (v *View) SetStatus(status string) {
	v.toolbar.SetStatus(status)
}

func (v *View) SetState(state widgets.State) {
	v.toolbar.SetState(state)
}

func (v *View) SetResult(text string) {
	v.toolbar.SetResult(text)
}

func (v *View) SetPrediction(text string) {
	v.settingsPanel.SetPrediction(text)
}

func (v *View) ShowError(err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowFileDialog(extensions []string, callback func(fyne.URIReadCloser, error)) {
	d := dialog.NewFileOpen(callback, v.window)
	d.SetFilter(storage.NewExtensionFileFilter(extensions))
	d.Show()
}

func (v *View) ShowSaveDialog(fileName string, callback func(fyne.URIWriteCloser, error)) {
	d := dialog.NewFileSave(callback, v.window)
	d.SetFileName(fileName)
	d.Show()
}

func (v *View) ShowConfirm(title, message string, callback func(bool)) {
	dialog.ShowConfirm(title, message, callback, v.window)
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
