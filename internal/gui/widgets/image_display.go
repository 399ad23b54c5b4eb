package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 500
	ImageAreaHeight = 400
)

// ImageDisplay shows the loaded image next to the upscaled result.
type ImageDisplay struct {
	container     fyne.CanvasObject
	originalImage *canvas.Image
	resultImage   *canvas.Image
	originalSize  *widget.Label
	resultSize    *widget.Label
	splitView     *container.Split
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func (id *ImageDisplay) createComponents() {
	id.originalImage = canvas.NewImageFromImage(nil)
	id.originalImage.FillMode = canvas.ImageFillContain
	id.originalImage.ScaleMode = canvas.ImageScaleSmooth
	id.originalImage.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))

	id.resultImage = canvas.NewImageFromImage(nil)
	id.resultImage.FillMode = canvas.ImageFillContain
	id.resultImage.ScaleMode = canvas.ImageScaleSmooth
	id.resultImage.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))

	id.originalSize = widget.NewLabel("--")
	id.resultSize = widget.NewLabel("--")
}

func (id *ImageDisplay) setupLayout() {
	originalContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Original**"),
		id.originalSize, nil, nil,
		id.originalImage,
	)

	resultContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Upscaled**"),
		id.resultSize, nil, nil,
		id.resultImage,
	)

	id.splitView = container.NewHSplit(originalContainer, resultContainer)
	id.splitView.SetOffset(0.5)
	id.container = id.splitView
}

func (id *ImageDisplay) GetContainer() fyne.CanvasObject {
	return id.container
}

// SetOriginalImage shows img with a caption; img may be a scaled preview.
func (id *ImageDisplay) SetOriginalImage(img image.Image, caption string) {
	id.originalImage.Image = img
	id.originalImage.Refresh()
	id.originalSize.SetText(caption)
}

func (id *ImageDisplay) SetResultImage(img image.Image, caption string) {
	id.resultImage.Image = img
	id.resultImage.Refresh()
	id.resultSize.SetText(caption)
}
