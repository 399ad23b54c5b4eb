package widgets

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PanelValues is the state of the settings panel.
type PanelValues struct {
	Scale      float64
	Tier       string
	Format     string
	Quality    int
	Enhance    bool
	Denoise    bool
	Sharpen    float64
	Contrast   float64
	Saturation float64
}

// SettingsPanel holds the upscale and enhancement controls.
type SettingsPanel struct {
	container  *fyne.Container
	prediction *widget.Label

	scaleSelect  *widget.Select
	tierSelect   *widget.Select
	formatSelect *widget.Select
	quality      *widget.Slider
	enhance      *widget.Check
	denoise      *widget.Check
	sharpen      *widget.Slider
	contrast     *widget.Slider
	saturation   *widget.Slider

	values        PanelValues
	changeHandler func(PanelValues)
}

// NewSettingsPanel builds the panel. scales, tiers and formats populate the
// selects; initial sets their starting values.
func NewSettingsPanel(scales []float64, tiers, formats []string, initial PanelValues) *SettingsPanel {
	sp := &SettingsPanel{values: initial}
	sp.createComponents(scales, tiers, formats)
	sp.buildLayout()
	return sp
}

func scaleLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "x"
}

func (sp *SettingsPanel) createComponents(scales []float64, tiers, formats []string) {
	scaleOptions := make([]string, len(scales))
	for i, s := range scales {
		scaleOptions[i] = scaleLabel(s)
	}
	sp.scaleSelect = widget.NewSelect(scaleOptions, func(s string) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "x"), 64)
		if err == nil {
			sp.values.Scale = v
			sp.notify()
		}
	})
	sp.scaleSelect.SetSelected(scaleLabel(sp.values.Scale))

	sp.tierSelect = widget.NewSelect(tiers, func(s string) {
		sp.values.Tier = s
		sp.notify()
	})
	sp.tierSelect.SetSelected(sp.values.Tier)

	sp.formatSelect = widget.NewSelect(formats, func(s string) {
		sp.values.Format = s
		sp.notify()
	})
	sp.formatSelect.SetSelected(sp.values.Format)

	sp.quality = sp.slider(70, 100, 1, float64(sp.values.Quality), func(v float64) { sp.values.Quality = int(v) })

	sp.denoise = widget.NewCheck("Denoise", func(on bool) {
		sp.values.Denoise = on
		sp.notify()
	})
	sp.denoise.SetChecked(sp.values.Denoise)

	sp.sharpen = sp.slider(1.0, 1.5, 0.05, sp.values.Sharpen, func(v float64) { sp.values.Sharpen = v })
	sp.contrast = sp.slider(1.0, 1.3, 0.05, sp.values.Contrast, func(v float64) { sp.values.Contrast = v })
	sp.saturation = sp.slider(1.0, 1.3, 0.05, sp.values.Saturation, func(v float64) { sp.values.Saturation = v })

	sp.enhance = widget.NewCheck("Enhance after upscaling", func(on bool) {
		sp.values.Enhance = on
		sp.syncEnhanceControls()
		sp.notify()
	})
	sp.enhance.SetChecked(sp.values.Enhance)
	sp.syncEnhanceControls()

	sp.prediction = widget.NewLabel("Output: --")
}

func (sp *SettingsPanel) slider(lo, hi, step, value float64, set func(float64)) *widget.Slider {
	s := widget.NewSlider(lo, hi)
	s.Step = step
	s.SetValue(value)
	s.OnChanged = func(v float64) {
		set(v)
		sp.notify()
	}
	return s
}

func (sp *SettingsPanel) buildLayout() {
	form := widget.NewForm(
		widget.NewFormItem("Scale", sp.scaleSelect),
		widget.NewFormItem("Quality tier", sp.tierSelect),
		widget.NewFormItem("Format", sp.formatSelect),
		widget.NewFormItem("JPEG/WEBP quality", sp.quality),
	)

	enhanceForm := widget.NewForm(
		widget.NewFormItem("Sharpen", sp.sharpen),
		widget.NewFormItem("Contrast", sp.contrast),
		widget.NewFormItem("Saturation", sp.saturation),
	)

	sp.container = container.NewVBox(
		widget.NewLabel("Settings"),
		form,
		widget.NewSeparator(),
		sp.enhance,
		sp.denoise,
		enhanceForm,
		widget.NewSeparator(),
		sp.prediction,
	)
}

func (sp *SettingsPanel) syncEnhanceControls() {
	for _, w := range []fyne.Disableable{sp.denoise, sp.sharpen, sp.contrast, sp.saturation} {
		if sp.values.Enhance {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

func (sp *SettingsPanel) notify() {
	if sp.changeHandler != nil {
		sp.changeHandler(sp.values)
	}
}

func (sp *SettingsPanel) GetContainer() *fyne.Container {
	return sp.container
}

func (sp *SettingsPanel) SetChangeHandler(handler func(PanelValues)) {
	sp.changeHandler = handler
}

func (sp *SettingsPanel) Values() PanelValues {
	return sp.values
}

func (sp *SettingsPanel) SetPrediction(text string) {
	sp.prediction.SetText(text)
}
