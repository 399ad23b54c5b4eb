package chain

// Settings toggles and parameterizes each enhancement step.
type Settings struct {
	Denoise          bool
	DenoiseSize      int // odd median window, 3-7
	Sharpen          bool
	SharpenFactor    float64 // 1.0-1.5
	Contrast         bool
	ContrastFactor   float64 // 1.0-1.3
	Saturation       bool
	SaturationFactor float64 // 1.0-1.3
}

// Factor bounds; values outside are clamped.
const (
	MinDenoiseSize = 3
	MaxDenoiseSize = 7
	MinSharpen     = 1.0
	MaxSharpen     = 1.5
	MinContrast    = 1.0
	MaxContrast    = 1.3
	MinSaturation  = 1.0
	MaxSaturation  = 1.3
)

func DefaultSettings() Settings {
	return Settings{
		Denoise:          false,
		DenoiseSize:      3,
		Sharpen:          true,
		SharpenFactor:    1.1,
		Contrast:         true,
		ContrastFactor:   1.05,
		Saturation:       true,
		SaturationFactor: 1.05,
	}
}

// Disabled turns every step off.
func Disabled() Settings {
	s := DefaultSettings()
	s.Denoise, s.Sharpen, s.Contrast, s.Saturation = false, false, false, false
	return s
}

// AnyEnabled reports whether at least one step is switched on.
func (s Settings) AnyEnabled() bool {
	return s.Denoise || s.Sharpen || s.Contrast || s.Saturation
}

// Clamped returns s with every factor forced into its safe range.
func (s Settings) Clamped() Settings {
	s.DenoiseSize = min(max(s.DenoiseSize, MinDenoiseSize), MaxDenoiseSize)
	if s.DenoiseSize%2 == 0 {
		s.DenoiseSize++
	}
	s.SharpenFactor = clamp(s.SharpenFactor, MinSharpen, MaxSharpen)
	s.ContrastFactor = clamp(s.ContrastFactor, MinContrast, MaxContrast)
	s.SaturationFactor = clamp(s.SaturationFactor, MinSaturation, MaxSaturation)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	return min(max(v, lo), hi)
}
