// Package enhanced upscales with Lanczos resampling followed by a bilateral
// filter and CLAHE on the lightness channel. It needs a gocv build.
package enhanced

// Params tunes the bilateral filter and CLAHE stages.
type Params struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
	ClipLimit  float64
	TileSize   int
}

func DefaultParams() Params {
	return Params{
		Diameter:   9,
		SigmaColor: 75,
		SigmaSpace: 75,
		ClipLimit:  2.0,
		TileSize:   8,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Diameter <= 0 {
		p.Diameter = d.Diameter
	}
	if p.SigmaColor <= 0 {
		p.SigmaColor = d.SigmaColor
	}
	if p.SigmaSpace <= 0 {
		p.SigmaSpace = d.SigmaSpace
	}
	if p.ClipLimit <= 0 {
		p.ClipLimit = d.ClipLimit
	}
	if p.TileSize <= 0 {
		p.TileSize = d.TileSize
	}
	return p
}
