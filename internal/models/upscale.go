package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ScaleFactor is the linear magnification applied to both dimensions.
type ScaleFactor float64

const (
	DefaultScale ScaleFactor = 2.0
	MinPractical ScaleFactor = 1.0
	MaxPractical ScaleFactor = 4.0
)

// Valid reports whether the factor is a positive finite number.
func (s ScaleFactor) Valid() bool {
	f := float64(s)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// TargetSize returns the output dimensions for a width x height input.
func (s ScaleFactor) TargetSize(width, height int) (int, int) {
	w := int(math.Round(float64(width) * float64(s)))
	h := int(math.Round(float64(height) * float64(s)))
	return max(1, w), max(1, h)
}

func (s ScaleFactor) String() string {
	return fmt.Sprintf("%gx", float64(s))
}

// QualityTier trades expected output fidelity for latency.
type QualityTier string

const (
	TierFast    QualityTier = "fast"
	TierHigh    QualityTier = "high"
	TierHighest QualityTier = "highest"
)

// QualityTiers lists the tiers in UI order.
var QualityTiers = []QualityTier{TierHighest, TierHigh, TierFast}

// ParseQualityTier accepts a tier name case-insensitively.
func ParseQualityTier(s string) (QualityTier, error) {
	switch QualityTier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFast:
		return TierFast, nil
	case TierHigh:
		return TierHigh, nil
	case TierHighest:
		return TierHighest, nil
	default:
		return "", fmt.Errorf("unknown quality tier: %q", s)
	}
}

// Capability names one upscaling technique.
type Capability string

const (
	ClassicalResample Capability = "classical_resample"
	BilateralCLAHE    Capability = "bilateral_clahe"
	DeepModel         Capability = "deep_model"
	RemoteAPI         Capability = "remote_api"
)

// AllCapabilities lists every technique in declaration order.
var AllCapabilities = []Capability{DeepModel, RemoteAPI, BilateralCLAHE, ClassicalResample}

// ScaleRange is the declared typical scale range of a capability.
type ScaleRange struct {
	Min ScaleFactor `json:"min"`
	Max ScaleFactor `json:"max"`
}

// Contains reports whether s lies within the range, bounds included.
func (r ScaleRange) Contains(s ScaleFactor) bool {
	return s >= r.Min && s <= r.Max
}

// Attempt records a candidate that was tried and failed.
type Attempt struct {
	Backend Capability `json:"backend"`
	Error   string     `json:"error"`
}

// UpscaleResult pairs the produced image with the backend that actually ran.
type UpscaleResult struct {
	Image    *Image
	Backend  Capability
	Attempts []Attempt
	Duration time.Duration
}
