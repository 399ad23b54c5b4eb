package chain

import (
	"context"
	"fmt"

	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
)

type ProcessingStep interface {
	Apply(ctx context.Context, input *models.Image, settings Settings) (*models.Image, error)
	Name() string
	ShouldExecute(settings Settings) bool
}

// ProcessingChain runs its steps in order. Enhancement is best effort: a
// failing step is skipped and the image it was given moves on unchanged.
type ProcessingChain struct {
	steps  []ProcessingStep
	logger logger.Logger
}

func NewProcessingChain(log logger.Logger, steps ...ProcessingStep) *ProcessingChain {
	if log == nil {
		log = logger.Nop{}
	}
	return &ProcessingChain{
		steps:  steps,
		logger: log,
	}
}

// Enhance never fails. With every step disabled it returns input itself.
func (pc *ProcessingChain) Enhance(ctx context.Context, input *models.Image, settings Settings) *models.Image {
	if input.Empty() {
		return input
	}

	settings = settings.Clamped()
	current := input

	for _, step := range pc.steps {
		if ctx.Err() != nil {
			break
		}

		if !step.ShouldExecute(settings) {
			continue
		}

		result, err := pc.applyStep(ctx, step, current, settings)
		if err != nil {
			pc.logger.Warning("ProcessingChain", "step skipped", map[string]interface{}{
				"step":  step.Name(),
				"error": err.Error(),
			})
			continue
		}

		current = result
	}

	if current == input {
		return input
	}
	return current.WithOrigin(models.OriginFinal)
}

func (pc *ProcessingChain) applyStep(ctx context.Context, step ProcessingStep, input *models.Image, settings Settings) (result *models.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	result, err = step.Apply(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	if result.Empty() || result.Width != input.Width || result.Height != input.Height {
		return nil, fmt.Errorf("step changed dimensions: got %s, want %dx%d", result, input.Width, input.Height)
	}
	return result, nil
}

func (pc *ProcessingChain) AddStep(step ProcessingStep) {
	pc.steps = append(pc.steps, step)
}

func (pc *ProcessingChain) StepCount() int {
	return len(pc.steps)
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
