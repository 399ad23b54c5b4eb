package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/engine"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/processing/chain"
)

// Request carries the per-call settings shared by every image of a batch.
type Request struct {
	Scale    models.ScaleFactor
	Tier     models.QualityTier
	Options  backends.Options
	Enhance  bool
	Settings chain.Settings
	Output   pipeline.EncodeOptions
	Prefix   string
}

// Outcome is the result of one image. Exactly one of Err and Encoded is set.
type Outcome struct {
	Name     string
	Result   *models.UpscaleResult
	Final    *models.Image
	Encoded  *pipeline.Encoded
	Duration time.Duration
	Err      error
}

// Backend returns the capability that produced the image, or "" on failure.
func (o Outcome) Backend() models.Capability {
	if o.Result == nil {
		return ""
	}
	return o.Result.Backend
}

// ProcessingService runs uploads through the engine, the enhancement chain
// and the encoder.
type ProcessingService struct {
	engine   *engine.Engine
	enhancer *chain.ProcessingChain
	saver    *pipeline.Saver
	logger   logger.Logger

	workerPool chan struct{}
	mu         sync.RWMutex
}

func NewProcessingService(eng *engine.Engine, enhancer *chain.ProcessingChain, saver *pipeline.Saver, workers int, log logger.Logger) *ProcessingService {
	if log == nil {
		log = logger.Nop{}
	}
	if saver == nil {
		saver = pipeline.NewSaver(log)
	}

	ps := &ProcessingService{
		engine:   eng,
		enhancer: enhancer,
		saver:    saver,
		logger:   log,
	}
	ps.SetWorkerCount(workers)
	return ps
}

// Process upscales, enhances and encodes one image synchronously.
func (ps *ProcessingService) Process(ctx context.Context, job *pipeline.Decoded, req Request) Outcome {
	start := time.Now()
	outcome := Outcome{}
	format, formatErr := pipeline.ParseFormat(req.Output.Format)
	if formatErr == nil {
		req.Output.Format = format
	}
	if job != nil {
		outcome.Name = pipeline.OutputName(req.Prefix, job.Name, req.Output.Format)
	}
	if formatErr != nil {
		outcome.Err = formatErr
		outcome.Duration = time.Since(start)
		return outcome
	}

	final, result, err := ps.upscale(ctx, job, req)
	if err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		return outcome
	}
	outcome.Result = result
	outcome.Final = final

	data, err := ps.saver.Encode(final, req.Output)
	if err != nil {
		outcome.Err = fmt.Errorf("%s: %w", job.Name, err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Encoded = &pipeline.Encoded{Name: outcome.Name, Format: format, Data: data}
	outcome.Duration = time.Since(start)

	ps.logger.Info("ProcessingService", "image processed", map[string]interface{}{
		"name":     job.Name,
		"backend":  string(result.Backend),
		"scale":    req.Scale.String(),
		"tier":     string(req.Tier),
		"size":     fmt.Sprintf("%dx%d", final.Width, final.Height),
		"duration": outcome.Duration.String(),
	})
	return outcome
}

func (ps *ProcessingService) upscale(ctx context.Context, job *pipeline.Decoded, req Request) (*models.Image, *models.UpscaleResult, error) {
	if job == nil || job.Image.Empty() {
		return nil, nil, fmt.Errorf("no image to process: %w", backends.ErrInvalidInput)
	}

	result, err := ps.engine.SelectAndUpscale(ctx, job.Image, req.Scale, req.Tier, req.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", job.Name, err)
	}

	final := result.Image
	if req.Enhance && ps.enhancer != nil {
		final = ps.enhancer.Enhance(ctx, final, req.Settings)
	}
	return final.WithOrigin(models.OriginFinal), result, nil
}

// ProcessBatch processes jobs on the worker pool. Outcomes keep the order of
// jobs. Jobs not started before ctx is cancelled report ctx.Err().
func (ps *ProcessingService) ProcessBatch(ctx context.Context, jobs []*pipeline.Decoded, req Request) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	ps.mu.RLock()
	pool := ps.workerPool
	ps.mu.RUnlock()

	var wg sync.WaitGroup
	for i, job := range jobs {
		select {
		case <-pool:
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				outcomes[j] = Outcome{Name: jobName(jobs[j], req), Err: ctx.Err()}
			}
			wg.Wait()
			return outcomes
		}

		wg.Add(1)
		go func(i int, job *pipeline.Decoded) {
			defer wg.Done()
			defer func() { pool <- struct{}{} }()
			outcomes[i] = ps.Process(ctx, job, req)
		}(i, job)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	ps.logger.Info("ProcessingService", "batch completed", map[string]interface{}{
		"images": len(jobs),
		"failed": failed,
	})
	return outcomes
}

func jobName(job *pipeline.Decoded, req Request) string {
	if job == nil {
		return ""
	}
	return pipeline.OutputName(req.Prefix, job.Name, req.Output.Format)
}

// FirstError returns the first failure of a batch, preferring errors that
// are not cancellations.
func FirstError(outcomes []Outcome) error {
	var cancelled error
	for _, o := range outcomes {
		if o.Err == nil {
			continue
		}
		if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
			if cancelled == nil {
				cancelled = o.Err
			}
			continue
		}
		return o.Err
	}
	return cancelled
}

// Plan lists the backends that would be tried for the request.
func (ps *ProcessingService) Plan(req Request) []models.Capability {
	return ps.engine.Plan(req.Tier, req.Scale)
}

func (ps *ProcessingService) Capabilities() []backends.CapabilityInfo {
	return ps.engine.Registry().Describe()
}

// SetWorkerCount resizes the batch worker pool.
func (ps *ProcessingService) SetWorkerCount(count int) {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	if count > runtime.NumCPU()*2 {
		count = runtime.NumCPU() * 2
	}

	newPool := make(chan struct{}, count)
	for i := 0; i < count; i++ {
		newPool <- struct{}{}
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.workerPool = newPool
}

func (ps *ProcessingService) GetWorkerCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return cap(ps.workerPool)
}
