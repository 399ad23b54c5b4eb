package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/app"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/services"
	"image-upscaler/internal/shutdown"
)

func runUpscale(args []string) error {
	fs := flag.NewFlagSet("upscale", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a config.toml")
	outDir := fs.String("o", ".", "output directory")
	scale := fs.Float64("scale", 0, "scale factor (default from config)")
	tier := fs.String("tier", "", "quality tier: highest, high or fast")
	format := fs.String("format", "", "output format: png, jpeg, webp or bmp")
	quality := fs.Int("quality", 0, "JPEG/WEBP quality 1-100")
	enhance := fs.Bool("enhance", true, "apply sharpen, contrast and saturation after upscaling")
	zipOut := fs.Bool("zip", false, "write all results into one zip archive")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: image-upscaler upscale [flags] FILE...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no input files")
	}

	cfg := app.LoadConfig(*configPath)
	log := app.NewLogger(cfg)

	mgr := shutdown.NewManager(log)
	mgr.Listen()
	defer mgr.Shutdown()

	application, err := app.New(mgr.Context(), cfg, log)
	if err != nil {
		return err
	}
	application.RegisterShutdown(mgr)

	req, err := buildRequest(application.DefaultRequest(), *scale, *tier, *format, *quality, *enhance)
	if err != nil {
		return err
	}

	jobs := make([]*pipeline.Decoded, 0, fs.NArg())
	for _, path := range fs.Args() {
		job, err := application.Loader.LoadFile(path)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	outcomes := application.Processing.ProcessBatch(mgr.Context(), jobs, req)
	return writeOutcomes(mgr.Context(), *outDir, outcomes, *zipOut)
}

func buildRequest(req services.Request, scale float64, tier, format string, quality int, enhance bool) (services.Request, error) {
	if scale != 0 {
		req.Scale = models.ScaleFactor(scale)
		if !req.Scale.Valid() {
			return req, fmt.Errorf("invalid scale %g", scale)
		}
	}
	if tier != "" {
		t, err := models.ParseQualityTier(tier)
		if err != nil {
			return req, err
		}
		req.Tier = t
	}
	if format != "" {
		f, err := pipeline.ParseFormat(format)
		if err != nil {
			return req, err
		}
		req.Output.Format = f
	}
	if quality != 0 {
		if quality < 1 || quality > 100 {
			return req, fmt.Errorf("invalid quality %d: must be 1-100", quality)
		}
		req.Output.Quality = quality
	}
	req.Enhance = req.Enhance && enhance
	return req, nil
}

func writeOutcomes(ctx context.Context, dir string, outcomes []services.Outcome, zipOut bool) error {
	if err := services.FirstError(outcomes); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if zipOut {
		entries := make([]pipeline.Encoded, len(outcomes))
		for i, o := range outcomes {
			entries[i] = *o.Encoded
		}
		path := filepath.Join(dir, pipeline.ArchiveName(len(entries)))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := pipeline.WriteArchive(f, entries); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("%s (%d images)\n", path, len(entries))
		return nil
	}

	for _, o := range outcomes {
		path := filepath.Join(dir, o.Encoded.Name)
		if err := os.WriteFile(path, o.Encoded.Data, 0o644); err != nil {
			return err
		}
		fmt.Printf("%s  %dx%d  %s  %s  %s\n", path, o.Final.Width, o.Final.Height,
			o.Backend(), humanize.IBytes(uint64(len(o.Encoded.Data))), o.Duration.Round(1e6))
	}
	return nil
}
