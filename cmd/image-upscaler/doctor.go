package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/app"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/opencv/codec"
	"image-upscaler/internal/pipeline"
)

func runDoctor(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a config.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := app.LoadConfig(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	application, err := app.New(ctx, cfg, logger.Nop{})
	if err != nil {
		return err
	}
	defer application.Close()

	return writeDiagnostics(out, application)
}

func writeDiagnostics(out io.Writer, a *app.Application) error {
	fmt.Fprintf(out, "%s %s\n", app.AppName, app.AppVersion)
	fmt.Fprintf(out, "go:       %s %s/%s, %d CPUs\n", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	if codec.Available() {
		fmt.Fprintf(out, "opencv:   %s\n", codec.OpenCVVersion())
	} else {
		fmt.Fprintln(out, "opencv:   not compiled in (build with -tags gocv)")
	}
	fmt.Fprintf(out, "inputs:   %v, up to %d px per side\n", pipeline.SupportedInputExtensions, a.Loader.MaxSide())
	fmt.Fprintf(out, "outputs:  %v\n\n", pipeline.OutputFormats)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tSTATUS\tSCALES\tDETAIL")
	for _, info := range a.Registry.Describe() {
		status := "ok"
		if !info.Available {
			status = "unavailable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\n", info.Name, status, info.ScaleRange.Min, info.ScaleRange.Max, info.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, tier := range models.QualityTiers {
		fmt.Fprintf(out, "%-8s -> %v\n", tier, a.Engine.Plan(tier, models.DefaultScale))
	}
	fmt.Fprintln(out)

	if a.ModelCache == nil {
		fmt.Fprintln(out, "model cache: unavailable")
		return nil
	}

	entries, err := a.ModelCache.List()
	if err != nil {
		return fmt.Errorf("list model cache: %w", err)
	}
	total, err := a.ModelCache.TotalSize()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "model cache: %s (%d files, %s)\n", a.ModelCache.Dir(), len(entries), humanize.IBytes(uint64(total)))
	for _, e := range entries {
		fmt.Fprintf(out, "  %-16s %-10s %s  last used %s\n", e.Key, e.HumanSize(), e.SHA256[:12], humanize.Time(e.LastUsedAt))
	}
	return nil
}
