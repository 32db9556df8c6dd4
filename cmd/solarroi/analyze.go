package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/solarroi/solarroi/internal/app"
	"github.com/solarroi/solarroi/internal/config"
	"github.com/solarroi/solarroi/internal/pipeline"
	"github.com/solarroi/solarroi/internal/report"
	"github.com/solarroi/solarroi/internal/vision"
)

// AnalyzeCmd runs one batch in-process.
type AnalyzeCmd struct {
	Images      []string `arg:"" help:"Rooftop images (png, jpg, jpeg)."`
	City        []string `short:"c" help:"City per image, or one city for all."`
	Panel       []string `short:"p" help:"Panel type per image, or one panel type for all."`
	Out         string   `short:"o" default:"outputs" help:"Directory for report files."`
	Concurrency int      `help:"Images analysed in parallel (default from BATCH_CONCURRENCY)."`
}

func (a *AnalyzeCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if a.Concurrency > 0 {
		cfg.Batch.Concurrency = a.Concurrency
	}

	c, err := app.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer c.Close()

	engine, err := app.NewEngine(cfg, c)
	if err != nil {
		return err
	}

	uploads := make([]pipeline.Upload, 0, len(a.Images))
	for _, path := range a.Images {
		uploads = append(uploads, readImage(engine.Detector, path))
	}

	items, err := pipeline.BuildItems(uploads, a.City, a.Panel, engine.Catalog.DefaultCity, engine.Catalog.DefaultPanel)
	if err != nil {
		return err
	}

	batch := engine.Coordinator.RunBatch(ctx, items)
	records := report.NewRecords(batch)

	fmt.Print(report.Summary(records))

	written, err := report.WriteAll(a.Out, records)
	if err != nil {
		return err
	}
	formats := make([]string, 0, len(written))
	for f := range written {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	fmt.Println()
	for _, f := range formats {
		fmt.Printf("%-5s %s\n", f, written[f])
	}

	if batch.Succeeded() == 0 {
		return fmt.Errorf("all %d images failed", len(items))
	}
	return nil
}

// readImage loads one image. Files that are missing or fail the upload check
// become rejected uploads so the rest of the batch still runs.
func readImage(det *vision.LocalDetector, path string) pipeline.Upload {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.Upload{Name: name, Rejected: fmt.Errorf("%w: %v", vision.ErrDetection, err)}
	}
	if err := det.CheckUpload(name, info.Size()); err != nil {
		return pipeline.Upload{Name: name, Rejected: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{Name: name, Rejected: fmt.Errorf("%w: %v", vision.ErrDetection, err)}
	}
	return pipeline.Upload{Name: name, Data: data}
}
