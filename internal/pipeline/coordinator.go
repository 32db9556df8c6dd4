// Package pipeline runs batches of rooftop images through detection,
// irradiance lookup, yield and ROI estimation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/internal/metrics"
	"github.com/solarroi/solarroi/internal/solar"
	"github.com/solarroi/solarroi/internal/vision"
	"github.com/solarroi/solarroi/pkg/models"
)

// ErrItemPanic marks an item whose processing panicked.
var ErrItemPanic = errors.New("item processing panicked")

// IrradianceSource resolves irradiance for a city by name.
type IrradianceSource interface {
	GetIrradiance(ctx context.Context, city string) (models.IrradianceReading, error)
}

// Config controls batch execution.
type Config struct {
	Concurrency int
	ScratchDir  string
}

// Coordinator is safe for concurrent use; concurrent batches share the
// irradiance cache and the run ID sequence.
type Coordinator struct {
	catalog    *catalog.Catalog
	detector   vision.Detector
	irradiance IrradianceSource
	calculator *solar.Calculator
	estimator  *solar.Estimator
	ids        *RunIDGenerator
	cfg        Config
}

func NewCoordinator(cat *catalog.Catalog, detector vision.Detector, irr IrradianceSource, calc *solar.Calculator, est *solar.Estimator, cfg Config) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Coordinator{
		catalog:    cat,
		detector:   detector,
		irradiance: irr,
		calculator: calc,
		estimator:  est,
		ids:        NewRunIDGenerator(),
		cfg:        cfg,
	}
}

// RunBatch processes every item and returns one result per item in
// submission order. Item failures are recorded on the item and never stop
// the batch. Cancelling ctx stops items that have not started yet; items
// already running finish.
func (c *Coordinator) RunBatch(ctx context.Context, items []Item) BatchResult {
	start := time.Now()
	batch := BatchResult{
		BatchID:   uuid.New(),
		StartedAt: start.UTC(),
		Items:     make([]ItemResult, len(items)),
	}

	if err := os.MkdirAll(c.cfg.ScratchDir, 0o755); err != nil {
		slog.Error("creating scratch dir", "dir", c.cfg.ScratchDir, "error", err)
	}

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				batch.Items[i] = ItemResult{
					Run: models.AnalysisRun{BatchID: batch.BatchID, Index: i, ImageName: item.ImageName},
					Err: fmt.Errorf("batch cancelled before item started: %w", err),
				}
				return nil
			}
			batch.Items[i] = c.runItem(context.WithoutCancel(ctx), batch.BatchID, i, item)
			return nil
		})
	}
	_ = g.Wait()

	batch.Elapsed = time.Since(start)
	for _, r := range batch.Items {
		metrics.BatchItemsTotal.WithLabelValues(r.Outcome()).Inc()
	}
	metrics.BatchDuration.Observe(batch.Elapsed.Seconds())

	slog.Info("batch finished",
		"batch_id", batch.BatchID,
		"items", len(items),
		"succeeded", batch.Succeeded(),
		"failed", batch.Failed(),
		"elapsed_ms", batch.Elapsed.Milliseconds(),
	)
	return batch
}

func (c *Coordinator) runItem(ctx context.Context, batchID uuid.UUID, index int, item Item) (res ItemResult) {
	res.Run = models.AnalysisRun{
		RunID:     c.ids.Next(item.ImageName),
		BatchID:   batchID,
		Index:     index,
		ImageName: item.ImageName,
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in batch item", "error", r, "run_id", res.Run.RunID)
			res.Potential, res.ROI = nil, nil
			res.Err = fmt.Errorf("%w: %v", ErrItemPanic, r)
		}
	}()
	defer func() {
		if res.Err != nil {
			slog.Warn("batch item failed", "run_id", res.Run.RunID, "image", item.ImageName, "error", res.Err)
		}
	}()

	city, err := c.catalog.City(item.City)
	if err != nil {
		res.Err = err
		return res
	}
	res.Run.City = city

	panel, err := c.catalog.Panel(item.PanelType)
	if err != nil {
		res.Err = err
		return res
	}
	res.Run.PanelType = panel

	if item.Rejected != nil {
		res.Err = item.Rejected
		return res
	}

	path, err := c.writeScratch(res.Run.RunID, item)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("removing scratch file", "path", path, "error", err)
		}
	}()

	stage := time.Now()
	obs, err := c.detector.Detect(ctx, path)
	res.Timings.Detect = observe("detect", stage)
	if err != nil {
		res.Err = err
		return res
	}
	res.Run.Observation = obs

	stage = time.Now()
	reading, err := c.irradiance.GetIrradiance(ctx, city.Name)
	res.Timings.Irradiance = observe("irradiance", stage)
	if err != nil {
		res.Err = err
		return res
	}

	stage = time.Now()
	potential, err := c.calculator.CalculatePotential(obs, reading, city, panel)
	res.Timings.Potential = observe("potential", stage)
	if err != nil {
		res.Err = err
		return res
	}
	res.Potential = &potential
	if potential.Capped {
		slog.Info("annual energy capped",
			"run_id", res.Run.RunID,
			"raw_kwh", potential.RawAnnualEnergyKWh,
			"capped_kwh", potential.AnnualEnergyKWh,
		)
	}

	stage = time.Now()
	roi, err := c.estimator.EstimateROI(potential, panel)
	res.Timings.ROI = observe("roi", stage)
	if err != nil && !errors.Is(err, solar.ErrDivisionGuard) {
		res.Err = err
		return res
	}
	res.ROI = &roi
	res.Err = err

	return res
}

// writeScratch stores the image under a name derived from the run ID. The
// file is created exclusively so no two runs can share it.
func (c *Coordinator) writeScratch(runID string, item Item) (string, error) {
	path := filepath.Join(c.cfg.ScratchDir, runID+strings.ToLower(filepath.Ext(item.ImageName)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	if _, err := f.Write(item.Data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing scratch file: %w", err)
	}
	return path, nil
}

func observe(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	return d
}
