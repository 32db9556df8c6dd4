// Package vision derives a RooftopObservation from a rooftop image.
package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/solarroi/solarroi/pkg/models"
)

// ErrDetection is returned for any image the detector cannot analyse.
var ErrDetection = errors.New("rooftop detection failed")

// Detector extracts rooftop features from an image file.
type Detector interface {
	Detect(ctx context.Context, path string) (models.RooftopObservation, error)
}

const (
	sampleSize        = 64
	vegetationCutoff  = 0.15
	shadowCutoff      = 0.25
	baseSuitability   = 8
	minSuitability    = 1
	maxSuitability    = 10
	shadowLuminance   = 40
	vegetationMargin  = 12
	vegetationMinimum = 60
)

var allowedExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Config bounds what LocalDetector accepts.
type Config struct {
	MinWidth      int
	MinHeight     int
	MaxBytes      int64
	NominalAreaM2 float64
}

// LocalDetector runs a colour heuristic over a downsampled copy of the image.
// It reports the configured nominal area facing south on a flat surface, with
// obstructions taken from vegetation and deep-shadow coverage.
type LocalDetector struct {
	cfg Config
}

func NewLocalDetector(cfg Config) *LocalDetector {
	return &LocalDetector{cfg: cfg}
}

// CheckUpload rejects uploads by name and size before they are written anywhere.
func (d *LocalDetector) CheckUpload(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s: unsupported file type %q (use png, jpg or jpeg)", ErrDetection, name, ext)
	}
	if size == 0 {
		return fmt.Errorf("%w: %s: file is empty", ErrDetection, name)
	}
	if d.cfg.MaxBytes > 0 && size > d.cfg.MaxBytes {
		return fmt.Errorf("%w: %s: file is %d bytes, limit is %d", ErrDetection, name, size, d.cfg.MaxBytes)
	}
	return nil
}

func (d *LocalDetector) Detect(ctx context.Context, path string) (models.RooftopObservation, error) {
	if err := ctx.Err(); err != nil {
		return models.RooftopObservation{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.RooftopObservation{}, fmt.Errorf("%w: %v", ErrDetection, err)
	}
	if err := d.CheckUpload(filepath.Base(path), info.Size()); err != nil {
		return models.RooftopObservation{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.RooftopObservation{}, fmt.Errorf("%w: %v", ErrDetection, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.RooftopObservation{}, fmt.Errorf("%w: %s: not a readable image: %v", ErrDetection, filepath.Base(path), err)
	}
	if format != "png" && format != "jpeg" {
		return models.RooftopObservation{}, fmt.Errorf("%w: %s: unsupported image format %q", ErrDetection, filepath.Base(path), format)
	}
	if cfg.Width < d.cfg.MinWidth || cfg.Height < d.cfg.MinHeight {
		return models.RooftopObservation{}, fmt.Errorf("%w: %s: resolution %dx%d is below the %dx%d minimum",
			ErrDetection, filepath.Base(path), cfg.Width, cfg.Height, d.cfg.MinWidth, d.cfg.MinHeight)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.RooftopObservation{}, fmt.Errorf("%w: %s: %v", ErrDetection, filepath.Base(path), err)
	}

	vegetation, shadow := coverage(downsample(img))

	var obstructions []string
	if vegetation > vegetationCutoff {
		obstructions = append(obstructions, "tree")
	}
	if shadow > shadowCutoff {
		obstructions = append(obstructions, "shade")
	}

	desc := models.NoObstructions
	if len(obstructions) > 0 {
		desc = strings.Join(obstructions, ", ")
	}

	return models.RooftopObservation{
		AreaM2:       d.cfg.NominalAreaM2,
		Orientation:  models.OrientationSouth,
		Obstructions: desc,
		SurfaceType:  models.SurfaceFlat,
		Suitability:  clamp(baseSuitability-len(obstructions), minSuitability, maxSuitability),
	}, nil
}

func downsample(src image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// coverage returns the fraction of pixels that look like vegetation and
// the fraction that are in deep shadow.
func coverage(img *image.RGBA) (vegetation, shadow float64) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0, 0
	}

	var green, dark int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if luminance(c) < shadowLuminance {
				dark++
				continue
			}
			if int(c.G) > vegetationMinimum && int(c.G) > int(c.R)+vegetationMargin && int(c.G) > int(c.B)+vegetationMargin {
				green++
			}
		}
	}
	return float64(green) / float64(total), float64(dark) / float64(total)
}

func luminance(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ Detector = (*LocalDetector)(nil)
