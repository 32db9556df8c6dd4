// Package catalog holds the reference data the yield and ROI model runs on:
// supported cities, panel technologies, orientation and surface factors, and
// the seasonal weighting profile. A Catalog is built once at startup and is
// read-only afterwards.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/solarroi/solarroi/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedLocation = errors.New("unsupported location")
	ErrUnknownPanelType    = errors.New("unknown panel type")
)

const weightTolerance = 1e-9

// Catalog is the versioned constants table.
type Catalog struct {
	Version            string
	Cities             []models.City
	Panels             []models.PanelType
	OrientationFactors map[models.Orientation]float64
	SurfaceFactors     map[models.SurfaceType]float64
	MonthlyWeights     [models.MonthsPerYear]float64
	InstallationCost   float64
	DefaultCity        string
	DefaultPanel       string
}

// City resolves a supported city by name, ignoring case and surrounding space.
func (c *Catalog) City(name string) (models.City, error) {
	name = strings.TrimSpace(name)
	for _, city := range c.Cities {
		if strings.EqualFold(city.Name, name) {
			return city, nil
		}
	}
	return models.City{}, fmt.Errorf("%w: %q (choose from %s)", ErrUnsupportedLocation, name, strings.Join(c.CityNames(), ", "))
}

// Panel resolves a panel type by name, ignoring case and surrounding space.
func (c *Catalog) Panel(name string) (models.PanelType, error) {
	name = strings.TrimSpace(name)
	for _, p := range c.Panels {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return models.PanelType{}, fmt.Errorf("%w: %q (choose from %s)", ErrUnknownPanelType, name, strings.Join(c.PanelNames(), ", "))
}

func (c *Catalog) CityNames() []string {
	names := make([]string, len(c.Cities))
	for i, city := range c.Cities {
		names[i] = city.Name
	}
	return names
}

func (c *Catalog) PanelNames() []string {
	names := make([]string, len(c.Panels))
	for i, p := range c.Panels {
		names[i] = p.Name
	}
	return names
}

// OrientationFactor returns the yield multiplier for an orientation.
func (c *Catalog) OrientationFactor(o models.Orientation) (float64, bool) {
	f, ok := c.OrientationFactors[models.Orientation(strings.ToLower(string(o)))]
	return f, ok
}

// SurfaceFactor returns the yield multiplier for a surface type.
func (c *Catalog) SurfaceFactor(s models.SurfaceType) (float64, bool) {
	f, ok := c.SurfaceFactors[models.SurfaceType(strings.ToLower(string(s)))]
	return f, ok
}

// Validate checks the table is internally consistent.
func (c *Catalog) Validate() error {
	if len(c.Cities) == 0 {
		return errors.New("catalog: no cities")
	}
	for _, city := range c.Cities {
		if city.Name == "" {
			return errors.New("catalog: city with empty name")
		}
		if !finite(city.PeakSunHours, city.Latitude, city.Longitude) {
			return fmt.Errorf("catalog: city %q: values must be finite numbers", city.Name)
		}
		if city.PeakSunHours <= 0 || city.PeakSunHours > 24 {
			return fmt.Errorf("catalog: city %q: peak sun hours must be in (0, 24], got %v", city.Name, city.PeakSunHours)
		}
		if math.Abs(city.Latitude) > 90 || math.Abs(city.Longitude) > 180 {
			return fmt.Errorf("catalog: city %q: coordinates out of range", city.Name)
		}
	}

	if len(c.Panels) == 0 {
		return errors.New("catalog: no panel types")
	}
	for _, p := range c.Panels {
		if !finite(p.Efficiency, p.CostPerWatt, p.SubsidyPerKW) {
			return fmt.Errorf("catalog: panel %q: values must be finite numbers", p.Name)
		}
		if p.Efficiency <= 0 || p.Efficiency >= 1 {
			return fmt.Errorf("catalog: panel %q: efficiency must be in (0, 1), got %v", p.Name, p.Efficiency)
		}
		if p.CostPerWatt <= 0 {
			return fmt.Errorf("catalog: panel %q: cost per watt must be positive", p.Name)
		}
		if p.SubsidyPerKW < 0 {
			return fmt.Errorf("catalog: panel %q: subsidy must not be negative", p.Name)
		}
	}

	if _, ok := c.OrientationFactor(models.OrientationSouth); !ok {
		return errors.New("catalog: orientation factors must include south")
	}
	for o, f := range c.OrientationFactors {
		if !finite(f) || f <= 0 || f > 1 {
			return fmt.Errorf("catalog: orientation %q: factor must be in (0, 1], got %v", o, f)
		}
	}
	for s, f := range c.SurfaceFactors {
		if !finite(f) || f <= 0 || f > 1 {
			return fmt.Errorf("catalog: surface %q: factor must be in (0, 1], got %v", s, f)
		}
	}

	var sum float64
	for i, w := range c.MonthlyWeights {
		if !finite(w) || w <= 0 {
			return fmt.Errorf("catalog: monthly weight %d must be positive, got %v", i+1, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("catalog: monthly weights must sum to 1, got %v", sum)
	}

	if !finite(c.InstallationCost) || c.InstallationCost < 0 {
		return errors.New("catalog: installation cost must not be negative")
	}
	if _, err := c.City(c.DefaultCity); err != nil {
		return fmt.Errorf("catalog: default city: %w", err)
	}
	if _, err := c.Panel(c.DefaultPanel); err != nil {
		return fmt.Errorf("catalog: default panel: %w", err)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// catalogFile is the YAML shape of an override file. Omitted sections keep
// their default values.
type catalogFile struct {
	Version            string             `yaml:"version"`
	Cities             []models.City      `yaml:"cities"`
	Panels             []models.PanelType `yaml:"panels"`
	OrientationFactors map[string]float64 `yaml:"orientation_factors"`
	SurfaceFactors     map[string]float64 `yaml:"surface_factors"`
	MonthlyWeights     []float64          `yaml:"monthly_weights"`
	InstallationCost   *float64           `yaml:"installation_cost"`
	DefaultCity        string             `yaml:"default_city"`
	DefaultPanel       string             `yaml:"default_panel"`
}

// LoadFile reads a YAML override file on top of Default and validates the result.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse applies YAML overrides to Default and validates the result.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := Default()
	if f.Version != "" {
		c.Version = f.Version
	}
	if len(f.Cities) > 0 {
		c.Cities = f.Cities
	}
	if len(f.Panels) > 0 {
		c.Panels = f.Panels
	}
	if len(f.OrientationFactors) > 0 {
		c.OrientationFactors = make(map[models.Orientation]float64, len(f.OrientationFactors))
		for k, v := range f.OrientationFactors {
			c.OrientationFactors[models.Orientation(strings.ToLower(k))] = v
		}
	}
	if len(f.SurfaceFactors) > 0 {
		c.SurfaceFactors = make(map[models.SurfaceType]float64, len(f.SurfaceFactors))
		for k, v := range f.SurfaceFactors {
			c.SurfaceFactors[models.SurfaceType(strings.ToLower(k))] = v
		}
	}
	if f.MonthlyWeights != nil {
		if len(f.MonthlyWeights) != models.MonthsPerYear {
			return nil, fmt.Errorf("catalog: monthly_weights must have %d values, got %d", models.MonthsPerYear, len(f.MonthlyWeights))
		}
		copy(c.MonthlyWeights[:], f.MonthlyWeights)
	}
	if f.InstallationCost != nil {
		c.InstallationCost = *f.InstallationCost
	}
	if f.DefaultCity != "" {
		c.DefaultCity = f.DefaultCity
	}
	if f.DefaultPanel != "" {
		c.DefaultPanel = f.DefaultPanel
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
