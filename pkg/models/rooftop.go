// Package models contains shared data models used across the solarroi codebase.
package models

import "strings"

// Orientation is the compass direction a rooftop surface faces.
type Orientation string

const (
	OrientationSouth     Orientation = "south"
	OrientationSoutheast Orientation = "southeast"
	OrientationSouthwest Orientation = "southwest"
	OrientationEast      Orientation = "east"
	OrientationWest      Orientation = "west"
	OrientationNortheast Orientation = "northeast"
	OrientationNorthwest Orientation = "northwest"
	OrientationNorth     Orientation = "north"
)

// SurfaceType describes the rooftop's geometry.
type SurfaceType string

const (
	SurfaceFlat   SurfaceType = "flat"
	SurfaceSloped SurfaceType = "sloped"
	SurfaceCurved SurfaceType = "curved"
)

// NoObstructions is the descriptor used when the detector finds nothing in the way.
const NoObstructions = "none"

// RooftopObservation is what the vision detector reports about a single rooftop.
// It is treated as an immutable value once produced.
type RooftopObservation struct {
	AreaM2       float64     `json:"area_m2"`
	Orientation  Orientation `json:"orientation"`
	Obstructions string      `json:"obstructions"`
	SurfaceType  SurfaceType `json:"surface_type"`
	Suitability  int         `json:"suitability"`
}

// ObstructionList splits the obstruction descriptor into its labels.
// Returns nil when the rooftop is unobstructed.
func (o RooftopObservation) ObstructionList() []string {
	desc := strings.TrimSpace(o.Obstructions)
	if desc == "" || strings.EqualFold(desc, NoObstructions) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(desc, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Title returns a display form of the orientation ("Southwest").
func (o Orientation) Title() string {
	return capitalize(string(o))
}

// Title returns a display form of the surface type ("Flat").
func (s SurfaceType) Title() string {
	return capitalize(string(s))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
