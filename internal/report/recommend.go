package report

import (
	"fmt"
	"strings"

	"github.com/solarroi/solarroi/pkg/models"
)

var surfaceAdjustment = map[models.SurfaceType]int{
	models.SurfaceFlat:   0,
	models.SurfaceSloped: -1,
	models.SurfaceCurved: -2,
}

// Recommendations returns the installation advice for a rooftop: a
// suitability verdict adjusted for surface type, site-specific notes, and
// the permit and compliance checklist.
func Recommendations(obs models.RooftopObservation, panel models.PanelType, city models.City) []string {
	surface := models.SurfaceType(strings.ToLower(string(obs.SurfaceType)))
	score := clamp(obs.Suitability+surfaceAdjustment[surface], 1, 10)

	var recs []string
	switch {
	case score >= 7:
		recs = append(recs, fmt.Sprintf("Highly suitable (%s rooftop); use %s panels (%.2f%% efficiency).", surface, panel.Name, panel.Efficiency*100))
	case score >= 4:
		recs = append(recs, fmt.Sprintf("Moderately suitable (%s rooftop); %s panels recommended.", surface, panel.Name))
	default:
		recs = append(recs, fmt.Sprintf("Limited suitability (%s rooftop); consider alternatives.", surface))
	}

	if obstructions := obs.ObstructionList(); len(obstructions) > 0 {
		recs = append(recs, fmt.Sprintf("Mitigate obstructions (%s).", strings.Join(obstructions, ", ")))
	}
	if !strings.EqualFold(string(obs.Orientation), string(models.OrientationSouth)) {
		recs = append(recs, fmt.Sprintf("Adjust tilt (15-30°) for %s orientation.", obs.Orientation.Title()))
	}
	switch surface {
	case models.SurfaceSloped:
		recs = append(recs, "Ensure structural integrity for sloped installation.")
	case models.SurfaceCurved:
		recs = append(recs, "Consider flexible panels for curved surfaces.")
	}

	return append(recs,
		fmt.Sprintf("Secure permits from the local discom in %s.", city.Name),
		"Comply with CEA standards (IS/IEC 61730).",
		"Clean panels 2-4 times yearly; use IoT monitoring.",
		"Leverage net metering under PM Surya Ghar Yojana.",
	)
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
