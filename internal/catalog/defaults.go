package catalog

import "github.com/solarroi/solarroi/pkg/models"

// Default returns the built-in 2025 table. Each call returns a fresh copy.
func Default() *Catalog {
	return &Catalog{
		Version: "2025",
		Cities: []models.City{
			{Name: "Gurugram", Latitude: 28.4595, Longitude: 77.0266, PeakSunHours: 5.3},
			{Name: "New Delhi", Latitude: 28.6139, Longitude: 77.2090, PeakSunHours: 5.2},
			{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, PeakSunHours: 5.0},
			{Name: "Bengaluru", Latitude: 12.9716, Longitude: 77.5946, PeakSunHours: 5.1},
			{Name: "Chennai", Latitude: 13.0827, Longitude: 80.2707, PeakSunHours: 5.4},
			{Name: "Hyderabad", Latitude: 17.3850, Longitude: 78.4867, PeakSunHours: 5.2},
			{Name: "Ahmedabad", Latitude: 23.0225, Longitude: 72.5714, PeakSunHours: 5.3},
			{Name: "Jaipur", Latitude: 26.9124, Longitude: 75.7873, PeakSunHours: 5.5},
			{Name: "Kolkata", Latitude: 22.5726, Longitude: 88.3639, PeakSunHours: 4.9},
			{Name: "Pune", Latitude: 18.5204, Longitude: 73.8567, PeakSunHours: 5.1},
		},
		Panels: []models.PanelType{
			{Name: "monocrystalline", Efficiency: 0.247, CostPerWatt: 27, SubsidyPerKW: 14588},
			{Name: "bifacial", Efficiency: 0.247 * 1.3, CostPerWatt: 30, SubsidyPerKW: 14588},
			{Name: "perovskite", Efficiency: 0.26, CostPerWatt: 25, SubsidyPerKW: 14588},
		},
		OrientationFactors: map[models.Orientation]float64{
			models.OrientationSouth:     1.0,
			models.OrientationSoutheast: 0.95,
			models.OrientationSouthwest: 0.95,
			models.OrientationEast:      0.80,
			models.OrientationWest:      0.80,
			models.OrientationNortheast: 0.72,
			models.OrientationNorthwest: 0.72,
			models.OrientationNorth:     0.65,
		},
		SurfaceFactors: map[models.SurfaceType]float64{
			models.SurfaceFlat:   1.0,
			models.SurfaceSloped: 0.95,
			models.SurfaceCurved: 0.85,
		},
		// Jan..Dec. Pre-monsoon spring peaks, monsoon and winter troughs.
		MonthlyWeights:   [models.MonthsPerYear]float64{0.08, 0.09, 0.10, 0.09, 0.09, 0.08, 0.07, 0.08, 0.08, 0.09, 0.08, 0.07},
		InstallationCost: 10000,
		DefaultCity:      "New Delhi",
		DefaultPanel:     "monocrystalline",
	}
}
