package models

// City is a supported location with a precomputed default peak-sun-hours figure
// used when no live irradiance is available.
type City struct {
	Name         string  `json:"name"          yaml:"name"`
	Latitude     float64 `json:"latitude"      yaml:"latitude"`
	Longitude    float64 `json:"longitude"     yaml:"longitude"`
	PeakSunHours float64 `json:"peak_sun_hours" yaml:"peak_sun_hours"`
}

// PanelType holds the per-technology constants used for yield and cost estimates.
type PanelType struct {
	Name         string  `json:"name"           yaml:"name"`
	Efficiency   float64 `json:"efficiency"     yaml:"efficiency"`
	CostPerWatt  float64 `json:"cost_per_watt"  yaml:"cost_per_watt"`
	SubsidyPerKW float64 `json:"subsidy_per_kw" yaml:"subsidy_per_kw"`
}
