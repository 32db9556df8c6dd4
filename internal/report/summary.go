package report

import (
	"fmt"
	"strings"
)

// Summary renders the batch as a plain-text report, one block per rooftop.
func Summary(records []Record) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		if r.Failed() {
			fmt.Fprintf(&b, "Rooftop %d (%s): error\n", r.RooftopID, r.ImageName)
			fmt.Fprintf(&b, "  %s\n", r.Error)
			writeRecommendations(&b, r.Recommendations)
			continue
		}

		fmt.Fprintf(&b, "Rooftop %d (%s) analysis\n", r.RooftopID, r.ImageName)
		fmt.Fprintf(&b, "  Area: %.1f m²\n", r.AreaM2)
		fmt.Fprintf(&b, "  Orientation: %s\n", r.Orientation)
		fmt.Fprintf(&b, "  Obstructions: %s\n", r.Obstructions)
		fmt.Fprintf(&b, "  Surface Type: %s\n", r.SurfaceType)
		fmt.Fprintf(&b, "  Suitability: %d/10\n", r.Suitability)
		fmt.Fprintf(&b, "  City: %s\n", r.City)
		fmt.Fprintf(&b, "  Panel Type: %s\n", r.PanelType)

		b.WriteString("Solar potential\n")
		fmt.Fprintf(&b, "  Irradiance: %.1f W/m² (%s)\n", r.IrradianceWM2, r.IrradianceSource)
		fmt.Fprintf(&b, "  Annual Energy: %s kWh", grouped(r.AnnualEnergyKWh))
		if r.EnergyCapped {
			b.WriteString(" (capped)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  System Size: %.2f kW\n", r.SystemSizeKW)

		b.WriteString("ROI estimation\n")
		fmt.Fprintf(&b, "  Total Cost (after subsidy): INR %s\n", grouped(r.TotalCostINR))
		fmt.Fprintf(&b, "  Annual Savings: INR %s\n", grouped(r.AnnualSavingsINR))
		fmt.Fprintf(&b, "  Payback Period: %.2f years\n", r.PaybackPeriodYears)

		writeRecommendations(&b, r.Recommendations)
	}
	return b.String()
}

func writeRecommendations(b *strings.Builder, recs []string) {
	b.WriteString("Recommendations\n")
	for _, rec := range recs {
		fmt.Fprintf(b, "  - %s\n", rec)
	}
}

// grouped formats v with two decimals and comma thousands separators.
func grouped(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
