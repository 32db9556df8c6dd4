package report

// Chart is a render-agnostic chart description.
type Chart struct {
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

const (
	ChartBar  = "bar"
	ChartLine = "line"
)

// Charts returns the annual bar chart and the monthly line chart for a
// record. Failed records have no charts.
func Charts(r Record) []Chart {
	if r.Failed() {
		return nil
	}
	return []Chart{
		{
			Kind:       ChartBar,
			Title:      "Solar Potential and Savings",
			Categories: []string{"Annual Energy (kWh)", "Annual Savings (INR)"},
			Series: []Series{
				{Name: "Value", Values: []float64{r.AnnualEnergyKWh, r.AnnualSavingsINR}},
			},
		},
		{
			Kind:       ChartLine,
			Title:      "Monthly Energy and Savings",
			Categories: append([]string(nil), monthNames[:]...),
			Series: []Series{
				{Name: "Energy (kWh)", Values: r.MonthlyEnergyKWh},
				{Name: "Savings (INR)", Values: r.MonthlySavingsINR},
			},
		},
	}
}
