package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/solarroi/solarroi/internal/app"
	"github.com/solarroi/solarroi/internal/config"
)

type CitiesCmd struct{}

func (CitiesCmd) Run(cfg *config.Config) error {
	cat, err := app.LoadCatalog(cfg.Economics.CatalogFile)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tLAT\tLON\tPEAK SUN HOURS")
	for _, c := range cat.Cities {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.1f\n", c.Name, c.Latitude, c.Longitude, c.PeakSunHours)
	}
	return tw.Flush()
}

type PanelsCmd struct{}

func (PanelsCmd) Run(cfg *config.Config) error {
	cat, err := app.LoadCatalog(cfg.Economics.CatalogFile)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PANEL\tEFFICIENCY\tINR/W\tSUBSIDY INR/kW")
	for _, p := range cat.Panels {
		fmt.Fprintf(tw, "%s\t%.3f\t%.2f\t%.0f\n", p.Name, p.Efficiency, p.CostPerWatt, p.SubsidyPerKW)
	}
	return tw.Flush()
}
