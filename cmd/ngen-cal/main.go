// ngen-cal inspects calibration configurations and extracts simulated
// discharge from routing output.
//
// Usage:
//
//	ngen-cal -config calibration.json inspect
//	ngen-cal -config calibration.json extract [-output file] [-png out.png] [-html out.html] [-observed]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ajkhattak/ngen-cal/internal/calibration"
	"github.com/ajkhattak/ngen-cal/internal/realization"
	"github.com/ajkhattak/ngen-cal/internal/report"
	"github.com/ajkhattak/ngen-cal/internal/troute"
	"github.com/ajkhattak/ngen-cal/internal/usgs"
)

var (
	configPath = flag.String("config", "", "Calibration configuration file (JSON)")
	outputPath = flag.String("output", "", "Routing output file (defaults to the configured routing_output)")
	pngPath    = flag.String("png", "", "Write a hydrograph PNG to this path")
	htmlPath   = flag.String("html", "", "Write an interactive hydrograph HTML chart to this path")
	observed   = flag.Bool("observed", false, "Also fetch USGS observations for the evaluation gauge")
)

func main() {
	flag.Parse()
	if *configPath == "" || flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := calibration.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	graph, err := cfg.OpenGraph()
	if err != nil {
		log.Fatal(err)
	}
	real, err := realization.Load(cfg.Realization)
	if err != nil {
		log.Fatal(err)
	}
	targets, err := calibration.BuildTargets(cfg, graph, real)
	if err != nil {
		log.Fatal(err)
	}

	switch flag.Arg(0) {
	case "inspect":
		inspect(cfg, targets)
	case "extract":
		if err := extract(cfg, real, targets); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command %q (want inspect or extract)", flag.Arg(0))
	}
}

func inspect(cfg *calibration.Config, targets []*calibration.Target) {
	fmt.Printf("strategy: %s\n", cfg.Strategy)
	fmt.Printf("targets:  %d\n", len(targets))
	for _, t := range targets {
		fmt.Printf("\n[%s] evaluation nexus %s (gauge %s), %d catchments\n",
			t.Kind, t.Nexus.ID, t.Nexus.Gauge, len(t.CatchmentIDs))
		for _, r := range t.Params.Rows() {
			fmt.Printf("  %-12s %-10s min=%-12g max=%-12g init=%g\n",
				r.Model, r.Param, r.Min, r.Max, r.Init)
		}
	}
}

func extract(cfg *calibration.Config, real *realization.Realization, targets []*calibration.Target) error {
	if len(targets) != 1 {
		return fmt.Errorf("extract needs exactly one target, have %d (explicit strategy not supported here)", len(targets))
	}
	target := targets[0]

	path := *outputPath
	if path == "" {
		path = cfg.RoutingOutput
	}
	out := troute.NewOutput(path, troute.Window{
		Start:          real.Time.StartTime.Time,
		End:            real.Time.EndTime.Time,
		OutputInterval: time.Duration(real.Time.OutputInterval) * time.Second,
	})
	sim, err := out.GetOutput(target.Nexus)
	if err != nil {
		return err
	}
	if sim.Empty() {
		return fmt.Errorf("no simulated data for nexus %s in %s", target.Nexus.ID, path)
	}

	series := []report.LabeledSeries{{Label: "simulated", Series: sim}}
	if *observed {
		obs, err := usgs.NewClient().Discharge(context.Background(),
			target.Nexus.Gauge, real.Time.StartTime.Time, real.Time.EndTime.Time)
		if err != nil {
			return err
		}
		series = append(series, report.LabeledSeries{Label: "observed", Series: obs})
	}

	for i, t := range sim.Times {
		fmt.Printf("%s,%g\n", t.Format("2006-01-02 15:04:05"), sim.Values[i])
	}

	title := fmt.Sprintf("discharge at %s (gauge %s)", target.Nexus.ID, target.Nexus.Gauge)
	if *pngPath != "" {
		if err := report.SavePNG(*pngPath, title, series...); err != nil {
			return err
		}
	}
	if *htmlPath != "" {
		if err := report.SaveHTML(*htmlPath, title, series...); err != nil {
			return err
		}
	}
	return nil
}
