// Command fwhmcal assists optical alignment by profiling the full width at
// half maximum of a slit image row by row.
//
// Usage:
//
//	fwhmcal [flags] image
//
// Every row is fit with a Gaussian; the per-row FWHM curve and swath
// averages at 25%, 50% and 75% of the usable extent are reported. A plot of
// the curve with the three swaths marked is saved next to the image.
//
// Examples:
//
//	fwhmcal 75ms_Exp.tif
//	fwhmcal -cutoff 1000 slit.fits
//	fwhmcal -config fwhm.yml -offset-50 12 slit.tif
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	"github.com/cwbudde/streakcal/frame"
	"github.com/cwbudde/streakcal/measure/fwhm"
	"github.com/cwbudde/streakcal/render"
)

type config struct {
	Cutoff             float64 `koanf:"cutoff"`
	MinWidth           float64 `koanf:"min_width"`
	SwathSize          int     `koanf:"swath_size"`
	MinValidFits       int     `koanf:"min_valid_fits"`
	AllOffset          int     `koanf:"all_offset"`
	QuarterOffset      int     `koanf:"quarter_offset"`
	HalfOffset         int     `koanf:"half_offset"`
	ThreeQuarterOffset int     `koanf:"three_quarter_offset"`
}

func defaults() config {
	return config{
		Cutoff:       2000,
		MinWidth:     5,
		SwathSize:    40,
		MinValidFits: 5,
	}
}

func loadConfig(path string) (config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return config{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return config{}, fmt.Errorf("loading config: %w", err)
		}
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func main() {
	confPath := flag.String("config", "", "optional YAML parameter file")
	cutoff := flag.Float64("cutoff", 0, "minimum peak intensity to fit a row")
	width := flag.Float64("width", 0, "minimum peak width in px")
	swath := flag.Int("swath", 0, "rows averaged per point of interest")
	minFits := flag.Int("min-fits", 0, "minimum valid fits per swath")
	offAll := flag.Int("offset", 0, "shift of all three swath centers in rows")
	off25 := flag.Int("offset-25", 0, "shift of the 25% swath center")
	off50 := flag.Int("offset-50", 0, "shift of the 50% swath center")
	off75 := flag.Int("offset-75", 0, "shift of the 75% swath center")
	plotPath := flag.String("plot", "", "diagnostic plot path (default <image>_fwhm.png)")
	noPlot := flag.Bool("no-plot", false, "skip the diagnostic plot")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fwhmcal [flags] image\n\n")
		fmt.Fprintf(os.Stderr, "Profiles the FWHM of a slit image for optical alignment.\n")
		fmt.Fprintf(os.Stderr, "Flags override values from the -config file.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*confPath)
	if err != nil {
		fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cutoff":
			cfg.Cutoff = *cutoff
		case "width":
			cfg.MinWidth = *width
		case "swath":
			cfg.SwathSize = *swath
		case "min-fits":
			cfg.MinValidFits = *minFits
		case "offset":
			cfg.AllOffset = *offAll
		case "offset-25":
			cfg.QuarterOffset = *off25
		case "offset-50":
			cfg.HalfOffset = *off50
		case "offset-75":
			cfg.ThreeQuarterOffset = *off75
		}
	})

	if cfg.Cutoff <= 0 || cfg.SwathSize <= 0 || cfg.MinValidFits <= 0 {
		fatal(fmt.Errorf("cutoff, swath size and min fits must be positive"))
	}

	path := flag.Arg(0)

	frm, err := frame.Load(path)
	if err != nil {
		fatal(err)
	}

	res, err := fwhm.Analyze(frm, fwhm.Config{
		Cutoff:             cfg.Cutoff,
		MinWidth:           cfg.MinWidth,
		SwathSize:          cfg.SwathSize,
		MinValidFits:       cfg.MinValidFits,
		AllOffset:          cfg.AllOffset,
		QuarterOffset:      cfg.QuarterOffset,
		HalfOffset:         cfg.HalfOffset,
		ThreeQuarterOffset: cfg.ThreeQuarterOffset,
	})
	if err != nil {
		fatal(err)
	}

	if res.Rotated {
		fmt.Println("note: image rotated 90 degrees to line the slit up with the rows")
	}

	fmt.Printf("Background counts: %.0f\n", res.Background)
	fmt.Printf("Data bounds: rows %d - %d (%d valid fits)\n", res.Start, res.End, res.ValidCount)

	for _, sw := range res.Swaths {
		fmt.Printf("FWHM at %2.0f%% (row %4d): %6.2f px over %d fits\n",
			sw.Fraction*100, sw.Center, sw.FWHM, sw.Count)
	}

	fmt.Printf("FWHM standard deviation: %.3f px\n", res.StdDev)

	if *noPlot {
		return
	}

	out := *plotPath
	if out == "" {
		out = strings.TrimSuffix(path, extOf(path)) + "_fwhm.png"
	}

	p, err := render.FWHMCurve(res, cfg.SwathSize)
	if err != nil {
		fatal(err)
	}

	if err := render.Save(p, out); err != nil {
		fatal(err)
	}

	fmt.Printf("Diagnostic plot saved to %s\n", out)
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}

	return ""
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "fwhmcal: %v\n", err)
	os.Exit(1)
}
