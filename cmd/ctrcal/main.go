// Command ctrcal evaluates streak camera resolution from a flatfield image
// with a Ronchi-ruling mask.
//
// Usage:
//
//	ctrcal [flags] image
//
// The contrast transfer ratio is mapped across the image and sampled at a
// 3x3 grid of points of interest spanning the usable data region. A heat
// map with the points marked is saved next to the image.
//
// Examples:
//
//	ctrcal 10s_FF_5lppmm_RR.tif
//	ctrcal -min-peaks 30 -window 60 flatfield.fits
//	ctrcal -config ctr.yml flatfield.tif
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
	"github.com/cwbudde/streakcal/measure/ctr"
	"github.com/cwbudde/streakcal/render"
)

type config struct {
	MinPeaks    int     `koanf:"min_peaks"`
	SwathSize   int     `koanf:"swath_size"`
	Window      int     `koanf:"window"`
	LeftOffset  float64 `koanf:"left_offset"`
	RightOffset float64 `koanf:"right_offset"`
}

func defaults() config {
	return config{
		MinPeaks:  50,
		SwathSize: 40,
		Window:    40,
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
	minPeaks := flag.Int("min-peaks", 0, "minimum ruling peaks for orientation check")
	swath := flag.Int("swath", 0, "rows averaged per map row")
	window := flag.Int("window", 0, "analysis window width in px")
	leftOff := flag.Float64("left-offset", 0, "shift of the left data limit in px")
	rightOff := flag.Float64("right-offset", 0, "shift of the right data limit in px")
	plotPath := flag.String("plot", "", "diagnostic plot path (default <image>_ctr.png)")
	noPlot := flag.Bool("no-plot", false, "skip the diagnostic plot")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ctrcal [flags] image\n\n")
		fmt.Fprintf(os.Stderr, "Maps the contrast transfer ratio of a Ronchi-ruling flatfield.\n")
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
		case "min-peaks":
			cfg.MinPeaks = *minPeaks
		case "swath":
			cfg.SwathSize = *swath
		case "window":
			cfg.Window = *window
		case "left-offset":
			cfg.LeftOffset = *leftOff
		case "right-offset":
			cfg.RightOffset = *rightOff
		}
	})

	if cfg.MinPeaks <= 0 || cfg.SwathSize <= 0 || cfg.Window <= 0 {
		fatal(fmt.Errorf("peak count, swath size and window must be positive"))
	}

	path := flag.Arg(0)

	frm, err := frame.Load(path)
	if err != nil {
		fatal(err)
	}

	res, err := ctr.Analyze(frm, ctr.Config{
		MinPeaks:    cfg.MinPeaks,
		SwathSize:   cfg.SwathSize,
		Window:      cfg.Window,
		LeftOffset:  cfg.LeftOffset,
		RightOffset: cfg.RightOffset,
	})
	if err != nil {
		fatal(err)
	}

	if res.Rotated {
		fmt.Println("note: image rotated 90 degrees to line the ruling up with the rows")
	}

	fmt.Printf("Left limit:        %.1f px\n", res.LeftLimit)
	fmt.Printf("Right limit:       %.1f px\n", res.RightLimit)
	fmt.Printf("Background counts: %.0f\n", res.Background)
	fmt.Printf("Ruling period:     %.1f px\n", res.RulingPeriod)

	pois, err := res.PointsOfInterest()
	if err != nil {
		fatal(err)
	}

	fmt.Println("CTR at points of interest:")
	for _, poi := range pois {
		fmt.Printf("  row %4d, col %4d: %6.2f%%\n", poi.Row, poi.Col, poi.CTR*100)
	}

	if *noPlot {
		return
	}

	out := *plotPath
	if out == "" {
		out = strings.TrimSuffix(path, extOf(path)) + "_ctr.png"
	}

	p, err := render.ContrastMap(res, pois)
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
	fmt.Fprintf(os.Stderr, "ctrcal: %v\n", err)
	os.Exit(1)
}
