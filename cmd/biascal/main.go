// Command biascal measures streak camera sweep linearity from a streaked
// comb-pulse image.
//
// Usage:
//
//	biascal [flags] image
//
// The image is searched for the swath lineout with the most comb pulses,
// the first and last n peak spacings are averaged, and their difference is
// printed. The bias voltage is adjusted until the difference reads
// approximately zero. A diagnostic plot of the lineout with the counted
// peaks highlighted is saved next to the image.
//
// Examples:
//
//	biascal 40ns_1GHz.tif
//	biascal -n 3 -height 3000 comb.fits
//	biascal -config bias.yml -plot /tmp/lineout.png comb.tif
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
	"github.com/cwbudde/streakcal/measure/bias"
	"github.com/cwbudde/streakcal/render"
)

type config struct {
	MinHeight   float64 `koanf:"min_height"`
	MinDistance int     `koanf:"min_distance"`
	NumPeaks    int     `koanf:"num_peaks"`
	SwathSize   int     `koanf:"swath_size"`
	SkipLeft    int     `koanf:"skip_left"`
	SkipRight   int     `koanf:"skip_right"`
	EveryN      int     `koanf:"every_n"`
}

func defaults() config {
	return config{
		MinHeight:   5000,
		MinDistance: 3,
		NumPeaks:    5,
		SwathSize:   10,
		EveryN:      1,
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
	height := flag.Float64("height", 0, "minimum peak height in counts")
	distance := flag.Int("distance", 0, "minimum peak separation in px")
	n := flag.Int("n", 0, "peaks to count on each side")
	swath := flag.Int("swath", 0, "lineout swath size in rows")
	skipLeft := flag.Int("skip-left", 0, "peaks to skip on the left")
	skipRight := flag.Int("skip-right", 0, "peaks to skip on the right")
	every := flag.Int("every", 0, "count every n-th peak")
	plotPath := flag.String("plot", "", "diagnostic plot path (default <image>_lineout.png)")
	noPlot := flag.Bool("no-plot", false, "skip the diagnostic plot")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: biascal [flags] image\n\n")
		fmt.Fprintf(os.Stderr, "Measures streak camera sweep linearity from a comb-pulse image.\n")
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
		case "height":
			cfg.MinHeight = *height
		case "distance":
			cfg.MinDistance = *distance
		case "n":
			cfg.NumPeaks = *n
		case "swath":
			cfg.SwathSize = *swath
		case "skip-left":
			cfg.SkipLeft = *skipLeft
		case "skip-right":
			cfg.SkipRight = *skipRight
		case "every":
			cfg.EveryN = *every
		}
	})

	if cfg.NumPeaks <= 0 || cfg.SwathSize <= 0 || cfg.EveryN <= 0 ||
		cfg.SkipLeft < 0 || cfg.SkipRight < 0 {
		fatal(fmt.Errorf("peak counts, swath size and stride must be positive"))
	}

	path := flag.Arg(0)

	frm, err := frame.Load(path)
	if err != nil {
		fatal(err)
	}

	res, err := bias.Analyze(frm, bias.Config{
		MinHeight:   cfg.MinHeight,
		MinDistance: cfg.MinDistance,
		NumPeaks:    cfg.NumPeaks,
		SwathSize:   cfg.SwathSize,
		SkipLeft:    cfg.SkipLeft,
		SkipRight:   cfg.SkipRight,
		EveryN:      cfg.EveryN,
	})
	if err != nil {
		fatal(err)
	}

	if res.Rotated {
		fmt.Println("note: image rotated 90 degrees to find the comb")
	}

	fmt.Printf("Average spacing, first %d peaks: %.3f px\n", cfg.NumPeaks, res.FirstSpacing)
	fmt.Printf("Average spacing, last %d peaks:  %.3f px\n", cfg.NumPeaks, res.LastSpacing)
	fmt.Printf("Spacing difference (last-first): %.3f px\n", res.Delta)
	fmt.Printf("First peak %d px from left edge, last peak %d px from right edge\n", res.EdgeLeft, res.EdgeRight)

	if *noPlot {
		return
	}

	out := *plotPath
	if out == "" {
		out = strings.TrimSuffix(path, extOf(path)) + "_lineout.png"
	}

	p, err := render.Lineout(res)
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
	fmt.Fprintf(os.Stderr, "biascal: %v\n", err)
	os.Exit(1)
}
