// Package render draws the diagnostic plots of the calibration analyzers:
// the comb-pulse lineout with counted peaks, the CTR heat map with points of
// interest, and the per-row FWHM curve with swath markers.
package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cwbudde/streakcal/measure/bias"
	"github.com/cwbudde/streakcal/measure/ctr"
	"github.com/cwbudde/streakcal/measure/fwhm"
)

var (
	markerRed   = color.RGBA{R: 220, A: 255}
	markerBlue  = color.RGBA{B: 200, A: 255}
	markerGreen = color.RGBA{G: 160, A: 255}
)

// Save writes a plot as PNG at the conventional diagnostic size.
func Save(p *plot.Plot, path string) error {
	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// Lineout plots the swath lineout of a bias measurement with the counted
// peaks highlighted for operator verification.
func Lineout(res bias.Result) (*plot.Plot, error) {
	p := plot.New()

	if res.SwathSize > 1 {
		p.Title.Text = fmt.Sprintf("Rows %d - %d Swath Lineout", res.SwathStart, res.SwathStart+res.SwathSize)
	} else {
		p.Title.Text = fmt.Sprintf("Row %d Lineout", res.SwathStart)
	}

	p.X.Label.Text = "Sweep axis (px)"
	p.Y.Label.Text = "Intensity (counts)"

	pts := make(plotter.XYs, len(res.Lineout))
	for i, v := range res.Lineout {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}

	p.Add(line)

	marks := make(plotter.XYs, len(res.Counted))
	for i, pk := range res.Counted {
		marks[i].X = float64(pk.Position)
		marks[i].Y = pk.Amplitude
	}

	sc, err := plotter.NewScatter(marks)
	if err != nil {
		return nil, err
	}

	sc.GlyphStyle.Color = markerRed
	sc.GlyphStyle.Radius = vg.Points(3)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	p.Legend.Add("counted peaks", sc)

	return p, nil
}

// ctrGrid adapts a CTR map to the heat map grid interface. X reports image
// columns, so the data-limit lines land on the right spots.
type ctrGrid struct {
	res *ctr.Result
}

func (g ctrGrid) Dims() (c, r int) {
	if len(g.res.Map) == 0 {
		return 0, 0
	}

	return len(g.res.Map[0]), len(g.res.Map)
}

func (g ctrGrid) Z(c, r int) float64 { return g.res.Map[r][c] }

func (g ctrGrid) X(c int) float64 { return float64(c + g.res.Window/2) }

func (g ctrGrid) Y(r int) float64 { return float64(r + g.res.SwathSize/2) }

// ContrastMap plots the CTR heat map with the data limits and the sampled
// points of interest.
func ContrastMap(res *ctr.Result, pois []ctr.PointOfInterest) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Contrast Transfer Ratio Across Image"
	p.X.Label.Text = "Spatial axis (px)"
	p.Y.Label.Text = "Temporal axis (px)"

	hm := plotter.NewHeatMap(ctrGrid{res: res}, palette.Heat(32, 1))
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	rows := float64(res.Height)
	for _, x := range []float64{res.LeftLimit, res.RightLimit} {
		edge, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: rows}})
		if err != nil {
			return nil, err
		}

		edge.LineStyle.Color = markerRed
		edge.LineStyle.Width = vg.Points(1.5)
		p.Add(edge)
	}

	if len(pois) > 0 {
		marks := make(plotter.XYs, len(pois))
		labels := make([]string, len(pois))
		for i, poi := range pois {
			marks[i].X = float64(poi.Col)
			marks[i].Y = float64(poi.Row)
			labels[i] = fmt.Sprintf("%.2f%%", poi.CTR*100)
		}

		sc, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}

		sc.GlyphStyle.Color = markerRed
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)

		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: marks, Labels: labels})
		if err != nil {
			return nil, err
		}

		p.Add(lbl)
	}

	return p, nil
}

// FWHMCurve plots the per-row FWHM sequence with paired vertical lines
// bounding each averaging swath, legend entries carrying the swath
// averages.
func FWHMCurve(res *fwhm.Result, swathSize int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Full-Width at Half Maximum Across the Image"
	p.X.Label.Text = "Spatial pixel location"
	p.Y.Label.Text = "FWHM (px)"

	seq := res.Sequence()

	var pts plotter.XYs
	maxY := 0.0
	for i, v := range seq {
		if math.IsNaN(v) {
			continue
		}

		pts = append(pts, plotter.XY{X: float64(i), Y: v})
		if v > maxY {
			maxY = v
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}

	p.Add(line)
	p.Legend.Add("FWHM curve", line)

	colors := []color.RGBA{markerRed, markerBlue, markerGreen}
	half := swathSize / 2

	for i, sw := range res.Swaths {
		var last *plotter.Line
		for _, x := range []int{sw.Center - half, sw.Center + half} {
			v, err := plotter.NewLine(plotter.XYs{
				{X: float64(x), Y: 0},
				{X: float64(x), Y: maxY},
			})
			if err != nil {
				return nil, err
			}

			v.LineStyle.Color = colors[i%len(colors)]
			p.Add(v)
			last = v
		}

		p.Legend.Add(fmt.Sprintf("%.2f px at %.0f%%", sw.FWHM, sw.Fraction*100), last)
	}

	return p, nil
}
