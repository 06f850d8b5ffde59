package frame_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"golang.org/x/image/tiff"

	"github.com/cwbudde/streakcal/frame"
)

func grayImage(w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(1000*y + x)})
		}
	}

	return img
}

func checkLoaded(t *testing.T, f *frame.Frame, w, h int) {
	t.Helper()

	if f.Width() != w || f.Height() != h {
		t.Fatalf("dims = %dx%d, want %dx%d", f.Width(), f.Height(), w, h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if got := f.At(y, x); got != float64(1000*y+x) {
				t.Fatalf("At(%d,%d) = %v, want %v", y, x, got, 1000*y+x)
			}
		}
	}
}

func TestLoadPNG16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")

	fid, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := png.Encode(fid, grayImage(4, 3)); err != nil {
		t.Fatal(err)
	}
	fid.Close()

	f, err := frame.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	checkLoaded(t, f, 4, 3)
}

func TestLoadTIFF16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.tif")

	fid, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := tiff.Encode(fid, grayImage(5, 4), nil); err != nil {
		t.Fatal(err)
	}
	fid.Close()

	f, err := frame.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	checkLoaded(t, f, 5, 4)
}

func TestLoadFITS16(t *testing.T) {
	const w, h = 4, 3

	path := filepath.Join(t.TempDir(), "img.fits")

	fid, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	fits, err := fitsio.Create(fid)
	if err != nil {
		t.Fatal(err)
	}

	im := fitsio.NewImage(16, []int{w, h})

	err = im.Header().Append(
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0},
	)
	if err != nil {
		t.Fatal(err)
	}

	pix := make([]int16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = int16(1000*y + x - 32768)
		}
	}

	if err := im.Write(pix); err != nil {
		t.Fatal(err)
	}

	if err := fits.Write(im); err != nil {
		t.Fatal(err)
	}

	im.Close()
	fits.Close()
	fid.Close()

	f, err := frame.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	checkLoaded(t, f, w, h)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := frame.Load("image.jpg"); !errors.Is(err, frame.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
