package frame

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"

	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// Load reads a frame from path, dispatching on the file extension.
// Supported: .tif/.tiff, .png (8 and 16-bit grayscale), .fit/.fits/.fts.
func Load(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff", ".png":
		return loadImage(path)
	case ".fit", ".fits", ".fts":
		return loadFITS(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadImage(path string) (*Frame, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	img, _, err := image.Decode(fid)
	if err != nil {
		return nil, fmt.Errorf("frame: decoding %s: %w", path, err)
	}

	return fromImage(img)
}

func fromImage(img image.Image) (*Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, w*h)

	switch im := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		// Fall back on the luminance channel; cameras save grayscale but
		// some conversion tools emit RGB containers.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				data[y*w+x] = float64(r+g+bl) / 3
			}
		}
	}

	return New(data, w, h)
}

func loadFITS(path string) (*Frame, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	f, err := fitsio.Open(fid)
	if err != nil {
		return nil, fmt.Errorf("frame: opening FITS %s: %w", path, err)
	}
	defer f.Close()

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%w: FITS primary HDU is not an image", ErrUnsupportedFormat)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, fmt.Errorf("%w: FITS image with %d axes", ErrUnsupportedFormat, len(axes))
	}

	w, h := axes[0], axes[1]
	data, err := readPixels(img, hdr.Bitpix(), w*h)
	if err != nil {
		return nil, err
	}

	// Unsigned 16-bit data is conventionally stored as int16 + BZERO 32768.
	bzero, bscale := 0.0, 1.0
	if c := hdr.Get("BZERO"); c != nil {
		bzero = cardFloat(c.Value)
	}

	if c := hdr.Get("BSCALE"); c != nil {
		if v := cardFloat(c.Value); v != 0 {
			bscale = v
		}
	}

	if bzero != 0 || bscale != 1 {
		for i := range data {
			data[i] = data[i]*bscale + bzero
		}
	}

	return New(data, w, h)
}

func readPixels(img fitsio.Image, bitpix, n int) ([]float64, error) {
	data := make([]float64, 0, n)

	switch bitpix {
	case 8:
		var raw []int8
		if err := img.Read(&raw); err != nil {
			return nil, err
		}

		for _, v := range raw {
			data = append(data, float64(v))
		}
	case 16:
		var raw []int16
		if err := img.Read(&raw); err != nil {
			return nil, err
		}

		for _, v := range raw {
			data = append(data, float64(v))
		}
	case 32:
		var raw []int32
		if err := img.Read(&raw); err != nil {
			return nil, err
		}

		for _, v := range raw {
			data = append(data, float64(v))
		}
	case -32:
		var raw []float32
		if err := img.Read(&raw); err != nil {
			return nil, err
		}

		for _, v := range raw {
			data = append(data, float64(v))
		}
	case -64:
		var raw []float64
		if err := img.Read(&raw); err != nil {
			return nil, err
		}

		data = append(data, raw...)
	default:
		return nil, fmt.Errorf("%w: FITS bitpix %d", ErrUnsupportedFormat, bitpix)
	}

	if len(data) < n {
		return nil, fmt.Errorf("frame: FITS image holds %d samples, want %d", len(data), n)
	}

	return data[:n], nil
}

func cardFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}

	return 0
}
