// Package preprocess converts uploaded page images into the black-white
// bitmaps that give the recognition engine its best input.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/textmill/textmill/internal/model"

	// Uploads commonly arrive as TIFF or BMP in addition to PNG/JPEG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// adaptiveWindow is the side of the local-mean window used by adaptive
// thresholding, adaptiveBias the offset subtracted from the local mean.
const (
	adaptiveWindow = 15
	adaptiveBias   = 8
)

// PreparePage decodes one page image, applies the requested binarization and
// re-encodes the page as PNG for the engine.
func PreparePage(data []byte, mode model.BinarizationMode) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode page image: %w", err)
	}

	out := Binarize(img, mode)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	return buf.Bytes(), nil
}

// Binarize converts the image to black-white using the requested mode.
// BinarizationNone returns the image unchanged.
func Binarize(img image.Image, mode model.BinarizationMode) image.Image {
	switch mode {
	case model.BinarizationGlobal:
		return globalThreshold(imaging.Grayscale(img))
	case model.BinarizationAdaptive:
		return adaptiveThreshold(imaging.Grayscale(img))
	default:
		return img
	}
}

// globalThreshold binarizes with a single Otsu threshold over the whole page.
func globalThreshold(gray *image.NRGBA) *image.NRGBA {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.NRGBAAt(x, y).R]++
		}
	}
	threshold := otsu(hist, bounds.Dx()*bounds.Dy())

	out := imaging.Clone(gray)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			setBW(out, x, y, gray.NRGBAAt(x, y).R > threshold)
		}
	}
	return out
}

// otsu finds the threshold maximizing the between-class variance.
func otsu(hist [256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	var sum float64
	for i, count := range hist {
		sum += float64(i) * float64(count)
	}

	var sumB, wB float64
	var best float64
	var threshold uint8
	for i, count := range hist {
		wB += float64(count)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(count)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// adaptiveThreshold binarizes against the mean of a local window, computed
// through a summed-area table so the pass stays linear in the pixel count.
func adaptiveThreshold(gray *image.NRGBA) *image.NRGBA {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gray
	}

	integral := make([]int64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R)
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	half := adaptiveWindow / 2
	out := imaging.Clone(gray)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			area := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*stride+x1+1] -
				integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]
			mean := sum / area
			v := int64(gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R)
			setBW(out, bounds.Min.X+x, bounds.Min.Y+y, v > mean-adaptiveBias)
		}
	}
	return out
}

func setBW(img *image.NRGBA, x, y int, white bool) {
	c := color.NRGBA{A: 255}
	if white {
		c.R, c.G, c.B = 255, 255, 255
	}
	img.SetNRGBA(x, y, c)
}
