package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/textmill/textmill/internal/model"
)

// gradientImage has a dark left half and a bright right half, which any
// reasonable threshold must separate.
func gradientImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(40)
			if x >= 16 {
				v = 220
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func isBlackOrWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r == 0 && g == 0 && b == 0) || (r == 0xffff && g == 0xffff && b == 0xffff)
}

func TestGlobalBinarizationSplitsHalves(t *testing.T) {
	out := Binarize(gradientImage(), model.BinarizationGlobal)

	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !isBlackOrWhite(out.At(x, y)) {
				t.Fatalf("pixel (%d,%d) is not pure black or white", x, y)
			}
		}
	}

	if isWhite(out.At(2, 16)) {
		t.Fatal("dark half thresholded to white")
	}
	if !isWhite(out.At(30, 16)) {
		t.Fatal("bright half thresholded to black")
	}
}

func TestAdaptiveBinarizationProducesBilevel(t *testing.T) {
	out := Binarize(gradientImage(), model.BinarizationAdaptive)

	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !isBlackOrWhite(out.At(x, y)) {
				t.Fatalf("pixel (%d,%d) is not pure black or white", x, y)
			}
		}
	}
}

func TestNoneLeavesImageUntouched(t *testing.T) {
	img := gradientImage()
	out := Binarize(img, model.BinarizationNone)
	if out != image.Image(img) {
		t.Fatal("none mode should return the input image")
	}
}

func TestPreparePageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradientImage()); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	out, err := PreparePage(buf.Bytes(), model.BinarizationGlobal)
	if err != nil {
		t.Fatalf("PreparePage: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 32 {
		t.Fatalf("unexpected output size %v", decoded.Bounds())
	}
}

func TestPreparePageRejectsGarbage(t *testing.T) {
	if _, err := PreparePage([]byte("not an image"), model.BinarizationNone); err == nil {
		t.Fatal("PreparePage accepted garbage input")
	}
}

func isWhite(c color.Color) bool {
	r, _, _, _ := c.RGBA()
	return r == 0xffff
}
