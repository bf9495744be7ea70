// Package tesseract implements the recognition engine contract on top of the
// gosseract Tesseract bindings.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/textmill/textmill/internal/ocr"

	// Register decoders for page images produced from common upload formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Engine drives Tesseract through gosseract. Each Recognize call uses one
// client per page, reporting progress at page boundaries: 0 when a page
// starts and 100 when it completes, which is the signal shape the progress
// translator's page heuristic expects.
type Engine struct {
	dataDir       string
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine. dataDir points at the trained
// data directory and may be empty to use the library default.
func New(dataDir string) *Engine {
	return &Engine{
		dataDir:       dataDir,
		clientFactory: gosseract.NewClient,
	}
}

// DataDirectory reports the trained-data location for error scrubbing.
func (e *Engine) DataDirectory() string {
	return e.dataDir
}

// SupportedLanguages lists the trained languages available to Tesseract.
func (e *Engine) SupportedLanguages(ctx context.Context) ([]string, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list tesseract languages: %w", err)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no trained tesseract languages found")
	}
	return langs, nil
}

// Recognize processes the page batch sequentially. Cancellation requested
// through the progress callback or the context takes effect at the next page
// boundary and surfaces as ocr.ErrCanceled.
func (e *Engine) Recognize(ctx context.Context, inputs []ocr.PageInput, progress ocr.ProgressFunc) ([]ocr.PageResult, error) {
	results := make([]ocr.PageResult, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if progress != nil && !progress(0) {
			return nil, ocr.ErrCanceled
		}

		res, err := e.recognizePage(in)
		if err != nil {
			return nil, err
		}
		results = append(results, res)

		if progress != nil && !progress(100) {
			return nil, ocr.ErrCanceled
		}
	}
	return results, nil
}

func (e *Engine) recognizePage(in ocr.PageInput) (ocr.PageResult, error) {
	regions := in.Regions
	if len(regions) == 0 {
		// Whole-page recognition.
		regions = []ocr.Region{{}}
	}

	var parts []string
	for _, region := range regions {
		text, err := e.recognizeRegion(in, region)
		if err != nil {
			return ocr.PageResult{}, err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	formatted := strings.Join(parts, "\n")
	return ocr.PageResult{
		PlainText:     linearize(formatted),
		FormattedText: formatted,
	}, nil
}

func (e *Engine) recognizeRegion(in ocr.PageInput, region ocr.Region) (string, error) {
	c := e.clientFactory()
	defer c.Close()

	if e.dataDir != "" {
		if err := c.SetTessdataPrefix(e.dataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}

	imgData := in.Image
	if region.Width > 0 && region.Height > 0 {
		cropped, err := crop(in.Image, region)
		if err != nil {
			return "", err
		}
		imgData = cropped
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	// Quality mode enables page segmentation with orientation and script
	// detection; speed mode sticks with plain automatic segmentation.
	mode := gosseract.PSM_AUTO
	if in.Quality {
		mode = gosseract.PSM_AUTO_OSD
	}
	if err := c.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// linearize collapses the engine's layout line breaks into single spaces.
func linearize(formatted string) string {
	return strings.Join(strings.Fields(formatted), " ")
}

func crop(data []byte, region ocr.Region) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height).
		Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region outside image bounds")
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image does not support sub-image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("encode cropped region: %w", err)
	}
	return buf.Bytes(), nil
}
