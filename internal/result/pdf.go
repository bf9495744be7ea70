package result

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/textmill/textmill/internal/ocr"
)

// WritePDF builds a searchable PDF: each page shows its source image at full
// size with the recognized text in an invisible layer underneath, so text
// selection and search work over the original scan.
func WritePDF(w io.Writer, images [][]byte, pages []ocr.PageResult) error {
	if len(images) != len(pages) {
		return fmt.Errorf("page image count %d does not match result count %d", len(images), len(pages))
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: 595.28, Ht: 841.89},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, imgData := range images {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(imgData))
		if err != nil {
			return fmt.Errorf("decode page %d image: %w", i, err)
		}
		pageW := float64(cfg.Width)
		pageH := float64(cfg.Height)
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pageW, Ht: pageH})

		// Invisible text layer first, image over text.
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetAlpha(0, "Normal")
		pdf.SetXY(0, 0)
		pdf.MultiCell(pageW, 14, tr(pages[i].Text(true)), "", "L", false)
		pdf.SetAlpha(1, "Normal")

		name := fmt.Sprintf("page-%d", i)
		pdf.RegisterImageOptionsReader(name,
			gofpdf.ImageOptions{ImageType: "PNG"},
			bytes.NewReader(imgData),
		)
		pdf.ImageOptions(name, 0, 0, pageW, pageH, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
