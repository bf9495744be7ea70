package result

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/textmill/textmill/internal/ocr"
)

func TestWriteTextSeparatesPages(t *testing.T) {
	pages := []ocr.PageResult{
		{PlainText: "first page", FormattedText: "first\npage"},
		{PlainText: "second page", FormattedText: "second\npage"},
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, pages, false); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	want := "first page" + PageDelimiter + "second page"
	if buf.String() != want {
		t.Fatalf("plain output = %q, want %q", buf.String(), want)
	}
	if buf.String() != ConcatText(pages, false) {
		t.Fatalf("artifact %q disagrees with inline text %q", buf.String(), ConcatText(pages, false))
	}

	buf.Reset()
	if err := WriteText(&buf, pages, true); err != nil {
		t.Fatalf("WriteText formatted: %v", err)
	}
	if !strings.Contains(buf.String(), "first\npage") {
		t.Fatalf("formatted output lost line structure: %q", buf.String())
	}
	if buf.String() != ConcatText(pages, true) {
		t.Fatalf("formatted artifact %q disagrees with inline text %q", buf.String(), ConcatText(pages, true))
	}
}

func TestConcatText(t *testing.T) {
	pages := []ocr.PageResult{
		{PlainText: "one"},
		{PlainText: "two"},
	}
	if got := ConcatText(pages, false); got != "one"+PageDelimiter+"two" {
		t.Fatalf("ConcatText = %q", got)
	}
	if got := ConcatText(nil, false); got != "" {
		t.Fatalf("empty ConcatText = %q", got)
	}
}

func TestFormattedFallsBackToPlain(t *testing.T) {
	page := ocr.PageResult{PlainText: "plain only"}
	if got := page.Text(true); got != "plain only" {
		t.Fatalf("Text(true) = %q", got)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestWritePDFProducesDocument(t *testing.T) {
	images := [][]byte{testPNG(t, 40, 60), testPNG(t, 80, 20)}
	pages := []ocr.PageResult{
		{PlainText: "page one text"},
		{PlainText: "page two text"},
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, images, pages); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
	if buf.Len() < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", buf.Len())
	}
}

func TestWritePDFRejectsMismatchedCounts(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, [][]byte{testPNG(t, 10, 10)}, nil)
	if err == nil {
		t.Fatal("WritePDF accepted mismatched image and result counts")
	}
}
