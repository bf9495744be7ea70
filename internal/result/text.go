// Package result serializes recognition output into the artifact formats
// offered to clients: plain text, formatted text and searchable PDF.
package result

import (
	"fmt"
	"io"

	"github.com/textmill/textmill/internal/ocr"
)

// PageDelimiter separates page texts inside a text artifact.
const PageDelimiter = "\n"

// WriteText serializes the page texts to w with the delimiter between
// consecutive pages. The artifact carries exactly the bytes ConcatText places
// inline in the job status.
func WriteText(w io.Writer, pages []ocr.PageResult, formatted bool) error {
	for i, page := range pages {
		if i > 0 {
			if _, err := io.WriteString(w, PageDelimiter); err != nil {
				return fmt.Errorf("write page delimiter: %w", err)
			}
		}
		if _, err := io.WriteString(w, page.Text(formatted)); err != nil {
			return fmt.Errorf("write page %d: %w", i, err)
		}
	}
	return nil
}

// ConcatText returns the page texts joined by the page delimiter, the form
// placed inline into the job status for text formats.
func ConcatText(pages []ocr.PageResult, formatted bool) string {
	var out string
	for i, page := range pages {
		out += page.Text(formatted)
		if i != len(pages)-1 {
			out += PageDelimiter
		}
	}
	return out
}
