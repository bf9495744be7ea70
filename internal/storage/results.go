package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Result artifact extensions.
const (
	TxtExt = ".txt"
	PdfExt = ".pdf"
)

// ResultCache publishes recognition result artifacts into one session's
// working directory under collision-free names.
type ResultCache struct {
	store     *Store
	sessionID string
}

// Results returns the result cache for a session.
func (s *Store) Results(sessionID string) *ResultCache {
	return &ResultCache{store: s, sessionID: sessionID}
}

// TxtName returns the text-format artifact name for a base name.
func (c *ResultCache) TxtName(base string) string {
	return stripExt(base) + TxtExt
}

// PdfName returns the PDF-format artifact name for a base name.
func (c *ResultCache) PdfName(base string) string {
	return stripExt(base) + PdfExt
}

// AvailableBaseName returns a base name whose text and PDF variants both
// name no existing artifact, appending _1, _2, ... to the requested base
// until free. Checking both extensions keeps a later run in a different
// format from silently overwriting an earlier artifact with the same base.
func (c *ResultCache) AvailableBaseName(base string) string {
	base = stripExt(base)
	candidate := base
	for index := 1; ; index++ {
		if !c.store.Contains(c.sessionID, candidate+TxtExt) &&
			!c.store.Contains(c.sessionID, candidate+PdfExt) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, index)
	}
}

// Publish writes one artifact through the supplied writer function and
// returns its absolute path. A failed write leaves no partial artifact
// behind. Callers pick the name through AvailableBaseName first.
func (c *ResultCache) Publish(name string, write func(w io.Writer) error) (string, error) {
	if _, err := c.store.SessionDir(c.sessionID); err != nil {
		return "", err
	}
	path, err := c.store.itemPath(c.sessionID, name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("serialize result: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close result file: %w", err)
	}
	return path, nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
