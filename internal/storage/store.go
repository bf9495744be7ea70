// Package storage persists per-session working sets: uploaded page images
// and published recognition results, laid out as one directory per session
// under a single root.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a filesystem-backed blob store. Items are addressed by session
// identifier and item name; paths never escape the root.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it when absent.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *Store) Root() string {
	return s.root
}

// SessionDir returns the session's working directory, creating it on first
// use.
func (s *Store) SessionDir(sessionID string) (string, error) {
	if err := validateName(sessionID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}
	return dir, nil
}

// Put streams an item into the session's working directory, creating the
// directory on the session's first item.
func (s *Store) Put(sessionID, name string, r io.Reader) error {
	if _, err := s.SessionDir(sessionID); err != nil {
		return err
	}
	path, err := s.itemPath(sessionID, name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write item: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close item: %w", err)
	}
	return nil
}

// Open returns a seekable reader over a stored item. The caller owns the
// returned handle.
func (s *Store) Open(sessionID, name string) (io.ReadSeekCloser, error) {
	path, err := s.itemPath(sessionID, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open item: %w", err)
	}
	return f, nil
}

// Contains reports whether the session holds an item with the given name.
func (s *Store) Contains(sessionID, name string) bool {
	path, err := s.itemPath(sessionID, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// RelativePath converts an absolute artifact path into the slash-separated
// path published to clients, relative to the store root.
func (s *Store) RelativePath(absPath string) string {
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

// SweepExpired removes stored items older than maxAge across every session
// directory, then removes session directories left empty. The sweep is
// independent of job state.
func (s *Store) SweepExpired(maxAge time.Duration) (removed int, err error) {
	cutoff := time.Now().Add(-maxAge)

	sessions, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read storage root: %w", err)
	}
	for _, session := range sessions {
		if !session.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, session.Name())
		items, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Failed to read session directory during sweep",
				"session_id", session.Name(),
				"error", err,
			)
			continue
		}
		for _, item := range items {
			info, err := item.Info()
			if err != nil || info.IsDir() {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, item.Name())); err != nil {
				slog.Warn("Failed to remove expired item",
					"session_id", session.Name(),
					"item", item.Name(),
					"error", err,
				)
				continue
			}
			removed++
		}
		// Remove now-empty session directories; fails harmlessly when a
		// concurrent upload repopulated the directory.
		if rest, err := os.ReadDir(dir); err == nil && len(rest) == 0 {
			_ = os.Remove(dir)
		}
	}
	return removed, nil
}

func (s *Store) itemPath(sessionID, name string) (string, error) {
	if err := validateName(sessionID); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, sessionID, name), nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty storage name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid storage name %q", name)
	}
	return nil
}
