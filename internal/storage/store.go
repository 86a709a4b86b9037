// Package storage writes uploaded files to a date-partitioned
// directory tree and hands back publicly resolvable URLs.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"memoboard/internal/domain"
	"memoboard/pkg/timeutil"

	"github.com/google/uuid"
)

type Store struct {
	root    string
	baseURL string
}

// New prepares the upload root. baseURL is the externally reachable
// server address the returned URLs are joined onto.
func New(root, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory static file serving should expose.
func (s *Store) Root() string {
	return s.root
}

// Save writes the stream under <root>/YYYY/MM/DD/ with a collision-free
// name and returns the resource record to embed in a memo. A failed
// write may leave a partial file behind; uploads are written before any
// memo references them, so an orphan is the worst case.
func (s *Store) Save(originalName, mimeType string, r io.Reader) (*domain.Resource, error) {
	now := time.Now().In(timeutil.Offset)
	relDir := filepath.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		fmt.Sprintf("%02d", now.Day()),
	)
	if err := os.MkdirAll(filepath.Join(s.root, relDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uniqueName(now, originalName)
	dst, err := os.Create(filepath.Join(s.root, relDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, r)
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &domain.Resource{
		URL:  s.baseURL + "/uploads/" + path.Join(filepath.ToSlash(relDir), name),
		Name: originalName,
		Type: mimeType,
		Size: size,
	}, nil
}

// uniqueName combines the upload instant, a random component, and the
// original filename so concurrent uploads of the same file cannot
// collide.
func uniqueName(now time.Time, originalName string) string {
	base := filepath.Base(originalName)
	base = strings.ReplaceAll(base, " ", "_")
	random := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), random, base)
}
