package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store writes generated artifacts below a static directory and hands back
// the web path the static file server exposes them under.
type Store struct {
	root      string
	webPrefix string
}

func New(root, webPrefix string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("artifact root dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", root, err)
	}
	prefix := "/" + strings.Trim(webPrefix, "/")
	return &Store{root: root, webPrefix: prefix}, nil
}

// Save writes data to relPath atomically and returns its web path.
func (s *Store) Save(ctx context.Context, relPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanRel(relPath)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("mkdir for %q: %w", clean, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %q: %w", clean, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %q: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close %q: %w", clean, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename %q: %w", clean, err)
	}

	return path.Join(s.webPrefix, clean), nil
}

// Read returns the bytes stored behind a web path produced by Save.
func (s *Store) Read(ctx context.Context, webPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.fullPath(webPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete removes the file behind a web path. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, webPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.fullPath(webPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", webPath, err)
	}
	return nil
}

func (s *Store) fullPath(webPath string) (string, error) {
	rel := strings.TrimPrefix(webPath, s.webPrefix)
	if rel == webPath {
		return "", fmt.Errorf("path %q is outside %s", webPath, s.webPrefix)
	}
	clean, err := cleanRel(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func cleanRel(rel string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(rel))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid artifact path %q", rel)
	}
	return clean, nil
}
