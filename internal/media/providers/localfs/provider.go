// Package localfs implements media.StorageProvider over a directory tree.
// Keys are slash-separated paths relative to the root, matching the flat key
// space of an object store bucket.
package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/memohai/sprout/internal/media"
)

// Provider reads images from a local directory.
type Provider struct {
	root    string
	baseURL string
}

// New creates a filesystem-backed provider. baseURL, when set, prefixes keys
// in AccessPath; otherwise the absolute file path is returned.
func New(root, baseURL string) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Provider{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// List walks the root and returns every regular file as a key.
func (p *Provider) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", p.root, err)
	}
	return keys, nil
}

// Open reads a file under the root.
func (p *Provider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	dest, err := p.hostPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// AccessPath returns baseURL/key, or the host path when no base URL is set.
func (p *Provider) AccessPath(key string) string {
	if p.baseURL != "" {
		return p.baseURL + "/" + strings.TrimLeft(key, "/")
	}
	dest, err := p.hostPath(key)
	if err != nil {
		return ""
	}
	return dest
}

func (p *Provider) hostPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.TrimSpace(key) == "" || clean == "." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute key is forbidden: %s", key)
	}
	if strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("%w: %s", media.ErrPathTraversal, key)
	}
	joined := filepath.Join(p.root, clean)
	if !strings.HasPrefix(joined, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", media.ErrPathTraversal, key)
	}
	return joined, nil
}
