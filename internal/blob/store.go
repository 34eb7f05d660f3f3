package blob

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/crypto/blake2b"
)

// deleteBatchSize is the page size used when draining the store.
const deleteBatchSize = 256

// Store persists screenshot blobs. Implementations must return stable
// opaque URLs from Put and support lexicographic cursor pagination in List.
type Store interface {
	// Put writes one screenshot and returns its opaque URL.
	Put(ctx context.Context, jobID, pageURL string, png []byte) (string, error)

	// List returns up to limit keys greater than cursor, in lexicographic
	// order, plus the cursor for the next page. An empty next cursor means
	// the listing is exhausted.
	List(ctx context.Context, cursor string, limit int) (keys []string, next string, err error)

	// DeleteAll removes every stored blob.
	DeleteAll(ctx context.Context) error
}

// FS is the filesystem-backed Store. Blobs live under root as
// <jobID>/<digest>.png.
type FS struct {
	root string
}

var _ Store = (*FS)(nil)

// DefaultRoot returns the screenshot directory under the user data dir.
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, "vigicrawl", "screenshots")
}

// NewFS creates a filesystem store rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FS{root: dir}, nil
}

// Put writes one screenshot. The key is derived from the page URL so
// re-crawling a page overwrites its previous shot instead of accumulating.
func (f *FS) Put(_ context.Context, jobID, pageURL string, png []byte) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("empty job id")
	}

	dir := filepath.Join(f.root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create job dir: %w", err)
	}

	sum := blake2b.Sum256([]byte(pageURL))
	name := hex.EncodeToString(sum[:12]) + ".png"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	return "file://" + path, nil
}

// List returns stored keys after cursor in lexicographic order.
func (f *FS) List(_ context.Context, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = deleteBatchSize
	}

	var all []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		all = append(all, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list blobs: %w", err)
	}
	sort.Strings(all)

	var keys []string
	for _, key := range all {
		if key <= cursor {
			continue
		}
		keys = append(keys, key)
		if len(keys) == limit {
			break
		}
	}

	next := ""
	if len(keys) == limit && keys[len(keys)-1] < all[len(all)-1] {
		next = keys[len(keys)-1]
	}
	return keys, next, nil
}

// DeleteAll drains the store page by page, then removes emptied job dirs.
func (f *FS) DeleteAll(ctx context.Context) error {
	for {
		keys, next, err := f.List(ctx, "", deleteBatchSize)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if strings.Contains(key, "..") {
				continue
			}
			if err := os.Remove(filepath.Join(f.root, filepath.FromSlash(key))); err != nil {
				return fmt.Errorf("failed to delete blob %s: %w", key, err)
			}
		}
		if next == "" {
			break
		}
	}

	entries, err := os.ReadDir(f.root)
	if err != nil {
		return fmt.Errorf("failed to read blob root: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			// Job dirs are empty at this point.
			if err := os.Remove(filepath.Join(f.root, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove job dir: %w", err)
			}
		}
	}
	return nil
}
