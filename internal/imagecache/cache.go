// Package imagecache keeps a local copy of every product image, keyed by product id.
package imagecache

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/metrics"

	log "github.com/sirupsen/logrus"
)

var knownExtensions = []string{".jpg", ".png", ".webp"}

// Config captures where images are written and how they are referenced.
type Config struct {
	// Dir is the directory image files are written to.
	Dir string
	// URLPrefix is prepended to the file name to form the local reference.
	URLPrefix string
	// Refresh forces a download even when a local copy already exists.
	Refresh bool
}

// Cache stores product images on the local filesystem.
type Cache struct {
	dir     string
	prefix  string
	refresh bool
}

// New creates the image directory if needed and checks that it is writable.
func New(cfg Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("image directory is required")
	}

	info, err := os.Stat(cfg.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat image directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create image directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("image directory path is not a directory")
	}

	testFile := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("image directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Cache{
		dir:     cfg.Dir,
		prefix:  strings.TrimRight(cfg.URLPrefix, "/"),
		refresh: cfg.Refresh,
	}, nil
}

// EnsureLocal guarantees a local copy of imageURL for productID and returns its reference.
// An empty imageURL yields "". Any download or write failure yields imageURL unchanged.
func (c *Cache) EnsureLocal(ctx context.Context, session client.Session, imageURL string, productID int) string {
	if imageURL == "" {
		return ""
	}

	if !c.refresh {
		if name, ok := c.existing(productID); ok {
			metrics.ObserveImage("cached")
			return c.reference(name)
		}
	}

	body, contentType, err := session.Download(ctx, imageURL)
	if err != nil {
		log.Warnf("⚠️ Image download failed for product %d: %v", productID, err)
		metrics.ObserveImage("fallback")
		return imageURL
	}

	name := strconv.Itoa(productID) + ExtensionFor(contentType)
	if err := c.write(name, body); err != nil {
		log.Warnf("⚠️ Failed to store image for product %d: %v", productID, err)
		metrics.ObserveImage("fallback")
		return imageURL
	}
	c.removeStale(productID, name)

	metrics.ObserveImage("downloaded")
	return c.reference(name)
}

// ExtensionFor maps a declared content type to a file extension.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

func (c *Cache) existing(productID int) (string, bool) {
	for _, ext := range knownExtensions {
		name := strconv.Itoa(productID) + ext
		if info, err := os.Stat(filepath.Join(c.dir, name)); err == nil && info.Size() > 0 {
			return name, true
		}
	}
	return "", false
}

// write replaces the target file atomically so readers never see a partial image.
func (c *Cache) write(name string, body []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".img-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

func (c *Cache) removeStale(productID int, keep string) {
	for _, ext := range knownExtensions {
		name := strconv.Itoa(productID) + ext
		if name == keep {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			log.Debugf("Failed to remove stale image %s: %v", name, err)
		}
	}
}

func (c *Cache) reference(name string) string {
	if c.prefix == "" {
		return name
	}
	return path.Join(c.prefix, name)
}
