package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrNoImage is returned when a request carries neither a path nor inline image data.
var ErrNoImage = errors.New("no image provided: set path or image_base64")

// ImageCache provides thread-safe caching of decoded RGB rasters keyed by file path.
//
// Once an image is loaded, subsequent Load() calls for the same path return the
// cached raster without disk I/O. Cached rasters are shared between callers and
// must be treated as read-only.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.NRGBA),
	}
}

// Load retrieves an RGB raster from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG and GIF. JPEG EXIF orientation is applied so
// that region coordinates match what the user sees in the editor.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.NRGBA)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// LoadFile decodes an image file into an RGB raster without caching.
func LoadFile(path string) (*image.NRGBA, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return ToRGB(src), nil
}

// DecodeBase64 decodes an inline image into an RGB raster.
//
// Both bare base64 and data URLs ("data:image/png;base64,...") are accepted,
// which is how the editor front-end ships canvas contents.
func DecodeBase64(data string) (*image.NRGBA, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrNoImage
	}
	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return nil, errors.New("malformed data URL: missing ','")
		}
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return ToRGB(src), nil
}

// ToRGB normalizes any image into an opaque, zero-origin 8-bit raster.
//
// Transparent pixels are composited onto white, matching how the editor
// displays them; alpha is therefore always 255 in the result.
func ToRGB(src image.Image) *image.NRGBA {
	b := src.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), image.White.C)
	return imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
}
