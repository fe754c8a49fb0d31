// Package storage keeps uploaded media on the local filesystem.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"sitehub/internal/config"
	"sitehub/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "./media"
	DefaultMaxUploadSizeMB = 5
	MasterMaxSize          = 1600
	JPEGQuality            = 85
	WebPQuality            = 75

	// URLPrefix is where stored files are served from.
	URLPrefix = "/media/"
)

// Upload prefixes, one per kind of owner.
const (
	PrefixBlogs    = "blogs"
	PrefixProducts = "products"
)

var prefixPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Stored describes a saved image. Ref is the storage reference kept on the
// owning record; WebPRef points at the WebP rendition of the same image.
type Stored struct {
	Ref     string
	WebPRef string
	Width   int
	Height  int
}

// ImageStore saves images under Dir as <prefix>/<hash>-<uuid>/master.{jpg,webp}.
// Every save gets its own directory, so each reference has exactly one owner.
type ImageStore struct {
	Dir          string
	MaxSizeBytes int64
}

// NewImageStore builds an ImageStore from cfg, falling back to defaults.
func NewImageStore(cfg *config.Config) *ImageStore {
	dir := DefaultUploadDir
	maxMB := DefaultMaxUploadSizeMB
	if cfg != nil {
		if cfg.UploadDir != "" {
			dir = cfg.UploadDir
		}
		if cfg.UploadMaxSizeMB > 0 {
			maxMB = cfg.UploadMaxSizeMB
		}
	}
	return &ImageStore{Dir: dir, MaxSizeBytes: int64(maxMB) * 1024 * 1024}
}

// Save validates in as an image, scales it down to MasterMaxSize and writes a
// JPEG and a WebP rendition. Saving identical content twice yields two
// distinct references.
func (s *ImageStore) Save(prefix string, in Upload) (*Stored, error) {
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("invalid storage prefix %q", prefix)
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.MaxSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.MaxSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, formatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	jpg, err := encodeJPEG(master)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	wp, err := encodeWebP(master)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	dir := path.Join(prefix, contentHash(jpg)[:16]+"-"+uuid.NewString())
	jpgRel := path.Join(dir, "master.jpg")
	webpRel := path.Join(dir, "master.webp")
	if err := s.write(jpgRel, jpg); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.write(webpRel, wp); err != nil {
		_ = os.RemoveAll(s.abs(dir))
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &Stored{Ref: jpgRel, WebPRef: webpRel, Width: b.Dx(), Height: b.Dy()}, nil
}

// Delete removes the directory holding ref and its renditions. References
// that are not of the form <prefix>/<dir>/<file> are ignored.
func (s *ImageStore) Delete(ref string) error {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || !prefixPattern.MatchString(parts[0]) || parts[1] == "" || strings.Contains(ref, "..") {
		return nil
	}
	return os.RemoveAll(s.abs(path.Dir(ref)))
}

// URL returns the public URL of ref, or "" for an empty reference.
func URL(ref string) string {
	if ref == "" {
		return ""
	}
	return URLPrefix + ref
}

func (s *ImageStore) abs(rel string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(rel))
}

func (s *ImageStore) write(rel string, data []byte) error {
	p := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}
	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isMatchingContentType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func formatToMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
