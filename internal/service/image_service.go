package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"net/http"
	"strings"

	"racketlog/internal/middleware"
	"racketlog/internal/models"
	"racketlog/internal/storage"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/webp" // register WebP decoder
	_ "image/gif"               // register GIF decoder
	_ "image/png"               // register PNG decoder
)

const (
	// ImageCanvasSize is the fixed square canvas every stored image is
	// normalized onto.
	ImageCanvasSize = 500
	// ImageJPEGQuality is the fixed encode quality for stored images.
	ImageJPEGQuality = 85
)

// Media key prefixes per entity type.
const (
	ReviewImagePrefix  = "reviews"
	ProfileImagePrefix = "profiles"
)

// ImagePatch carries the tri-state image field of a partial update:
// absent (keep), new bytes (replace), or an explicit clear.
type ImagePatch struct {
	Present bool
	Clear   bool
	Data    []byte
}

// ImageService normalizes uploaded images and manages their media assets.
type ImageService struct {
	store storage.Storage
}

func NewImageService(store storage.Storage) *ImageService {
	return &ImageService{store: store}
}

// Normalize decodes an uploaded image, corrects its orientation from EXIF
// metadata, fits it onto a white square canvas and re-encodes it as JPEG.
func (s *ImageService) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("No image data")
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	oriented := applyOrientation(decoded, exifOrientation(data))
	canvas := fitToSquareCanvas(oriented, ImageCanvasSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: ImageJPEGQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

// NormalizeAndStore normalizes data and persists it under a fresh key with the
// given prefix, returning the storage key.
func (s *ImageService) NormalizeAndStore(ctx context.Context, prefix string, data []byte) (string, error) {
	normalized, err := s.Normalize(data)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.jpg", prefix, uuid.New().String())
	if _, err := s.store.Put(ctx, key, normalized, "image/jpeg"); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// Release deletes a stored asset unless it is a shared default placeholder.
// Failures are logged and counted but never propagated; callers invoke this
// after their database transaction has committed.
func (s *ImageService) Release(ctx context.Context, entity, key string) {
	if key == "" || IsDefaultImage(key) {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.StorageReleaseFailures.WithLabelValues(entity).Inc()
		middleware.Logger.ErrorContext(ctx, "media asset release failed",
			slog.String("entity", entity),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// URL resolves a media key to its public URL.
func (s *ImageService) URL(key string) string {
	return s.store.URL(key)
}

// IsDefaultImage reports whether key is one of the shared placeholder assets
// that must never be released from storage.
func IsDefaultImage(key string) bool {
	return key == models.DefaultProfileImage || key == models.DefaultItemPhoto
}

// fitToSquareCanvas scales src down to fit within size x size (never
// upscaling) and pastes it centered on a white square canvas.
func fitToSquareCanvas(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	scaledW, scaledH := w, h
	if w > size || h > size {
		if w >= h {
			scaledW = size
			scaledH = h * size / w
		} else {
			scaledH = size
			scaledW = w * size / h
		}
		if scaledW < 1 {
			scaledW = 1
		}
		if scaledH < 1 {
			scaledH = 1
		}
	}

	fitted := src
	if scaledW != w || scaledH != h {
		dst := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
		fitted = dst
	}

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	offset := image.Pt((size-scaledW)/2, (size-scaledH)/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(scaledW, scaledH))},
		fitted, fitted.Bounds().Min, draw.Over)
	return canvas
}

// applyOrientation rotates img according to the EXIF orientation value.
// Only the pure rotations (3, 6, 8) are handled; mirrored orientations are
// rare from phone cameras and are left as-is.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 3:
		return rotate180(img)
	case 6:
		return rotate90CW(img)
	case 8:
		return rotate90CCW(img)
	default:
		return img
	}
}

func rotate90CW(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	return dst
}

func rotate90CCW(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(y-b.Min.Y, b.Max.X-1-x, src.At(x, y))
		}
	}
	return dst
}

func rotate180(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x, b.Max.Y-1-y, src.At(x, y))
		}
	}
	return dst
}

// exifOrientation extracts the EXIF orientation tag from a JPEG payload.
// Returns 1 (normal) when the payload is not JPEG or carries no orientation.
func exifOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 1
	}

	// Walk JPEG segments looking for APP1/Exif.
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return 1
		}
		marker := data[i+1]
		if marker == 0xDA { // start of scan, no EXIF past this point
			return 1
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return 1
		}
		if marker == 0xE1 {
			return parseExifOrientation(data[i+4 : i+2+segLen])
		}
		i += 2 + segLen
	}
	return 1
}

func parseExifOrientation(seg []byte) int {
	if len(seg) < 14 || !bytes.HasPrefix(seg, []byte("Exif\x00\x00")) {
		return 1
	}
	tiff := seg[6:]

	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(tiff, []byte("II")):
		order = binary.LittleEndian
	case bytes.HasPrefix(tiff, []byte("MM")):
		order = binary.BigEndian
	default:
		return 1
	}

	ifdOffset := order.Uint32(tiff[4:8])
	if int(ifdOffset)+2 > len(tiff) {
		return 1
	}
	count := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	entries := tiff[ifdOffset+2:]
	for n := 0; n < count; n++ {
		off := n * 12
		if off+12 > len(entries) {
			return 1
		}
		tag := order.Uint16(entries[off : off+2])
		if tag == 0x0112 { // Orientation
			v := int(order.Uint16(entries[off+8 : off+10]))
			if v >= 1 && v <= 8 {
				return v
			}
			return 1
		}
	}
	return 1
}
