// Package media stores product images. A Store returns an opaque reference
// on Save that Delete accepts back, which is what product creation relies on
// to undo an upload when the record cannot be written.
package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"marketplace/internal/apperr"
)

//go:generate mockgen -destination=mock_media/store.go -package=mock_media marketplace/internal/media Store

type Store interface {
	// Save writes data under a fresh name and returns its reference.
	Save(ctx context.Context, image Image, data []byte) (string, error)
	// Delete removes the object behind ref. A missing object is not an error.
	Delete(ctx context.Context, ref string) error
}

// Image is the sniffed type of an upload.
type Image struct {
	ContentType string
	Extension   string
}

var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DetectImage sniffs data and rejects anything that is not a jpeg, png or webp
// image or is larger than maxBytes.
func DetectImage(data []byte, maxBytes int64) (Image, error) {
	if len(data) == 0 {
		return Image{}, apperr.New(apperr.Validation, "image file is required")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Image{}, apperr.Newf(apperr.Validation, "image file too large (max %dMB)", maxBytes>>20)
	}

	detected := mimetype.Detect(data)
	for contentType, ext := range allowedImages {
		if detected.Is(contentType) {
			return Image{ContentType: contentType, Extension: ext}, nil
		}
	}
	return Image{}, apperr.Newf(apperr.Validation, "unsupported image type: %s", detected.String())
}

func objectName(image Image) string {
	return fmt.Sprintf("%s%s", uuid.NewString(), image.Extension)
}

// PublicURL joins a stored reference onto base. An empty base returns ref.
func PublicURL(base, ref string) string {
	if base == "" || ref == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
