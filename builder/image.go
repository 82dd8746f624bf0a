package builder

import (
	"github.com/google/uuid"
)

// Section data field keys shared between the editor and the save pipeline.
// FieldImage holds a persisted backend-relative path. FieldImageFile and
// FieldImagePreview exist only while an image selection is pending; they are
// stripped before any payload reaches the wire.
const (
	FieldImage        = "image"
	FieldImageFile    = "imageFile"
	FieldImagePreview = "imagePreview"
)

// ImageFile is a locally selected image that has not been uploaded yet.
type ImageFile struct {
	// Name is the original filename, used for the multipart upload and for
	// content-type detection by adapters.
	Name string

	// Content is the raw file content.
	Content []byte
}

// previewURL produces a transient local-only display URL for a pending
// image. It is never sent to the backend.
func previewURL(name string) string {
	return "local-preview://" + uuid.NewString() + "/" + name
}

// pendingImage extracts the pending image file from section data, if any.
func pendingImage(data map[string]any) (ImageFile, bool) {
	switch v := data[FieldImageFile].(type) {
	case ImageFile:
		return v, v.Name != "" || len(v.Content) > 0
	case *ImageFile:
		if v == nil {
			return ImageFile{}, false
		}
		return *v, v.Name != "" || len(v.Content) > 0
	default:
		return ImageFile{}, false
	}
}

// stripTransient removes the pending-image fields from section data in
// place. It runs unconditionally before submission, whether or not an image
// was pending, so no client-only field ever reaches the wire.
func stripTransient(data map[string]any) {
	delete(data, FieldImageFile)
	delete(data, FieldImagePreview)
}
