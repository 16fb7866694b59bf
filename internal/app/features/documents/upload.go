// internal/app/features/documents/upload.go
package documents

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/uploads"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// multipartMemory is how much of a multipart body is held in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// parseMultipart bounds the body and parses the form.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &respond.HTTPError{
				Status:  http.StatusRequestEntityTooLarge,
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("uploads are limited to %d bytes", h.MaxUploadBytes),
			}
		}
		return inputval.Field("file", "request must be multipart form data")
	}
	return nil
}

// saveFormFile stores the "file" part under the profile's directory. A
// missing part returns (nil, nil) when optional.
func (h *Handler) saveFormFile(r *http.Request, profileID primitive.ObjectID, optional bool) (*uploads.Stored, error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		if optional {
			return nil, nil
		}
		return nil, inputval.Required("file")
	}
	if err != nil {
		return nil, inputval.Field("file", "file could not be read")
	}
	defer f.Close()

	stored, err := h.Uploads.Save(profileID.Hex(), hdr.Filename, contentType(hdr), f)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func contentType(hdr *multipart.FileHeader) string {
	if ct := hdr.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
