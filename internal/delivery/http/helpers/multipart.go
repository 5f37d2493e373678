package helpers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"eventhub/internal/domain"
)

// multipartOverhead leaves room for the text fields next to the image part.
const multipartOverhead = 1 << 20

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// ParseMultipart parses a multipart body whose image part may be at most maxImageBytes.
// On failure it writes 400 (or 413 when the body is too large) and returns false.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxImageBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxImageBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest,
				fmt.Sprintf("upload exceeds %d bytes", maxImageBytes))
			return false
		}
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart body: "+err.Error())
		return false
	}
	return true
}

// FormImage reads the named file part. A missing part yields (nil, true).
func FormImage(w http.ResponseWriter, r *http.Request, field string, maxImageBytes int64) (*domain.Image, bool) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+field+" part: "+err.Error())
		return nil, false
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		WriteJSONError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest,
			fmt.Sprintf("%s exceeds %d bytes", field, maxImageBytes))
		return nil, false
	}
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "could not read "+field)
		return nil, false
	}
	if int64(len(data)) > maxImageBytes {
		WriteJSONError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest,
			fmt.Sprintf("%s exceeds %d bytes", field, maxImageBytes))
		return nil, false
	}
	if len(data) == 0 {
		return nil, true
	}
	return &domain.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
