package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// multipartSlack covers form fields and part headers on top of the file.
const multipartSlack = 1 << 20

type upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// readUpload parses a multipart request and reads one file field. Files
// larger than limit produce an *http.MaxBytesError.
func readUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
	if err := r.ParseMultipartForm(multipartSlack); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, badRequest("invalid multipart form: " + err.Error())
	}

	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("%s file required", field))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if int64(len(data)) > limit {
		return nil, &http.MaxBytesError{Limit: limit}
	}
	return &upload{Data: data, Filename: hdr.Filename, ContentType: hdr.Header.Get("Content-Type")}, nil
}

// formBool reads an optional boolean form field; anything unparsable is false.
func formBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.FormValue(name))
	return v
}
