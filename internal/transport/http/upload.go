package http

import (
	"errors"
	"io"
	"net/http"

	apperrors "storagefin/internal/errors"
	"storagefin/internal/services"
	"storagefin/internal/validation"
)

const (
	// UploadField is the multipart field carrying the workbook.
	UploadField = "file"

	multipartMemory = 8 << 20
	// multipartOverhead allows for boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

// readUpload parses the multipart body and validates the workbook part.
// The returned cleanup releases the part and any temp files.
func readUpload(w http.ResponseWriter, r *http.Request, v *validation.FileValidator, source string) (services.Upload, func(), error) {
	noop := func() {}
	if max := v.MaxBytes(); max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.Upload{}, noop, err
		}
		return services.Upload{}, noop, apperrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		r.MultipartForm.RemoveAll()
		if errors.Is(err, http.ErrMissingFile) {
			return services.Upload{}, noop, apperrors.ErrMissingUpload
		}
		return services.Upload{}, noop, apperrors.InvalidRequestWithError(err)
	}
	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}

	if max := v.MaxBytes(); max > 0 && header.Size > max {
		cleanup()
		return services.Upload{}, noop, apperrors.ErrPayloadTooLarge
	}

	sniff := make([]byte, validation.SniffLen)
	n, _ := io.ReadFull(file, sniff)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return services.Upload{}, noop, apperrors.InvalidRequestWithError(err)
	}

	meta := validation.UploadMeta{FileName: header.Filename, Size: header.Size}
	if err := v.ValidateUpload(meta, sniff[:n]); err != nil {
		cleanup()
		return services.Upload{}, noop, err
	}

	return services.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
		Source:   source,
	}, cleanup, nil
}
