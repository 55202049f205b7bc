package services

import "errors"

// Analysis service errors
var (
	// ErrEmptyUpload is returned for an upload with no body.
	ErrEmptyUpload = errors.New("empty workbook upload")
)
