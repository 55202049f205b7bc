// Package validation checks workbook files and uploads before they reach
// the parser.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "storagefin/internal/errors"
)

// SniffLen is the number of leading bytes ValidateUpload inspects.
const SniffLen = 8

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var workbookExtensions = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true}

// UploadMeta describes a workbook upload before it is parsed.
type UploadMeta struct {
	FileName string `validate:"required,workbook_ext,not_temp_file"`
	Size     int64  `validate:"gte=0"`
}

// FileValidator validates workbook files and uploads.
type FileValidator struct {
	logger   *slog.Logger
	validate *validator.Validate
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes <= 0 disables the
// size limit.
func NewFileValidator(maxBytes int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	_ = v.RegisterValidation("workbook_ext", func(fl validator.FieldLevel) bool {
		return workbookExtensions[strings.ToLower(filepath.Ext(fl.Field().String()))]
	})
	_ = v.RegisterValidation("not_temp_file", func(fl validator.FieldLevel) bool {
		return !strings.HasPrefix(filepath.Base(fl.Field().String()), "~$")
	})
	return &FileValidator{
		logger:   logger.With(slog.String("component", "file_validator")),
		validate: v,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured upload limit.
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the file name, the declared size and, when header
// holds the first bytes of the body, that the content matches the
// extension.
func (v *FileValidator) ValidateUpload(meta UploadMeta, header []byte) error {
	if err := v.validate.Struct(meta); err != nil {
		v.logger.Warn("Upload rejected",
			slog.String("file", meta.FileName),
			slog.String("error", err.Error()))
		return apperrors.NewAppValidationError(describe(meta, err)).WithContext("file", meta.FileName)
	}

	if v.maxBytes > 0 && meta.Size > v.maxBytes {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("upload of %d bytes exceeds the %d byte limit", meta.Size, v.maxBytes)).
			WithContext("file", meta.FileName)
	}

	if len(header) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(meta.FileName))
	sniffed := SniffFormat(header)
	if sniffed == "" {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("file %s is not an Excel workbook", meta.FileName)).
			WithContext("file", meta.FileName)
	}
	if sniffed != extensionFormat(ext) {
		v.logger.Warn("Upload content does not match extension",
			slog.String("file", meta.FileName),
			slog.String("content", sniffed))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("file %s has %s content but a %s extension", meta.FileName, sniffed, ext)).
			WithContext("file", meta.FileName)
	}
	return nil
}

// SniffFormat identifies a workbook container by its leading bytes:
// "xlsx" for zip (OOXML) and "xls" for OLE2 compound files.
func SniffFormat(header []byte) string {
	switch {
	case bytes.HasPrefix(header, zipMagic):
		return "xlsx"
	case bytes.HasPrefix(header, oleMagic):
		return "xls"
	default:
		return ""
	}
}

func extensionFormat(ext string) string {
	if ext == ".xls" {
		return "xls"
	}
	return "xlsx"
}

func describe(meta UploadMeta, err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "required":
		return "file name is required"
	case "workbook_ext":
		return fmt.Sprintf("unsupported workbook type %q: expected .xlsx, .xlsm or .xls", filepath.Ext(meta.FileName))
	case "not_temp_file":
		return fmt.Sprintf("file %s is a temporary Excel file", meta.FileName)
	default:
		return fmt.Sprintf("invalid %s", strings.ToLower(verrs[0].Field()))
	}
}

// ValidateFile checks that path is an existing, readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile runs the upload checks against a file on disk.
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, SniffLen)
	n, _ := f.Read(header)
	return v.ValidateUpload(UploadMeta{FileName: path, Size: info.Size()}, header[:n])
}
