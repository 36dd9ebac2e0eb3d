package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxMaterialSize is 50MB in bytes
	MaxMaterialSize = 50 * 1024 * 1024
)

// materialTypes maps each accepted course material extension to its content type
var materialTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateMaterialFile validates the uploaded course material format and size
func ValidateMaterialFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxMaterialSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxMaterialSize/(1024*1024)),
		}
	}

	if _, ok := materialTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only .pdf, .png, .jpg and .mp4 files are allowed",
		}
	}

	return nil
}

// MaterialContentType returns the content type stored with a material object.
func MaterialContentType(filename string) string {
	if ct, ok := materialTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// MaterialName strips the storage prefix from a material key,
// e.g. "courses/3/1700000000_intro.pdf" becomes "intro.pdf".
func MaterialName(key string) string {
	base := filepath.Base(key)
	if i := strings.Index(base, "_"); i >= 0 {
		return base[i+1:]
	}
	return base
}
