package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"pdfask/internal/domain"
)

// Open builds a DocumentSelection for the file at path. The declared type
// is sniffed from the file content, so a renamed text file is not a PDF.
func Open(path string) (domain.DocumentSelection, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DocumentSelection{}, &domain.ValidationError{Field: "file", Message: fmt.Sprintf("%s does not exist", path)}
		}
		return domain.DocumentSelection{}, err
	}
	if info.IsDir() {
		return domain.DocumentSelection{}, &domain.ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory", path)}
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return domain.DocumentSelection{}, fmt.Errorf("detect type of %s: %w", path, err)
	}
	return domain.DocumentSelection{
		Blob:      domain.FileBlob(path),
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MimeType:  mt.String(),
	}, nil
}
