package filestore

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned when a file id has no stored content.
var ErrFileNotFound = errors.New("file not found")

// FileData is the stored content of one upload. Data is base64-encoded, the
// shape file answers and submission payloads carry it in.
type FileData struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
	Size        int64  `json:"size"`
}

// Store holds uploaded file content out of band. Wizard state only ever
// keeps the returned file id; the bytes live here until submission fetches
// them back.
type Store interface {
	Save(ctx context.Context, name, contentType, base64Data string) (string, error)
	Fetch(ctx context.Context, fileID string) (FileData, error)
	Delete(ctx context.Context, fileID string) error
}
