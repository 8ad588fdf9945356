package filestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// contentTypes maps common upload extensions for answers that arrive without
// an explicit content type.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".pdf":  "application/pdf",
}

// DeriveContentType resolves a content type from the file name, defaulting
// to an opaque byte stream.
func DeriveContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// DiskStore keeps uploads as JSON envelopes under a single directory, one
// file per upload id.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Save(_ context.Context, name, contentType, base64Data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("decode upload %s: %w", name, err)
	}
	if contentType == "" {
		contentType = DeriveContentType(name)
	}

	fileID := uuid.New().String()
	envelope, err := json.Marshal(FileData{
		Name:        name,
		ContentType: contentType,
		Data:        base64Data,
		Size:        int64(len(raw)),
	})
	if err != nil {
		return "", fmt.Errorf("encode upload %s: %w", name, err)
	}

	if err := os.WriteFile(d.path(fileID), envelope, 0o644); err != nil {
		return "", fmt.Errorf("write upload %s: %w", fileID, err)
	}
	return fileID, nil
}

func (d *DiskStore) Fetch(_ context.Context, fileID string) (FileData, error) {
	data, err := os.ReadFile(d.path(fileID))
	if os.IsNotExist(err) {
		return FileData{}, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	if err != nil {
		return FileData{}, fmt.Errorf("read upload %s: %w", fileID, err)
	}

	var fd FileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return FileData{}, fmt.Errorf("malformed upload envelope %s: %w", fileID, err)
	}
	return fd, nil
}

func (d *DiskStore) Delete(_ context.Context, fileID string) error {
	err := os.Remove(d.path(fileID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// path resolves the envelope location. The id is regenerated server-side so
// it can never escape the directory, but parse it anyway as a guard against
// callers passing through raw client input.
func (d *DiskStore) path(fileID string) string {
	if _, err := uuid.Parse(fileID); err != nil {
		fileID = "invalid"
	}
	return filepath.Join(d.dir, fileID+".json")
}
