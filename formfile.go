package fastigo

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// File is one uploaded multipart file, held fully in memory.
type File struct {
	Filename    string
	ContentType string
	data        []byte
}

// newFile fills in a missing content type from the filename extension.
func newFile(filename, contentType string, data []byte) *File {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &File{Filename: filename, ContentType: contentType, data: data}
}

// Bytes returns the file contents.
func (f *File) Bytes() []byte { return f.data }

// Size returns the file size in bytes.
func (f *File) Size() int { return len(f.data) }

// Text returns the file contents as a string.
func (f *File) Text() string { return string(f.data) }

// JSON decodes the file contents into v.
func (f *File) JSON(v any) error {
	return json.Unmarshal(f.data, v)
}

// Save writes the file to path, creating parent directories as needed.
func (f *File) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return fmt.Errorf("save file %q: %w", path, err)
	}
	return nil
}

// SaveSafe writes the file into dir under a collision-proof name built
// from the original filename and a random uuid suffix. Returns the final
// path.
func (f *File) SaveSafe(dir string) (string, error) {
	ext := filepath.Ext(f.Filename)
	base := strings.TrimSuffix(filepath.Base(f.Filename), ext)
	if base == "" {
		base = "upload"
	}
	path := filepath.Join(dir, base+"-"+uuid.NewString()+ext)
	if err := f.Save(path); err != nil {
		return "", err
	}
	return path, nil
}
