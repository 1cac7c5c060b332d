// Package storage keeps uploaded images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// PublicPrefix is the route under which stored files are served.
const PublicPrefix = "/upload/uploads/"

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Stored describes a saved upload.
type Stored struct {
	FileName     string `json:"filename"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

// Uploads stores images under a single directory.
type Uploads struct {
	dir     string
	baseURL string
}

// NewUploads returns a store rooted at dir. baseURL prefixes the public links;
// when empty, links are relative.
func NewUploads(dir, baseURL string) *Uploads {
	return &Uploads{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the storage directory.
func (u *Uploads) Dir() string {
	return u.dir
}

// Save writes r under a fresh name that keeps the extension of originalName.
func (u *Uploads) Save(originalName string, r io.Reader) (*Stored, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mime, ok := allowedExtensions[ext]
	if !ok {
		return nil, apperrors.NewValidationError("only image files are allowed", map[string]any{
			"extension": ext,
			"allowed":   []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		})
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	counter := &countingReader{r: r}
	name := uuid.NewString() + ext
	if err := atomic.WriteFile(filepath.Join(u.dir, name), counter); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &Stored{
		FileName:     name,
		OriginalName: filepath.Base(originalName),
		URL:          u.URL(name),
		Size:         counter.n,
		MimeType:     mime,
	}, nil
}

// URL returns the public link for a stored file name.
func (u *Uploads) URL(name string) string {
	return u.baseURL + PublicPrefix + name
}

// Path resolves name inside the storage directory, rejecting anything that
// could escape it.
func (u *Uploads) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", apperrors.NewValidationError("invalid file name", map[string]any{"filename": name})
	}
	return filepath.Join(u.dir, name), nil
}

// Open returns the stored file for reading.
func (u *Uploads) Open(name string) (*os.File, error) {
	path, err := u.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NewNotFound("file", map[string]any{"filename": name})
	}
	return f, err
}

// Exists reports whether name is a stored regular file.
func (u *Uploads) Exists(name string) bool {
	path, err := u.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes a stored file.
func (u *Uploads) Delete(name string) error {
	path, err := u.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.NewNotFound("file", map[string]any{"filename": name})
		}
		return err
	}
	return nil
}

// NameFromURL extracts the stored file name from a public link or a bare name.
// ok is false when the value does not point into the upload store.
func NameFromURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if i := strings.LastIndex(value, PublicPrefix); i >= 0 {
		value = value[i+len(PublicPrefix):]
	} else if strings.ContainsAny(value, `/\`) {
		return "", false
	}
	if value == "" || strings.Contains(value, "..") {
		return "", false
	}
	return value, true
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
