// Package uploads stores document bytes on an afero filesystem. Production
// uses a directory on disk; tests use an in-memory filesystem.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrInvalidPath is returned for stored names that escape the upload root.
var ErrInvalidPath = errors.New("invalid upload path")

// Stored describes a saved file.
type Stored struct {
	// Name is the path relative to the upload root; it is what documents keep.
	Name        string
	Original    string
	Size        int64
	ContentType string
}

// Store saves and removes uploaded files.
type Store struct {
	fs           afero.Fs
	publicPrefix string
}

// New wraps fs. publicPrefix is the URL mount the files are served under.
func New(fs afero.Fs, publicPrefix string) *Store {
	if publicPrefix == "" {
		publicPrefix = "/public"
	}
	return &Store{fs: fs, publicPrefix: strings.TrimRight(publicPrefix, "/")}
}

// NewOnDisk roots a Store at dir, creating it when missing.
func NewOnDisk(dir, publicPrefix string) (*Store, error) {
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(osfs, dir), publicPrefix), nil
}

// Save writes r under dir as "<unix-ms>-<short uuid>-<sanitized original>".
func (s *Store) Save(dir, original, contentType string, r io.Reader) (Stored, error) {
	dir = cleanDir(dir)
	name := fmt.Sprintf("%d-%s-%s", time.Now().UTC().UnixMilli(), uuid.New().String()[:8], sanitizeFilename(original))
	rel := path.Join(dir, name)

	if err := s.fs.MkdirAll("/"+dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("create upload dir: %w", err)
	}
	cr := &countingReader{r: r}
	if err := afero.WriteReader(s.fs, "/"+rel, cr); err != nil {
		return Stored{}, fmt.Errorf("failed to store file: %w", err)
	}
	return Stored{Name: rel, Original: original, Size: cr.n, ContentType: contentType}, nil
}

// Remove deletes a stored file. A missing file is reported as an error so
// callers can record the divergence.
func (s *Store) Remove(name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.fs.Remove("/" + clean)
}

// Exists reports whether a stored file is present.
func (s *Store) Exists(name string) (bool, error) {
	clean, err := cleanName(name)
	if err != nil {
		return false, err
	}
	_, err = s.fs.Stat("/" + clean)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// PublicPath is the URL a stored file is served at.
func (s *Store) PublicPath(name string) string {
	if name == "" {
		return ""
	}
	return s.publicPrefix + "/" + strings.TrimLeft(name, "/")
}

// FileServer serves stored files; mount it with http.StripPrefix.
func (s *Store) FileServer() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}

func cleanDir(dir string) string {
	dir = path.Clean("/" + filepath.ToSlash(dir))
	dir = strings.TrimPrefix(dir, "/")
	if dir == "" || dir == "." {
		return "misc"
	}
	return dir
}

func cleanName(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + filepath.ToSlash(name))
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(clean, "/"), nil
}

// sanitizeFilename removes or replaces characters that could be problematic in filenames.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but preserve extension if present
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
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
