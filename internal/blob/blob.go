// Package blob stores public files such as profile photos in named
// buckets on the local filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"medstore/m/internal/apperr"
)

// Store is a directory of buckets served under publicURL.
type Store struct {
	dir       string
	publicURL string
}

func New(dir, publicURL string) *Store {
	return &Store{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}
}

// Bucket returns the named bucket, creating its directory if needed.
func (s *Store) Bucket(name string) (*Bucket, error) {
	if !validName(name) {
		return nil, fmt.Errorf("invalid bucket name %q", name)
	}
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", name, err)
	}
	return &Bucket{name: name, dir: dir, publicURL: s.publicURL + "/" + name}, nil
}

// Handler serves bucket contents; mount it with the bucket name as the
// first path segment.
func (s *Store) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

type Bucket struct {
	name      string
	dir       string
	publicURL string
}

// Upload writes r to the object name. Without upsert an existing object is
// a conflict.
func (b *Bucket) Upload(ctx context.Context, name, contentType string, r io.Reader, upsert bool) error {
	if !validName(name) {
		return apperr.Invalid("invalid object name %q", name)
	}
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/octet-stream" {
		return apperr.Invalid("unsupported content type %q", contentType)
	}
	dest := filepath.Join(b.dir, name)
	if !upsert {
		if _, err := os.Stat(dest); err == nil {
			return apperr.Conflict(fmt.Sprintf("object %s already exists", name))
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", name, err)
		}
	}

	tmp, err := os.CreateTemp(b.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

// PublicURL is the address the object is served from.
func (b *Bucket) PublicURL(name string) string {
	return b.publicURL + "/" + path.Clean(name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
