package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps photos as files in one directory.
type Local struct {
	dir string
}

// NewLocal creates the upload directory when missing.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Backend() string { return "local" }

func (l *Local) path(ref string) (string, error) {
	key, err := Key(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, filepath.FromSlash(key)), nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	key, err := Key(name)
	if err != nil {
		return "", err
	}
	p := filepath.Join(l.dir, filepath.FromSlash(key))
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("close asset: %w", err)
	}
	return key, nil
}

func (l *Local) Load(_ context.Context, ref string) ([]byte, error) {
	p, err := l.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	return data, nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	p, err := l.path(ref)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

// Handler serves files straight from the upload directory. Directory
// listings are not exposed.
func (l *Local) Handler() http.Handler {
	files := http.FileServer(http.Dir(l.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
