// Package assets stores uploaded photos and serves them by reference.
//
// A reference is the bare file name recorded on a sheet ("op-1712-42.jpg").
// Older clients prefix it with "uploads/"; every backend accepts both.
package assets

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"path"
	"strings"
	"time"

	"arefa/internal/registry/models"
	"arefa/pkg/platform/sentinel"
)

// URLPrefix is the public path photos are served under.
const URLPrefix = "uploads/"

// ErrNotFound is returned when no asset exists for a reference.
var ErrNotFound = sentinel.ErrNotFound

// ErrInvalidRef is returned for references that escape the store.
var ErrInvalidRef = fmt.Errorf("invalid asset reference: %w", sentinel.ErrInvalidInput)

// Store persists photo bytes.
type Store interface {
	// Save writes r under name and returns the reference to record.
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	// Handler serves GET requests for stored assets; the router strips
	// the URL prefix before calling it.
	Handler() http.Handler
	// Backend names the implementation for health reporting.
	Backend() string
}

// Key normalizes a reference to the bare object name. It rejects empty
// names and any attempt to leave the store.
func Key(ref string) (string, error) {
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "/"), URLPrefix)
	if ref == "" {
		return "", ErrInvalidRef
	}
	clean := path.Clean(ref)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidRef
	}
	return clean, nil
}

// Prefix is the file name prefix of uploaded photos for a record kind.
func Prefix(kind models.Kind) string {
	if kind == models.KindOperator {
		return "op-"
	}
	return "cambiste-"
}

// NewName builds a unique upload name: kind prefix, millisecond
// timestamp, a random suffix and the extension of the original file.
func NewName(kind models.Kind, original string, now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1e9))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1e9)
	}
	return fmt.Sprintf("%s%d-%d%s", Prefix(kind), now.UnixMilli(), n.Int64(), path.Ext(path.Base(original)))
}

// PhotoURL is the public URL of ref under baseURL.
func PhotoURL(baseURL, ref string) string {
	key, err := Key(ref)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + URLPrefix + key
}
