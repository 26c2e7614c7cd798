package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"arefa/internal/platform/config"
)

// signedURLTTL bounds how long a redirect to a private object stays valid.
const signedURLTTL = 900

type bucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	GetObject(objectKey string, options ...oss.Option) (io.ReadCloser, error)
	DeleteObject(objectKey string, options ...oss.Option) error
	SignURL(objectKey string, method oss.HTTPMethod, expiredInSec int64, options ...oss.Option) (string, error)
}

// OSS keeps photos in an Aliyun OSS bucket under the uploads/ prefix.
type OSS struct {
	bucket bucket
}

// NewOSS connects to the configured bucket.
func NewOSS(cfg config.OSSConfig) (*OSS, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	b, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.Bucket, err)
	}
	return &OSS{bucket: b}, nil
}

func (o *OSS) Backend() string { return "oss" }

func objectKey(ref string) (string, string, error) {
	key, err := Key(ref)
	if err != nil {
		return "", "", err
	}
	return key, URLPrefix + key, nil
}

func (o *OSS) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	key, obj, err := objectKey(name)
	if err != nil {
		return "", err
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := o.bucket.PutObject(obj, r, opts...); err != nil {
		return "", fmt.Errorf("oss put %s: %w", obj, err)
	}
	return key, nil
}

func (o *OSS) Load(ctx context.Context, ref string) ([]byte, error) {
	_, obj, err := objectKey(ref)
	if err != nil {
		return nil, err
	}
	body, err := o.bucket.GetObject(obj, oss.WithContext(ctx))
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("oss get %s: %w", obj, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("oss read %s: %w", obj, err)
	}
	return data, nil
}

func (o *OSS) Delete(ctx context.Context, ref string) error {
	_, obj, err := objectKey(ref)
	if err != nil {
		return err
	}
	if err := o.bucket.DeleteObject(obj, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss delete %s: %w", obj, err)
	}
	return nil
}

// Handler redirects to a short-lived signed URL of the object.
func (o *OSS) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, obj, err := objectKey(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		url, err := o.bucket.SignURL(obj, oss.HTTPGet, signedURLTTL)
		if err != nil {
			http.Error(w, "asset unavailable", http.StatusBadGateway)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	})
}

func isNoSuchKey(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	var sp *oss.ServiceError
	return errors.As(err, &sp) && sp.StatusCode == http.StatusNotFound
}
