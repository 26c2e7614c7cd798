package request

import (
	"fmt"
	"net/http"

	dErrors "arefa/pkg/domain-errors"
	"arefa/pkg/platform/httputil"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is answered with 413 before the handler runs; bodies of unknown
// length are wrapped in http.MaxBytesReader and fail while being read.
// Photo uploads go through it too, so the cap must cover the largest photo.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, dErrors.New(dErrors.CodeTooLarge,
					fmt.Sprintf("request body exceeds %d bytes", maxBytes)))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
