package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	dErrors "arefa/pkg/domain-errors"
)

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that support normalization.
type Normalizable interface {
	Normalize()
}

// ReadOnlyGuard is implemented by request types that must reject some
// top-level keys outright (server-assigned fields).
type ReadOnlyGuard interface {
	ReadOnlyKeys() []string
}

// DecodeJSON decodes a JSON request body into the target type.
// On failure it writes the error response and returns nil, false.
//
//	req, ok := httputil.DecodeJSON[models.TraderInput](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	raw, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(raw, &req)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, dErrors.New(dErrors.CodeTooLarge, "request body too large"))
			return nil, false
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	if guard, ok := any(&req).(ReadOnlyGuard); ok {
		if key := firstPresentKey(raw, guard.ReadOnlyKeys()); key != "" {
			logger.WarnContext(ctx, "request body sets a read-only field",
				"field", key,
				"request_id", requestID,
			)
			WriteError(w, dErrors.New(dErrors.CodeBadRequest, "field "+key+" cannot be modified"))
			return nil, false
		}
	}
	return &req, true
}

func firstPresentKey(raw []byte, keys []string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	present := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return ""
	}
	sort.Strings(present)
	return present[0]
}

// PrepareRequest normalizes then validates a request.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare combines JSON decoding with Normalize and Validate when
// the target type implements them.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	if err := PrepareRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			WriteError(w, err)
		} else {
			WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		}
		return nil, false
	}

	return req, true
}
