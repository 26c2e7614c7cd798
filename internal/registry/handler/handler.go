package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"arefa/internal/export/archive"
	"arefa/internal/export/filter"
	"arefa/internal/registry/models"
	"arefa/internal/registry/service"
	dErrors "arefa/pkg/domain-errors"
	"arefa/pkg/platform/httputil"
	"arefa/pkg/requestcontext"
)

// Service defines the record operations of one kind.
// Returns domain objects, not HTTP response DTOs.
type Service[T any] interface {
	Create(ctx context.Context, rec T, photo *service.Upload) (T, error)
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Update(ctx context.Context, id int64, rec T) (T, error)
	Delete(ctx context.Context, id int64) error
	Document(ctx context.Context, id int64, w io.Writer) (string, error)
	Plan(ctx context.Context, c filter.Criteria) (*service.Plan, error)
	Export(ctx context.Context, c filter.Criteria, batch int) (*archive.Result, error)
}

// StatsService computes the dashboard figures.
type StatsService interface {
	Compute(ctx context.Context) (*models.Stats, error)
}

// Route describes where a record kind is mounted and how its multipart
// submissions are read.
type Route struct {
	// Path is the collection path, e.g. "/api/fiches".
	Path string
	// PhotoField is the multipart file field carrying the photo.
	PhotoField string
	// Flags are the form keys parsed as activity flags.
	Flags []string
}

// TraderRoute mounts trader records.
var TraderRoute = Route{Path: "/api/fiches", PhotoField: "photoID", Flags: models.TraderActivities}

// OperatorRoute mounts operator records.
var OperatorRoute = Route{Path: "/api/operateurs", PhotoField: "photoOperateur", Flags: models.OperatorActivities}

// maxMultipartMemory is the part of a multipart body kept in memory; the
// rest spills to temporary files.
const maxMultipartMemory = 8 << 20

// Handler serves one record kind. M is the record struct, T its pointer.
type Handler[M any, T interface{ *M }] struct {
	route   Route
	service Service[T]
	logger  *slog.Logger
}

func New[M any, T interface{ *M }](route Route, service Service[T], logger *slog.Logger) *Handler[M, T] {
	return &Handler[M, T]{route: route, service: service, logger: logger}
}

// Register mounts the CRUD routes. Export routes are registered separately
// so the router can keep them out of the request timeout.
func (h *Handler[M, T]) Register(r chi.Router) {
	p := h.route.Path
	r.Post(p, h.HandleCreate)
	r.Get(p, h.HandleList)
	r.Get(p+"/{id}", h.HandleGet)
	r.Put(p+"/{id}", h.HandleUpdate)
	r.Delete(p+"/{id}", h.HandleDelete)
}

// RegisterExports mounts document and archive downloads.
func (h *Handler[M, T]) RegisterExports(r chi.Router) {
	p := h.route.Path
	r.Get(p+"/export/plan", h.HandlePlan)
	r.Get(p+"/export", h.HandleExport)
	r.Get(p+"/{id}/document", h.HandleDocument)
}

// HandleCreate accepts a multipart submission (fields plus an optional photo)
// or a JSON document without photo.
func (h *Handler[M, T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var (
		rec   T
		photo *service.Upload
	)
	if isMultipart(r) {
		var closer io.Closer
		var err error
		rec, photo, closer, err = h.decodeMultipart(r)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to decode submission", "error", err, "request_id", requestID)
			httputil.WriteError(w, err)
			return
		}
		if closer != nil {
			defer closer.Close()
		}
	} else {
		req, ok := httputil.DecodeJSON[M](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		rec = req
	}

	created, err := h.service.Create(ctx, rec, photo)
	if err != nil {
		h.logger.ErrorContext(ctx, "create record failed", "error", err, "request_id", requestID, "path", h.route.Path)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler[M, T]) decodeMultipart(r *http.Request) (T, *service.Upload, io.Closer, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, nil, formError(err)
	}
	rec := T(new(M))
	if err := models.DecodeForm(r.MultipartForm.Value, h.route.Flags, rec); err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form fields")
	}

	file, header, err := r.FormFile(h.route.PhotoField)
	if errors.Is(err, http.ErrMissingFile) {
		return rec, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, formError(err)
	}
	photo := &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return rec, photo, file, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.New(dErrors.CodeTooLarge, "request body too large")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body")
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// HandleList returns every record, newest registration first.
func (h *Handler[M, T]) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recs, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list records failed", "error", err, "request_id", requestcontext.RequestID(ctx), "path", h.route.Path)
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []T{}
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler[M, T]) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "get record failed", "error", err, "request_id", requestcontext.RequestID(ctx), "record_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleUpdate replaces the editable fields. Bodies that set id or
// dateEnregistrement are rejected.
func (h *Handler[M, T]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[M](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "update record failed", "error", err, "request_id", requestID, "record_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete removes the record and its photo.
func (h *Handler[M, T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "delete record failed", "error", err, "request_id", requestcontext.RequestID(ctx), "record_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DeleteResponse{ID: id, Deleted: true})
}

// HandleDocument streams the PDF sheet of one record.
func (h *Handler[M, T]) HandleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The renderer writes headers only once the document is complete, so
	// errors can still be reported as JSON.
	if _, err := h.service.Document(ctx, id, w); err != nil {
		h.logger.ErrorContext(ctx, "document download failed", "error", err, "request_id", requestcontext.RequestID(ctx), "record_id", id)
		httputil.WriteError(w, err)
	}
}

// HandlePlan reports how the matching records split into lots.
func (h *Handler[M, T]) HandlePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plan, err := h.service.Plan(ctx, criteriaFromQuery(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "export plan failed", "error", err, "request_id", requestcontext.RequestID(ctx), "path", h.route.Path)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlanResponse(plan))
}

// HandleExport builds the zip archive of one lot.
func (h *Handler[M, T]) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	number, err := batchNumber(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Export(ctx, criteriaFromQuery(r), number)
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed", "error", err, "request_id", requestID, "batch", number)
		httputil.WriteError(w, err)
		return
	}

	httputil.SetAttachment(w, res.Name, "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set(HeaderDocuments, strconv.Itoa(res.Documents))
	w.Header().Set(HeaderSkipped, strconv.Itoa(len(res.Skipped)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		h.logger.WarnContext(ctx, "archive write interrupted", "error", err, "request_id", requestID, "batch", number)
	}
}

func recordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid record id")
	}
	return id, nil
}

func batchNumber(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("batch")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid batch %q", raw)
	}
	return n, nil
}

// StatsHandler serves the dashboard statistics.
type StatsHandler struct {
	service StatsService
	logger  *slog.Logger
}

func NewStats(service StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{service: service, logger: logger}
}

func (h *StatsHandler) Register(r chi.Router) {
	r.Get("/api/stats", h.HandleStats)
}

func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Compute(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
