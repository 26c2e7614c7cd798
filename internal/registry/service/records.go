// Package service implements the record lifecycle (create, read, update,
// delete with photo cascade), the dashboard statistics and the export
// operations on top of the filter, batch and archive packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"arefa/internal/assets"
	"arefa/internal/export/archive"
	"arefa/internal/export/batch"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	regmetrics "arefa/internal/registry/metrics"
	"arefa/internal/registry/sheets"
	"arefa/internal/registry/store"
	dErrors "arefa/pkg/domain-errors"
	"arefa/pkg/platform/sentinel"
	"arefa/pkg/requestcontext"
)

// Record is satisfied by *models.Trader and *models.Operator.
type Record[T any] interface {
	store.Entity[T]
	filter.Record
	PhotoRef() string
	SetPhotoRef(ref *string)
	Fields() map[string]any
	Normalize()
	Validate() error
}

// Upload is a photo received with a create request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Plan lists the export lots for a set of criteria.
type Plan struct {
	Total     int           `json:"total"`
	BatchSize int           `json:"batchSize"`
	Batches   []batch.Range `json:"batches"`
}

// DocumentRenderer renders single sheets for direct download.
type DocumentRenderer interface {
	Download(ctx context.Context, w io.Writer, src document.Source, layout document.Layout) (string, error)
}

// ArchiveBuilder turns a lot into a zip archive.
type ArchiveBuilder interface {
	Build(ctx context.Context, job archive.Job, progress archive.Progress) (*archive.Result, error)
}

// Records runs the lifecycle and the exports of one record kind.
type Records[T Record[T]] struct {
	profile   sheets.Profile
	store     store.Store[T]
	assets    assets.Store
	documents DocumentRenderer
	archives  ArchiveBuilder
	logger    *slog.Logger
	metrics   *regmetrics.Metrics
	batchSize int
}

// NewRecords wires one record kind.
func NewRecords[T Record[T]](
	profile sheets.Profile,
	st store.Store[T],
	photos assets.Store,
	documents DocumentRenderer,
	archives ArchiveBuilder,
	opts ...Option,
) *Records[T] {
	c := newConfig(opts)
	return &Records[T]{
		profile:   profile,
		store:     st,
		assets:    photos,
		documents: documents,
		archives:  archives,
		logger:    c.logger,
		metrics:   c.metrics,
		batchSize: c.batchSize,
	}
}

func (s *Records[T]) kind() string { return string(s.profile.Kind) }

// Create validates rec, stores the optional photo and persists the record.
// If persisting fails the stored photo is removed again.
func (s *Records[T]) Create(ctx context.Context, rec T, photo *Upload) (T, error) {
	var zero T
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return zero, err
	}

	now := requestcontext.Now(ctx)
	rec.SetID(0)
	rec.Stamp(now)
	rec.SetPhotoRef(nil)

	if photo != nil {
		name := assets.NewName(s.profile.Kind, photo.Filename, now)
		ref, err := s.assets.Save(ctx, name, photo.Body, photo.ContentType)
		if err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
		}
		rec.SetPhotoRef(&ref)
	}

	if err := s.store.Create(ctx, rec); err != nil {
		if ref := rec.PhotoRef(); ref != "" {
			s.removePhoto(ctx, ref, "create rollback")
		}
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create "+s.kind())
	}

	s.metrics.IncCreated(s.kind())
	s.logger.InfoContext(ctx, "record created",
		"kind", s.kind(),
		"record_id", rec.RecordID(),
		"has_photo", rec.PhotoRef() != "",
		"request_id", requestcontext.RequestID(ctx),
	)
	return rec, nil
}

func (s *Records[T]) Get(ctx context.Context, id int64) (T, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, s.wrapErr(err, "failed to load "+s.kind())
	}
	return rec, nil
}

// List returns every record, newest registration first.
func (s *Records[T]) List(ctx context.Context) ([]T, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list "+s.kind())
	}
	return recs, nil
}

// Update replaces the editable fields of record id with those of rec. The
// id, registration date and photo reference are kept from the stored record.
func (s *Records[T]) Update(ctx context.Context, id int64, rec T) (T, error) {
	var zero T
	existing, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return zero, err
	}
	rec.SetID(id)
	rec.Stamp(existing.RegisteredOn())
	if ref := existing.PhotoRef(); ref != "" {
		rec.SetPhotoRef(&ref)
	} else {
		rec.SetPhotoRef(nil)
	}

	if err := s.store.Update(ctx, rec); err != nil {
		return zero, s.wrapErr(err, "failed to update "+s.kind())
	}
	return rec, nil
}

// Delete removes the record, then its photo. A failed photo removal is
// logged and does not fail the delete.
func (s *Records[T]) Delete(ctx context.Context, id int64) error {
	rec, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.wrapErr(err, "failed to delete "+s.kind())
	}
	s.metrics.IncDeleted(s.kind())
	if ref := rec.PhotoRef(); ref != "" {
		s.removePhoto(ctx, ref, "delete")
	}
	s.logger.InfoContext(ctx, "record deleted",
		"kind", s.kind(),
		"record_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Records[T]) removePhoto(ctx context.Context, ref, reason string) {
	err := s.assets.Delete(ctx, ref)
	s.metrics.IncPhotoCleanup(s.kind(), err)
	if err != nil {
		s.logger.WarnContext(ctx, "photo removal failed",
			"kind", s.kind(),
			"photo", ref,
			"reason", reason,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Document renders the sheet of record id into w and returns its file name.
func (s *Records[T]) Document(ctx context.Context, id int64, w io.Writer) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	name, err := s.documents.Download(ctx, w, sheets.Source(rec), s.profile.Layout)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render document")
	}
	return name, nil
}

// ValidateCriteria rejects criteria the filter would silently never match.
func (s *Records[T]) ValidateCriteria(c filter.Criteria) error {
	return s.profile.ValidateCriteria(c)
}

// listing loads every record and applies the criteria.
func (s *Records[T]) listing(ctx context.Context, c filter.Criteria) (*batch.Listing[T], error) {
	if err := s.ValidateCriteria(c); err != nil {
		return nil, err
	}
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	l := batch.NewListing[T](s.batchSize)
	l.SetRecords(recs)
	l.SetCriteria(c)
	return l, nil
}

// Plan reports how the records matching c split into lots.
func (s *Records[T]) Plan(ctx context.Context, c filter.Criteria) (*Plan, error) {
	l, err := s.listing(ctx, c)
	if err != nil {
		return nil, err
	}
	p := l.Planner()
	return &Plan{Total: p.Count(), BatchSize: p.Size(), Batches: p.Ranges()}, nil
}

// Export builds the archive of lot number (1-based) of the records matching c.
func (s *Records[T]) Export(ctx context.Context, c filter.Criteria, number int) (*archive.Result, error) {
	l, err := s.listing(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(l.Filtered()) == 0 {
		return nil, dErrors.New(dErrors.CodeNoMatches, batch.ErrNoMatches.Error())
	}
	p := l.Planner()
	if err := p.Select(number - 1); err != nil {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "batch must be between 1 and %d", p.PageCount())
	}
	_, page, err := l.Export()
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNoMatches, err.Error())
	}

	progress := func(done, total int) {
		s.logger.DebugContext(ctx, fmt.Sprintf("Lot %d: %d/%d", number, done, total),
			"kind", s.kind(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	res, err := s.archives.Build(ctx, sheets.Job(s.profile, number, page), progress)
	switch {
	case errors.Is(err, archive.ErrEmptyArchive):
		return nil, dErrors.New(dErrors.CodeEmptyArchive, "Aucune fiche n'a pu être générée pour ce lot.")
	case errors.Is(err, context.DeadlineExceeded):
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "archive build timed out")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build archive")
	}
	return res, nil
}

func (s *Records[T]) wrapErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, s.kind()+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
