// Package archive bundles one lot of records into a zip file: a rendered
// sheet per record plus its photo when available.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zip"

	"arefa/internal/export/document"
	"arefa/internal/export/metrics"
	"arefa/internal/platform/tracer"
)

// ErrEmptyArchive is returned when no record of the lot could be rendered.
var ErrEmptyArchive = errors.New("no document could be generated for this batch")

// Renderer produces the document bytes for one record.
type Renderer interface {
	Render(ctx context.Context, src document.Source, layout document.Layout) ([]byte, error)
}

// PhotoFetcher returns the raw bytes of a stored photo.
type PhotoFetcher interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Progress is called after each record with its 1-based position.
type Progress func(done, total int)

// Job is one lot to archive.
type Job struct {
	// Number is the 1-based lot number shown to users.
	Number int
	// Folder is the directory inside the zip; the archive is Folder + ".zip".
	Folder  string
	Layout  document.Layout
	Sources []document.Source
}

// Result is a finished archive.
type Result struct {
	Name      string
	Data      []byte
	Documents int
	Photos    int
	// Skipped lists the ids of records whose document failed.
	Skipped []int64
}

// Builder assembles archives. Records are processed strictly one after the
// other, each fully finished before the next starts.
type Builder struct {
	renderer Renderer
	photos   PhotoFetcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

// Option configures a Builder.
type Option func(*Builder)

func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(b *Builder) { b.metrics = m } }

func WithTracer(t tracer.Tracer) Option { return func(b *Builder) { b.tracer = t } }

// NewBuilder returns a builder. photos may be nil, in which case archives
// only carry documents.
func NewBuilder(renderer Renderer, photos PhotoFetcher, opts ...Option) *Builder {
	b := &Builder{renderer: renderer, photos: photos}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.tracer == nil {
		b.tracer = tracer.Noop{}
	}
	return b
}

// Build renders every source of the job into a zip archive. Render failures
// skip the record, photo failures only drop the photo entry. When nothing
// rendered, ErrEmptyArchive is returned and no archive is produced.
func (b *Builder) Build(ctx context.Context, job Job, progress Progress) (res *Result, err error) {
	kind := job.Layout.Kind
	ctx, span := b.tracer.Start(ctx, tracer.SpanArchiveBuild,
		tracer.String(tracer.AttrKind, kind),
		tracer.Int(tracer.AttrBatch, job.Number),
		tracer.Int(tracer.AttrRecords, len(job.Sources)),
	)
	start := time.Now()
	defer func() {
		b.metrics.ObserveArchive(kind, err)
		span.End(err)
	}()

	res = &Result{Name: job.Folder + ".zip"}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := entryNames{}

	total := len(job.Sources)
	for i, src := range job.Sources {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, err
		}
		b.record(ctx, zw, names, job, src, res)
		if progress != nil {
			progress(i+1, total)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	span.SetAttributes(
		tracer.Int(tracer.AttrDocuments, res.Documents),
		tracer.Int(tracer.AttrPhotos, res.Photos),
	)
	if res.Documents == 0 {
		b.logger.WarnContext(ctx, "archive has no documents",
			"kind", kind,
			"batch", job.Number,
			"records", total,
		)
		return nil, ErrEmptyArchive
	}

	res.Data = buf.Bytes()
	b.logger.InfoContext(ctx, "archive built",
		"kind", kind,
		"batch", job.Number,
		"archive", res.Name,
		"documents", res.Documents,
		"photos", res.Photos,
		"skipped", len(res.Skipped),
		"bytes", len(res.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// record adds one record's entries. Zip write errors are treated like render
// errors for that record.
func (b *Builder) record(ctx context.Context, zw *zip.Writer, names entryNames, job Job, src document.Source, res *Result) {
	kind := job.Layout.Kind
	ctx, span := b.tracer.Start(ctx, tracer.SpanArchiveRecord,
		tracer.String(tracer.AttrKind, kind),
		tracer.Int64(tracer.AttrRecordID, src.ID),
	)
	var err error
	defer func() {
		b.metrics.IncArchiveRecord(kind, err)
		span.End(err)
	}()

	pdf, err := b.renderer.Render(ctx, src, job.Layout)
	if err == nil {
		err = writeEntry(zw, names.claim(job.Folder+"/"+DocumentEntry(src.ID, src.Name)), pdf)
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "record skipped: document failed",
			"kind", kind,
			"batch", job.Number,
			"record_id", src.ID,
			"error", err,
		)
		res.Skipped = append(res.Skipped, src.ID)
		return
	}
	res.Documents++

	if src.PhotoRef == "" || b.photos == nil {
		return
	}
	photo, perr := b.photos.Load(ctx, src.PhotoRef)
	if perr == nil {
		perr = writeEntry(zw, names.claim(job.Folder+"/"+PhotoEntry(src.ID, src.Name, src.PhotoRef)), photo)
	}
	if perr != nil {
		b.logger.WarnContext(ctx, "photo skipped",
			"kind", kind,
			"batch", job.Number,
			"record_id", src.ID,
			"photo", src.PhotoRef,
			"error", perr,
		)
		b.metrics.IncPhotoFailure(kind, "archive")
		span.AddEvent(tracer.EventPhotoSkipped)
		return
	}
	res.Photos++
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}
