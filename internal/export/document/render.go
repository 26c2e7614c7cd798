// Package document turns a record into a printable PDF sheet. The sheet is
// composed on a raster canvas, then sliced into A4 pages.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // photo decoding
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/webp" // photo decoding

	"arefa/internal/export/metrics"
	"arefa/pkg/platform/httputil"
)

// Page geometry in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	pageMarginMM = 10.0
	jpegQuality  = 95
)

// DefaultPhotoWait bounds how long a render waits for the photo.
const DefaultPhotoWait = 3 * time.Second

// ErrRender marks a failure to produce a document for one record.
var ErrRender = errors.New("document render failed")

// PhotoLoader fetches photo bytes by reference.
type PhotoLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Renderer produces PDF sheets. It is safe for concurrent use; every render
// allocates its own canvas and font faces.
type Renderer struct {
	photos    PhotoLoader
	locale    Locale
	palette   Palette
	photoWait time.Duration
	now       func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithLocale(l Locale) Option { return func(r *Renderer) { r.locale = l } }

func WithPalette(p Palette) Option { return func(r *Renderer) { r.palette = p } }

// WithPhotoWait bounds the photo wait. Non-positive values keep the default.
func WithPhotoWait(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.photoWait = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(r *Renderer) { r.now = now } }

func WithLogger(l *slog.Logger) Option { return func(r *Renderer) { r.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Renderer) { r.metrics = m } }

// New builds a renderer. photos may be nil, in which case every sheet gets
// the placeholder box.
func New(photos PhotoLoader, opts ...Option) *Renderer {
	r := &Renderer{
		photos:    photos,
		locale:    French,
		palette:   DefaultPalette,
		photoWait: DefaultPhotoWait,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Rendered is a document together with how it came out.
type Rendered struct {
	PDF []byte
	// PhotoDegraded is set when src had a photo reference but the photo
	// could not be loaded in time or decoded, so the placeholder was drawn.
	PhotoDegraded bool
}

// Render returns the PDF bytes for src.
func (r *Renderer) Render(ctx context.Context, src Source, layout Layout) ([]byte, error) {
	res, err := r.render(ctx, src, layout)
	return res.PDF, err
}

// RenderDetailed is Render plus the photo outcome, for callers that must not
// keep a placeholder sheet around, such as the document cache.
func (r *Renderer) RenderDetailed(ctx context.Context, src Source, layout Layout) (Rendered, error) {
	return r.render(ctx, src, layout)
}

// Download renders src and writes it to w, returning the file name. When w
// is an http.ResponseWriter the attachment headers are set first.
func (r *Renderer) Download(ctx context.Context, w io.Writer, src Source, layout Layout) (string, error) {
	res, err := r.render(ctx, src, layout)
	if err != nil {
		return "", err
	}
	pdf := res.PDF
	name := FileName(src, layout)
	if rw, ok := w.(http.ResponseWriter); ok {
		httputil.SetAttachment(rw, name, "application/pdf")
		rw.Header().Set("Content-Length", fmt.Sprint(len(pdf)))
	}
	if _, err := w.Write(pdf); err != nil {
		return name, fmt.Errorf("write document: %w", err)
	}
	return name, nil
}

// FileName is the layout's file name for src, with a generic fallback.
func FileName(src Source, layout Layout) string {
	if layout.FileName != nil {
		return layout.FileName(src)
	}
	return fmt.Sprintf("Fiche-%d.pdf", src.ID)
}

func (r *Renderer) render(ctx context.Context, src Source, layout Layout) (out Rendered, err error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveRender(layout.Kind, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}

	f, err := openFaces()
	if err != nil {
		return Rendered{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer f.close()

	s := r.resolve(src, layout)
	s.photo, out.PhotoDegraded = r.loadPhoto(ctx, layout.Kind, src)

	measure := &composer{faces: f, pal: r.palette}
	measure.compose(s)

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, measure.y))
	paint := &composer{dst: canvas, faces: f, pal: r.palette}
	paint.compose(s)

	out.PDF, err = paginate(canvas, layout.Title, r.now())
	if err != nil {
		return Rendered{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return out, nil
}

func (r *Renderer) resolve(src Source, layout Layout) *sheet {
	s := &sheet{
		title:   layout.Title,
		caption: layout.PhotoCaption,
		noPhoto: layout.PhotoPlaceholder,
		sigs:    layout.Signatures,
	}
	if s.noPhoto == "" {
		s.noPhoto = "Photo " + r.locale.NA
	}
	if layout.Subtitle != nil {
		s.subtitle = layout.Subtitle(src)
	}
	generated := r.now().Format(r.locale.Generated)
	if layout.Footer != nil {
		s.footer = layout.Footer(generated)
	} else {
		s.footer = generated
	}
	for _, sec := range layout.Sections {
		rs := renderedSection{title: sec.Title, fields: make([]renderedField, 0, len(sec.Keys))}
		for _, key := range sec.Keys {
			rs.fields = append(rs.fields, renderedField{
				label: FormatKey(key),
				value: FormatValue(key, src.Fields[key], r.locale),
			})
		}
		s.sections = append(s.sections, rs)
	}
	return s
}

type photoResult struct {
	data []byte
	err  error
}

// loadPhoto waits at most photoWait for the photo. Any failure degrades to
// the placeholder and is reported as degraded; a record without a photo is
// not degraded.
func (r *Renderer) loadPhoto(ctx context.Context, kind string, src Source) (image.Image, bool) {
	if r.photos == nil || src.PhotoRef == "" {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, r.photoWait)
	defer cancel()

	done := make(chan photoResult, 1)
	go func() {
		data, err := r.photos.Load(ctx, src.PhotoRef)
		done <- photoResult{data: data, err: err}
	}()

	var res photoResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil {
		r.logger.WarnContext(ctx, "photo unavailable, using placeholder",
			"record_id", src.ID,
			"photo", src.PhotoRef,
			"error", res.err,
		)
		r.metrics.IncPhotoFailure(kind, "render")
		return nil, true
	}
	img, _, err := image.Decode(bytes.NewReader(res.data))
	if err != nil {
		r.logger.WarnContext(ctx, "photo undecodable, using placeholder",
			"record_id", src.ID,
			"photo", src.PhotoRef,
			"error", err,
		)
		r.metrics.IncPhotoFailure(kind, "decode")
		return nil, true
	}
	return img, false
}

// paginate slices the canvas into A4-sized chunks, each drawn at the page
// margin at full content width.
func paginate(canvas *image.RGBA, title string, now time.Time) ([]byte, error) {
	contentW := pageWidthMM - 2*pageMarginMM
	contentH := pageHeightMM - 2*pageMarginMM
	mmPerPx := contentW / float64(canvas.Bounds().Dx())
	pxPerPage := int(contentH / mmPerPx)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("AREFA", true)
	pdf.SetCreationDate(now)

	height := canvas.Bounds().Dy()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	for page, top := 0, 0; top < height; page, top = page+1, top+pxPerPage {
		bottom := min(top+pxPerPage, height)
		chunk := canvas.SubImage(image.Rect(0, top, CanvasWidth, bottom))

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, chunk, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", page+1, err)
		}
		name := fmt.Sprintf("page-%d", page)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, pageMarginMM, pageMarginMM, contentW, float64(bottom-top)*mmPerPx, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
