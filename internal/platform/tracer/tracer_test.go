package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"arefa/internal/platform/tracer"
)

var (
	_ tracer.Tracer = tracer.Noop{}
	_ tracer.Tracer = (*tracer.OTelTracer)(nil)
	_ tracer.Tracer = (*tracer.Recorder)(nil)
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	got, span := tracer.Noop{}.Start(ctx, tracer.SpanArchiveBuild, tracer.Int(tracer.AttrBatch, 2))

	assert.Equal(t, ctx, got)
	span.AddEvent(tracer.EventPhotoSkipped)
	span.End(errors.New("render failed"))
}

func TestOTelTracer(t *testing.T) {
	tr := tracer.NewOTel(noop.NewTracerProvider().Tracer("test"))

	ctx, span := tr.Start(context.Background(), tracer.SpanArchiveRecord,
		tracer.String(tracer.AttrKind, "cambiste"),
		tracer.Int64(tracer.AttrRecordID, 1234),
	)
	require.NotNil(t, ctx)
	span.SetAttributes(tracer.Int(tracer.AttrDocuments, 1))
	span.End(nil)

	assert.NotNil(t, tracer.NewOTel(nil))
}

func TestRecorder(t *testing.T) {
	rec := &tracer.Recorder{}
	_, build := rec.Start(context.Background(), tracer.SpanArchiveBuild, tracer.Int(tracer.AttrBatch, 3))
	_, record := rec.Start(context.Background(), tracer.SpanArchiveRecord, tracer.Int64(tracer.AttrRecordID, 9))
	record.AddEvent(tracer.EventPhotoSkipped)
	record.End(nil)
	build.SetAttributes(tracer.Int(tracer.AttrDocuments, 1))
	build.End(errors.New("cancelled"))

	require.Len(t, rec.Spans(""), 2)
	records := rec.Spans(tracer.SpanArchiveRecord)
	require.Len(t, records, 1)
	assert.Equal(t, int64(9), records[0].Attrs[tracer.AttrRecordID])
	assert.Equal(t, []string{tracer.EventPhotoSkipped}, records[0].Events)

	builds := rec.Spans(tracer.SpanArchiveBuild)
	assert.Equal(t, int64(3), builds[0].Attrs[tracer.AttrBatch])
	assert.Equal(t, int64(1), builds[0].Attrs[tracer.AttrDocuments])
	assert.EqualError(t, builds[0].Err, "cancelled")
}
