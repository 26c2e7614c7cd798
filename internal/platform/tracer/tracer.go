// Package tracer gives the export pipeline spans without tying it to an
// exporter. Production uses the global OpenTelemetry provider, tests use
// Recorder, and exportctl uses Noop.
package tracer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute is an OpenTelemetry key-value pair.
type Attribute = attribute.KeyValue

func String(key, value string) Attribute { return attribute.String(key, value) }

func Int(key string, value int) Attribute { return attribute.Int(key, value) }

func Int64(key string, value int64) Attribute { return attribute.Int64(key, value) }

// Span is an active span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer starts spans. Implementations are safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

const (
	SpanArchiveBuild  = "export.archive"
	SpanArchiveRecord = "export.archive.record"

	AttrKind      = "record.kind"
	AttrRecordID  = "record.id"
	AttrBatch     = "export.batch"
	AttrRecords   = "export.records"
	AttrDocuments = "export.documents"
	AttrPhotos    = "export.photos"

	EventPhotoSkipped = "photo.skipped"
)
