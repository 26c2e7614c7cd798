package tracer

import (
	"context"
	"sync"
)

// RecordedSpan is a finished span kept by Recorder.
type RecordedSpan struct {
	Name   string
	Attrs  map[string]any
	Events []string
	Err    error
}

// Recorder keeps finished spans in memory, in the order they ended.
type Recorder struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

func (r *Recorder) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	s := &recordingSpan{rec: r, span: RecordedSpan{Name: name, Attrs: map[string]any{}}}
	s.SetAttributes(attrs...)
	return ctx, s
}

// Spans returns the finished spans named name, or all of them for "".
func (r *Recorder) Spans(name string) []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordedSpan
	for _, s := range r.spans {
		if name == "" || s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

type recordingSpan struct {
	rec  *Recorder
	span RecordedSpan
}

func (s *recordingSpan) End(err error) {
	s.span.Err = err
	s.rec.mu.Lock()
	s.rec.spans = append(s.rec.spans, s.span)
	s.rec.mu.Unlock()
}

func (s *recordingSpan) SetAttributes(attrs ...Attribute) {
	for _, a := range attrs {
		s.span.Attrs[string(a.Key)] = a.Value.AsInterface()
	}
}

func (s *recordingSpan) AddEvent(name string, _ ...Attribute) {
	s.span.Events = append(s.span.Events, name)
}
