package rmf

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const indentWidth = 2

// Attr is one key/value attribute of a trace element. The value is a
// preformatted string; use [AttrF] for printf-style formatting.
type Attr struct {
	Key   string
	Value string
}

// AttrF builds an [Attr] with a printf-formatted value.
func AttrF(key, format string, args ...any) Attr {
	return Attr{Key: key, Value: fmt.Sprintf(format, args...)}
}

// Sink receives one rendered line per trace event.
type Sink func(line string)

// WriterSink returns a [Sink] that writes each trace line to w, terminated
// by a newline.
func WriterSink(w io.Writer) Sink {
	return func(line string) {
		_, _ = io.WriteString(w, line+"\n")
	}
}

// ZerologSink returns a [Sink] that forwards trace lines to logger at
// debug level.
func ZerologSink(logger zerolog.Logger) Sink {
	return func(line string) {
		logger.Debug().Msg(line)
	}
}

// Trace mirrors the structure of a decode as nested, indented XML-like
// diagnostic lines, each annotated with the source label and the cursor
// offset at the time of the event:
//
//	scene.rmf+0000002a:   <node name="root">
//
// A Trace keeps a stack of currently open tags. Every [Trace.Open] must be
// matched by a later [Trace.Close] in last-in-first-out order. With a nil
// sink all events are discarded, the stack is still maintained.
type Trace struct {
	sink  Sink
	label string
	pos   func() int64
	stack []string
}

// NewTrace returns a Trace writing to sink. Lines are prefixed with label;
// pos supplies the byte offset recorded on each line.
func NewTrace(sink Sink, label string, pos func() int64) *Trace {
	return &Trace{sink: sink, label: label, pos: pos}
}

// Depth returns the number of currently open tags.
func (t *Trace) Depth() int {
	return len(t.stack)
}

// Open pushes tag onto the stack and emits the opening element line,
// indented by the depth before the push.
func (t *Trace) Open(tag string, attrs ...Attr) {
	t.emit(len(t.stack), "<"+element(tag, attrs)+">")
	t.stack = append(t.stack, tag)
}

// Leaf emits a single element that has no nested children: self-closing if
// content is empty, otherwise content wrapped between open and close
// markers. The line is indented by the current depth; the stack is not
// touched.
func (t *Trace) Leaf(tag string, content string, attrs ...Attr) {
	el := element(tag, attrs)
	if content == "" {
		t.emit(len(t.stack), "<"+el+"/>")
	} else {
		t.emit(len(t.stack), "<"+el+">"+content+"</"+tag+">")
	}
}

// Close pops the innermost tag and emits the closing element line, indented
// by the depth after the pop. Close panics when no tag is open.
func (t *Trace) Close() {
	if len(t.stack) == 0 {
		panic("trace: close without matching open")
	}

	tag := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	t.emit(len(t.stack), "</"+tag+">")
}

func (t *Trace) emit(depth int, xml string) {
	if t.sink == nil {
		return
	}

	indent := strings.Repeat(" ", depth*indentWidth)
	t.sink(fmt.Sprintf("%s+%08x: %s%s", t.label, t.pos(), indent, xml))
}

func element(tag string, attrs []Attr) string {
	parts := make([]string, 0, len(attrs)+1)
	parts = append(parts, tag)

	for _, attr := range attrs {
		parts = append(parts, attr.Key+`="`+attr.Value+`"`)
	}

	return strings.Join(parts, " ")
}
