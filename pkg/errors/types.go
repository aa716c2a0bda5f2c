package errors

import (
	"fmt"
	"strings"
)

// DecodeError is returned when YAML or JSON input cannot be parsed
// into documents.
type DecodeError struct {
	// Source names where the text came from, e.g., a file path
	Source string
	// Document is the 0-based position of the document in the stream
	Document int
	// Line is the 1-based line the parser complained about, or 0 if
	// it didn't say
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	return fmt.Sprintf("decoding document %d from %s: %v", e.Document, loc, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) asError() *Error {
	return &Error{
		Type: User,
		Err:  e,
		Help: `Could not parse "` + e.Source + `".

This likely means it is malformed YAML or JSON. The parser said:

    ` + e.Err.Error() + `
`,
	}
}

// TransformationError is returned when a transformation fails on a
// document. The whole batch is abandoned.
type TransformationError struct {
	// Index is the position of the transformation in the pipeline
	Index int
	// ID is the identifier of the document as it was before the
	// failing transformation ran
	ID  string
	Err error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation %d failed on %s: %v", e.Index, e.ID, e.Err)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}

func (e *TransformationError) asError() *Error {
	return &Error{
		Type: User,
		Err:  e,
		Help: `A transformation failed while processing ` + e.ID + `.

No resources were produced. Check the transformation at position ` + fmt.Sprint(e.Index) + `;
it reported:

    ` + e.Err.Error() + `
`,
	}
}

// UnrecognizedResourceError is returned when a document's
// apiVersion/kind has no entry in the dispatch table.
type UnrecognizedResourceError struct {
	APIVersion string
	Kind       string
}

func (e *UnrecognizedResourceError) Error() string {
	return fmt.Sprintf("unrecognized resource type %s/%s", e.APIVersion, e.Kind)
}

func (e *UnrecognizedResourceError) asError() *Error {
	return &Error{
		Type: User,
		Err:  e,
		Help: `The manifests contain a resource of type

    apiVersion: ` + e.APIVersion + `
    kind: ` + e.Kind + `

which is not a known Kubernetes type. If this is a custom resource,
register a constructor for it; otherwise check the apiVersion and kind
for typos. No resources were produced.
`,
	}
}

// ChartRenderError is returned when helm fails to fetch or render a
// chart.
type ChartRenderError struct {
	Chart   string
	Command string
	Stderr  []byte
	Err     error
}

func (e *ChartRenderError) Error() string {
	msg := fmt.Sprintf("rendering chart %s: %v", e.Chart, e.Err)
	if stderr := strings.TrimSpace(string(e.Stderr)); stderr != "" && !strings.Contains(msg, stderr) {
		msg += ": " + stderr
	}
	return msg
}

func (e *ChartRenderError) Unwrap() error {
	return e.Err
}

func (e *ChartRenderError) asError() *Error {
	return &Error{
		Type: User,
		Err:  e,
		Help: `Helm failed while rendering the chart "` + e.Chart + `".

The command was:

    ` + e.Command + `

and it wrote the following to stderr:

` + string(e.Stderr) + `
`,
	}
}
