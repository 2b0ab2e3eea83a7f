package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs results in JSON format for other tools.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string

	// recordsOnly writes the record list without the Result envelope.
	recordsOnly bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithRecordsOnly drops the envelope and writes only the records, as a
// single object for KindAuthor and KindPublication and as an array
// otherwise.
func WithRecordsOnly() JSONWriterOption {
	return func(w *JSONWriter) {
		w.recordsOnly = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in JSON format.
func (w *JSONWriter) Write(result *Result) (int, error) {
	if !w.recordsOnly {
		return w.writeJSON(result)
	}
	return w.writeJSON(records(result))
}

// records returns the record payload of result.
func records(result *Result) any {
	switch result.Kind {
	case KindAuthor:
		if len(result.Authors) > 0 {
			return result.Authors[0]
		}
		return nil
	case KindPublication:
		if len(result.Publications) > 0 {
			return result.Publications[0]
		}
		return nil
	case KindAuthors:
		return nonNil(result.Authors)
	case KindPublications:
		return nonNil(result.Publications)
	case KindOrganizations:
		return nonNil(result.Organizations)
	default:
		return nil
	}
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
