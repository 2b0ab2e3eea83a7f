package report

import "io"

// Writer renders a Result.
type Writer interface {
	// Write renders result to the configured destination and returns the
	// number of bytes written.
	Write(result *Result) (int, error)
}

// MultiWriter writes to several Writers, for example the terminal and a
// file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders result with every Writer in turn and stops at the first
// error. It returns the total bytes written.
func (m *MultiWriter) Write(result *Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// New returns the Writer for format: "json", "markdown" or "text".
func New(format string, output io.Writer, pretty bool) (Writer, error) {
	switch format {
	case FormatJSON:
		var opts []JSONWriterOption
		if pretty {
			opts = append(opts, WithPrettyPrint())
		}
		return NewJSONWriter(output, opts...), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatText, "":
		return NewSimpleWriter(output), nil
	default:
		return nil, &UnknownFormatError{Format: format}
	}
}
