package report

import "fmt"

// Output formats accepted by New.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown}

// UnknownFormatError is returned by New for an unsupported format.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (want one of %v)", e.Format, Formats)
}
