package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pydistro/internal/model"
)

// separatorWidth is the width of the line closing each section.
const separatorWidth = 36

// SimpleWriter outputs the plain console summary:
//
//	fedora 26: Python 3.6.1
//	arch current: Python 3.6.2
//	====================================
//	2 distros with Python 3.6
//
// Each section is followed by three newlines.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write renders one section per summary.
func (w *SimpleWriter) Write(summaries []*model.Summary) (int, error) {
	var sb strings.Builder
	for _, s := range summaries {
		for _, m := range s.Matches {
			fmt.Fprintf(&sb, "%s %s: Python %s\n", m.Distribution, m.DistVersion, m.PythonVersion)
		}
		sb.WriteString(strings.Repeat("=", separatorWidth))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%d distros with Python %s\n", s.Count(), s.Minor)
		sb.WriteString("\n\n\n")
	}
	return io.WriteString(w.output, sb.String())
}
