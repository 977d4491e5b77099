package report

import (
	"io"

	"github.com/nao1215/pydistro/internal/model"
)

// Writer renders summaries to an output.
type Writer interface {
	// Write renders summaries and returns the number of bytes written.
	Write(summaries []*model.Summary) (int, error)
}

// PrintSummary reads every report of store and renders it with w.
func PrintSummary(store *Store, w Writer) (int, error) {
	summaries, err := store.Summaries()
	if err != nil {
		return 0, err
	}
	return w.Write(summaries)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
