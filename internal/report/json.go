package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pydistro/internal/model"
)

// JSONWriter outputs summaries as a single JSON document.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
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

type jsonSummary struct {
	Minor   model.MinorVersion `json:"python"`
	Count   int                `json:"count"`
	Matches []model.Match      `json:"matches"`
}

type jsonDocument struct {
	Reports []jsonSummary `json:"reports"`
}

// Write encodes summaries followed by a newline.
func (w *JSONWriter) Write(summaries []*model.Summary) (int, error) {
	doc := jsonDocument{Reports: make([]jsonSummary, 0, len(summaries))}
	for _, s := range summaries {
		matches := s.Matches
		if matches == nil {
			matches = []model.Match{}
		}
		doc.Reports = append(doc.Reports, jsonSummary{Minor: s.Minor, Count: s.Count(), Matches: matches})
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
