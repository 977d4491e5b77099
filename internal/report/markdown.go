package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pydistro/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs summaries as GitHub Flavored Markdown:
// an overview table and pie chart, then one table per minor version.
type MarkdownWriter struct {
	baseWriter
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write renders the summaries.
func (w *MarkdownWriter) Write(summaries []*model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Python Versions Shipped By Linux Distributions")
	md.PlainText("")

	w.writeOverview(md, summaries)
	for _, s := range summaries {
		w.writeSection(md, s)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Data scraped from [DistroWatch](https://distrowatch.com)*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, summaries []*model.Summary) {
	md.H2("Overview")
	md.PlainText("")

	if len(summaries) == 0 {
		md.Note("No report files found. Run pydistro first.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summaries))
	total := 0
	for _, s := range summaries {
		rows = append(rows, []string{"Python " + s.Minor.String(), strconv.Itoa(s.Count())})
		total += s.Count()
	}
	md.Table(markdown.TableSet{
		Header: []string{"Python", "Distributions"},
		Rows:   rows,
	})
	md.PlainText("")

	if total == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Distribution Releases Per Python Version"),
		piechart.WithShowData(true),
	)
	for _, s := range summaries {
		if s.Count() > 0 {
			chart.LabelAndIntValue("Python "+s.Minor.String(), uint64(s.Count())) //nolint:gosec // count is never negative
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeSection(md *markdown.Markdown, s *model.Summary) {
	md.H2(w.title.String("python " + s.Minor.String() + " distributions"))
	md.PlainText("")

	if s.Count() == 0 {
		md.PlainText("No distribution ships Python " + s.Minor.String() + ".")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, s.Count())
	for _, m := range s.Matches {
		rows = append(rows, []string{m.Distribution, m.DistVersion, m.PythonVersion, "`" + m.Resource + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Distribution", "Release", "Python", "Package"},
		Rows:   rows,
	})
	md.PlainText("")
}
