package export

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("export").Parse(`<div class="export">
{{- if .Title}}
  <h1>{{.Title}}</h1>
{{- end}}
  <table>
    <thead>
      <tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
{{- range .Records}}
      <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
    </tbody>
  </table>
  <footer>{{.Footer}}</footer>
</div>
`))

// HTMLExporter renders a print-ready HTML fragment.
type HTMLExporter struct{}

// NewHTMLExporter constructs an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Render escapes every value through html/template.
func (e *HTMLExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("html requires at least one header")
	}
	records := make([][]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		records = append(records, data.Record(row))
	}
	buf := &bytes.Buffer{}
	err := htmlTemplate.Execute(buf, struct {
		Title   string
		Headers []string
		Records [][]string
		Footer  string
	}{data.Title, data.Headers, records, printedAtLabel(data.PrintedAt)})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
