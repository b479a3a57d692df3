package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.InvoiceRef}}</title>
  <style>
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .invoice { max-width: 720px; margin: 0 auto; }
    .header {
      border-bottom: 2px solid #1f2937;
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    h1 { font-size: 20px; margin: 0; }
    .meta { color: #6b7280; font-size: 13px; margin-top: 4px; }
    table { width: 100%; border-collapse: collapse; margin-top: 16px; }
    th, td { text-align: left; padding: 8px 4px; border-bottom: 1px solid #e5e7eb; font-size: 14px; }
    .amount { font-size: 18px; font-weight: 600; text-align: right; padding-top: 16px; }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <h1>CONTRAVENTION INVOICE</h1>
      <div class="meta">{{.InvoiceRef}} &middot; issued {{.IssuedAt.Format "02/01/2006 15:04"}}</div>
    </div>
    <table>
      <tr><th>Report</th><td>{{.ReportRef}}</td></tr>
      <tr><th>Billed to</th><td>{{.Identity.DisplayName}}</td></tr>
      <tr><th>Address</th><td>{{.Identity.Address}}</td></tr>
      <tr><th>Violation</th><td>{{.MotifLabel}}</td></tr>
      <tr><th>Occurrence</th><td>#{{.Occurrence}}</td></tr>
      {{- if .Description}}
      <tr><th>Details</th><td>{{.Description}}</td></tr>
      {{- end}}
    </table>
    <div class="amount">Total due: {{printf "%.2f" .AmountUnits}}</div>
  </div>
</body>
</html>
`

var invoiceTemplate = template.Must(template.New("invoice").Parse(invoiceHTMLTemplate))

// HTMLRenderer writes invoice documents as standalone HTML files under a
// configured directory. The returned document ref is the relative path under
// which the file is served.
type HTMLRenderer struct {
	dir string
}

func NewHTMLRenderer(dir string) *HTMLRenderer {
	return &HTMLRenderer{dir: dir}
}

type templateData struct {
	Input
	AmountUnits float64
}

func (r *HTMLRenderer) Render(_ context.Context, in Input) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	var buf bytes.Buffer
	data := templateData{Input: in, AmountUnits: float64(in.Amount) / 100}
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice document: %w", err)
	}

	fileName := in.InvoiceRef + ".html"
	if err := os.WriteFile(filepath.Join(r.dir, fileName), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write invoice document: %w", err)
	}
	return "uploads/" + fileName, nil
}
