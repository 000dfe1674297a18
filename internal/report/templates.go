// internal/report/templates.go
package report

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const textLayout = `{{.Title}}
{{- if .GeneratedAt}}
Generated: {{.GeneratedAt}}
{{- end}}

=== Prompt ===
{{.Prompt}}
{{range .Sections}}
=== {{.Heading}} ===
{{if .Failed}}{{if .ErrorCode}}[{{.ErrorCode}}] {{end}}{{.ErrorMessage}}{{else}}{{.Text}}{{end}}
{{end}}`

const htmlLayout = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;padding:20px;color:#212529;}
.box{border-radius:8px;padding:12px;margin-bottom:12px;box-shadow:0 6px 12px rgba(0,0,0,0.06);}
.box pre{white-space:pre-wrap;margin:0;font-family:inherit;}
.error{background:#f8d7da;color:#842029;}
.meta{color:#6c757d;font-size:0.9em;}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .GeneratedAt}}
<p class="meta">Generated: {{.GeneratedAt}}</p>
{{- end}}
<h2>Prompt</h2>
<div class="box"><pre>{{.Prompt}}</pre></div>
{{- range .Sections}}
<h2>{{.Heading}}</h2>
{{- if .Failed}}
<div class="box error"><pre>{{if .ErrorCode}}[{{.ErrorCode}}] {{end}}{{.ErrorMessage}}</pre></div>
{{- else}}
<div class="box"><pre>{{.Text}}</pre></div>
{{- end}}
{{- end}}
</body>
</html>
`

var (
	textTemplate = texttemplate.Must(texttemplate.New("report.txt").Parse(textLayout))
	htmlTemplate = htmltemplate.Must(htmltemplate.New("report.html").Parse(htmlLayout))
)

// view is the data handed to both templates.
type view struct {
	Title       string
	GeneratedAt string
	Prompt      string
	Sections    []sectionView
}

type sectionView struct {
	Heading      string
	Text         string
	Failed       bool
	ErrorCode    string
	ErrorMessage string
}
