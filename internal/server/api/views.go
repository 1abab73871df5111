package api

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

const layout = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>PDF Compressor</title>
</head>
<body>
<main>
<h1>PDF Compressor</h1>
{{end}}
{{define "foot"}}</main>
</body>
</html>
{{end}}`

const loginPage = `{{template "head" .}}
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <label>Password <input type="password" name="password" autofocus required></label>
  <button type="submit">Sign in</button>
</form>
{{template "foot" .}}`

const uploadPage = `{{template "head" .}}
<form method="post" action="/compress" enctype="multipart/form-data">
  <p><input type="file" name="file" accept=".pdf,application/pdf" required></p>
  <p>Maximum size: {{.MaxSize}}</p>
  <label>Resolution
    <select name="resolution">
      <option value="unchanged">Unchanged</option>
      <option value="print">Print (300 dpi)</option>
      <option value="ebook" selected>E-book (150 dpi)</option>
      <option value="screen">Screen (72 dpi)</option>
    </select>
  </label>
  <label>Quality
    <select name="quality">
      <option value="very_high">Very high (95%)</option>
      <option value="high" selected>High (80%)</option>
      <option value="medium">Medium (60%)</option>
    </select>
  </label>
  <button type="submit">Compress</button>
</form>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{template "foot" .}}`

// pageData is passed to both pages.
type pageData struct {
	Error   string
	MaxSize string
}

// templateRenderer renders the built-in pages for echo.
type templateRenderer struct {
	pages map[string]*template.Template
}

func newTemplateRenderer() *templateRenderer {
	base := template.Must(template.New("layout").Parse(layout))
	return &templateRenderer{
		pages: map[string]*template.Template{
			"login":  template.Must(template.Must(base.Clone()).Parse(loginPage)),
			"upload": template.Must(template.Must(base.Clone()).Parse(uploadPage)),
		},
	}
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	page, ok := r.pages[name]
	if !ok {
		return echo.NewHTTPError(500, "unknown page "+name)
	}
	return page.Execute(w, data)
}
