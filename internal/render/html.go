package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="sv">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial; background:#f3f3f3; }
.container { max-width:900px; margin:auto; }
.card { background:white; padding:20px; margin:20px 0; border-radius:8px; }
.card img { max-width:100%; }
.empty { color:#777; font-style:italic; }
</style>
</head>
<body>
<h1 style="text-align:center;">{{.Title}}</h1>
<p style="text-align:center;">{{.Day}}</p>
<div class="container">
{{- range .Cards}}
<div class="card"><h2>{{.Name}}</h2>
{{- if .Body}}
{{.Body}}
{{- else}}
<p class="empty">{{$.Placeholder}}</p>
{{- end}}
</div>
{{- end}}
</div>
</body>
</html>
`))

type htmlCard struct {
	Name string
	Body template.HTML
}

// HTML renders the page. Each card body is Markdown converted by goldmark,
// which escapes raw HTML in scraped text.
func HTML(p Page) ([]byte, error) {
	md := goldmark.New()
	data := struct {
		Title       string
		Day         string
		Placeholder string
		Cards       []htmlCard
	}{Title: p.Title(), Day: p.DayLabel(), Placeholder: Placeholder}
	for _, c := range p.Cards {
		hc := htmlCard{Name: c.Name}
		if c.Available() {
			var buf bytes.Buffer
			if err := md.Convert([]byte(cardBody(c)), &buf); err != nil {
				return nil, fmt.Errorf("convert %s: %w", c.Name, err)
			}
			hc.Body = template.HTML(buf.String())
		}
		data.Cards = append(data.Cards, hc)
	}
	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, data); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
