package core

import (
	"bytes"
	"html/template"
	"strings"
)

type PlaceholderData struct {
	Title  string
	Reason string
}

var PlaceholderTemplate = template.Must(template.New("placeholder").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 0 20px; }
        h1 { color: #e74c3c; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <p>This page could not be rendered during export. The project snapshot in this bundle is complete and can be re-imported into the editor to export again.</p>
    <pre>{{.Reason}}</pre>
</body>
</html>
`))

// PlaceholderDocument is the deterministic document written to
// dist/index.html when rendering failed.
func PlaceholderDocument(title, reason string) string {
	if strings.TrimSpace(title) == "" {
		title = "Landing page"
	}
	if strings.TrimSpace(reason) == "" {
		reason = "rendering failed"
	}

	var buf bytes.Buffer
	if err := PlaceholderTemplate.Execute(&buf, PlaceholderData{Title: title, Reason: reason}); err != nil {
		return "<!doctype html><html><head><title>Export placeholder</title></head><body><h1>Export placeholder</h1></body></html>\n"
	}
	return buf.String()
}

func PlaceholderReadme(reason string) string {
	return `This bundle was exported without a rendered page.

dist/index.html is a placeholder because neither the live preview nor the
render service produced a document:

    ` + reason + `

project.json and manifest.json are complete. Import project.json into the
editor and export again to generate the deployable site.
`
}
