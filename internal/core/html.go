package core

import (
	"fmt"
	"html"
	"strings"
)

type ShellInput struct {
	Title       string
	Description string
	Lang        string
	HeadHTML    string
	BodyHTML    string
}

// RenderHTMLShell wraps a rendered fragment in a complete document.
func RenderHTMLShell(in ShellInput) string {
	lang := in.Lang
	if lang == "" {
		lang = "en"
	}

	head := `<meta charset="UTF-8" /><meta name="viewport" content="width=device-width, initial-scale=1.0" />`
	if in.Title != "" && !strings.Contains(strings.ToLower(in.HeadHTML), "<title") {
		head += fmt.Sprintf("<title>%s</title>", html.EscapeString(in.Title))
	}
	if in.Description != "" {
		head += fmt.Sprintf(`<meta name="description" content="%s" />`, html.EscapeString(in.Description))
	}
	head += in.HeadHTML

	return fmt.Sprintf(`<!doctype html>
<html lang="%s">
  <head>
    %s
  </head>
  <body>
%s
  </body>
</html>
`, html.EscapeString(lang), head, in.BodyHTML)
}

// EscapeJSONForScript makes JSON safe to embed inside a <script> element.
func EscapeJSONForScript(data []byte) string {
	return strings.ReplaceAll(string(data), "</", "<\\/")
}

// IsFullDocument reports whether markup already carries its own <html>
// element rather than being a body fragment.
func IsFullDocument(markup string) bool {
	head := strings.ToLower(markup)
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.TrimSpace(head)
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}
