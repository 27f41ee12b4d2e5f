// Package render converts Markdown reports to styled HTML pages and
// builds the index and dashboard pages.
package render

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/devpulse/devpulse/internal/pulseerr"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

// ToHTML converts report Markdown to a complete HTML page. Literal
// angle brackets in commit messages are escaped before parsing so they
// survive as text instead of being treated as raw HTML.
func ToHTML(md, pageTitle string) (string, error) {
	if t := firstHeading(md); t != "" {
		pageTitle = t
	}

	var body bytes.Buffer
	if err := markdown.Convert([]byte(escapeAngles(md)), &body); err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrData, err, "convert markdown")
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, pageData{
		Title: pageTitle,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrData, err, "render page")
	}
	return out.String(), nil
}

// firstHeading returns the text of the first level-one heading.
func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// escapeAngles escapes < and > outside fenced blocks and inline code
// spans. Inside code the characters are already safe.
func escapeAngles(md string) string {
	var out []string
	inFence := false
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		out = append(out, escapeAnglesInline(line))
	}
	return strings.Join(out, "\n")
}

func escapeAnglesInline(line string) string {
	parts := strings.Split(line, "`")
	// Even indexes are outside inline code spans.
	for i := 0; i < len(parts); i += 2 {
		parts[i] = strings.ReplaceAll(parts[i], "<", "&lt;")
		parts[i] = strings.ReplaceAll(parts[i], ">", "&gt;")
	}
	return strings.Join(parts, "`")
}

// ConvertFile renders one Markdown file next to itself with an .html
// extension.
func ConvertFile(mdPath string) (string, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "read report")
	}

	name := strings.TrimSuffix(filepath.Base(mdPath), ".md")
	page, err := ToHTML(string(data), name)
	if err != nil {
		return "", err
	}

	htmlPath := strings.TrimSuffix(mdPath, ".md") + ".html"
	if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "write html")
	}
	return htmlPath, nil
}

// ConvertAll renders every .md file under dir recursively, skipping
// example templates.
func ConvertAll(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if strings.HasPrefix(strings.ToLower(d.Name()), "example") {
			return nil
		}
		if _, err := ConvertFile(path); err != nil {
			logrus.WithError(err).Warnf("skipping %s", path)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "walk reports")
	}
	return count, nil
}

type pageData struct {
	Title string
	Body  template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, "Helvetica Neue", sans-serif; max-width: 960px; margin: 0 auto; padding: 24px; color: #24292f; line-height: 1.6; }
h1 { border-bottom: 2px solid #d0d7de; padding-bottom: 8px; }
h2 { border-bottom: 1px solid #d0d7de; padding-bottom: 4px; margin-top: 32px; }
table { border-collapse: collapse; width: 100%; margin: 12px 0; }
th, td { border: 1px solid #d0d7de; padding: 6px 12px; text-align: left; }
th { background: #f6f8fa; }
tr:nth-child(even) { background: #fafbfc; }
code { background: #f6f8fa; padding: 2px 5px; border-radius: 4px; font-size: 0.92em; }
pre { background: #f6f8fa; padding: 12px; border-radius: 6px; overflow-x: auto; }
pre code { background: none; padding: 0; }
blockquote { border-left: 4px solid #d0d7de; margin: 0; padding: 0 16px; color: #57606a; }
a { color: #0969da; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
