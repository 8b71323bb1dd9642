// Package markdown renders notice content written in Markdown to HTML
// safe for direct template output. Rendering goes through goldmark, then
// bluemonday strips anything dangerous the author (or a compromised
// account) might have embedded.
package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	engine     goldmark.Markdown
	policy     *bluemonday.Policy
	engineOnce sync.Once
)

func get() (goldmark.Markdown, *bluemonday.Policy) {
	engineOnce.Do(func() {
		engine = goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
			),
		)

		// UGC policy plus tables, which timetable notes use.
		policy = bluemonday.UGCPolicy()
		policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	})
	return engine, policy
}

// Render converts Markdown source to sanitized HTML ready for template
// output. Errors from the renderer fall back to escaped plain text so a
// malformed notice never blanks the page.
func Render(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	md, pol := get()

	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(pol.Sanitize(buf.String()))
}

// Sanitize cleans raw HTML without markdown conversion. Used for legacy
// content that was stored as HTML.
func Sanitize(html string) template.HTML {
	if html == "" {
		return ""
	}
	_, pol := get()
	return template.HTML(pol.Sanitize(html))
}
