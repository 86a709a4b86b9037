// Package markdown turns raw memo Markdown into the stored content
// triple: the raw source, sanitized display HTML, and a plain-text
// extract for search indexing.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"memoboard/internal/domain"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	stripper *bluemonday.Policy
}

var imgTag = regexp.MustCompile(`<img([^>]*?)/?>`)

// New builds the renderer. Raw HTML in the Markdown source passes
// through to the sanitizer, which drops anything outside the allow-list
// rather than escaping it into visible text.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.ClassPrefix("hljs-"),
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)

	policy := bluemonday.UGCPolicy()
	// Highlighted code keeps its token classes.
	policy.AllowAttrs("class").OnElements("pre", "code", "span")
	// Images carry exactly the display class and the zoom marker.
	policy.AllowAttrs("src", "alt").OnElements("img")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^memo-img$`)).OnElements("img")
	policy.AllowAttrs("data-action").Matching(regexp.MustCompile(`^zoom$`)).OnElements("img")
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^memo-figure$`)).OnElements("figure")

	return &Renderer{
		md:       md,
		policy:   policy,
		stripper: bluemonday.StrictPolicy(),
	}
}

// Render converts raw Markdown into the stored triple. It is a pure
// function of its input: identical raw content always yields identical
// output.
func (r *Renderer) Render(raw string) (domain.MemoContent, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(raw), &buf); err != nil {
		return domain.MemoContent{}, fmt.Errorf("failed to render markdown: %w", err)
	}

	rendered := buf.String()
	return domain.MemoContent{
		Raw:  raw,
		HTML: r.Sanitize(rendered),
		Text: r.stripper.Sanitize(rendered),
	}, nil
}

// Sanitize applies the display allow-list and tags every image for the
// client-side zoom handler. Sanitizing already-sanitized HTML is a
// no-op.
func (r *Renderer) Sanitize(html string) string {
	clean := r.policy.Sanitize(html)
	return imgTag.ReplaceAllStringFunc(clean, func(tag string) string {
		if strings.Contains(tag, `class="memo-img"`) {
			return tag
		}
		return strings.Replace(tag, "<img", `<img class="memo-img" data-action="zoom"`, 1)
	})
}
