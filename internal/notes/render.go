package notes

import (
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// previewPolicy is safe for concurrent use once built.
var previewPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("pre", "code")
	p.AllowAttrs("class").OnElements("code", "pre")
	return p
}()

// RenderHTML converts markdown content to sanitized HTML.
func RenderHTML(content string) []byte {
	// Parsers keep state, so each call gets its own.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(content))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	return previewPolicy.SanitizeBytes(markdown.Render(doc, renderer))
}
