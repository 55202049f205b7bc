package narrative

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// CleanMarkdown trims model output and strips an outer code fence.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") && len(cleaned) >= 6 {
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "```")
		// drop an info string such as "markdown"
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.ContainsAny(cleaned[:nl], " \t") {
			cleaned = cleaned[nl+1:]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// RenderHTML converts narrative markdown to HTML. Raw HTML in the input is
// not passed through.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
