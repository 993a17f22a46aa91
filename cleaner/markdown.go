package cleaner

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter:
//
//   - base plugin: drops residual script/style/comment noise.
//   - commonmark plugin: ATX headings, fenced code blocks, standard lists,
//     links and emphasis.
//   - table plugin with minimal cell padding, which keeps tabular data
//     readable while saving a large share of table tokens.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// toMarkdown converts sanitised HTML to Markdown. The domain resolves any
// residual relative URLs so the output is self-contained.
func toMarkdown(conv *converter.Converter, htmlContent, domain string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(domain))
}

var (
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// TightenWhitespace normalises line endings, drops trailing spaces and
// collapses runs of three or more blank lines to two. Idempotent: applying
// it twice equals applying it once.
func TightenWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

const truncationMarker = "\n\n[…truncated]"

// truncate caps markdown at maxLength runes, appending a marker so readers
// know content was cut. maxLength <= 0 disables the cap.
func truncate(markdown string, maxLength int) string {
	if maxLength <= 0 {
		return markdown
	}
	runes := []rune(markdown)
	if len(runes) <= maxLength {
		return markdown
	}
	return string(runes[:maxLength]) + truncationMarker
}
