package application

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownConverter turns post content into an HTML fragment.
type MarkdownConverter interface {
	Convert(markdown string) (string, error)
}

// linkTargetTransformer opens every link in a new tab
type linkTargetTransformer struct{}

func (t *linkTargetTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if link, ok := n.(*ast.Link); ok {
			link.SetAttributeString("target", []byte("_blank"))
		}

		return ast.WalkContinue, nil
	})
}

type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewMarkdownConverter builds a CommonMark converter.
// Raw HTML in the source is passed through, so content must come from a trusted author.
func NewMarkdownConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&linkTargetTransformer{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return &GoldmarkConverter{
		md: md,
	}
}

func (c *GoldmarkConverter) Convert(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

var _ MarkdownConverter = (*GoldmarkConverter)(nil)
