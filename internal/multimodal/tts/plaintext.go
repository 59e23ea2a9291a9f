package tts

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrEmptyInput is returned when nothing speakable remains after flattening.
var ErrEmptyInput = errors.New("empty synthesis input")

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// PlainText flattens markdown into text suitable for reading aloud. Emphasis
// markers, link targets and code fences are dropped; table rows become one
// sentence each with cells separated by commas.
func PlainText(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *extast.TableCell:
			if !entering {
				for buf.Len() > 0 && buf.Bytes()[buf.Len()-1] == ' ' {
					buf.Truncate(buf.Len() - 1)
				}
				buf.WriteString(", ")
			}
		case *extast.TableHeader, *extast.TableRow:
			if !entering {
				trimSuffix(&buf, ", ")
				buf.WriteString(".\n")
			}
		case *ast.ListItem:
			if !entering {
				buf.WriteByte('\n')
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func trimSuffix(buf *bytes.Buffer, suffix string) {
	if bytes.HasSuffix(buf.Bytes(), []byte(suffix)) {
		buf.Truncate(buf.Len() - len(suffix))
	}
}
