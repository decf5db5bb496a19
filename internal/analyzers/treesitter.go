//go:build cgo

package analyzers

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"triage/internal/engine"
)

// IsAvailable returns whether tree-sitter parsing is available.
func IsAvailable() bool {
	return true
}

// parseRecords parses the file and reports every ERROR or missing node.
func (s *SyntaxAnalyzer) parseRecords(ctx context.Context, file string, content []byte, lang string) []engine.ErrorRecord {
	tsLang := sitterLanguage(lang)
	if tsLang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsLang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		s.logger.Debug("parse failed", "file", file, "error", err)
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	var records []engine.ErrorRecord

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch {
		case node.IsMissing():
			records = append(records, syntaxRecord(file, lang, node, content,
				`missing "`+node.Type()+`"`))
		case node.Type() == "ERROR":
			records = append(records, syntaxRecord(file, lang, node, content,
				`unexpected "`+errorExcerpt(node, content)+`"`))
		}

		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)

	return records
}

// syntaxRecord builds an error record positioned at the node start.
func syntaxRecord(file, lang string, node *sitter.Node, content []byte, message string) engine.ErrorRecord {
	return engine.ErrorRecord{
		File:     file,
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column) + 1,
		Category: engine.CategorySyntax,
		Severity: engine.SeverityError,
		Message:  message,
		Snippet:  nodeExcerpt(node, content),
		Language: lang,
	}
}

// errorExcerpt returns a short single-line excerpt of the node content.
func errorExcerpt(node *sitter.Node, content []byte) string {
	excerpt := nodeExcerpt(node, content)
	if len(excerpt) > 40 {
		excerpt = excerpt[:40]
	}
	return excerpt
}

func nodeExcerpt(node *sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(content) {
		end = uint32(len(content))
	}
	if start >= end {
		return ""
	}
	text := string(content[start:end])
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// sitterLanguage maps a detected language to its grammar.
func sitterLanguage(lang string) *sitter.Language {
	switch lang {
	case "go":
		return golang.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "python":
		return python.GetLanguage()
	default:
		return nil
	}
}
