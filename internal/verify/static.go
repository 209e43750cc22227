package verify

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/python"
)

// CheckSyntax runs the language-specific static check. Python and bash go
// through tree-sitter: a parse tree containing error nodes fails the check.
// Dockerfiles and plain text are unconditionally ok.
func CheckSyntax(language, code string) (bool, string) {
	var lang *sitter.Language
	switch language {
	case LangPython:
		lang = python.GetLanguage()
	case LangBash:
		lang = bash.GetLanguage()
	default:
		return true, ""
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(code))
	if err != nil {
		return false, fmt.Sprintf("parse failed: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return true, ""
	}
	if node := firstErrorNode(root); node != nil {
		return false, fmt.Sprintf("SyntaxError near line %d", node.StartPoint().Row+1)
	}
	return false, "SyntaxError"
}

// firstErrorNode locates the shallowest explicit error node so the failure
// detail can name a line number.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if !node.HasError() {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return node
}
