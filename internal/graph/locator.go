package graph

import (
	"log/slog"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// SymbolKind selects which definitions Locate matches.
type SymbolKind string

const (
	SymbolClass    SymbolKind = "class"
	SymbolFunction SymbolKind = "function"
)

// Locate returns the source text of the first definition named name, or an
// empty string when none matches. Only module-level statements and class
// bodies are searched; function bodies are never entered. The search is
// depth-first in source order, so a method inside an earlier class wins over
// a later top-level definition.
func Locate(tree *ParsedTree, name string, kind SymbolKind) string {
	return locate(tree, name, kind, slog.Default())
}

func locate(tree *ParsedTree, name string, kind SymbolKind, logger *slog.Logger) string {
	root := tree.Root()
	if root == nil || name == "" {
		logger.Error("no tree or symbol name provided", slog.String("symbol", name))
		return ""
	}

	want := pyFunctionDefinition
	if kind == SymbolClass {
		want = pyClassDefinition
	}

	source := tree.Source()
	stack := pushStatements(nil, root)
	for len(stack) > 0 {
		stmt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		def := unwrapDecorated(stmt)
		if def == nil {
			continue
		}
		switch def.Kind() {
		case want:
			if fieldText(def, "name", source) == name {
				// stmt spans the decorators of a decorated definition.
				return string(source[stmt.StartByte():stmt.EndByte()])
			}
			if def.Kind() == pyClassDefinition {
				stack = pushStatements(stack, def.ChildByFieldName("body"))
			}
		case pyClassDefinition:
			stack = pushStatements(stack, def.ChildByFieldName("body"))
		}
	}

	logger.Warn("no matching definition found",
		slog.String("file", tree.Path),
		slog.String("kind", string(kind)),
		slog.String("symbol", name))
	return ""
}

// pushStatements pushes the named children of a module or block in reverse,
// so that they pop in source order.
func pushStatements(stack []*tree_sitter.Node, block *tree_sitter.Node) []*tree_sitter.Node {
	if block == nil {
		return stack
	}
	for i := int(block.NamedChildCount()) - 1; i >= 0; i-- {
		if c := block.NamedChild(uint(i)); c != nil {
			stack = append(stack, c)
		}
	}
	return stack
}
