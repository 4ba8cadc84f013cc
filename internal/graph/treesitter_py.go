package graph

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Python grammar node kinds.
const (
	pyFunctionDefinition  = "function_definition"
	pyClassDefinition     = "class_definition"
	pyDecoratedDefinition = "decorated_definition"
	pyIdentifier          = "identifier"
	pyDottedName          = "dotted_name"
)

// extractPython visits every node of a parsed module once and collects its
// structural metadata.
func extractPython(root *tree_sitter.Node, source []byte) FileMetadata {
	meta := emptyMetadata()

	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Kind() {
		case pyFunctionDefinition:
			if name := fieldText(node, "name", source); name != "" {
				meta.Functions = append(meta.Functions, FunctionInfo{
					Name: name,
					Args: pyArgs(node.ChildByFieldName("parameters"), source),
				})
			}

		case pyClassDefinition:
			if name := fieldText(node, "name", source); name != "" {
				cls := ClassInfo{
					Name:    name,
					Bases:   pyBases(node, source),
					Methods: pyMethods(node, source),
				}
				meta.Classes = append(meta.Classes, cls)
				meta.Inheritance = append(meta.Inheritance, cls.Bases...)
			}

		case "import_statement":
			meta.Imports = append(meta.Imports, pyImportNames(node, source)...)

		case "import_from_statement":
			if module := pyFromModule(node, source); module != "" {
				meta.Imports = append(meta.Imports, module)
			}

		case "future_import_statement":
			meta.Imports = append(meta.Imports, "__future__")

		case "assignment":
			// Annotated assignments carry a type field and are not plain
			// assignments.
			if node.ChildByFieldName("type") != nil {
				break
			}
			if left := node.ChildByFieldName("left"); left != nil && left.Kind() == pyIdentifier {
				meta.Variables = append(meta.Variables, left.Utf8Text(source))
			}
		}

		// Push in reverse so children are visited in source order.
		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if child := node.NamedChild(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return meta
}

// pyInvalidSyntax reports constructs that tree-sitter-python accepts but
// Python 3 rejects: Python 2 print and exec statements, and definitions whose
// body block is empty, as with an unindented body. It returns "line:col" of
// the first offending node.
func pyInvalidSyntax(root *tree_sitter.Node) (string, bool) {
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		bad := false
		switch node.Kind() {
		case "print_statement", "exec_statement":
			bad = true
		case pyFunctionDefinition, pyClassDefinition:
			body := node.ChildByFieldName("body")
			bad = body == nil || body.NamedChildCount() == 0 || body.StartByte() == body.EndByte()
		}
		if bad {
			p := node.StartPosition()
			return fmt.Sprintf("%d:%d", p.Row+1, p.Column+1), true
		}

		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if child := node.NamedChild(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return "", false
}

// pyArgs returns the positional-or-keyword parameter names. Positional-only
// parameters (before "/"), star parameters and keyword-only parameters are
// not part of the plain argument list.
func pyArgs(params *tree_sitter.Node, source []byte) []string {
	args := []string{}
	if params == nil {
		return args
	}

	keywordOnly := false
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}

		var name string
		switch p.Kind() {
		case pyIdentifier:
			name = p.Utf8Text(source)
		case "typed_parameter":
			inner := p.NamedChild(0)
			if inner == nil {
				continue
			}
			switch inner.Kind() {
			case pyIdentifier:
				name = inner.Utf8Text(source)
			case "list_splat_pattern":
				keywordOnly = true
				continue
			default:
				continue
			}
		case "default_parameter", "typed_default_parameter":
			name = fieldText(p, "name", source)
		case "list_splat_pattern", "keyword_separator":
			keywordOnly = true
			continue
		case "positional_separator":
			args = args[:0]
			continue
		default:
			continue
		}

		if name != "" && !keywordOnly {
			args = append(args, name)
		}
	}
	return args
}

// pyBases returns the superclasses that are plain names. Attribute bases,
// calls and keyword arguments such as metaclass= are dropped.
func pyBases(class *tree_sitter.Node, source []byte) []string {
	bases := []string{}
	supers := class.ChildByFieldName("superclasses")
	if supers == nil {
		return bases
	}
	for i := uint(0); i < supers.NamedChildCount(); i++ {
		if b := supers.NamedChild(i); b != nil && b.Kind() == pyIdentifier {
			bases = append(bases, b.Utf8Text(source))
		}
	}
	return bases
}

// pyMethods returns the functions defined directly in the class body.
func pyMethods(class *tree_sitter.Node, source []byte) []string {
	methods := []string{}
	body := class.ChildByFieldName("body")
	if body == nil {
		return methods
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := unwrapDecorated(body.NamedChild(i))
		if stmt != nil && stmt.Kind() == pyFunctionDefinition {
			if name := fieldText(stmt, "name", source); name != "" {
				methods = append(methods, name)
			}
		}
	}
	return methods
}

// pyImportNames handles "import a.b, c as d".
func pyImportNames(node *tree_sitter.Node, source []byte) []string {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case pyDottedName:
			names = append(names, child.Utf8Text(source))
		case "aliased_import":
			if n := fieldText(child, "name", source); n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

// pyFromModule returns the module of "from m import x". Relative imports
// contribute their dotted part only; "from . import x" has none.
func pyFromModule(node *tree_sitter.Node, source []byte) string {
	module := node.ChildByFieldName("module_name")
	if module == nil {
		return ""
	}
	if module.Kind() == pyDottedName {
		return module.Utf8Text(source)
	}
	for i := uint(0); i < module.NamedChildCount(); i++ {
		if c := module.NamedChild(i); c != nil && c.Kind() == pyDottedName {
			return c.Utf8Text(source)
		}
	}
	return ""
}

// unwrapDecorated returns the definition inside a decorated_definition, or
// node itself.
func unwrapDecorated(node *tree_sitter.Node) *tree_sitter.Node {
	if node != nil && node.Kind() == pyDecoratedDefinition {
		return node.ChildByFieldName("definition")
	}
	return node
}

func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(source)
}
