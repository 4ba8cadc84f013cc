package graph

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ParsedTree is a parsed syntax tree together with the source it was parsed
// from. It is read-only after parsing and owns tree-sitter C memory, so it
// must be released with Close once source recovery is finished.
type ParsedTree struct {
	Path   string
	tree   *tree_sitter.Tree
	source []byte
}

// Root returns the module node, or nil once the tree has been closed.
func (t *ParsedTree) Root() *tree_sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Source returns the bytes the tree was parsed from.
func (t *ParsedTree) Source() []byte {
	if t == nil {
		return nil
	}
	return t.source
}

// Close releases the underlying tree. It is safe to call more than once.
func (t *ParsedTree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}

// Extractor turns Python source files into FileMetadata records.
// A new tree-sitter parser is created per call, so one Extractor may be
// shared between goroutines.
type Extractor struct {
	language *tree_sitter.Language
	logger   *slog.Logger
}

// NewExtractor creates an Extractor with the Python grammar registered.
// A nil logger uses slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		language: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		logger:   logger,
	}
}

// Extract parses the file at path and returns its metadata along with the
// retained tree. It never fails: a missing file, a wrong extension or a read
// error yields the empty record, and a file that does not parse yields the
// empty record with SyntaxError set. The tree is nil on every degraded path.
func (e *Extractor) Extract(path string) (FileMetadata, *ParsedTree) {
	source, ok := e.readSource(path)
	if !ok {
		return emptyMetadata(), nil
	}

	tree, err := e.parse(source)
	if err != nil {
		e.logger.Error("parse failed", slog.String("file", path), slog.Any("error", err))
		return emptyMetadata(), nil
	}

	root := tree.RootNode()
	var at string
	invalid := root.HasError()
	if invalid {
		at = firstErrorPosition(root)
	} else {
		at, invalid = pyInvalidSyntax(root)
	}
	if invalid {
		// Nodes point into the tree, so they must not be touched after Close.
		e.logger.Error("syntax error", slog.String("file", path), slog.String("at", at))
		tree.Close()
		meta := emptyMetadata()
		meta.SyntaxError = true
		return meta, nil
	}

	meta := extractPython(root, source)
	return meta, &ParsedTree{Path: path, tree: tree, source: source}
}

// Dump returns a printable S-expression of the file's syntax tree, or an
// empty string when the file cannot be read or parsed.
func (e *Extractor) Dump(path string) string {
	source, ok := e.readSource(path)
	if !ok {
		return ""
	}
	tree, err := e.parse(source)
	if err != nil {
		e.logger.Error("parse failed", slog.String("file", path), slog.Any("error", err))
		return ""
	}
	defer tree.Close()
	return tree.RootNode().ToSexp()
}

// readSource checks the path preconditions and reads the file.
func (e *Extractor) readSource(path string) ([]byte, bool) {
	if _, err := os.Stat(path); err != nil {
		e.logger.Error("file does not exist", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}
	if !strings.HasSuffix(path, SourceExt) {
		e.logger.Error("not a Python file", slog.String("file", path))
		return nil, false
	}
	source, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("read failed", slog.String("file", path), slog.Any("error", err))
		return nil, false
	}
	return source, true
}

func (e *Extractor) parse(source []byte) (*tree_sitter.Tree, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree")
	}
	return tree, nil
}

// firstErrorPosition returns "line:col" of the first error or missing node.
func firstErrorPosition(root *tree_sitter.Node) string {
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			p := n.StartPosition()
			return fmt.Sprintf("%d:%d", p.Row+1, p.Column+1)
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(uint(i)); c != nil && (c.HasError() || c.IsMissing()) {
				stack = append(stack, c)
			}
		}
	}
	return "unknown"
}
