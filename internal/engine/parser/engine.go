package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeKind is the closed set of node categories the extractor acts on.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeFunctionDef
	NodeClassDef
	NodeImportStmt
)

func (k NodeKind) String() string {
	switch k {
	case NodeFunctionDef:
		return "function_def"
	case NodeClassDef:
		return "class_def"
	case NodeImportStmt:
		return "import_stmt"
	default:
		return "other"
	}
}

// ClassifyNode maps a tree-sitter Python node onto a NodeKind.
func ClassifyNode(node *sitter.Node) NodeKind {
	if node == nil {
		return NodeOther
	}
	switch node.Kind() {
	case "function_definition":
		return NodeFunctionDef
	case "class_definition":
		return NodeClassDef
	case "import_statement", "import_from_statement", "future_import_statement":
		return NodeImportStmt
	default:
		return NodeOther
	}
}

// NodeVisitor receives every classified node of a tree.
type NodeVisitor interface {
	VisitFunction(ctx *ExtractionContext, node *sitter.Node)
	VisitClass(ctx *ExtractionContext, node *sitter.Node)
	VisitImport(ctx *ExtractionContext, node *sitter.Node)
}

// ExtractionContext carries shared state/helpers used while walking one file.
type ExtractionContext struct {
	Source []byte
	Path   string
	Result *FileResult
}

// ExtractorEngine walks every node of the syntax tree in pre-order (source
// order) and dispatches classified nodes to the visitor. Definitions do not
// stop the walk, so nested functions and classes are visited too.
type ExtractorEngine struct {
	visitor NodeVisitor
}

func NewExtractorEngine(visitor NodeVisitor) *ExtractorEngine {
	return &ExtractorEngine{visitor: visitor}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, root *sitter.Node) {
	if root == nil {
		return
	}

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		descend := true
		switch ClassifyNode(node) {
		case NodeFunctionDef:
			e.visitor.VisitFunction(ctx, node)
		case NodeClassDef:
			e.visitor.VisitClass(ctx, node)
		case NodeImportStmt:
			e.visitor.VisitImport(ctx, node)
			descend = false
		}

		if !descend {
			continue
		}
		for i := node.ChildCount(); i > 0; i-- {
			if child := node.Child(i - 1); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based start line of node.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// LineSpan returns the number of lines node covers, or 0 when the end
// position is unusable.
func (c *ExtractionContext) LineSpan(node *sitter.Node) int {
	start := node.StartPosition()
	end := node.EndPosition()
	if end.Row < start.Row {
		return 0
	}
	endRow := end.Row
	// A node that ends at column 0 ends on the previous line's newline.
	if end.Column == 0 && endRow > start.Row {
		endRow--
	}
	return int(endRow-start.Row) + 1
}

// NamedChildren returns the named children of node, skipping comments.
func (c *ExtractionContext) NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}
