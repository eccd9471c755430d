package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// DefaultMethodNameLimit caps ClassRecord.MethodNames.
const DefaultMethodNameLimit = 5

// PythonExtractor turns Python syntax nodes into structural records.
type PythonExtractor struct {
	MethodNameLimit int
}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, path string) FileResult {
	result := FileResult{
		Stats:     FileStats{Path: path, LineCount: CountLines(source)},
		Functions: make([]FunctionRecord, 0),
		Classes:   make([]ClassRecord, 0),
		Imports:   make([]ImportRecord, 0),
	}
	ctx := &ExtractionContext{Source: source, Path: path, Result: &result}
	NewExtractorEngine(e).Walk(ctx, root)

	result.Stats.FunctionCount = len(result.Functions)
	result.Stats.ClassCount = len(result.Classes)
	result.Stats.ImportCount = len(result.Imports)
	return result
}

func (e *PythonExtractor) VisitFunction(ctx *ExtractionContext, node *sitter.Node) {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}

	ctx.Result.Functions = append(ctx.Result.Functions, FunctionRecord{
		File:           ctx.Path,
		Name:           name,
		Line:           ctx.Line(node),
		ParameterCount: countParameters(node.ChildByFieldName("parameters")),
		LineSpan:       ctx.LineSpan(node),
		Decorators:     decoratorNames(ctx, node),
		IsAsync:        isAsyncFunction(node),
	})
}

func (e *PythonExtractor) VisitClass(ctx *ExtractionContext, node *sitter.Node) {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}

	limit := e.MethodNameLimit
	if limit <= 0 {
		limit = DefaultMethodNameLimit
	}

	methods := directMethods(ctx, node.ChildByFieldName("body"))
	shown := methods
	if len(shown) > limit {
		shown = shown[:limit]
	}

	ctx.Result.Classes = append(ctx.Result.Classes, ClassRecord{
		File:        ctx.Path,
		Name:        name,
		Line:        ctx.Line(node),
		MethodCount: len(methods),
		Bases:       simpleBases(ctx, node.ChildByFieldName("superclasses")),
		MethodNames: cloneStrings(shown),
	})
}

func (e *PythonExtractor) VisitImport(ctx *ExtractionContext, node *sitter.Node) {
	var entries []ImportEntry
	switch node.Kind() {
	case "import_statement":
		entries = plainImportEntries(ctx, node)
	case "import_from_statement":
		entries = fromImportEntries(ctx, node)
	case "future_import_statement":
		entries = futureImportEntries(ctx, node)
	}
	if entries == nil {
		entries = make([]ImportEntry, 0)
	}

	ctx.Result.Imports = append(ctx.Result.Imports, ImportRecord{
		File:    ctx.Path,
		Line:    ctx.Line(node),
		Imports: entries,
	})
}

func isAsyncFunction(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

// countParameters counts positional, keyword-only, *args and **kwargs
// parameters. The bare '*' and '/' separators are not parameters.
func countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.NamedChildCount(); i++ {
		switch params.NamedChild(i).Kind() {
		case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			count++
		}
	}
	return count
}

// directMethods lists function definitions written directly in a class body.
func directMethods(ctx *ExtractionContext, body *sitter.Node) []string {
	methods := make([]string, 0)
	for _, stmt := range ctx.NamedChildren(body) {
		def := stmt
		if stmt.Kind() == "decorated_definition" {
			def = stmt.ChildByFieldName("definition")
		}
		if def == nil || def.Kind() != "function_definition" {
			continue
		}
		if name := ctx.Text(def.ChildByFieldName("name")); name != "" {
			methods = append(methods, name)
		}
	}
	return methods
}

// simpleBases keeps bases that are bare names. Attribute access, calls,
// subscripts and keyword arguments (metaclass=...) are left out.
func simpleBases(ctx *ExtractionContext, superclasses *sitter.Node) []string {
	bases := make([]string, 0)
	for _, arg := range ctx.NamedChildren(superclasses) {
		if arg.Kind() == "identifier" {
			bases = append(bases, ctx.Text(arg))
		}
	}
	return bases
}

func plainImportEntries(ctx *ExtractionContext, node *sitter.Node) []ImportEntry {
	entries := make([]ImportEntry, 0)
	for _, child := range ctx.NamedChildren(node) {
		module, alias, ok := importedName(ctx, child)
		if !ok {
			continue
		}
		entries = append(entries, ImportEntry{
			Module: module,
			Alias:  alias,
			Kind:   ImportKindImport,
		})
	}
	return entries
}

func fromImportEntries(ctx *ExtractionContext, node *sitter.Node) []ImportEntry {
	moduleNode := node.ChildByFieldName("module_name")
	module, level := fromModule(ctx, moduleNode)

	entries := make([]ImportEntry, 0)
	for _, child := range ctx.NamedChildren(node) {
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		if child.Kind() == "wildcard_import" {
			entries = append(entries, ImportEntry{Module: module, Name: "*", Level: level, Kind: ImportKindFrom})
			continue
		}
		name, alias, ok := importedName(ctx, child)
		if !ok {
			continue
		}
		entries = append(entries, ImportEntry{
			Module: module,
			Name:   name,
			Alias:  alias,
			Level:  level,
			Kind:   ImportKindFrom,
		})
	}
	return entries
}

func futureImportEntries(ctx *ExtractionContext, node *sitter.Node) []ImportEntry {
	entries := make([]ImportEntry, 0)
	for _, child := range ctx.NamedChildren(node) {
		name, alias, ok := importedName(ctx, child)
		if !ok {
			continue
		}
		entries = append(entries, ImportEntry{
			Module: "__future__",
			Name:   name,
			Alias:  alias,
			Kind:   ImportKindFrom,
		})
	}
	return entries
}

// fromModule returns the dotted module path and relative level of a
// from-import. `from . import x` yields ("", 1).
func fromModule(ctx *ExtractionContext, node *sitter.Node) (string, int) {
	if node == nil {
		return "", 0
	}
	if node.Kind() != "relative_import" {
		return normalizeDotted(ctx.Text(node)), 0
	}

	text := strings.TrimSpace(ctx.Text(node))
	trimmed := strings.TrimLeft(text, ".")
	level := len(text) - len(trimmed)
	return normalizeDotted(trimmed), level
}

func importedName(ctx *ExtractionContext, node *sitter.Node) (name, alias string, ok bool) {
	switch node.Kind() {
	case "dotted_name", "identifier":
		return normalizeDotted(ctx.Text(node)), "", true
	case "aliased_import":
		return normalizeDotted(ctx.Text(node.ChildByFieldName("name"))), ctx.Text(node.ChildByFieldName("alias")), true
	}
	return "", "", false
}

// normalizeDotted strips whitespace that the grammar allows around dots.
func normalizeDotted(value string) string {
	return strings.Join(strings.Fields(value), "")
}
