package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"codeshape/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// DecoratorError reports a decorator expression whose shape is not a name,
// an attribute chain or a call of either.
type DecoratorError struct {
	NodeKind string
}

func (e *DecoratorError) Error() string {
	return fmt.Sprintf("unrecognized decorator expression %q", e.NodeKind)
}

// Placeholder is the string recorded in place of the decorator name.
func (e *DecoratorError) Placeholder() string {
	return "error:" + e.NodeKind
}

// decoratorNames classifies every decorator of a definition independently;
// a failure on one never drops the others or the definition itself.
func decoratorNames(ctx *ExtractionContext, def *sitter.Node) []string {
	names := make([]string, 0)
	parent := def.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return names
	}

	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child == nil || child.Kind() != "decorator" {
			continue
		}
		name, err := classifyDecorator(ctx, child)
		if err != nil {
			placeholder := "error:" + child.Kind()
			var de *DecoratorError
			if errors.As(err, &de) {
				placeholder = de.Placeholder()
			}
			slog.Debug("decorator recorded with placeholder", "path", ctx.Path, "line", ctx.Line(child), "error", err)
			observability.DecoratorFallbacksTotal.Inc()
			names = append(names, placeholder)
			continue
		}
		names = append(names, name)
	}
	return names
}

func classifyDecorator(ctx *ExtractionContext, decorator *sitter.Node) (string, error) {
	exprs := ctx.NamedChildren(decorator)
	if len(exprs) == 0 {
		return "", &DecoratorError{NodeKind: decorator.Kind()}
	}
	expr := exprs[0]

	switch expr.Kind() {
	case "identifier", "attribute":
		return referenceName(ctx, expr)
	case "call":
		fn := expr.ChildByFieldName("function")
		if fn == nil {
			return "", &DecoratorError{NodeKind: expr.Kind()}
		}
		switch fn.Kind() {
		case "identifier", "attribute":
			return referenceName(ctx, fn)
		}
		return "", &DecoratorError{NodeKind: "call." + fn.Kind()}
	}
	return "", &DecoratorError{NodeKind: expr.Kind()}
}

// referenceName renders identifiers and attribute chains as dotted names.
// An attribute whose object is not itself a name chain keeps its attribute
// under a "?" prefix, e.g. "?.setter" for `@handlers[0].setter`.
func referenceName(ctx *ExtractionContext, node *sitter.Node) (string, error) {
	switch node.Kind() {
	case "identifier":
		return ctx.Text(node), nil
	case "attribute":
		attr := ctx.Text(node.ChildByFieldName("attribute"))
		if attr == "" {
			return "", &DecoratorError{NodeKind: node.Kind()}
		}
		object := node.ChildByFieldName("object")
		if object == nil {
			return "?." + attr, nil
		}
		prefix, err := referenceName(ctx, object)
		if err != nil {
			return "?." + attr, nil
		}
		return prefix + "." + attr, nil
	}
	return "", &DecoratorError{NodeKind: node.Kind()}
}
