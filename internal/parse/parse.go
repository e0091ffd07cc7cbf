// Package parse builds scope trees from source files using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/scopetags/internal/lang"
	"github.com/phobologic/scopetags/internal/model"
)

// ErrParse reports that a file could not be parsed at all. Syntax errors
// inside an otherwise parseable file are not failures; tree-sitter recovers
// from them and the surrounding declarations are still reported.
var ErrParse = errors.New("parse failed")

// Globals parses source with l and returns the file's root scope. The root
// has no descriptors and spans the whole file.
func Globals(ctx context.Context, l *lang.Language, source []byte) (*model.Scope, error) {
	if len(source) == 0 {
		return &model.Scope{}, nil
	}

	parser := l.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, l.Name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: %s: empty syntax tree", ErrParse, l.Name)
	}

	b := &builder{classify: l.Classify, source: source}
	scope := &model.Scope{Range: model.Range{int(root.StartPoint().Row), int(root.EndPoint().Row)}}
	b.walkChildren(root, scope)
	return scope, nil
}

type builder struct {
	classify func(*sitter.Node, []byte) lang.Capture
	source   []byte
}

func (b *builder) walkChildren(node *sitter.Node, into *model.Scope) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		b.walk(node.NamedChild(i), into)
	}
}

func (b *builder) walk(node *sitter.Node, into *model.Scope) {
	c := b.classify(node, b.source)

	switch c.Action {
	case lang.Skip:
	case lang.OpenScope:
		child := &model.Scope{
			Descriptors: c.Descriptors,
			Range:       model.Range{int(node.StartPoint().Row), int(node.EndPoint().Row)},
		}
		into.Children = append(into.Children, child)
		b.walkChildren(node, child)
	case lang.DeclareLeaves:
		for _, leaf := range c.Leaves {
			if len(leaf.Descriptors) > 0 {
				into.Globals = append(into.Globals, leaf)
			}
		}
	default:
		b.walkChildren(node, into)
	}
}
