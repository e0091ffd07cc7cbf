// Package lang provides a language registry mapping file extensions to
// tree-sitter grammars and the rules that turn their syntax nodes into
// scopes and symbols.
package lang

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/scopetags/internal/model"
)

// Action tells the scope extractor what to do with a syntax node.
type Action int

const (
	// Descend walks the node's children in the current scope.
	Descend Action = iota
	// Skip ignores the node and its subtree.
	Skip
	// OpenScope creates a child scope and walks the node's children in it.
	OpenScope
	// DeclareLeaves adds leaf symbols to the current scope without descending.
	DeclareLeaves
)

// Capture is a language's classification of one syntax node.
type Capture struct {
	Action      Action
	Descriptors []model.Descriptor // OpenScope
	Leaves      []model.LeafSymbol // DeclareLeaves
}

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// Classify decides how a named node contributes to the scope tree.
	Classify func(node *sitter.Node, source []byte) Capture
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not safe for concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]*Language
var extensionOnce sync.Once

func getExtensionMap() map[string]*Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language for a dotted file extension such as
// ".go". Matching is case-insensitive.
func ForExtension(ext string) (*Language, bool) {
	l, ok := getExtensionMap()[strings.ToLower(ext)]
	return l, ok
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func nodeRange(node *sitter.Node) model.Range {
	return model.Range{int(node.StartPoint().Row), int(node.EndPoint().Row)}
}

// firstChildOfType returns the first direct child whose type is one of types.
func firstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

func scope(descriptors ...model.Descriptor) Capture {
	return Capture{Action: OpenScope, Descriptors: descriptors}
}

func leaf(node *sitter.Node, descriptors ...model.Descriptor) Capture {
	return Capture{
		Action: DeclareLeaves,
		Leaves: []model.LeafSymbol{{Descriptors: descriptors, Range: nodeRange(node)}},
	}
}

// leavesNamedBy declares one Term leaf per name node.
func leavesNamedBy(names []*sitter.Node, source []byte) Capture {
	if len(names) == 0 {
		return Capture{Action: Skip}
	}
	c := Capture{Action: DeclareLeaves}
	for _, n := range names {
		c.Leaves = append(c.Leaves, model.LeafSymbol{
			Descriptors: []model.Descriptor{{Name: NodeText(n, source), Suffix: model.SuffixTerm}},
			Range:       nodeRange(n),
		})
	}
	return c
}

func named(name string, suffix model.Suffix) model.Descriptor {
	return model.Descriptor{Name: name, Suffix: suffix}
}
