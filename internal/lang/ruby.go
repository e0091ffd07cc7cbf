package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/scopetags/internal/model"
)

func init() {
	Languages["ruby"] = &Language{
		Name:       "ruby",
		Extensions: []string{".rb"},
		lang:       ruby.GetLanguage(),
		Classify:   rubyClassify,
	}
}

// rubyClassify opens namespace scopes for modules and type scopes for
// classes. A compact name such as Outer::Inner yields one descriptor per
// segment. Methods and constant assignments are leaves.
func rubyClassify(node *sitter.Node, source []byte) Capture {
	switch node.Type() {
	case "module", "class":
		name := firstChildOfType(node, "constant", "scope_resolution")
		if name == nil {
			return Capture{Action: Skip}
		}
		last := model.SuffixNamespace
		if node.Type() == "class" {
			last = model.SuffixType
		}
		return scope(rubyQualifiedName(NodeText(name, source), last)...)

	case "method":
		name := firstChildOfType(node, "identifier", "constant", "setter", "operator")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "singleton_method":
		// def self.foo: the method name follows the "." or "::" token.
		for i := 0; i+1 < int(node.ChildCount()); i++ {
			if t := node.Child(i).Type(); t == "." || t == "::" {
				return leaf(node, named(NodeText(node.Child(i+1), source), model.SuffixMethod))
			}
		}
		return Capture{Action: Skip}

	case "assignment":
		if node.NamedChildCount() == 0 {
			return Capture{Action: Skip}
		}
		if lhs := node.NamedChild(0); lhs.Type() == "constant" {
			return leavesNamedBy([]*sitter.Node{lhs}, source)
		}
		return Capture{Action: Skip}

	case "comment", "call", "superclass":
		return Capture{Action: Skip}
	}
	return Capture{Action: Descend}
}

// rubyQualifiedName splits "A::B::C" into namespace descriptors for A and B
// and a descriptor with suffix last for C.
func rubyQualifiedName(name string, last model.Suffix) []model.Descriptor {
	parts := strings.Split(strings.TrimPrefix(name, "::"), "::")
	out := make([]model.Descriptor, len(parts))
	for i, p := range parts {
		suffix := model.SuffixNamespace
		if i == len(parts)-1 {
			suffix = last
		}
		out[i] = named(strings.TrimSpace(p), suffix)
	}
	return out
}
