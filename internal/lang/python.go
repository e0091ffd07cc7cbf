package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/scopetags/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		lang:       python.GetLanguage(),
		Classify:   pythonClassify,
	}
}

// pythonClassify opens a scope per class. Functions and module or class
// level assignments are leaves; function bodies are not entered.
func pythonClassify(node *sitter.Node, source []byte) Capture {
	switch node.Type() {
	case "class_definition":
		name := firstChildOfType(node, "identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return scope(named(NodeText(name, source), model.SuffixType))

	case "function_definition":
		name := firstChildOfType(node, "identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "assignment":
		// a = b = 1 nests the second assignment as the right-hand side.
		var names []*sitter.Node
		for n := node; n != nil && n.Type() == "assignment"; n = n.ChildByFieldName("right") {
			if left := n.ChildByFieldName("left"); left != nil {
				names = append(names, pythonTargets(left)...)
			}
		}
		return leavesNamedBy(names, source)

	case "import_statement", "import_from_statement", "comment", "argument_list", "decorator":
		return Capture{Action: Skip}
	}
	return Capture{Action: Descend}
}

// pythonTargets returns the plain identifiers bound by an assignment target,
// unpacking tuple and list patterns. Attribute and subscript targets bind
// no new name.
func pythonTargets(target *sitter.Node) []*sitter.Node {
	switch target.Type() {
	case "identifier":
		return []*sitter.Node{target}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var out []*sitter.Node
		for i := 0; i < int(target.NamedChildCount()); i++ {
			out = append(out, pythonTargets(target.NamedChild(i))...)
		}
		return out
	}
	return nil
}
