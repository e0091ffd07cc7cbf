package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/phobologic/scopetags/internal/model"
)

func init() {
	Languages["javascript"] = &Language{
		Name:       "javascript",
		Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		lang:       javascript.GetLanguage(),
		Classify:   javascriptClassify,
	}
}

func javascriptClassify(node *sitter.Node, source []byte) Capture {
	switch node.Type() {
	case "class_declaration":
		name := firstChildOfType(node, "identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return scope(named(NodeText(name, source), model.SuffixType))

	case "function_declaration", "generator_function_declaration":
		name := firstChildOfType(node, "identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "method_definition":
		name := firstChildOfType(node, "property_identifier", "private_property_identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "field_definition", "public_field_definition":
		return leavesNamedBy(childrenOfType(node, "property_identifier"), source)

	case "variable_declarator":
		return leavesNamedBy(javascriptBindings(node.ChildByFieldName("name")), source)

	case "import_statement", "comment", "expression_statement", "statement_block":
		return Capture{Action: Skip}
	}
	return Capture{Action: Descend}
}

// javascriptBindings returns the identifiers bound by a declarator name,
// unpacking object and array destructuring. Defaults and renamed keys bind
// only their target name.
func javascriptBindings(target *sitter.Node) []*sitter.Node {
	if target == nil {
		return nil
	}
	switch target.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{target}
	case "object_pattern", "array_pattern", "rest_pattern":
		var out []*sitter.Node
		for i := 0; i < int(target.NamedChildCount()); i++ {
			out = append(out, javascriptBindings(target.NamedChild(i))...)
		}
		return out
	case "pair_pattern":
		return javascriptBindings(target.ChildByFieldName("value"))
	case "assignment_pattern", "object_assignment_pattern":
		return javascriptBindings(target.ChildByFieldName("left"))
	}
	return nil
}
