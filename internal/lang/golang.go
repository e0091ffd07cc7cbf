package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/scopetags/internal/model"
)

func init() {
	Languages["go"] = &Language{
		Name:       "go",
		Extensions: []string{".go"},
		lang:       golang.GetLanguage(),
		Classify:   goClassify,
	}
}

// goClassify maps Go declarations onto scopes. Types open scopes holding
// their fields and interface methods; methods are leaves qualified by their
// receiver type. Function bodies are never entered, so only package-level
// symbols are reported.
func goClassify(node *sitter.Node, source []byte) Capture {
	switch node.Type() {
	case "package_clause":
		name := firstChildOfType(node, "package_identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixPackage))

	case "import_declaration", "comment":
		return Capture{Action: Skip}

	case "type_spec", "type_alias":
		name := firstChildOfType(node, "type_identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return scope(named(NodeText(name, source), model.SuffixType))

	case "field_declaration":
		return leavesNamedBy(childrenOfType(node, "field_identifier"), source)

	case "method_elem", "method_spec":
		name := firstChildOfType(node, "field_identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "function_declaration":
		name := firstChildOfType(node, "identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		return leaf(node, named(NodeText(name, source), model.SuffixMethod))

	case "method_declaration":
		name := firstChildOfType(node, "field_identifier")
		if name == nil {
			return Capture{Action: Skip}
		}
		method := named(NodeText(name, source), model.SuffixMethod)
		if recv := goFindReceiverType(node, source); recv != "" {
			return leaf(node, named(recv, model.SuffixType), method)
		}
		return leaf(node, method)

	case "const_spec", "var_spec":
		return leavesNamedBy(childrenOfType(node, "identifier"), source)

	case "block", "expression_list", "parameter_list", "type_parameter_list":
		return Capture{Action: Skip}
	}
	return Capture{Action: Descend}
}

// goFindReceiverType extracts the receiver type name from a method_declaration node.
// Navigates: method_declaration → parameter_list (receiver) → parameter_declaration → type.
func goFindReceiverType(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "parameter_list" {
			continue
		}
		// The receiver is the first parameter_list (before the method name).
		if !isReceiverList(node, child) {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			param := child.Child(j)
			if param.Type() == "parameter_declaration" {
				return goExtractTypeName(param, source)
			}
		}
	}
	return ""
}

// goExtractTypeName extracts the type name from a parameter_declaration,
// unwrapping pointer and generic types.
func goExtractTypeName(param *sitter.Node, source []byte) string {
	for i := 0; i < int(param.ChildCount()); i++ {
		if name := goTypeName(param.Child(i), source); name != "" {
			return name
		}
	}
	return ""
}

func goTypeName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "type_identifier":
		return NodeText(node, source)
	case "pointer_type", "generic_type":
		for k := 0; k < int(node.ChildCount()); k++ {
			if name := goTypeName(node.Child(k), source); name != "" {
				return name
			}
		}
	}
	return ""
}

// isReceiverList checks if a parameter_list is the receiver (appears before the method name).
func isReceiverList(parent, paramList *sitter.Node) bool {
	if parent.Type() != "method_declaration" {
		return false
	}
	foundList := false
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		if child == paramList {
			foundList = true
			continue
		}
		if foundList && child.Type() == "field_identifier" {
			return true
		}
	}
	return false
}

func childrenOfType(node *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			out = append(out, child)
		}
	}
	return out
}
