// Package tags flattens a scope tree into tag records.
package tags

import "github.com/phobologic/scopetags/internal/model"

// Emitter walks a scope tree and passes each tag to Write.
//
// Tags are produced depth-first: a scope's own tag, then the complete
// subtree of each child in order, then the scope's globals in order.
// Consumers streaming the output may rely on this ordering.
type Emitter struct {
	Path     string
	Language string
	Write    func(model.Tag) error
}

// Emit walks root. The first error returned by Write stops the walk and is
// returned as is.
func (e *Emitter) Emit(root *model.Scope) error {
	if root == nil {
		return nil
	}
	return e.emitScope(nil, root)
}

func (e *Emitter) emitScope(parents scopePath, scope *model.Scope) error {
	current := parents.with(scope.Descriptors)

	if len(scope.Descriptors) > 0 {
		err := e.Write(model.Tag{
			Name:     joinNames(scope.Descriptors),
			Path:     e.Path,
			Language: e.Language,
			Line:     scope.Range[0] + 1,
			Kind:     KindOf(scope.Descriptors),
			Scope:    parents.qualifier(),
		})
		if err != nil {
			return err
		}
	}

	for _, child := range scope.Children {
		if err := e.emitScope(current, child); err != nil {
			return err
		}
	}

	for i := range scope.Globals {
		if err := e.emitGlobal(current, &scope.Globals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitGlobal(current scopePath, leaf *model.LeafSymbol) error {
	last, ok := lastDescriptor(leaf.Descriptors)
	if !ok {
		panic("tags: leaf symbol has no descriptors")
	}
	qualifiers := leaf.Descriptors[:len(leaf.Descriptors)-1]

	return e.Write(model.Tag{
		Name:     last.Name,
		Path:     e.Path,
		Language: e.Language,
		Line:     leaf.Range[0] + 1,
		Kind:     KindOf(leaf.Descriptors),
		Scope:    current.with(qualifiers).qualifier(),
	})
}
