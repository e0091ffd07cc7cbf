package tags

import (
	"strings"

	"github.com/phobologic/scopetags/internal/model"
)

// scopePath is the chain of enclosing scope names, outermost first.
type scopePath []string

// with returns a new path extended by the names of descriptors. The receiver
// is never modified, so sibling subtrees cannot see each other's names.
func (p scopePath) with(descriptors []model.Descriptor) scopePath {
	out := make(scopePath, len(p), len(p)+len(descriptors))
	copy(out, p)
	for _, d := range descriptors {
		out = append(out, d.Name)
	}
	return out
}

// qualifier returns the dot-joined path, or nil for an empty path.
func (p scopePath) qualifier() *string {
	if len(p) == 0 {
		return nil
	}
	s := strings.Join(p, ".")
	return &s
}

func joinNames(descriptors []model.Descriptor) string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return strings.Join(names, ".")
}
